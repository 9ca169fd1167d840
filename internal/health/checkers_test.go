package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthrepublic/republic/internal/config"
	"github.com/healthrepublic/republic/internal/tokenstore"
)

func TestConfigChecker(t *testing.T) {
	paths := config.Paths{Dir: t.TempDir()}
	cfg := config.Default(paths)

	r := NewConfigChecker(cfg, paths.ConfigFile()).Check(context.Background())
	assert.Equal(t, StatusHealthy, r.Status)
	assert.Contains(t, r.Message, "built-in defaults")

	require.NoError(t, config.Save(paths.ConfigFile(), cfg))
	r = NewConfigChecker(cfg, paths.ConfigFile()).Check(context.Background())
	assert.Equal(t, paths.ConfigFile(), r.Details["file"])

	cfg.APIURL = ""
	r = NewConfigChecker(cfg, paths.ConfigFile()).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, r.Status)
}

func TestBackendChecker(t *testing.T) {
	ok := NewBackendChecker("http://api.test", func(context.Context) error { return nil })
	assert.Equal(t, StatusHealthy, ok.Check(context.Background()).Status)

	down := NewBackendChecker("http://api.test", func(context.Context) error { return errors.New("connection refused") })
	r := down.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, r.Status)
	assert.Equal(t, "connection refused", r.Details["error"])

	slow := NewBackendChecker("http://api.test", func(context.Context) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	slow.slow = time.Millisecond
	assert.Equal(t, StatusDegraded, slow.Check(context.Background()).Status)
}

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	s, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestSessionChecker(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	check := func(tokens tokenstore.Tokens) *Result {
		c := NewSessionChecker(tokenstore.NewMemory(tokens))
		c.now = func() time.Time { return now }
		return c.Check(context.Background())
	}

	assert.Equal(t, StatusDegraded, check(tokenstore.Tokens{}).Status)

	r := check(tokenstore.Tokens{Access: token(t, now.Add(time.Hour)), Refresh: token(t, now.Add(24*time.Hour))})
	assert.Equal(t, StatusHealthy, r.Status)
	assert.Equal(t, "signed in", r.Message)
	assert.Contains(t, r.Details, "access_expires_at")

	r = check(tokenstore.Tokens{Access: token(t, now.Add(-time.Minute)), Refresh: token(t, now.Add(time.Hour))})
	assert.Equal(t, StatusHealthy, r.Status)
	assert.Contains(t, r.Message, "refreshed")

	r = check(tokenstore.Tokens{Access: token(t, now.Add(-time.Hour)), Refresh: token(t, now.Add(-time.Minute))})
	assert.Equal(t, StatusDegraded, r.Status)

	r = check(tokenstore.Tokens{Access: "opaque"})
	assert.Equal(t, StatusHealthy, r.Status)
}

func TestSessionCheckerBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	store, err := tokenstore.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	assert.Equal(t, StatusDegraded, NewSessionChecker(store).Check(context.Background()).Status)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
