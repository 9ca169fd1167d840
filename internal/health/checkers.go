package health

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/healthrepublic/republic/internal/config"
	"github.com/healthrepublic/republic/internal/tokenstore"
)

// ConfigChecker validates the effective configuration and reports whether
// a config file is present.
type ConfigChecker struct {
	cfg  *config.Config
	path string
}

func NewConfigChecker(cfg *config.Config, path string) *ConfigChecker {
	return &ConfigChecker{cfg: cfg, path: path}
}

func (c *ConfigChecker) Name() string { return "config" }

func (c *ConfigChecker) Check(ctx context.Context) *Result {
	if err := c.cfg.Validate(); err != nil {
		return Unhealthy("configuration is invalid").WithDetail("error", err.Error())
	}

	r := Healthy("configuration is valid").
		WithDetail("api_url", c.cfg.APIURL).
		WithDetail("poll_interval", c.cfg.PollInterval.String())
	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		r.Message = "using built-in defaults; no config file"
	} else {
		r.WithDetail("file", c.path)
	}
	return r
}

// SlowBackend is the round trip above which the backend is degraded.
const SlowBackend = 2 * time.Second

// BackendChecker calls a public endpoint to see whether the backend answers.
type BackendChecker struct {
	url  string
	ping func(context.Context) error
	slow time.Duration
}

// NewBackendChecker reports on the backend at url. ping performs one
// unauthenticated request.
func NewBackendChecker(url string, ping func(context.Context) error) *BackendChecker {
	return &BackendChecker{url: url, ping: ping, slow: SlowBackend}
}

func (c *BackendChecker) Name() string { return "backend" }

func (c *BackendChecker) Check(ctx context.Context) *Result {
	start := time.Now()
	err := c.ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return Unhealthy("backend request failed").
			WithDetail("url", c.url).
			WithDetail("error", err.Error()).
			WithLatency(latency)
	}
	if latency > c.slow {
		return Degraded("backend answered slowly").WithDetail("url", c.url).WithLatency(latency)
	}
	return Healthy("backend answered").WithDetail("url", c.url).WithLatency(latency)
}

// SessionChecker inspects the stored tokens without contacting the backend.
type SessionChecker struct {
	store tokenstore.Store
	now   func() time.Time
}

func NewSessionChecker(store tokenstore.Store) *SessionChecker {
	return &SessionChecker{store: store, now: time.Now}
}

func (c *SessionChecker) Name() string { return "session" }

func (c *SessionChecker) Check(ctx context.Context) *Result {
	t, err := c.store.Load()
	if err != nil {
		return Unhealthy("session database is unreadable").WithDetail("error", err.Error())
	}
	if t.Empty() {
		return Degraded("not signed in")
	}

	now := c.now()
	access, accessOK := expiry(t.Access)
	refresh, refreshOK := expiry(t.Refresh)

	switch {
	case refreshOK && now.After(refresh):
		return Degraded("session has expired; sign in again").
			WithDetail("refresh_expired_at", refresh.Format(time.RFC3339))
	case accessOK && now.After(access):
		r := Healthy("access token expired; it will be refreshed on next use")
		if refreshOK {
			r.WithDetail("refresh_expires_at", refresh.Format(time.RFC3339))
		}
		return r
	}

	r := Healthy("signed in")
	if accessOK {
		r.WithDetail("access_expires_at", access.Format(time.RFC3339))
	}
	return r
}

// expiry reads the exp claim without verifying the signature.
func expiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
