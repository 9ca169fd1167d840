package tokenstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/healthrepublic/republic/internal/errors"
)

func openTemp(t *testing.T) (*Bolt, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "session.db")
	b, err := Open(path)
	require.NoError(t, err)
	return b, path
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory(Tokens{}) },
		"bolt": func(t *testing.T) Store {
			b, _ := openTemp(t)
			t.Cleanup(func() { b.Close() })
			return b
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			s := open(t)

			got, err := s.Load()
			require.NoError(t, err)
			assert.True(t, got.Empty())

			want := Tokens{Access: "access-1", Refresh: "refresh-1"}
			require.NoError(t, s.Save(want))
			got, err = s.Load()
			require.NoError(t, err)
			assert.Equal(t, want, got)

			require.NoError(t, s.Save(Tokens{Access: "access-2"}))
			got, err = s.Load()
			require.NoError(t, err)
			assert.Equal(t, Tokens{Access: "access-2"}, got)

			require.NoError(t, s.Clear())
			got, err = s.Load()
			require.NoError(t, err)
			assert.Equal(t, Tokens{}, got)
		})
	}
}

func TestBoltPersistsAcrossOpen(t *testing.T) {
	b, path := openTemp(t)
	want := Tokens{Access: "a", Refresh: "r"}
	require.NoError(t, b.Save(want))
	require.NoError(t, b.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, path, reopened.Path())

	got, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBoltLockedDatabase(t *testing.T) {
	b, path := openTemp(t)
	defer b.Close()

	_, err := Open(path)
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeTokenStore, rerrors.CodeOf(err))
}

func TestBoltClosedDatabase(t *testing.T) {
	b, _ := openTemp(t)
	require.NoError(t, b.Close())

	err := b.Save(Tokens{Access: "a"})
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeTokenStore, rerrors.CodeOf(err))
}

func TestMemoryCountsSaves(t *testing.T) {
	m := NewMemory(Tokens{Access: "seed"})
	got, _ := m.Load()
	assert.Equal(t, "seed", got.Access)

	_ = m.Save(Tokens{Access: "x"})
	_ = m.Save(Tokens{Access: "y"})
	assert.Equal(t, 2, m.Saves())
}
