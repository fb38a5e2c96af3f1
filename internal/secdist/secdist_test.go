package secdist_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/AndrewDonelson/stratadump"
	"github.com/AndrewDonelson/stratadump/internal/secdist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `{
  "postgresql_settings": {"databases": {}},
  "CACHE_DUMP_SECRET_KEYS": {
    "users": "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8=",
    "short": "AAEC",
    "garbage": "***"
  }
}`

func TestSecretKey(t *testing.T) {
	s, err := secdist.Parse([]byte(doc))
	require.NoError(t, err)

	key, err := s.SecretKey("users")
	require.NoError(t, err)
	want := make([]byte, 32)
	for i := range want {
		want[i] = byte(i)
	}
	assert.True(t, bytes.Equal(want, key))
	assert.Equal(t, []string{"garbage", "short", "users"}, s.Caches())
}

func TestSecretKey_Errors(t *testing.T) {
	s, err := secdist.Parse([]byte(doc))
	require.NoError(t, err)

	_, err = s.SecretKey("orders")
	assert.ErrorIs(t, err, secdist.ErrNoKey)
	_, err = s.SecretKey("short")
	assert.ErrorIs(t, err, secdist.ErrBadKey)
	_, err = s.SecretKey("garbage")
	assert.ErrorIs(t, err, secdist.ErrBadKey)
}

func TestParse_Malformed(t *testing.T) {
	_, err := secdist.Parse([]byte(`{"CACHE_DUMP_SECRET_KEYS": [1, 2]}`))
	assert.Error(t, err)
	_, err = secdist.Parse([]byte(`not json`))
	assert.Error(t, err)

	s, err := secdist.Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, s.Caches())
}

func TestLoad_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secdist.json")

	_, err := secdist.Load(path, false)
	assert.ErrorIs(t, err, os.ErrNotExist)

	s, err := secdist.Load(path, true)
	require.NoError(t, err)
	assert.Empty(t, s.Caches())
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secdist.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := secdist.Load(path, false)
	require.NoError(t, err)
	key, err := stratadump.GenerateSecretKey()
	require.NoError(t, err)
	require.NoError(t, s.Put("sessions", key))
	require.NoError(t, s.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "postgresql_settings", "other sections survive")

	reloaded, err := secdist.Load(path, false)
	require.NoError(t, err)
	got, err := reloaded.SecretKey("sessions")
	require.NoError(t, err)
	assert.True(t, bytes.Equal(key, got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestPut_RejectsInvalidKey(t *testing.T) {
	err := secdist.New().Put("c", stratadump.SecretKey("short"))
	assert.ErrorIs(t, err, stratadump.ErrInvalidKey)
}
