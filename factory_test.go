package stratadump_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/AndrewDonelson/stratadump"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOperationsFactory_Encrypted(t *testing.T) {
	key := testKey(20)
	f, err := stratadump.NewOperationsFactory(stratadump.Config{SecretKey: key})
	require.NoError(t, err)
	require.IsType(t, &stratadump.EncryptedOperationsFactory{}, f)

	// The factory keeps its own copy of the key.
	original := append(stratadump.SecretKey(nil), key...)
	path := filepath.Join(t.TempDir(), "dump")
	w, err := f.CreateWriter(path)
	require.NoError(t, err)
	for i := range key {
		key[i] = 0
	}
	require.NoError(t, stratadump.Write(w, "hello"))
	require.NoError(t, w.Finish())

	r, err := stratadump.NewEncryptedReader(path, original)
	require.NoError(t, err)
	s, err := stratadump.Read[string](r)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
	require.NoError(t, r.Finish())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, stratadump.DefaultFilePerm, info.Mode().Perm())
}

func TestNewOperationsFactory_Plain(t *testing.T) {
	f, err := stratadump.NewOperationsFactory(stratadump.Config{FilePerm: 0o644})
	require.NoError(t, err)
	assert.IsType(t, &stratadump.FileOperationsFactory{}, f)
}

func TestNewOperationsFactory_Invalid(t *testing.T) {
	_, err := stratadump.NewOperationsFactory(stratadump.Config{SecretKey: stratadump.SecretKey{1, 2}})
	assert.ErrorIs(t, err, stratadump.ErrInvalidKey)

	_, err = stratadump.NewOperationsFactory(stratadump.Config{FilePerm: os.ModeDir | 0o700})
	assert.ErrorIs(t, err, stratadump.ErrInvalidConfig)

	_, err = stratadump.NewOperationsFactory(stratadump.Config{MinPumpSize: -1})
	assert.ErrorIs(t, err, stratadump.ErrInvalidConfig)
}

func TestEncryptedFactory_ConcurrentShards(t *testing.T) {
	f, err := stratadump.NewEncryptedOperationsFactory(testKey(21), 0o600)
	require.NoError(t, err)
	dir := t.TempDir()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(shard int) {
			defer wg.Done()
			path := filepath.Join(dir, fmt.Sprintf("shard-%d", shard))
			w, err := f.CreateWriter(path)
			if err != nil {
				errs <- err
				return
			}
			if err := stratadump.WriteSlice(w, sampleRecords(shard*10)); err != nil {
				errs <- err
				return
			}
			if err := w.Finish(); err != nil {
				errs <- err
				return
			}
			r, err := f.CreateReader(path)
			if err != nil {
				errs <- err
				return
			}
			got, err := loadRecords(r)
			if err != nil {
				errs <- err
				return
			}
			if len(got) != shard*10 {
				errs <- fmt.Errorf("shard %d: got %d records", shard, len(got))
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestSecretKey_NeverPrints(t *testing.T) {
	key := testKey(22)
	assert.Equal(t, "[redacted]", fmt.Sprint(key))
	assert.Equal(t, "[redacted] [redacted]", fmt.Sprintf("%v %s", key, key))
	assert.NotContains(t, fmt.Sprintf("%#v", key), "22")
}

func TestGenerateSecretKey(t *testing.T) {
	a, err := stratadump.GenerateSecretKey()
	require.NoError(t, err)
	b, err := stratadump.GenerateSecretKey()
	require.NoError(t, err)
	assert.NoError(t, a.Validate())
	assert.NotEqual(t, []byte(a), []byte(b))
}
