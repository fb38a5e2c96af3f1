package cli_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AndrewDonelson/stratadump"
	"github.com/AndrewDonelson/stratadump/internal/cli"
	"github.com/AndrewDonelson/stratadump/internal/dumper"
	"github.com/AndrewDonelson/stratadump/internal/secdist"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cli.NewRoot()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

type workspace struct {
	dir     string
	secdist string
}

// newWorkspace returns a dump dir and a secdist document holding a key for
// the "users" cache.
func newWorkspace(t *testing.T) workspace {
	t.Helper()
	base := t.TempDir()
	ws := workspace{dir: filepath.Join(base, "dumps"), secdist: filepath.Join(base, "secdist.json")}
	_, err := run(t, "keygen", "--write", "--cache", "users", "--secdist", ws.secdist)
	require.NoError(t, err)
	return ws
}

func (ws workspace) args(extra ...string) []string {
	return append(extra, "--dir", ws.dir, "--secdist", ws.secdist, "--cache", "users")
}

func (ws workspace) factory(t *testing.T) stratadump.OperationsFactory {
	t.Helper()
	doc, err := secdist.Load(ws.secdist, false)
	require.NoError(t, err)
	key, err := doc.SecretKey("users")
	require.NoError(t, err)
	f, err := stratadump.NewEncryptedOperationsFactory(key, 0o600)
	require.NoError(t, err)
	return f
}

type words []string

func (w words) EncodeDump(wr stratadump.Writer) error { return stratadump.WriteSlice(wr, w) }

func (ws workspace) dump(t *testing.T, version uint64, at time.Time) dumper.Info {
	t.Helper()
	d, err := dumper.New(dumper.Options{
		Dir:           ws.dir,
		CacheName:     "users",
		FormatVersion: version,
		Factory:       ws.factory(t),
		MaxCount:      10,
		Clock:         fixedClock(at),
	})
	require.NoError(t, err)
	info, err := d.Dump(context.Background(), words{"ann", "ben", "cid"})
	require.NoError(t, err)
	return info
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestKeygen_Print(t *testing.T) {
	out, err := run(t, "keygen")
	require.NoError(t, err)
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Len(t, key, stratadump.KeySize)
}

func TestKeygen_Write(t *testing.T) {
	ws := newWorkspace(t)
	doc, err := secdist.Load(ws.secdist, false)
	require.NoError(t, err)
	first, err := doc.SecretKey("users")
	require.NoError(t, err)

	_, err = run(t, "keygen", "--write", "--cache", "users", "--secdist", ws.secdist)
	assert.ErrorContains(t, err, "--force")

	out, err := run(t, "keygen", "--write", "--force", "--cache", "users", "--secdist", ws.secdist)
	require.NoError(t, err)
	assert.Contains(t, out, `key for "users" written`)
	doc, err = secdist.Load(ws.secdist, false)
	require.NoError(t, err)
	second, err := doc.SecretKey("users")
	require.NoError(t, err)
	assert.False(t, bytes.Equal(first, second))
}

func TestVerify(t *testing.T) {
	ws := newWorkspace(t)
	info := ws.dump(t, 1, time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC))

	out, err := run(t, ws.args("verify", info.Path)...)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: "+info.Path)
	assert.Contains(t, out, "payload bytes")

	data, err := os.ReadFile(info.Path)
	require.NoError(t, err)
	data[stratadump.IVSize+1] ^= 0x01
	require.NoError(t, os.WriteFile(info.Path, data, 0o600))
	_, err = run(t, ws.args("verify", info.Path)...)
	assert.ErrorIs(t, err, stratadump.ErrIntegrity)
}

func TestVerify_Errors(t *testing.T) {
	ws := newWorkspace(t)

	short := filepath.Join(t.TempDir(), "short")
	require.NoError(t, os.WriteFile(short, []byte("tiny"), 0o600))
	_, err := run(t, ws.args("verify", short)...)
	assert.ErrorIs(t, err, stratadump.ErrTruncated)

	_, err = run(t, ws.args("verify", filepath.Join(t.TempDir(), "missing"))...)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = run(t, "verify", short, "--secdist", ws.secdist, "--cache", "orders")
	assert.ErrorIs(t, err, secdist.ErrNoKey)
}

func TestVerify_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain")
	w, err := stratadump.NewFileWriter(path, 0o600)
	require.NoError(t, err)
	require.NoError(t, stratadump.WriteString(w, "hello"))
	require.NoError(t, w.Finish())

	out, err := run(t, "verify", path, "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "(6 payload bytes)")
}

func TestListAndCleanup(t *testing.T) {
	ws := newWorkspace(t)
	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	newest := ws.dump(t, 2, base.Add(time.Hour))
	ws.dump(t, 2, base.Add(30*time.Minute))
	// A dump of an older format version; dumping it through a v1 dumper
	// would clean up the v2 files.
	data, err := os.ReadFile(newest.Path)
	require.NoError(t, err)
	stale := filepath.Join(filepath.Dir(newest.Path), dumper.FileName(base, 1))
	require.NoError(t, os.WriteFile(stale, data, 0o600))

	out, err := run(t, ws.args("list", "--format-version", "2")...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "UPDATED")
	assert.Contains(t, lines[1], filepath.Base(newest.Path))
	assert.Contains(t, lines[3], "v1 (stale)")

	out, err = run(t, ws.args("cleanup", "--format-version", "2", "--max-count", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "removed 2 file(s)")

	out, err = run(t, ws.args("list", "--format-version", "2")...)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

func TestList_Empty(t *testing.T) {
	ws := newWorkspace(t)
	out, err := run(t, ws.args("list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "no dumps in")
}

func TestRedisSnapshotRestore(t *testing.T) {
	ws := newWorkspace(t)
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("sessions:a", "1"))
	require.NoError(t, mr.Set("sessions:b", "2"))
	mr.SetTTL("sessions:b", time.Hour)
	require.NoError(t, mr.Set("other:c", "3"))

	redisArgs := func(extra ...string) []string {
		return ws.args(append(extra, "--redis-addr", mr.Addr(), "--key-prefix", "sessions")...)
	}

	out, err := run(t, redisArgs("redis", "snapshot")...)
	require.NoError(t, err)
	assert.Contains(t, out, "dumped 2 keys")

	mr.FlushAll()
	out, err = run(t, redisArgs("redis", "restore")...)
	require.NoError(t, err)
	assert.Contains(t, out, "restored 2 keys")
	assert.Equal(t, []string{"sessions:a", "sessions:b"}, mr.Keys())
	assert.Equal(t, time.Hour, mr.TTL("sessions:b"))

	d, err := dumper.New(dumper.Options{Dir: ws.dir, CacheName: "users", FormatVersion: 1, Factory: ws.factory(t)})
	require.NoError(t, err)
	latest, err := d.Latest()
	require.NoError(t, err)

	mr.FlushAll()
	out, err = run(t, redisArgs("redis", "restore", "--file", latest.Path)...)
	require.NoError(t, err)
	assert.Contains(t, out, "from "+latest.Path)
	v, err := mr.Get("sessions:a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestRedisRestore_NoDump(t *testing.T) {
	ws := newWorkspace(t)
	mr := miniredis.RunT(t)
	_, err := run(t, ws.args("redis", "restore", "--redis-addr", mr.Addr())...)
	assert.ErrorIs(t, err, dumper.ErrNoDump)
}

func TestConfigFileAndEnv(t *testing.T) {
	ws := newWorkspace(t)
	cfgPath := filepath.Join(t.TempDir(), "stratadump.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("cacheName: users\nsecdistPath: "+ws.secdist+"\n"), 0o600))
	t.Setenv("STRATADUMP_DUMP_DIR", ws.dir)

	out, err := run(t, "list", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(ws.dir, "users"))
}

func TestInvalidLogLevel(t *testing.T) {
	ws := newWorkspace(t)
	_, err := run(t, ws.args("list", "--log-level", "loud")...)
	assert.ErrorContains(t, err, "--log-level")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, stratadump.Version()+"\n", out)
}
