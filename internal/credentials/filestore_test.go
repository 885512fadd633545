package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) FileStore {
	t.Helper()
	return FileStore{Path: filepath.Join(t.TempDir(), "credentials")}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := tempStore(t)

	require.NoError(t, store.Set(Service, "host-a", "pass-a"))
	require.NoError(t, store.Set(Service, "host-b", "pass-b"))

	res := store.Get(Service, "host-a")
	assert.Equal(t, StatusFound, res.Status())
	assert.Equal(t, "pass-a", res.Secret())

	assert.Equal(t, StatusNotFound, store.Get(Service, "host-c").Status())
}

func TestFileStoreSecretsNotPlaintextOnDisk(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Set(Service, "host-a", "hunter2-plaintext"))

	raw, err := os.ReadFile(store.Path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter2-plaintext")
}

func TestFileStorePermissions(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Set(Service, "host-a", "pw"))

	info, err := os.Stat(store.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(store.Path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}

func TestFileStoreDeleteIdempotent(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Set(Service, "host-a", "pw"))

	require.NoError(t, store.Delete(Service, "host-a"))
	assert.Equal(t, StatusNotFound, store.Get(Service, "host-a").Status())

	// Second delete and delete-on-missing-file are both no-ops.
	require.NoError(t, store.Delete(Service, "host-a"))
	require.NoError(t, tempStore(t).Delete(Service, "never-stored"))
}

func TestFileStoreSkipsMalformedLines(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path), 0o700))
	content := "# comment\nnot-a-valid-line\nhost-a\t!!!not-base64!!!\nhost-b\tcGFzcy1i\n"
	require.NoError(t, os.WriteFile(store.Path, []byte(content), 0o600))

	assert.Equal(t, StatusNotFound, store.Get(Service, "host-a").Status())

	res := store.Get(Service, "host-b")
	assert.Equal(t, StatusFound, res.Status())
	assert.Equal(t, "pass-b", res.Secret())
}
