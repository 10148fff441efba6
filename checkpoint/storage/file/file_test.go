package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/checkpoint/storage"
)

func newBackend(t *testing.T) (storage.Backend, func()) {
	t.Helper()

	s, err := Factory(t.TempDir(), hclog.NewNullLogger())
	require.NoError(t, err)

	return s, func() {
		require.NoError(t, s.Close())
	}
}

func TestBackend(t *testing.T) {
	t.Parallel()

	storage.TestBackend(t, newBackend)
}

func TestFileBackend_Layout(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	dir := filepath.Join(dataDir, DirName)

	b := NewFileBackend(dir, hclog.NewNullLogger())

	// nothing is created until the first write
	_, err := b.Read(storage.KeyCheckpoint)
	require.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoDirExists(t, dir)

	require.NoError(t, b.Write(storage.KeyCheckpoint, []byte("a")))
	require.NoError(t, b.Write(storage.KeyPubKeys, []byte("b")))

	assert.FileExists(t, filepath.Join(dir, "curr_checkpoint"))
	assert.FileExists(t, filepath.Join(dir, "curr_pubkeys"))
	assert.NoFileExists(t, filepath.Join(dir, "new_checkpoint"))
	assert.NoFileExists(t, filepath.Join(dir, "new_pubkeys"))
}

func TestFileBackend_ReadsOnlyCurrent(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), DirName)
	b := NewFileBackend(dir, hclog.NewNullLogger())

	require.NoError(t, b.Write(storage.KeyCheckpoint, []byte("current")))

	// a leftover temporary file from an interrupted write is ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new_checkpoint"), []byte("partial"), 0600))

	data, err := b.Read(storage.KeyCheckpoint)
	require.NoError(t, err)
	assert.Equal(t, []byte("current"), data)

	// and replaced by the next write
	require.NoError(t, b.Write(storage.KeyCheckpoint, []byte("next")))

	data, err = b.Read(storage.KeyCheckpoint)
	require.NoError(t, err)
	assert.Equal(t, []byte("next"), data)
}

func TestFileBackend_MissingDataDir(t *testing.T) {
	t.Parallel()

	b := NewFileBackend(filepath.Join(t.TempDir(), "missing", DirName), hclog.NewNullLogger())

	require.Error(t, b.Write(storage.KeyCheckpoint, []byte("a")))
}
