package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupDataDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "data")

	require.NoError(t, SetupDataDir(dir, []string{"a", "b"}))
	assert.True(t, DirectoryExists(dir))
	assert.True(t, DirectoryExists(filepath.Join(dir, "a")))
	assert.True(t, DirectoryExists(filepath.Join(dir, "b")))

	// second call is a no-op
	require.NoError(t, SetupDataDir(dir, []string{"a"}))
}

func TestReplaceFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmp := filepath.Join(dir, "new")
	dst := filepath.Join(dir, "curr")

	require.NoError(t, ReplaceFile(tmp, dst, []byte("first"), 0600))
	require.NoError(t, ReplaceFile(tmp, dst, []byte("second"), 0600))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	assert.False(t, FileExists(tmp))
	assert.True(t, FileExists(dst))
	assert.False(t, FileExists(dir))
}

func TestReplaceFile_MissingDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "missing")

	err := ReplaceFile(filepath.Join(dir, "new"), filepath.Join(dir, "curr"), []byte{1}, 0600)
	require.Error(t, err)
}
