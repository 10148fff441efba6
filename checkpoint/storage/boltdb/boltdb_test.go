package boltdb

import (
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

func TestBoltDBBackend_Reopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), dbName)

	b, err := NewBoltDBBackend(path, hclog.NewNullLogger())
	require.NoError(t, err)
	require.NoError(t, b.Write(storage.KeyCheckpoint, []byte("persisted")))
	require.NoError(t, b.Close())

	b, err = NewBoltDBBackend(path, hclog.NewNullLogger())
	require.NoError(t, err)

	defer b.Close()

	data, err := b.Read(storage.KeyCheckpoint)
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), data)
}
