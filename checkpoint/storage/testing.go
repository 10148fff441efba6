package storage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type PlaceholderBackend func(t *testing.T) (Backend, func())

// TestBackend runs the common test set on a backend
func TestBackend(t *testing.T, m PlaceholderBackend) {
	t.Helper()

	t.Run("testNotFound", func(t *testing.T) {
		testNotFound(t, m)
	})
	t.Run("testReadWrite", func(t *testing.T) {
		testReadWrite(t, m)
	})
	t.Run("testOverwrite", func(t *testing.T) {
		testOverwrite(t, m)
	})
	t.Run("testKeysIndependent", func(t *testing.T) {
		testKeysIndependent(t, m)
	})
}

func testNotFound(t *testing.T, m PlaceholderBackend) {
	t.Helper()

	s, closeFn := m(t)
	defer closeFn()

	_, err := s.Read(KeyCheckpoint)
	require.ErrorIs(t, err, ErrNotFound)
}

func testReadWrite(t *testing.T, m PlaceholderBackend) {
	t.Helper()

	s, closeFn := m(t)
	defer closeFn()

	data := []byte{0x1, 0x2, 0x3}
	require.NoError(t, s.Write(KeyCheckpoint, data))

	// the backend must not retain the caller's buffer
	data[0] = 0xff

	found, err := s.Read(KeyCheckpoint)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1, 0x2, 0x3}, found)
}

func testOverwrite(t *testing.T, m PlaceholderBackend) {
	t.Helper()

	s, closeFn := m(t)
	defer closeFn()

	for i := 0; i < 5; i++ {
		data := bytes.Repeat([]byte{byte(i)}, 10-i)
		require.NoError(t, s.Write(KeyCheckpoint, data))

		found, err := s.Read(KeyCheckpoint)
		require.NoError(t, err)
		assert.Equal(t, data, found)
	}
}

func testKeysIndependent(t *testing.T, m PlaceholderBackend) {
	t.Helper()

	s, closeFn := m(t)
	defer closeFn()

	require.NoError(t, s.Write(KeyPubKeys, []byte("pub")))

	_, err := s.Read(KeyCheckpoint)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write(KeyCheckpoint, []byte("chk")))

	pub, err := s.Read(KeyPubKeys)
	require.NoError(t, err)
	assert.Equal(t, []byte("pub"), pub)
}
