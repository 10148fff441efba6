package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/types"
)

type PlaceholderStorage func(t *testing.T) (Storage, func())

var (
	hash1 = types.StringToHash("1")
	hash2 = types.StringToHash("2")
)

// TestStorage tests a set of tests on a storage
func TestStorage(t *testing.T, m PlaceholderStorage) {
	t.Helper()

	t.Run("testCanonicalChain", func(t *testing.T) {
		testCanonicalChain(t, m)
	})
	t.Run("testHead", func(t *testing.T) {
		testHead(t, m)
	})
	t.Run("testForks", func(t *testing.T) {
		testForks(t, m)
	})
	t.Run("testHeader", func(t *testing.T) {
		testHeader(t, m)
	})
	t.Run("testFailed", func(t *testing.T) {
		testFailed(t, m)
	})
}

func testCanonicalChain(t *testing.T, m PlaceholderStorage) {
	t.Helper()

	s, closeFn := m(t)
	defer closeFn()

	_, ok := s.ReadCanonicalHash(1)
	assert.False(t, ok)

	for i, hash := range []types.Hash{hash1, hash2, hash1} {
		require.NoError(t, s.WriteCanonicalHash(uint64(i%2), hash))

		found, ok := s.ReadCanonicalHash(uint64(i % 2))
		require.True(t, ok)
		assert.Equal(t, hash, found)
	}
}

func testHead(t *testing.T, m PlaceholderStorage) {
	t.Helper()

	s, closeFn := m(t)
	defer closeFn()

	_, ok := s.ReadHeadHash()
	assert.False(t, ok)

	for _, hash := range []types.Hash{hash1, hash2} {
		require.NoError(t, s.WriteHeadHash(hash))

		found, ok := s.ReadHeadHash()
		require.True(t, ok)
		assert.Equal(t, hash, found)
	}
}

func testForks(t *testing.T, m PlaceholderStorage) {
	t.Helper()

	s, closeFn := m(t)
	defer closeFn()

	forks, err := s.ReadForks()
	require.NoError(t, err)
	assert.Empty(t, forks)

	cases := [][]types.Hash{
		{hash1, hash2},
		{hash1},
		{},
	}

	for _, c := range cases {
		require.NoError(t, s.WriteForks(c))

		forks, err := s.ReadForks()
		require.NoError(t, err)
		assert.Equal(t, c, forks)
	}
}

func testHeader(t *testing.T, m PlaceholderStorage) {
	t.Helper()

	s, closeFn := m(t)
	defer closeFn()

	_, err := s.ReadHeader(hash1)
	require.ErrorIs(t, err, ErrNotFound)

	header := &types.Header{
		Hash:       hash2,
		ParentHash: hash1,
		Number:     5,
		Timestamp:  10,
	}

	require.NoError(t, s.WriteHeader(header))

	found, err := s.ReadHeader(hash2)
	require.NoError(t, err)
	assert.Equal(t, header, found)
}

func testFailed(t *testing.T, m PlaceholderStorage) {
	t.Helper()

	s, closeFn := m(t)
	defer closeFn()

	assert.False(t, s.IsFailed(hash1))

	require.NoError(t, s.WriteFailed(hash1))

	assert.True(t, s.IsFailed(hash1))
	assert.False(t, s.IsFailed(hash2))
}
