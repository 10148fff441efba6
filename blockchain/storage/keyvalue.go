package storage

import (
	"encoding/binary"

	"github.com/hashicorp/go-hclog"
	"github.com/umbracle/fastrlp"

	"github.com/syncpoint-network/syncpoint/types"
)

// prefix

var (
	// HEADER is the header prefix
	HEADER = []byte("h")

	// HEAD is the chain head prefix
	HEAD = []byte("o")

	// FORK is the entry to store forks
	FORK = []byte("f")

	// CANONICAL is the prefix for the canonical chain numbers
	CANONICAL = []byte("c")

	// FAILED is the prefix for blocks marked as invalid
	FAILED = []byte("x")
)

// sub-prefix

var (
	HASH  = []byte("hash")
	EMPTY = []byte("empty")
)

// KV is a key value storage interface
type KV interface {
	Close() error
	Set(p []byte, v []byte) error
	Get(p []byte) ([]byte, bool, error)
}

// KeyValueStorage is a generic storage for kv databases
type KeyValueStorage struct {
	logger hclog.Logger
	db     KV
}

func NewKeyValueStorage(logger hclog.Logger, db KV) Storage {
	return &KeyValueStorage{logger: logger, db: db}
}

func (s *KeyValueStorage) encodeUint(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b[:], n)

	return b[:]
}

// -- canonical hash --

// ReadCanonicalHash gets the hash from the number of the canonical chain
func (s *KeyValueStorage) ReadCanonicalHash(n uint64) (types.Hash, bool) {
	data, ok := s.get(CANONICAL, s.encodeUint(n))
	if !ok {
		return types.Hash{}, false
	}

	return types.BytesToHash(data), true
}

// WriteCanonicalHash writes a hash for a number block in the canonical chain
func (s *KeyValueStorage) WriteCanonicalHash(n uint64, hash types.Hash) error {
	return s.set(CANONICAL, s.encodeUint(n), hash.Bytes())
}

// -- head --

// ReadHeadHash returns the hash of the head
func (s *KeyValueStorage) ReadHeadHash() (types.Hash, bool) {
	data, ok := s.get(HEAD, HASH)
	if !ok {
		return types.Hash{}, false
	}

	return types.BytesToHash(data), true
}

// WriteHeadHash writes the hash of the head
func (s *KeyValueStorage) WriteHeadHash(h types.Hash) error {
	return s.set(HEAD, HASH, h.Bytes())
}

// -- fork --

// WriteForks writes the current forks
func (s *KeyValueStorage) WriteForks(forks []types.Hash) error {
	ff := Forks(forks)

	return s.set(FORK, EMPTY, ff.MarshalRLPTo(nil))
}

// ReadForks read the current forks
func (s *KeyValueStorage) ReadForks() ([]types.Hash, error) {
	data, ok := s.get(FORK, EMPTY)
	if !ok {
		return nil, nil
	}

	forks := Forks{}
	if err := forks.UnmarshalRLP(data); err != nil {
		return nil, err
	}

	return forks, nil
}

// -- header --

// WriteHeader writes the header
func (s *KeyValueStorage) WriteHeader(h *types.Header) error {
	return s.set(HEADER, h.Hash.Bytes(), h.MarshalRLPTo(nil))
}

// ReadHeader reads the header
func (s *KeyValueStorage) ReadHeader(hash types.Hash) (*types.Header, error) {
	data, ok := s.get(HEADER, hash.Bytes())
	if !ok {
		return nil, ErrNotFound
	}

	header := &types.Header{}
	if err := header.UnmarshalRLP(data); err != nil {
		return nil, err
	}

	return header, nil
}

// -- failed --

// WriteFailed marks the block as invalid
func (s *KeyValueStorage) WriteFailed(hash types.Hash) error {
	ar := &fastrlp.Arena{}

	return s.set(FAILED, hash.Bytes(), ar.NewTrue().MarshalTo(nil))
}

// IsFailed returns true if the block was marked as invalid
func (s *KeyValueStorage) IsFailed(hash types.Hash) bool {
	_, ok := s.get(FAILED, hash.Bytes())

	return ok
}

// Prefix, Key, Value
func (s *KeyValueStorage) set(prefix []byte, key []byte, value []byte) error {
	k := make([]byte, 0, len(prefix)+len(key))
	k = append(append(k, prefix...), key...)

	return s.db.Set(k, value)
}

func (s *KeyValueStorage) get(prefix []byte, key []byte) ([]byte, bool) {
	k := make([]byte, 0, len(prefix)+len(key))
	k = append(append(k, prefix...), key...)

	data, ok, err := s.db.Get(k)
	if err != nil {
		s.logger.Error("failed to read from storage", "err", err)

		return nil, false
	}

	return data, ok
}

// Close closes the connection with the db
func (s *KeyValueStorage) Close() error {
	return s.db.Close()
}
