package storage

import (
	"errors"

	"github.com/hashicorp/go-hclog"

	"github.com/syncpoint-network/syncpoint/types"
)

// ErrNotFound is returned when an entry is not present
var ErrNotFound = errors.New("not found")

// Storage is the block index storage
type Storage interface {
	ReadCanonicalHash(n uint64) (types.Hash, bool)
	WriteCanonicalHash(n uint64, hash types.Hash) error

	ReadHeadHash() (types.Hash, bool)
	WriteHeadHash(h types.Hash) error

	WriteForks(forks []types.Hash) error
	ReadForks() ([]types.Hash, error)

	WriteHeader(h *types.Header) error
	ReadHeader(hash types.Hash) (*types.Header, error)

	WriteFailed(hash types.Hash) error
	IsFailed(hash types.Hash) bool

	Close() error
}

// Factory is a factory method to create a blockchain storage
type Factory func(path string, logger hclog.Logger) (Storage, error)
