package storage

import (
	"errors"

	"github.com/hashicorp/go-hclog"
)

// Key is the logical name of a persisted record
type Key string

const (
	// KeyCheckpoint holds the accepted sync checkpoint
	KeyCheckpoint Key = "checkpoint"

	// KeyPubKeys holds the authority public key the checkpoint was accepted under
	KeyPubKeys Key = "pubkeys"
)

// ErrNotFound is returned when the record has never been written
var ErrNotFound = errors.New("not found")

// Backend persists whole records by logical key. A write replaces the record atomically,
// a reader observes either the previous or the new record
type Backend interface {
	Read(key Key) ([]byte, error)
	Write(key Key, data []byte) error
	Close() error
}

// Factory is a factory method to create a checkpoint backend rooted at the data dir
type Factory func(dataDir string, logger hclog.Logger) (Backend, error)
