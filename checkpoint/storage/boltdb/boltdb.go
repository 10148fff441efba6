package boltdb

import (
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	bolt "go.etcd.io/bbolt"

	"github.com/syncpoint-network/syncpoint/checkpoint/storage"
)

const dbName = "sync_checkpoint.db"

var bucket = []byte("syncCheckpoint")

// Factory creates a boltdb backend in the data dir
func Factory(dataDir string, logger hclog.Logger) (storage.Backend, error) {
	return NewBoltDBBackend(filepath.Join(dataDir, dbName), logger)
}

// NewBoltDBBackend opens (or creates) the database at path
func NewBoltDBBackend(path string, logger hclog.Logger) (*BoltDBBackend, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)

		return err
	})
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return &BoltDBBackend{db: db, logger: logger.Named("checkpoint-boltdb")}, nil
}

// BoltDBBackend keeps the records as curr_<key> entries of one bucket,
// every write is its own update transaction
type BoltDBBackend struct {
	db     *bolt.DB
	logger hclog.Logger
}

func (b *BoltDBBackend) Read(key storage.Key) ([]byte, error) {
	var data []byte

	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get(recordKey(key))
		if v == nil {
			return storage.ErrNotFound
		}

		// v is only valid for the lifetime of the tx, therefore copying
		data = make([]byte, len(v))
		copy(data, v)

		return nil
	})

	return data, err
}

func (b *BoltDBBackend) Write(key storage.Key, data []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(recordKey(key), data)
	})
}

func (b *BoltDBBackend) Close() error {
	return b.db.Close()
}

func recordKey(key storage.Key) []byte {
	return []byte("curr_" + string(key))
}
