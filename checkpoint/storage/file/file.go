package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/syncpoint-network/syncpoint/checkpoint/storage"
	"github.com/syncpoint-network/syncpoint/helper/common"
)

const (
	// DirName is the directory under the data dir holding the checkpoint files
	DirName = "sync_checkpoint"

	newPrefix  = "new_"
	currPrefix = "curr_"
)

// Factory creates a file backend under <dataDir>/sync_checkpoint
func Factory(dataDir string, logger hclog.Logger) (storage.Backend, error) {
	return NewFileBackend(filepath.Join(dataDir, DirName), logger), nil
}

// FileBackend keeps every record in a curr_<key> file. A write goes to new_<key>
// which is then renamed onto curr_<key>. Writes are not flushed to disk,
// a crash may lose the latest record but never leaves a partial one
type FileBackend struct {
	dir    string
	logger hclog.Logger
}

// NewFileBackend creates the backend. The directory is created on the first write
func NewFileBackend(dir string, logger hclog.Logger) *FileBackend {
	return &FileBackend{
		dir:    dir,
		logger: logger.Named("checkpoint-file"),
	}
}

// Dir returns the checkpoint directory
func (f *FileBackend) Dir() string {
	return f.dir
}

func (f *FileBackend) Read(key storage.Key) ([]byte, error) {
	data, err := os.ReadFile(f.currPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return data, nil
}

func (f *FileBackend) Write(key storage.Key, data []byte) error {
	if !common.DirectoryExists(f.dir) {
		if err := os.Mkdir(f.dir, 0755); err != nil {
			return fmt.Errorf("could not create %s dir: %w", f.dir, err)
		}
	}

	if err := common.ReplaceFile(f.newPath(key), f.currPath(key), data, 0600); err != nil {
		return err
	}

	f.logger.Trace("record written", "key", key, "size", len(data))

	return nil
}

func (f *FileBackend) Close() error {
	return nil
}

func (f *FileBackend) newPath(key storage.Key) string {
	return filepath.Join(f.dir, newPrefix+string(key))
}

func (f *FileBackend) currPath(key storage.Key) string {
	return filepath.Join(f.dir, currPrefix+string(key))
}
