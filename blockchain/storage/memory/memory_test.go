package memory

import (
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/syncpoint-network/syncpoint/blockchain/storage"
)

func TestStorage(t *testing.T) {
	t.Parallel()

	f := func(t *testing.T) (storage.Storage, func()) {
		t.Helper()

		s, _ := NewMemoryStorage(hclog.NewNullLogger())

		return s, func() {}
	}

	storage.TestStorage(t, f)
}
