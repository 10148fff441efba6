package checkpoint

import (
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"

	"github.com/syncpoint-network/syncpoint/types"
)

const (
	// DefaultRelayCacheSize bounds the number of peers whose last known checkpoint is tracked
	DefaultRelayCacheSize = 1024

	relayConcurrency = 16
)

// Relay sends checkpoints to peers, at most once per peer and checkpoint hash
type Relay struct {
	broadcaster PeerBroadcaster
	logger      hclog.Logger

	// knownLock makes the check and the reservation of a peer's hash one step
	knownLock sync.Mutex
	known     *lru.Cache // PeerID -> types.Hash
}

func NewRelay(broadcaster PeerBroadcaster, size int, logger hclog.Logger) (*Relay, error) {
	if size <= 0 {
		size = DefaultRelayCacheSize
	}

	known, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &Relay{
		broadcaster: broadcaster,
		known:       known,
		logger:      logger.Named("relay"),
	}, nil
}

// RelayTo sends the message unless the peer already knows the checkpoint.
// Returns true if the message was sent
func (r *Relay) RelayTo(peer Peer, msg *Message) bool {
	if msg == nil || msg.IsNull() || !peer.Connected() {
		return false
	}

	hash := msg.Hash()

	previous, reserved := r.reserve(peer.ID(), hash)
	if !reserved {
		return false
	}

	if err := peer.Send(msg); err != nil {
		r.logger.Debug("failed to relay checkpoint", "peer", peer.ID(), "hash", hash, "err", err)
		r.release(peer.ID(), hash, previous)

		return false
	}

	relayedCheckpointsInc()

	return true
}

// reserve records the hash as known by the peer unless it already is.
// Returns the hash the peer knew before
func (r *Relay) reserve(id PeerID, hash types.Hash) (interface{}, bool) {
	r.knownLock.Lock()
	defer r.knownLock.Unlock()

	previous, ok := r.known.Get(id)
	if ok {
		if lastHash, _ := previous.(types.Hash); lastHash == hash {
			return nil, false
		}
	}

	r.known.Add(id, hash)

	return previous, true
}

// release undoes a reservation after a failed send, so the next relay retries
func (r *Relay) release(id PeerID, hash types.Hash, previous interface{}) {
	r.knownLock.Lock()
	defer r.knownLock.Unlock()

	current, ok := r.known.Peek(id)
	if currentHash, _ := current.(types.Hash); !ok || currentHash != hash {
		return
	}

	if previous != nil {
		r.known.Add(id, previous)
	} else {
		r.known.Remove(id)
	}
}

// RelayAll relays the message to every connected peer and returns how many were sent to
func (r *Relay) RelayAll(msg *Message) int {
	if msg == nil || msg.IsNull() {
		return 0
	}

	var (
		sent int32
		g    errgroup.Group
	)

	g.SetLimit(relayConcurrency)

	for _, peer := range r.broadcaster.Peers() {
		peer := peer

		g.Go(func() error {
			if r.RelayTo(peer, msg) {
				atomic.AddInt32(&sent, 1)
			}

			return nil
		})
	}

	_ = g.Wait()

	return int(sent)
}

// Forget drops the peer state, called when the peer disconnects
func (r *Relay) Forget(id PeerID) {
	r.knownLock.Lock()
	defer r.knownLock.Unlock()

	r.known.Remove(id)
}
