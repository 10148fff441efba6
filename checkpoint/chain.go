package checkpoint

import (
	"time"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/syncpoint-network/syncpoint/types"
)

// ChainIndex is the block index of the chain-state engine. The checkpoint logic only
// keeps hashes and resolves them on every use
type ChainIndex interface {
	// GetHeader returns the index entry of a block
	GetHeader(hash types.Hash) (*types.Header, bool)

	// GenesisHash returns the hash of the first block
	GenesisHash() types.Hash

	// IsOnActiveChain returns true if the block is part of the best chain
	IsOnActiveChain(hash types.Hash) bool

	// ActivateBestChain makes the chain ending in the block the best chain
	ActivateBestChain(hash types.Hash) error

	// InvalidateBlock marks the block and its descendants as failed
	InvalidateBlock(hash types.Hash) error

	// IsFailed returns true if the block is marked as failed
	IsFailed(hash types.Hash) bool

	// Tip returns the head of the best chain
	Tip() *types.Header

	// HardcodedCheckpoints returns the built-in checkpoints, the latest last
	HardcodedCheckpoints() []types.Hash

	// Locator returns the block locator of the best chain, used to request headers
	Locator() []types.Hash

	// Lock and Unlock guard the engine state. Taken before the checkpoint lock
	Lock()
	Unlock()
}

// PeerID identifies a connected peer
type PeerID string

// Peer is a connected node that checkpoints are relayed to
type Peer interface {
	ID() PeerID
	Connected() bool
	Send(msg *Message) error
	RequestHeaders(locator []types.Hash) error
}

// PeerBroadcaster gives access to the connected peers
type PeerBroadcaster interface {
	Peers() []Peer
	GetPeer(id PeerID) (Peer, bool)
}

// BanClearer lifts all peer bans
type BanClearer interface {
	ClearBans()
}

// KeyStore looks up the private key of the authority public key
type KeyStore interface {
	GetAuthorityKey(pubKeyHex string) (*btcec.PrivateKey, error)
}

// Clock is the time source for staleness checks
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
