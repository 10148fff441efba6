package syncer

import (
	"context"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"

	"github.com/syncpoint-network/syncpoint/checkpoint"
	"github.com/syncpoint-network/syncpoint/network/event"
	"github.com/syncpoint-network/syncpoint/types"
)

// Network is the networking server the syncer talks through
type Network interface {
	// Peers returns the connected peers
	Peers() []peer.ID
	// IsConnected checks if the peer is connected
	IsConnected(peer.ID) bool
	// NewStream opens a stream of the protocol to the peer
	NewStream(ctx context.Context, proto protocol.ID, id peer.ID) (network.Stream, error)
	// SetStreamHandler registers the handler of inbound streams
	SetStreamHandler(proto protocol.ID, handler network.StreamHandler)
	// ProtocolID scopes the protocol to the network
	ProtocolID(proto string) protocol.ID
	// BanPeer disconnects the peer and keeps it out
	BanPeer(id peer.ID, reason string)
	// Subscribe starts a peer event subscription
	Subscribe(ctx context.Context, handler func(*event.PeerEvent)) error
}

// Blockchain is the block index the headers are written to
type Blockchain interface {
	Tip() *types.Header
	GetHeader(hash types.Hash) (*types.Header, bool)
	Locator() []types.Hash
	HeadersAfter(locator []types.Hash, max int) []*types.Header
	WriteHeaders(headers []*types.Header) error
}

// Verifier checks a header against its parent before it is written
type Verifier interface {
	VerifyHeader(parent, header *types.Header) error
}

// Checkpoints is the synchronized checkpoint state
type Checkpoints interface {
	ProcessMessage(from checkpoint.PeerID, msg *checkpoint.Message) (checkpoint.Outcome, error)
	AcceptPending() (bool, error)
	CurrentMessage() *checkpoint.Message
	Relay() *checkpoint.Relay
}
