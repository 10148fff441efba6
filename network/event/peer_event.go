package event

import "github.com/libp2p/go-libp2p/core/peer"

type PeerEventType uint

const (
	PeerConnected       PeerEventType = iota // Emitted when a peer connected
	PeerFailedToConnect                      // Emitted when a peer failed to connect
	PeerDisconnected                         // Emitted when a peer disconnected from node
	PeerBanned                               // Emitted when a peer was banned
)

var peerEventToName = map[PeerEventType]string{
	PeerConnected:       "PeerConnected",
	PeerFailedToConnect: "PeerFailedToConnect",
	PeerDisconnected:    "PeerDisconnected",
	PeerBanned:          "PeerBanned",
}

type PeerEvent struct {
	// PeerID is the id of the peer that triggered the event
	PeerID peer.ID

	// Type is the type of the event
	Type PeerEventType
}

func (s PeerEventType) String() string {
	name, ok := peerEventToName[s]
	if !ok {
		return "unknown"
	}

	return name
}
