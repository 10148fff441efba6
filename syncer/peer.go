package syncer

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/syncpoint-network/syncpoint/checkpoint"
	"github.com/syncpoint-network/syncpoint/network"
	"github.com/syncpoint-network/syncpoint/network/common"
	"github.com/syncpoint-network/syncpoint/types"
)

// syncPeer is a connected peer as seen by the checkpoint relay
type syncPeer struct {
	id peer.ID
	s  *Syncer
}

func toPeerID(id peer.ID) checkpoint.PeerID {
	return checkpoint.PeerID(id.String())
}

func (p *syncPeer) ID() checkpoint.PeerID {
	return toPeerID(p.id)
}

func (p *syncPeer) Connected() bool {
	return p.s.network.IsConnected(p.id)
}

// Send writes the checkpoint message on a new checkpoint stream
func (p *syncPeer) Send(msg *checkpoint.Message) error {
	data, err := msg.MarshalBinary()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.s.requestTimeout)
	defer cancel()

	stream, err := p.s.network.NewStream(ctx, p.s.network.ProtocolID(common.CheckpointProto), p.id)
	if err != nil {
		return err
	}

	defer stream.Close()

	_ = stream.SetDeadline(time.Now().Add(p.s.requestTimeout))

	return network.WriteFrame(stream, data)
}

// RequestHeaders starts a header download from the peer
func (p *syncPeer) RequestHeaders(locator []types.Hash) error {
	go p.s.syncWithPeer(p.id, locator)

	return nil
}
