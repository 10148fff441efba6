package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	libp2pNetwork "github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/syncpoint-network/syncpoint/blockchain"
	"github.com/syncpoint-network/syncpoint/checkpoint"
	"github.com/syncpoint-network/syncpoint/network"
	"github.com/syncpoint-network/syncpoint/network/common"
	"github.com/syncpoint-network/syncpoint/network/event"
	"github.com/syncpoint-network/syncpoint/types"
)

const (
	syncerName = "syncer"

	DefaultRequestTimeout = 30 * time.Second
	DefaultSyncInterval   = 30 * time.Second

	// maxLocatorSize bounds the locator of an inbound getheaders request
	maxLocatorSize = 101
)

var (
	errInvalidRequest = errors.New("invalid request")
	errUnknownParent  = errors.New("headers do not connect to the block index")
)

// Syncer downloads headers from peers and exchanges sync checkpoints with them.
// It is the peer broadcaster of the checkpoint service
type Syncer struct {
	logger     hclog.Logger
	network    Network
	blockchain Blockchain
	verifier   Verifier

	checkpoints Checkpoints
	// checkpoints are exchanged only once the chain reached the activation point
	checkpointsEnabled atomic.Bool

	requestTimeout time.Duration
	syncInterval   time.Duration

	// peers with a header download in progress
	inflight     map[peer.ID]struct{}
	inflightLock sync.Mutex

	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewSyncer creates the syncer. Without SetCheckpoints only headers are synced
func NewSyncer(
	logger hclog.Logger,
	network Network,
	blockchain Blockchain,
	verifier Verifier,
) *Syncer {
	return &Syncer{
		logger:         logger.Named(syncerName),
		network:        network,
		blockchain:     blockchain,
		verifier:       verifier,
		requestTimeout: DefaultRequestTimeout,
		syncInterval:   DefaultSyncInterval,
		inflight:       make(map[peer.ID]struct{}),
		closeCh:        make(chan struct{}),
	}
}

// SetCheckpoints sets the checkpoint state the received messages are handed to.
// Must be called before Start
func (s *Syncer) SetCheckpoints(checkpoints Checkpoints) {
	s.checkpoints = checkpoints
}

// EnableCheckpoints starts processing and relaying sync checkpoints.
// Until then received checkpoints are dropped
func (s *Syncer) EnableCheckpoints() {
	if s.checkpoints != nil {
		s.checkpointsEnabled.Store(true)
	}
}

func (s *Syncer) checkpointsActive() bool {
	return s.checkpoints != nil && s.checkpointsEnabled.Load()
}

// SetSyncInterval changes how often the peers are polled for new headers
func (s *Syncer) SetSyncInterval(interval time.Duration) {
	s.syncInterval = interval
}

// Start registers the protocol handlers and starts the sync loop
func (s *Syncer) Start(ctx context.Context) error {
	if s.checkpoints != nil {
		s.network.SetStreamHandler(s.network.ProtocolID(common.CheckpointProto), s.handleCheckpoint)
	}

	s.network.SetStreamHandler(s.network.ProtocolID(common.GetHeadersProto), s.handleGetHeaders)

	if err := s.network.Subscribe(ctx, s.handlePeerEvent); err != nil {
		return fmt.Errorf("unable to subscribe to peer events, %w", err)
	}

	// peers that connected before the subscription
	for _, id := range s.network.Peers() {
		go s.onPeerConnected(id)
	}

	go s.runSyncLoop(ctx)

	return nil
}

// Close stops the sync loop
func (s *Syncer) Close() error {
	s.closeOnce.Do(func() {
		close(s.closeCh)
	})

	return nil
}

// Peers returns the connected peers
func (s *Syncer) Peers() []checkpoint.Peer {
	ids := s.network.Peers()

	peers := make([]checkpoint.Peer, 0, len(ids))
	for _, id := range ids {
		peers = append(peers, &syncPeer{id: id, s: s})
	}

	return peers
}

// GetPeer returns the peer if it is connected
func (s *Syncer) GetPeer(id checkpoint.PeerID) (checkpoint.Peer, bool) {
	peerID, err := peer.Decode(string(id))
	if err != nil || !s.network.IsConnected(peerID) {
		return nil, false
	}

	return &syncPeer{id: peerID, s: s}, true
}

func (s *Syncer) handlePeerEvent(evnt *event.PeerEvent) {
	switch evnt.Type {
	case event.PeerConnected:
		go s.onPeerConnected(evnt.PeerID)
	case event.PeerDisconnected, event.PeerBanned:
		if s.checkpoints != nil {
			s.checkpoints.Relay().Forget(toPeerID(evnt.PeerID))
		}
	}
}

// onPeerConnected sends the accepted checkpoint to the new peer and fetches its headers
func (s *Syncer) onPeerConnected(id peer.ID) {
	if s.checkpointsActive() {
		if msg := s.checkpoints.CurrentMessage(); msg != nil {
			s.checkpoints.Relay().RelayTo(&syncPeer{id: id, s: s}, msg)
		}
	}

	s.syncWithPeer(id, s.blockchain.Locator())
}

func (s *Syncer) runSyncLoop(ctx context.Context) {
	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		case <-s.closeCh:
			return
		}

		for _, id := range s.network.Peers() {
			s.syncWithPeer(id, s.blockchain.Locator())
		}
	}
}

// syncWithPeer downloads the headers the peer has past the locator.
// Only one download per peer runs at a time
func (s *Syncer) syncWithPeer(id peer.ID, locator []types.Hash) {
	s.inflightLock.Lock()
	if _, ok := s.inflight[id]; ok {
		s.inflightLock.Unlock()

		return
	}

	s.inflight[id] = struct{}{}
	s.inflightLock.Unlock()

	defer func() {
		s.inflightLock.Lock()
		delete(s.inflight, id)
		s.inflightLock.Unlock()
	}()

	if err := s.fetchHeaders(id, locator); err != nil {
		s.logger.Debug("header sync with peer failed", "peer", id, "err", err)
	}
}

// fetchHeaders requests batches of headers until the peer has no more
func (s *Syncer) fetchHeaders(id peer.ID, locator []types.Hash) error {
	for {
		select {
		case <-s.closeCh:
			return nil
		default:
		}

		headers, err := s.requestHeaders(id, locator)
		if err != nil {
			return err
		}

		if len(headers) == 0 {
			return nil
		}

		headersReceivedInc(len(headers))

		if err := s.verifyHeaders(headers); err != nil {
			if !errors.Is(err, errUnknownParent) {
				badHeadersInc()
				s.network.BanPeer(id, err.Error())
			}

			return err
		}

		if err := s.blockchain.WriteHeaders(headers); err != nil {
			if isPeerFault(err) {
				badHeadersInc()
				s.network.BanPeer(id, err.Error())
			}

			return fmt.Errorf("unable to write headers, %w", err)
		}

		if s.checkpointsActive() {
			if _, err := s.checkpoints.AcceptPending(); err != nil {
				s.logger.Warn("pending sync-checkpoint rejected", "err", err)
			}
		}

		last := headers[len(headers)-1]

		s.logger.Debug("headers synced", "peer", id, "count", len(headers), "last", last.Number)

		if len(headers) < blockchain.MaxHeadersPerRequest {
			return nil
		}

		locator = []types.Hash{last.Hash}
	}
}

// isPeerFault reports whether the write error proves the peer sent a bad chain
func isPeerFault(err error) bool {
	return errors.Is(err, blockchain.ErrSyncCheckpoint) ||
		errors.Is(err, blockchain.ErrCheckpointMismatch) ||
		errors.Is(err, blockchain.ErrInvalidNumber) ||
		errors.Is(err, blockchain.ErrInvalidParentChain)
}

// verifyHeaders checks the batch links into the block index and every new
// header passes the consensus checks
func (s *Syncer) verifyHeaders(headers []*types.Header) error {
	// skip the headers already in the index
	for len(headers) > 0 {
		if _, ok := s.blockchain.GetHeader(headers[0].Hash); !ok {
			break
		}

		headers = headers[1:]
	}

	if len(headers) == 0 {
		return nil
	}

	parent, ok := s.blockchain.GetHeader(headers[0].ParentHash)
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownParent, headers[0].ParentHash)
	}

	for _, header := range headers {
		if err := s.verifier.VerifyHeader(parent, header); err != nil {
			return fmt.Errorf("invalid header %d (%s), %w", header.Number, header.Hash, err)
		}

		parent = header
	}

	return nil
}

func (s *Syncer) requestHeaders(id peer.ID, locator []types.Hash) ([]*types.Header, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.requestTimeout)
	defer cancel()

	stream, err := s.network.NewStream(ctx, s.network.ProtocolID(common.GetHeadersProto), id)
	if err != nil {
		return nil, err
	}

	defer stream.Close()

	_ = stream.SetDeadline(time.Now().Add(s.requestTimeout))

	if err := network.WriteFrame(stream, encodeLocator(locator)); err != nil {
		return nil, err
	}

	data, err := network.ReadFrame(stream)
	if err != nil {
		return nil, err
	}

	headers, err := decodeHeaders(data)
	if err != nil {
		s.network.BanPeer(id, "malformed headers")

		return nil, err
	}

	if len(headers) > blockchain.MaxHeadersPerRequest {
		s.network.BanPeer(id, "too many headers")

		return nil, fmt.Errorf("%w: %d headers", errInvalidRequest, len(headers))
	}

	return headers, nil
}

// handleGetHeaders serves the headers of the best chain past the locator
func (s *Syncer) handleGetHeaders(stream libp2pNetwork.Stream) {
	defer stream.Close()

	_ = stream.SetDeadline(time.Now().Add(s.requestTimeout))

	data, err := network.ReadFrame(stream)
	if err != nil {
		return
	}

	locator, err := decodeLocator(data)
	if err != nil {
		s.logger.Debug("invalid getheaders request", "peer", stream.Conn().RemotePeer(), "err", err)

		return
	}

	headers := s.blockchain.HeadersAfter(locator, blockchain.MaxHeadersPerRequest)

	if err := network.WriteFrame(stream, encodeHeaders(headers)); err != nil {
		s.logger.Debug("failed to serve headers", "peer", stream.Conn().RemotePeer(), "err", err)
	}
}

// handleCheckpoint processes a checkpoint message sent by a peer
func (s *Syncer) handleCheckpoint(stream libp2pNetwork.Stream) {
	defer stream.Close()

	from := stream.Conn().RemotePeer()

	_ = stream.SetDeadline(time.Now().Add(s.requestTimeout))

	data, err := network.ReadFrame(stream)
	if err != nil {
		return
	}

	if !s.checkpointsActive() {
		checkpointsReceivedInc("inactive")
		s.logger.Debug("sync checkpoints not active, message dropped", "peer", from)

		return
	}

	msg := new(checkpoint.Message)
	if err := msg.UnmarshalBinary(data); err != nil {
		s.logger.Debug("malformed checkpoint message", "peer", from, "err", err)

		return
	}

	outcome, err := s.checkpoints.ProcessMessage(toPeerID(from), msg)
	checkpointsReceivedInc(outcome.String())

	if err != nil {
		s.logger.Debug("checkpoint not accepted", "peer", from, "outcome", outcome, "err", err)
	}
}
