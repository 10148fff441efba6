package network

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/event"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/libp2p/go-libp2p/p2p/security/noise"
	"github.com/multiformats/go-multiaddr"

	"github.com/syncpoint-network/syncpoint/network/common"
	peerEvent "github.com/syncpoint-network/syncpoint/network/event"
)

var (
	ErrNoChain     = errors.New("no chain configuration specified")
	ErrPeerBanned  = errors.New("peer is banned")
	ErrSelfConnect = errors.New("cannot connect to self")
)

// Server is the p2p networking server. It owns the libp2p host, tracks the
// connected peers and keeps misbehaving peers out
type Server struct {
	logger hclog.Logger // the logger
	config *Config      // the base networking server configuration

	closeCh   chan struct{} // the channel used for closing the networking server
	closeOnce sync.Once

	host host.Host // the libp2p host reference

	peers     map[peer.ID]struct{} // connected peers
	peersLock sync.Mutex           // lock for the peer map

	gater *banGater

	emitterPeerEvent event.Emitter // event emitter for listeners

	bootnodes []*peer.AddrInfo
}

// NewServer returns a new instance of the networking server
func NewServer(logger hclog.Logger, config *Config) (*Server, error) {
	logger = logger.Named("network")

	if config.Chain == nil {
		return nil, ErrNoChain
	}

	key, err := setupLibp2pKey(config.SecretsManager)
	if err != nil {
		return nil, err
	}

	listenAddr, err := multiaddr.NewMultiaddr(fmt.Sprintf("/ip4/%s/tcp/%d", config.Addr.IP.String(), config.Addr.Port))
	if err != nil {
		return nil, err
	}

	addrsFactory := func(addrs []multiaddr.Multiaddr) []multiaddr.Multiaddr {
		if config.NatAddr != nil {
			addr, _ := multiaddr.NewMultiaddr(fmt.Sprintf("/ip4/%s/tcp/%d", config.NatAddr.String(), config.Addr.Port))

			if addr != nil {
				addrs = []multiaddr.Multiaddr{addr}
			}
		}

		return addrs
	}

	gater := newBanGater()

	host, err := libp2p.New(
		// Use noise as the encryption protocol
		libp2p.Security(noise.ID, noise.New),
		libp2p.ListenAddrs(listenAddr),
		libp2p.AddrsFactory(addrsFactory),
		libp2p.Identity(key),
		libp2p.ConnectionGater(gater),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create libp2p stack: %w", err)
	}

	emitter, err := host.EventBus().Emitter(new(peerEvent.PeerEvent))
	if err != nil {
		_ = host.Close()

		return nil, err
	}

	if config.BanDuration <= 0 {
		config.BanDuration = DefaultBanDuration
	}

	return &Server{
		logger:           logger,
		config:           config,
		host:             host,
		peers:            make(map[peer.ID]struct{}),
		gater:            gater,
		closeCh:          make(chan struct{}),
		emitterPeerEvent: emitter,
	}, nil
}

// Start starts the networking services
func (s *Server) Start() error {
	addr, err := common.AddrInfoToString(s.AddrInfo())
	if err != nil {
		return err
	}

	s.logger.Info("LibP2P server running", "addr", addr)

	s.host.Network().Notify(&network.NotifyBundle{
		ConnectedF: func(_ network.Network, conn network.Conn) {
			s.addPeer(conn.RemotePeer())
		},
		DisconnectedF: func(net network.Network, conn network.Conn) {
			// other connections to the same peer may remain open
			if net.Connectedness(conn.RemotePeer()) != network.Connected {
				s.removePeer(conn.RemotePeer())
			}
		},
	})

	if !s.config.NoDiscover {
		if err := s.setupBootnodes(); err != nil {
			return fmt.Errorf("unable to parse bootnode data, %w", err)
		}

		go s.keepAliveBootnodes()
	}

	return nil
}

// Close shuts the networking server down
func (s *Server) Close() error {
	var err error

	s.closeOnce.Do(func() {
		close(s.closeCh)

		if emitErr := s.emitterPeerEvent.Close(); emitErr != nil {
			s.logger.Error("unable to close peer event emitter", "err", emitErr)
		}

		err = s.host.Close()
	})

	return err
}

// AddrInfo returns the addressing information of the local node
func (s *Server) AddrInfo() *peer.AddrInfo {
	return &peer.AddrInfo{
		ID:    s.host.ID(),
		Addrs: s.host.Addrs(),
	}
}

// ID returns the peer ID of the local node
func (s *Server) ID() peer.ID {
	return s.host.ID()
}

// JoinPeer connects to the peer at the given address
func (s *Server) JoinPeer(ctx context.Context, rawPeerMultiaddr string) error {
	peerInfo, err := common.StringToAddrInfo(rawPeerMultiaddr)
	if err != nil {
		return err
	}

	return s.connect(ctx, peerInfo)
}

func (s *Server) connect(ctx context.Context, peerInfo *peer.AddrInfo) error {
	if peerInfo.ID == s.host.ID() {
		return ErrSelfConnect
	}

	if s.gater.isBanned(peerInfo.ID) {
		return ErrPeerBanned
	}

	if s.IsConnected(peerInfo.ID) {
		return nil
	}

	s.logger.Debug("Dialing peer", "addr", peerInfo, "local", s.host.ID())

	if err := s.host.Connect(ctx, *peerInfo); err != nil {
		s.emitEvent(peerInfo.ID, peerEvent.PeerFailedToConnect)

		return err
	}

	return nil
}

// Peers returns the IDs of the connected peers [Thread safe]
func (s *Server) Peers() []peer.ID {
	s.peersLock.Lock()
	defer s.peersLock.Unlock()

	peers := make([]peer.ID, 0, len(s.peers))
	for id := range s.peers {
		peers = append(peers, id)
	}

	return peers
}

// numPeers returns the number of connected peers [Thread safe]
func (s *Server) numPeers() int64 {
	s.peersLock.Lock()
	defer s.peersLock.Unlock()

	return int64(len(s.peers))
}

// hasPeer checks if the peer is present in the peers map [Thread safe]
func (s *Server) hasPeer(id peer.ID) bool {
	s.peersLock.Lock()
	defer s.peersLock.Unlock()

	_, ok := s.peers[id]

	return ok
}

// IsConnected checks if the networking server is connected to a peer
func (s *Server) IsConnected(peerID peer.ID) bool {
	return s.host.Network().Connectedness(peerID) == network.Connected
}

// addPeer registers a new connection, peers over the limit are dropped
func (s *Server) addPeer(id peer.ID) {
	s.peersLock.Lock()

	if _, ok := s.peers[id]; ok {
		s.peersLock.Unlock()

		return
	}

	if s.config.MaxPeers > 0 && int64(len(s.peers)) >= s.config.MaxPeers {
		s.peersLock.Unlock()

		s.logger.Debug("Peer limit reached, dropping connection", "id", id)

		go func() {
			_ = s.host.Network().ClosePeer(id)
		}()

		return
	}

	s.peers[id] = struct{}{}
	updatePeersMetric(len(s.peers))
	s.peersLock.Unlock()

	s.logger.Info("Peer connected", "id", id)

	s.emitEvent(id, peerEvent.PeerConnected)
}

// removePeer removes a peer from the peer map and alerts the listeners
func (s *Server) removePeer(id peer.ID) {
	s.peersLock.Lock()

	if _, ok := s.peers[id]; !ok {
		s.peersLock.Unlock()

		return
	}

	delete(s.peers, id)
	updatePeersMetric(len(s.peers))
	s.peersLock.Unlock()

	s.logger.Info("Peer disconnected", "id", id)

	s.emitEvent(id, peerEvent.PeerDisconnected)
}

// BanPeer disconnects the peer and refuses connections to and from it
// for the configured ban duration
func (s *Server) BanPeer(id peer.ID, reason string) {
	if id == s.host.ID() {
		return
	}

	s.logger.Warn("Banning peer", "id", id, "reason", reason)

	s.gater.ban(id, s.config.BanDuration)
	bannedPeersInc()

	s.emitEvent(id, peerEvent.PeerBanned)

	if err := s.host.Network().ClosePeer(id); err != nil {
		s.logger.Error("unable to close banned peer connection", "id", id, "err", err)
	}
}

// IsBanned checks if the peer is currently banned
func (s *Server) IsBanned(id peer.ID) bool {
	return s.gater.isBanned(id)
}

// BannedPeers lists the banned peers
func (s *Server) BannedPeers() []peer.ID {
	return s.gater.list()
}

// ClearBans lifts all bans
func (s *Server) ClearBans() {
	if n := s.gater.clear(); n > 0 {
		s.logger.Info("Cleared peer bans", "count", n)
	}
}

// SetStreamHandler registers the handler for inbound streams of the protocol
func (s *Server) SetStreamHandler(id protocol.ID, handler network.StreamHandler) {
	s.host.SetStreamHandler(id, handler)
}

// NewStream opens a new stream of the protocol to the peer
func (s *Server) NewStream(ctx context.Context, id protocol.ID, peerID peer.ID) (network.Stream, error) {
	return s.host.NewStream(ctx, peerID, id)
}

// ProtocolID scopes the protocol to the network the node belongs to
func (s *Server) ProtocolID(proto string) protocol.ID {
	return protocol.ID(common.ProtocolID(proto, s.config.Chain.Magic))
}

// Subscribe starts a PeerEvent subscription
func (s *Server) Subscribe(ctx context.Context, handler func(evnt *peerEvent.PeerEvent)) error {
	sub, err := s.SubscribeCh(ctx)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case evnt, ok := <-sub:
				if !ok {
					return
				}

				handler(evnt)
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// SubscribeCh returns an event of the event channel
func (s *Server) SubscribeCh(ctx context.Context) (<-chan *peerEvent.PeerEvent, error) {
	raw, err := s.host.EventBus().Subscribe(new(peerEvent.PeerEvent))
	if err != nil {
		return nil, err
	}

	ch := make(chan *peerEvent.PeerEvent)

	go func() {
		defer func() {
			close(ch)
			_ = raw.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.closeCh:
				return
			case item, ok := <-raw.Out():
				if !ok {
					return
				}

				evnt, _ := item.(peerEvent.PeerEvent)

				select {
				case ch <- &evnt:
				case <-ctx.Done():
					return
				case <-s.closeCh:
					return
				}
			}
		}
	}()

	return ch, nil
}

func (s *Server) emitEvent(peerID peer.ID, peerEventType peerEvent.PeerEventType) {
	if err := s.emitterPeerEvent.Emit(peerEvent.PeerEvent{
		PeerID: peerID,
		Type:   peerEventType,
	}); err != nil {
		s.logger.Info("failed to emit event", "peer", peerID, "type", peerEventType, "err", err)
	}
}
