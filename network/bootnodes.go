package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/sethvargo/go-retry"

	"github.com/syncpoint-network/syncpoint/network/common"
)

const (
	// MinimumPeerConnections is the peer count under which the bootnodes are redialed
	MinimumPeerConnections int64 = 1

	bootnodeDialTimeout  = 10 * time.Second
	bootnodeDialRetries  = 5
	bootnodeDialBackoff  = time.Second
	bootnodeKeepAlive    = 10 * time.Second
	bootnodeMaxBackoff   = 30 * time.Second
)

// setupBootnodes parses the bootnode addresses of the chain configuration
func (s *Server) setupBootnodes() error {
	bootnodes := make([]*peer.AddrInfo, 0, len(s.config.Chain.Bootnodes))

	for _, rawAddr := range s.config.Chain.Bootnodes {
		bootnode, err := common.StringToAddrInfo(rawAddr)
		if err != nil {
			return fmt.Errorf("failed to parse bootnode %s: %w", rawAddr, err)
		}

		if bootnode.ID == s.host.ID() {
			s.logger.Info("Omitting bootnode with same ID as host", "id", bootnode.ID)

			continue
		}

		bootnodes = append(bootnodes, bootnode)
	}

	// initialized once, read only afterwards
	s.bootnodes = bootnodes

	return nil
}

// keepAliveBootnodes dials the bootnodes whenever the node runs out of peers
func (s *Server) keepAliveBootnodes() {
	s.dialBootnodes()

	ticker := time.NewTicker(bootnodeKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-s.closeCh:
			return
		}

		if s.numPeers() < MinimumPeerConnections {
			s.dialBootnodes()
		}
	}
}

func (s *Server) dialBootnodes() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-s.closeCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	for _, bootnode := range s.bootnodes {
		if s.IsConnected(bootnode.ID) || s.gater.isBanned(bootnode.ID) {
			continue
		}

		if err := s.dialWithRetry(ctx, bootnode); err != nil {
			s.logger.Debug("failed to dial bootnode", "addr", bootnode, "err", err)
		}
	}
}

// dialWithRetry connects to the peer with an exponential backoff
func (s *Server) dialWithRetry(ctx context.Context, peerInfo *peer.AddrInfo) error {
	backoff := retry.WithMaxRetries(
		bootnodeDialRetries,
		retry.WithCappedDuration(bootnodeMaxBackoff, retry.NewExponential(bootnodeDialBackoff)),
	)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		dialCtx, cancel := context.WithTimeout(ctx, bootnodeDialTimeout)
		defer cancel()

		err := s.connect(dialCtx, peerInfo)
		if err == nil || errors.Is(err, ErrPeerBanned) || errors.Is(err, ErrSelfConnect) {
			return err
		}

		return retry.RetryableError(err)
	})
}
