package network

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/chain"
	"github.com/syncpoint-network/syncpoint/helper/tests"
	"github.com/syncpoint-network/syncpoint/secrets"
)

const DefaultJoinTimeout = 10 * time.Second

type CreateServerParams struct {
	ConfigCallback func(c *Config) // Additional logic that needs to be executed on the configuration
	Logger         hclog.Logger    // Logger instance for the server
}

// CreateServer starts a networking server on a free loopback port, closed on test cleanup
func CreateServer(t *testing.T, params *CreateServerParams) *Server {
	t.Helper()

	if params == nil {
		params = &CreateServerParams{}
	}

	devChain, err := chain.Import("dev")
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Addr = &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0}
	cfg.NoDiscover = true
	cfg.Chain = devChain
	cfg.SecretsManager = secrets.NewSecretsManagerMock()

	if params.ConfigCallback != nil {
		params.ConfigCallback(cfg)
	}

	logger := params.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	srv, err := NewServer(logger, cfg)
	require.NoError(t, err)
	require.NoError(t, srv.Start())

	t.Cleanup(func() {
		_ = srv.Close()
	})

	return srv
}

// MultiAddr returns the first listening address of the server with its peer ID
func (s *Server) MultiAddr() string {
	return fmt.Sprintf("%s/p2p/%s", s.host.Addrs()[0], s.host.ID())
}

// JoinAndWait connects source to destination and waits until both have registered the peer
func JoinAndWait(t *testing.T, source, destination *Server) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultJoinTimeout)
	defer cancel()

	require.NoError(t, source.JoinPeer(ctx, destination.MultiAddr()))

	_, err := WaitUntilPeerConnectsTo(ctx, source, destination.ID())
	require.NoError(t, err)

	_, err = WaitUntilPeerConnectsTo(ctx, destination, source.ID())
	require.NoError(t, err)
}

func WaitUntilPeerConnectsTo(ctx context.Context, srv *Server, ids ...peer.ID) (bool, error) {
	res, err := tests.RetryUntilTimeout(ctx, func() (interface{}, bool) {
		for _, id := range ids {
			if !srv.hasPeer(id) {
				return nil, true
			}
		}

		return true, false
	})
	if err != nil {
		return false, err
	}

	return res.(bool), nil
}

func WaitUntilPeerDisconnectsFrom(ctx context.Context, srv *Server, ids ...peer.ID) (bool, error) {
	res, err := tests.RetryUntilTimeout(ctx, func() (interface{}, bool) {
		for _, id := range ids {
			if srv.hasPeer(id) {
				return nil, true
			}
		}

		return true, false
	})
	if err != nil {
		return false, err
	}

	return res.(bool), nil
}
