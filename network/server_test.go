package network

import (
	"context"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	peerEvent "github.com/syncpoint-network/syncpoint/network/event"
	"github.com/syncpoint-network/syncpoint/secrets"
)

func TestServer_Connect(t *testing.T) {
	t.Parallel()

	srv0 := CreateServer(t, nil)
	srv1 := CreateServer(t, nil)

	JoinAndWait(t, srv0, srv1)

	assert.Len(t, srv0.Peers(), 1)
	assert.Equal(t, srv1.ID(), srv0.Peers()[0])
	assert.True(t, srv1.IsConnected(srv0.ID()))
}

func TestServer_JoinSelf(t *testing.T) {
	t.Parallel()

	srv := CreateServer(t, nil)

	assert.ErrorIs(t, srv.JoinPeer(context.Background(), srv.MultiAddr()), ErrSelfConnect)
}

func TestServer_PeerEvents(t *testing.T) {
	t.Parallel()

	srv0 := CreateServer(t, nil)
	srv1 := CreateServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultJoinTimeout)
	defer cancel()

	sub, err := srv0.SubscribeCh(ctx)
	require.NoError(t, err)

	JoinAndWait(t, srv0, srv1)

	evnt := <-sub
	assert.Equal(t, srv1.ID(), evnt.PeerID)
	assert.Equal(t, peerEvent.PeerConnected, evnt.Type)

	require.NoError(t, srv1.Close())

	evnt = <-sub
	assert.Equal(t, srv1.ID(), evnt.PeerID)
	assert.Equal(t, peerEvent.PeerDisconnected, evnt.Type)
}

func TestServer_BanPeer(t *testing.T) {
	t.Parallel()

	srv0 := CreateServer(t, nil)
	srv1 := CreateServer(t, nil)

	JoinAndWait(t, srv0, srv1)

	srv0.BanPeer(srv1.ID(), "invalid headers")

	ctx, cancel := context.WithTimeout(context.Background(), DefaultJoinTimeout)
	defer cancel()

	_, err := WaitUntilPeerDisconnectsFrom(ctx, srv0, srv1.ID())
	require.NoError(t, err)

	assert.True(t, srv0.IsBanned(srv1.ID()))
	assert.ErrorIs(t, srv0.JoinPeer(ctx, srv1.MultiAddr()), ErrPeerBanned)

	// the banned side cannot connect either
	assert.Error(t, srv1.JoinPeer(ctx, srv0.MultiAddr()))

	srv0.ClearBans()

	assert.False(t, srv0.IsBanned(srv1.ID()))
	assert.Empty(t, srv0.BannedPeers())

	JoinAndWait(t, srv0, srv1)
}

func TestServer_MaxPeers(t *testing.T) {
	t.Parallel()

	srv0 := CreateServer(t, &CreateServerParams{
		ConfigCallback: func(c *Config) {
			c.MaxPeers = 1
		},
	})
	srv1 := CreateServer(t, nil)
	srv2 := CreateServer(t, nil)

	JoinAndWait(t, srv1, srv0)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultJoinTimeout)
	defer cancel()

	_ = srv2.JoinPeer(ctx, srv0.MultiAddr())

	assert.Eventually(t, func() bool {
		return !srv2.IsConnected(srv0.ID())
	}, DefaultJoinTimeout, 100*time.Millisecond)

	assert.Len(t, srv0.Peers(), 1)
}

func TestServer_Stream(t *testing.T) {
	t.Parallel()

	srv0 := CreateServer(t, nil)
	srv1 := CreateServer(t, nil)

	proto := srv1.ProtocolID("/test/%s/echo/0.1")
	assert.Equal(t, "/test/0xde7ca101/echo/0.1", string(proto))

	srv1.SetStreamHandler(proto, func(stream network.Stream) {
		defer stream.Close()

		data, err := ReadFrame(stream)
		if err != nil {
			return
		}

		_ = WriteFrame(stream, data)
	})

	JoinAndWait(t, srv0, srv1)

	stream, err := srv0.NewStream(context.Background(), proto, srv1.ID())
	require.NoError(t, err)

	defer stream.Close()

	require.NoError(t, WriteFrame(stream, []byte("ping")))

	data, err := ReadFrame(stream)
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), data)
}

func TestServer_NetworkKeyPersisted(t *testing.T) {
	t.Parallel()

	manager := secrets.NewSecretsManagerMock()

	srv := CreateServer(t, &CreateServerParams{
		ConfigCallback: func(c *Config) {
			c.SecretsManager = manager
		},
	})

	key, err := ReadLibp2pKey(manager)
	require.NoError(t, err)

	id := srv.ID()
	assert.True(t, id.MatchesPrivateKey(key))
}

func TestServer_Bootnodes(t *testing.T) {
	t.Parallel()

	bootnode := CreateServer(t, nil)

	srv := CreateServer(t, &CreateServerParams{
		ConfigCallback: func(c *Config) {
			c.NoDiscover = false
			c.Chain.Bootnodes = []string{bootnode.MultiAddr()}
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), DefaultJoinTimeout)
	defer cancel()

	_, err := WaitUntilPeerConnectsTo(ctx, srv, bootnode.ID())
	require.NoError(t, err)
}
