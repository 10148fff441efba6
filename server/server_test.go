package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/chain"
	"github.com/syncpoint-network/syncpoint/helper/tests"
	"github.com/syncpoint-network/syncpoint/network"
	secretsHelper "github.com/syncpoint-network/syncpoint/secrets/helper"
)

func testConfig(t *testing.T) *Config {
	t.Helper()

	devChain, err := chain.Import("dev")
	require.NoError(t, err)

	return &Config{
		Chain:   devChain,
		DataDir: t.TempDir(),
		Network: &network.Config{
			NoDiscover: true,
			Addr:       &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0},
			MaxPeers:   network.DefaultMaxPeers,
		},
		BlockIndexBackend: MemoryBackend,
		CheckpointBackend: MemoryBackend,
		Consensus:         NoProofConsensus,
	}
}

func TestServer_CheckpointsDisabled(t *testing.T) {
	t.Parallel()

	srv, err := newServer(testConfig(t), hclog.NewNullLogger())
	require.NoError(t, err)

	assert.Nil(t, srv.Checkpoints())
	assert.Equal(t, uint64(0), srv.Blockchain().Tip().Number)

	require.NoError(t, srv.Close())
}

func TestServer_InvalidConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		modify func(t *testing.T, c *Config)
		err    error
	}{
		{
			name:   "block index backend",
			modify: func(_ *testing.T, c *Config) { c.BlockIndexBackend = "foo" },
			err:    errUnknownBlockIndexBackend,
		},
		{
			name:   "consensus",
			modify: func(_ *testing.T, c *Config) { c.Consensus = "foo" },
			err:    errUnknownConsensus,
		},
		{
			name: "checkpoint backend",
			modify: func(_ *testing.T, c *Config) {
				c.Checkpoint = &Checkpoint{MasterPubKey: testMasterPubKey(t)}
				c.CheckpointBackend = "foo"
			},
			err: errUnknownCheckpointBackend,
		},
	}

	for _, c := range cases {
		c := c

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			config := testConfig(t)
			c.modify(t, config)

			_, err := newServer(config, hclog.NewNullLogger())
			require.ErrorIs(t, err, c.err)
		})
	}
}

func TestServer_InvalidMasterKey(t *testing.T) {
	t.Parallel()

	config := testConfig(t)
	config.Checkpoint = &Checkpoint{MasterPubKey: "0xabcd"}

	_, err := newServer(config, hclog.NewNullLogger())
	require.ErrorContains(t, err, "invalid sync checkpoint master key")
}

func TestServer_Activation(t *testing.T) {
	t.Parallel()

	config := testConfig(t)

	manager, err := secretsHelper.SetupLocalSecretsManager(config.DataDir)
	require.NoError(t, err)

	pubKey, err := secretsHelper.InitAuthorityKey(manager)
	require.NoError(t, err)

	config.Consensus = DevConsensus
	config.Seal = true
	config.BlockTime = 100 * time.Millisecond
	config.Checkpoint = &Checkpoint{
		MasterPubKey:       pubKey,
		Interval:           100 * time.Millisecond,
		ActivationInterval: 100 * time.Millisecond,
	}

	srv, err := newServer(config, hclog.NewNullLogger())
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, srv.Close())
	})

	require.NotNil(t, srv.Checkpoints())

	genesis := config.Chain.Genesis.Hash
	assert.Equal(t, genesis, srv.Checkpoints().Current())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = tests.RetryUntilTimeout(ctx, func() (interface{}, bool) {
		return nil, srv.Checkpoints().Current() == genesis
	})
	require.NoError(t, err)

	assert.True(t, srv.Checkpoints().IsAuthority())
	assert.True(t, srv.Blockchain().IsOnActiveChain(srv.Checkpoints().Current()))
}

func testMasterPubKey(t *testing.T) string {
	t.Helper()

	manager, err := secretsHelper.SetupLocalSecretsManager(t.TempDir())
	require.NoError(t, err)

	pubKey, err := secretsHelper.InitAuthorityKey(manager)
	require.NoError(t, err)

	return pubKey
}

func TestServer_OpenLocal(t *testing.T) {
	t.Parallel()

	config := testConfig(t)
	config.BlockIndexBackend = LevelDBBackend
	config.CheckpointBackend = FileBackend
	config.Checkpoint = &Checkpoint{MasterPubKey: testMasterPubKey(t)}

	local, err := OpenLocal(config, hclog.NewNullLogger())
	require.NoError(t, err)

	genesis := config.Chain.Genesis.Hash
	require.Equal(t, genesis, local.Checkpoints().Current())
	require.Nil(t, local.Network())

	require.NoError(t, local.Checkpoints().Reset())
	require.NoError(t, local.Close())

	// the persisted state survives a reopen
	local, err = OpenLocal(config, hclog.NewNullLogger())
	require.NoError(t, err)

	status := local.Checkpoints().Status()
	assert.Equal(t, genesis, status.Current)
	assert.Equal(t, config.Checkpoint.MasterPubKey, status.MasterPubKey)
	assert.False(t, status.IsAuthority)

	require.NoError(t, local.Close())
}
