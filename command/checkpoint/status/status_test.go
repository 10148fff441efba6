package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/chain"
	"github.com/syncpoint-network/syncpoint/command/helper"
	"github.com/syncpoint-network/syncpoint/crypto"
	"github.com/syncpoint-network/syncpoint/server"
)

func TestStatus(t *testing.T) {
	t.Parallel()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	p := &helper.LocalParams{
		DataDir:           t.TempDir(),
		ChainPath:         "dev",
		MasterPubKey:      crypto.PublicKeyHex(key.PubKey()),
		BlockIndexBackend: server.LevelDBBackend,
		CheckpointBackend: server.FileBackend,
	}

	local, err := helper.OpenLocalNode(p)
	require.NoError(t, err)

	res := NewResult(local)
	require.NoError(t, local.Close())

	assert.Equal(t, res.Tip, res.Current)
	assert.Equal(t, uint64(0), res.TipHeight)
	assert.Equal(t, p.MasterPubKey, res.MasterPubKey)
	assert.Contains(t, res.GetOutput(), res.Current.String())
}

func TestStatus_NotConfigured(t *testing.T) {
	t.Parallel()

	_, err := helper.OpenLocalNode(&helper.LocalParams{
		DataDir:   t.TempDir(),
		ChainPath: "dev",
	})
	require.ErrorIs(t, err, chain.ErrActivationNotConfigured)
}
