package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/checkpoint"
	"github.com/syncpoint-network/syncpoint/command/checkpoint/sign"
	"github.com/syncpoint-network/syncpoint/crypto"
)

func TestVerify(t *testing.T) {
	t.Parallel()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	hash := crypto.DoubleSHA256([]byte("block"))

	signed, err := sign.Sign(hash, key)
	require.NoError(t, err)
	assert.Equal(t, crypto.PublicKeyHex(key.PubKey()), signed.MasterPubKey)

	res, err := Verify(signed.Message, signed.MasterPubKey)
	require.NoError(t, err)
	assert.Equal(t, hash, res.Hash)
	assert.Equal(t, checkpoint.PayloadVersion, res.Version)

	_, err = Verify(signed.Message, crypto.PublicKeyHex(other.PubKey()))
	require.ErrorIs(t, err, checkpoint.ErrInvalidSignature)

	_, err = Verify("0xzz", signed.MasterPubKey)
	require.ErrorContains(t, err, "invalid message encoding")
}

func TestResolveMasterKey(t *testing.T) {
	t.Parallel()

	p := &verifyParams{masterKey: "03ab"}

	key, err := p.resolveMasterKey()
	require.NoError(t, err)
	assert.Equal(t, "03ab", key)

	// the dev chain takes its key from the node configuration
	p = &verifyParams{chainPath: "dev"}

	_, err = p.resolveMasterKey()
	require.ErrorIs(t, err, errNoMasterKey)
}
