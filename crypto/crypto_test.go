package crypto

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyEncoding(t *testing.T) {
	t.Parallel()

	for i := 0; i < 10; i++ {
		priv, encoded, err := GenerateAndEncodePrivateKey()
		require.NoError(t, err)

		priv0, err := BytesToPrivateKey(encoded)
		require.NoError(t, err)
		assert.Equal(t, MarshalPrivateKey(priv), MarshalPrivateKey(priv0))

		pub0, err := ParsePublicKeyHex(PublicKeyHex(priv.PubKey()))
		require.NoError(t, err)
		assert.True(t, priv.PubKey().IsEqual(pub0))
	}
}

func TestParsePrivateKey_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParsePrivateKey(make([]byte, 31))
	require.Error(t, err)

	_, err = ParsePrivateKey(make([]byte, PrivateKeyLength))
	require.ErrorIs(t, err, errInvalidPrivateKey)

	_, err = BytesToPrivateKey([]byte("not hex"))
	require.Error(t, err)
}

func TestSignVerify(t *testing.T) {
	t.Parallel()

	priv, err := GenerateKey()
	require.NoError(t, err)

	hash := DoubleSHA256([]byte("checkpoint"))

	sig, err := Sign(priv, hash[:])
	require.NoError(t, err)
	require.NoError(t, Verify(priv.PubKey(), hash[:], sig))

	other, err := GenerateKey()
	require.NoError(t, err)
	require.Error(t, Verify(other.PubKey(), hash[:], sig))

	tampered := append([]byte{}, sig...)
	tampered[len(tampered)-1] ^= 0x01
	require.Error(t, Verify(priv.PubKey(), hash[:], tampered))

	require.Error(t, Verify(priv.PubKey(), hash[:4], sig))
}

func TestSign_Errors(t *testing.T) {
	t.Parallel()

	_, err := Sign(nil, make([]byte, 32))
	require.ErrorIs(t, err, errNilPrivateKey)

	priv, err := GenerateKey()
	require.NoError(t, err)

	_, err = Sign(priv, []byte{1, 2, 3})
	require.Error(t, err)
}

func TestDoubleSHA256(t *testing.T) {
	t.Parallel()

	first := sha256.Sum256([]byte("abc"))
	expected := sha256.Sum256(first[:])

	assert.Equal(t, expected[:], DoubleSHA256([]byte("a"), []byte("bc")).Bytes())
}

func TestParsePublicKeyHex_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParsePublicKeyHex("zz")
	require.Error(t, err)

	_, err = ParsePublicKeyHex("0x0102")
	require.Error(t, err)
}
