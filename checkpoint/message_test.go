package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/helper/hex"
	"github.com/syncpoint-network/syncpoint/types"
)

func TestPayload_Encoding(t *testing.T) {
	t.Parallel()

	hash := types.StringToHash("0x0102030405060708091011121314151617181920212223242526272829303132")

	buf := EncodePayload(UnsignedPayload{Version: 1, Hash: hash})
	require.Len(t, buf, 36)

	// little endian version followed by the raw hash bytes
	assert.Equal(t, []byte{1, 0, 0, 0}, buf[:4])
	assert.Equal(t, hash.Bytes(), buf[4:])

	p, err := DecodePayload(buf)
	require.NoError(t, err)
	assert.Equal(t, UnsignedPayload{Version: 1, Hash: hash}, p)

	_, err = DecodePayload(buf[:35])
	require.Error(t, err)

	_, err = DecodePayload(append(buf, 0))
	require.Error(t, err)
}

func TestMessage_SignVerify(t *testing.T) {
	t.Parallel()

	key, pub := generateAuthority(t)
	hash := types.StringToHash("0xabcd")

	msg := signCheckpoint(t, key, hash)

	// nothing is decoded before verification
	assert.True(t, msg.IsNull())

	payload, err := msg.Verify(pub)
	require.NoError(t, err)
	assert.Equal(t, UnsignedPayload{Version: PayloadVersion, Hash: hash}, payload)
	assert.Equal(t, hash, msg.Hash())
	assert.False(t, msg.IsNull())
}

func TestMessage_VerifyWrongKey(t *testing.T) {
	t.Parallel()

	key, _ := generateAuthority(t)
	_, otherPub := generateAuthority(t)

	msg := signCheckpoint(t, key, types.StringToHash("0x01"))

	_, err := msg.Verify(otherPub)
	require.ErrorIs(t, err, ErrInvalidSignature)
	assert.True(t, msg.IsNull())

	for _, pub := range []string{"", "zz", "02abcd"} {
		_, err = msg.Verify(pub)
		require.ErrorIs(t, err, ErrInvalidSignature)
	}
}

func TestMessage_UncompressedKey(t *testing.T) {
	t.Parallel()

	key, _ := generateAuthority(t)
	uncompressed := hex.EncodeToString(key.PubKey().SerializeUncompressed())

	msg := signCheckpoint(t, key, types.StringToHash("0x02"))

	_, err := msg.Verify(uncompressed)
	require.NoError(t, err)
}

func TestMessage_Tamper(t *testing.T) {
	t.Parallel()

	key, pub := generateAuthority(t)
	msg := signCheckpoint(t, key, types.StringToHash("0x1234"))

	flip := func(buf []byte, bit int) []byte {
		res := append([]byte{}, buf...)
		res[bit/8] ^= 1 << (bit % 8)

		return res
	}

	for bit := 0; bit < len(msg.Raw)*8; bit++ {
		tampered := &Message{Raw: flip(msg.Raw, bit), Signature: msg.Signature}

		_, err := tampered.Verify(pub)
		require.ErrorIs(t, err, ErrInvalidSignature, "raw bit %d", bit)
	}

	for bit := 0; bit < len(msg.Signature)*8; bit++ {
		tampered := &Message{Raw: msg.Raw, Signature: flip(msg.Signature, bit)}

		_, err := tampered.Verify(pub)
		require.ErrorIs(t, err, ErrInvalidSignature, "signature bit %d", bit)
	}
}

func TestMessage_Binary(t *testing.T) {
	t.Parallel()

	key, pub := generateAuthority(t)

	msg, err := Sign(UnsignedPayload{Version: PayloadVersion, Hash: types.StringToHash("0xff")}, key)
	require.NoError(t, err)

	buf, err := msg.MarshalBinary()
	require.NoError(t, err)

	out := &Message{}
	require.NoError(t, out.UnmarshalBinary(buf))
	assert.Equal(t, msg.Raw, out.Raw)
	assert.Equal(t, msg.Signature, out.Signature)

	_, err = out.Verify(pub)
	require.NoError(t, err)
	assert.True(t, msg.Equal(out))

	require.Error(t, out.UnmarshalBinary([]byte{0xc0}))
	require.Error(t, out.UnmarshalBinary([]byte{0x01, 0x02}))
}

func TestMessage_EqualByHash(t *testing.T) {
	t.Parallel()

	key, _ := generateAuthority(t)
	other, _ := generateAuthority(t)
	hash := types.StringToHash("0x77")

	a, err := Sign(UnsignedPayload{Version: PayloadVersion, Hash: hash}, key)
	require.NoError(t, err)

	b, err := Sign(UnsignedPayload{Version: PayloadVersion, Hash: hash}, other)
	require.NoError(t, err)

	c, err := Sign(UnsignedPayload{Version: PayloadVersion, Hash: types.StringToHash("0x78")}, key)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestSign_NilKey(t *testing.T) {
	t.Parallel()

	_, err := Sign(UnsignedPayload{Version: PayloadVersion}, nil)
	require.ErrorIs(t, err, ErrSigning)
}
