package checkpoint

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/umbracle/fastrlp"

	"github.com/syncpoint-network/syncpoint/crypto"
	"github.com/syncpoint-network/syncpoint/types"
)

const (
	// PayloadVersion is the version of the unsigned payload
	PayloadVersion int32 = 1

	// payloadLength is the int32 version followed by the checkpoint hash
	payloadLength = 4 + types.HashLength
)

// UnsignedPayload is the content endorsed by the authority
type UnsignedPayload struct {
	Version int32
	Hash    types.Hash
}

// EncodePayload returns the canonical bytes of the payload, the bytes that get signed
func EncodePayload(p UnsignedPayload) []byte {
	buf := make([]byte, payloadLength)
	binary.LittleEndian.PutUint32(buf[:4], uint32(p.Version))
	copy(buf[4:], p.Hash[:])

	return buf
}

// DecodePayload decodes the canonical payload bytes
func DecodePayload(buf []byte) (UnsignedPayload, error) {
	if len(buf) != payloadLength {
		return UnsignedPayload{}, fmt.Errorf("invalid payload length %d, expected %d", len(buf), payloadLength)
	}

	return UnsignedPayload{
		Version: int32(binary.LittleEndian.Uint32(buf[:4])),
		Hash:    types.BytesToHash(buf[4:]),
	}, nil
}

// Message is a signed checkpoint. Raw holds the exact bytes that were signed,
// Payload is only populated once the signature over Raw is verified
type Message struct {
	Raw       []byte
	Signature []byte
	Payload   UnsignedPayload
}

// Sign encodes the payload and signs the digest of the encoded bytes
func Sign(payload UnsignedPayload, key *btcec.PrivateKey) (*Message, error) {
	raw := EncodePayload(payload)
	digest := crypto.DoubleSHA256(raw)

	sig, err := crypto.Sign(key, digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}

	return &Message{
		Raw:       raw,
		Signature: sig,
		Payload:   payload,
	}, nil
}

// Verify checks the signature over the raw bytes against the hex encoded public key
// and decodes the payload only if it is valid
func (m *Message) Verify(pubKeyHex string) (UnsignedPayload, error) {
	pub, err := crypto.ParsePublicKeyHex(pubKeyHex)
	if err != nil {
		return UnsignedPayload{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	digest := crypto.DoubleSHA256(m.Raw)
	if err := crypto.Verify(pub, digest[:], m.Signature); err != nil {
		return UnsignedPayload{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	payload, err := DecodePayload(m.Raw)
	if err != nil {
		return UnsignedPayload{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	m.Payload = payload

	return payload, nil
}

// Hash returns the checkpoint block hash
func (m *Message) Hash() types.Hash {
	return m.Payload.Hash
}

// IsNull returns true if the message carries no checkpoint
func (m *Message) IsNull() bool {
	return m.Payload.Hash.IsZero()
}

// Equal compares messages by checkpoint only, the signature bytes are not relevant
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}

	return m.Payload.Hash == other.Payload.Hash
}

func (m *Message) String() string {
	return fmt.Sprintf("SyncCheckpoint(version=%d, hash=%s)", m.Payload.Version, m.Payload.Hash)
}

// Copy returns a deep copy of the message
func (m *Message) Copy() *Message {
	return &Message{
		Raw:       append([]byte{}, m.Raw...),
		Signature: append([]byte{}, m.Signature...),
		Payload:   m.Payload,
	}
}

var marshalArenaPool fastrlp.ArenaPool

// MarshalBinary returns the wire form of the message, the raw bytes and the signature.
// The decoded payload is never transmitted
func (m *Message) MarshalBinary() ([]byte, error) {
	ar := marshalArenaPool.Get()
	defer marshalArenaPool.Put(ar)

	vv := ar.NewArray()
	vv.Set(ar.NewCopyBytes(m.Raw))
	vv.Set(ar.NewCopyBytes(m.Signature))

	return vv.MarshalTo(nil), nil
}

// UnmarshalBinary decodes the wire form. The result is unverified
func (m *Message) UnmarshalBinary(input []byte) error {
	pr := fastrlp.DefaultParserPool.Get()
	defer fastrlp.DefaultParserPool.Put(pr)

	v, err := pr.Parse(input)
	if err != nil {
		return err
	}

	elems, err := v.GetElems()
	if err != nil {
		return err
	}

	if len(elems) != 2 {
		return fmt.Errorf("incorrect number of elements to decode checkpoint message, expected 2 but found %d", len(elems))
	}

	if m.Raw, err = elems[0].GetBytes(nil); err != nil {
		return err
	}

	if m.Signature, err = elems[1].GetBytes(nil); err != nil {
		return err
	}

	m.Payload = UnsignedPayload{}

	return nil
}
