package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btc_ecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/syncpoint-network/syncpoint/helper/hex"
	"github.com/syncpoint-network/syncpoint/types"
)

const (
	// PrivateKeyLength is the length of a raw secp256k1 private key
	PrivateKeyLength = 32
)

var (
	errHashOfInvalidLength = errors.New("message hash of invalid length")
	errInvalidPrivateKey   = errors.New("invalid private key")
	errNilPrivateKey       = errors.New("private key is nil")
)

// DoubleSHA256 is the digest used for signing checkpoint payloads: SHA-256 applied twice
func DoubleSHA256(v ...[]byte) types.Hash {
	h := sha256.New()
	for _, b := range v {
		h.Write(b)
	}

	first := h.Sum(nil)

	return types.Hash(sha256.Sum256(first))
}

// GenerateKey generates a new key based on the secp256k1 elliptic curve.
func GenerateKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

// ParsePrivateKey parses raw 32 bytes into a secp256k1 private key
func ParsePrivateKey(buf []byte) (*btcec.PrivateKey, error) {
	if len(buf) != PrivateKeyLength {
		return nil, fmt.Errorf("invalid key length (%dB), should be %dB", len(buf), PrivateKeyLength)
	}

	var priv btcec.PrivateKey

	overflow := priv.Key.SetByteSlice(buf)
	if overflow || priv.Key.IsZero() {
		return nil, errInvalidPrivateKey
	}

	return &priv, nil
}

// MarshalPrivateKey serializes the private key to its raw 32 bytes
func MarshalPrivateKey(priv *btcec.PrivateKey) []byte {
	return priv.Serialize()
}

// ParsePublicKey parses a compressed or uncompressed secp256k1 public key
func ParsePublicKey(buf []byte) (*btcec.PublicKey, error) {
	return btcec.ParsePubKey(buf)
}

// ParsePublicKeyHex parses a hex encoded secp256k1 public key,
// the format used for distributing authority keys
func ParsePublicKeyHex(str string) (*btcec.PublicKey, error) {
	buf, err := hex.DecodeHex(str)
	if err != nil {
		return nil, fmt.Errorf("invalid public key hex: %w", err)
	}

	return ParsePublicKey(buf)
}

// PublicKeyHex returns the hex encoding of the compressed public key (no 0x prefix)
func PublicKeyHex(pub *btcec.PublicKey) string {
	return hex.EncodeToString(pub.SerializeCompressed())
}

// Sign produces a DER encoded ECDSA signature of the 32 byte hash
func Sign(priv *btcec.PrivateKey, hash []byte) ([]byte, error) {
	if priv == nil {
		return nil, errNilPrivateKey
	}

	if len(hash) != types.HashLength {
		return nil, fmt.Errorf("hash is required to be exactly %d bytes (%d)", types.HashLength, len(hash))
	}

	if priv.Key.IsZero() {
		return nil, errInvalidPrivateKey
	}

	return btc_ecdsa.Sign(priv, hash).Serialize(), nil
}

// Verify checks a DER encoded ECDSA signature of the hash against the public key
func Verify(pub *btcec.PublicKey, hash, sig []byte) error {
	if len(hash) != types.HashLength {
		return errHashOfInvalidLength
	}

	signature, err := btc_ecdsa.ParseDERSignature(sig)
	if err != nil {
		return fmt.Errorf("malformed signature: %w", err)
	}

	if !signature.Verify(hash, pub) {
		return errors.New("signature mismatch")
	}

	return nil
}

// BytesToPrivateKey reads the hex encoded key (as kept by the secrets manager)
// and constructs a private key if possible
func BytesToPrivateKey(input []byte) (*btcec.PrivateKey, error) {
	decoded, err := hex.DecodeString(string(input))
	if err != nil {
		return nil, err
	}

	return ParsePrivateKey(decoded)
}

// GenerateAndEncodePrivateKey returns a newly generated private key and the hex encoding of it
func GenerateAndEncodePrivateKey() (*btcec.PrivateKey, []byte, error) {
	key, err := GenerateKey()
	if err != nil {
		return nil, nil, err
	}

	return key, []byte(hex.EncodeToString(MarshalPrivateKey(key))), nil
}
