package types

import (
	"fmt"
	"strings"

	"github.com/syncpoint-network/syncpoint/helper/hex"
)

const (
	HashLength = 32
)

// ZeroHash is the null block identifier, used as "no checkpoint"
var ZeroHash = Hash{}

type Hash [HashLength]byte

func min(i, j int) int {
	if i < j {
		return i
	}

	return j
}

func BytesToHash(b []byte) Hash {
	var h Hash

	size := len(b)
	min := min(size, HashLength)

	copy(h[HashLength-min:], b[len(b)-min:])

	return h
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) String() string {
	return hex.EncodeToHex(h[:])
}

// IsZero returns true if the hash is the null sentinel
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// StringToHash converts a hex string (with or without 0x prefix) to a Hash.
// Input longer than 32 bytes keeps the trailing bytes
func StringToHash(str string) Hash {
	return BytesToHash(stringToBytes(str))
}

// ParseHash is the strict counterpart of StringToHash,
// it rejects anything that is not exactly 32 bytes of hex
func ParseHash(str string) (Hash, error) {
	buf, err := hex.DecodeHex(str)
	if err != nil {
		return ZeroHash, fmt.Errorf("invalid hash %q: %w", str, err)
	}

	if len(buf) != HashLength {
		return ZeroHash, fmt.Errorf("invalid hash length %d, expected %d", len(buf), HashLength)
	}

	return BytesToHash(buf), nil
}

func stringToBytes(str string) []byte {
	str = strings.TrimPrefix(str, "0x")
	if len(str)%2 == 1 {
		str = "0" + str
	}

	b, _ := hex.DecodeString(str)

	return b
}

// UnmarshalText parses a hash in hex syntax.
func (h *Hash) UnmarshalText(input []byte) error {
	hash, err := ParseHash(string(input))
	if err != nil {
		return err
	}

	*h = hash

	return nil
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}
