package consensus

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/syncpoint-network/syncpoint/crypto"
	"github.com/syncpoint-network/syncpoint/types"
)

var (
	ErrInvalidParent    = errors.New("header does not reference its parent")
	ErrInvalidNumber    = errors.New("invalid header number")
	ErrInvalidTimestamp = errors.New("header timestamp is older than its parent")
	ErrInvalidHash      = errors.New("invalid header hash")
)

// ComputeHash is the hash of a header produced by the local consensus backends
func ComputeHash(parentHash types.Hash, number, timestamp uint64) types.Hash {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], number)
	binary.BigEndian.PutUint64(buf[8:], timestamp)

	return crypto.DoubleSHA256(parentHash.Bytes(), buf)
}

// BuildHeader builds the child header of parent with its hash
func BuildHeader(parent *types.Header, timestamp uint64) *types.Header {
	if timestamp < parent.Timestamp {
		timestamp = parent.Timestamp
	}

	header := &types.Header{
		ParentHash: parent.Hash,
		Number:     parent.Number + 1,
		Timestamp:  timestamp,
	}
	header.Hash = ComputeHash(header.ParentHash, header.Number, header.Timestamp)

	return header
}

// VerifyLinkage checks that the header is the child of parent
func VerifyLinkage(parent *types.Header, header *types.Header) error {
	if header.ParentHash != parent.Hash {
		return fmt.Errorf("%w: expected %s, found %s", ErrInvalidParent, parent.Hash, header.ParentHash)
	}

	if header.Number != parent.Number+1 {
		return fmt.Errorf("%w: expected %d, found %d", ErrInvalidNumber, parent.Number+1, header.Number)
	}

	if header.Timestamp < parent.Timestamp {
		return ErrInvalidTimestamp
	}

	return nil
}
