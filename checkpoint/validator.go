package checkpoint

import (
	"fmt"

	"github.com/syncpoint-network/syncpoint/types"
)

// Validate checks that the candidate checkpoint is consistent with the current one.
// A nil error means the candidate is a descendant of current (or equal to it).
// ErrStale is returned for an ancestor of current, ErrConflict for a block on another branch
func Validate(candidate, current types.Hash, index ChainIndex) error {
	candidateHeader, ok := index.GetHeader(candidate)
	if !ok {
		return fmt.Errorf("%w: received sync-checkpoint %s", ErrUnknownBlock, candidate)
	}

	if current.IsZero() {
		return nil
	}

	currentHeader, ok := index.GetHeader(current)
	if !ok {
		return fmt.Errorf("%w: current sync-checkpoint %s", ErrUnknownBlock, current)
	}

	if candidateHeader.Number <= currentHeader.Number {
		// trace back from the current checkpoint, it must descend from the candidate
		ancestor, err := ancestorAt(index, currentHeader, candidateHeader.Number)
		if err != nil {
			return err
		}

		if ancestor.Hash != candidate {
			return fmt.Errorf("%w: new sync-checkpoint %s is conflicting with current sync-checkpoint %s",
				ErrConflict, candidate, current)
		}

		if candidateHeader.Number == currentHeader.Number {
			return nil
		}

		return fmt.Errorf("%w: new checkpoint height=%d, existing checkpoint height=%d",
			ErrStale, candidateHeader.Number, currentHeader.Number)
	}

	ancestor, err := ancestorAt(index, candidateHeader, currentHeader.Number)
	if err != nil {
		return err
	}

	if ancestor.Hash != current {
		return fmt.Errorf("%w: new sync-checkpoint %s is not a descendant of current sync-checkpoint %s",
			ErrConflict, candidate, current)
	}

	return nil
}

// ancestorAt follows the parent links from header down to the given height
func ancestorAt(index ChainIndex, header *types.Header, height uint64) (*types.Header, error) {
	for header.Number > height {
		parent, ok := index.GetHeader(header.ParentHash)
		if !ok {
			return nil, fmt.Errorf("%w: parent %s of block %s (height %d) not found",
				ErrIndexCorrupt, header.ParentHash, header.Hash, header.Number)
		}

		if parent.Number+1 != header.Number {
			return nil, fmt.Errorf("%w: parent %s of block %s has height %d, expected %d",
				ErrIndexCorrupt, parent.Hash, header.Hash, parent.Number, header.Number-1)
		}

		header = parent
	}

	return header, nil
}
