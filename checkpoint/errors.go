package checkpoint

import "errors"

var (
	// ErrInvalidSignature is returned for a message that is not signed by the authority key
	ErrInvalidSignature = errors.New("invalid checkpoint signature")

	// ErrSigning is returned when the authority key cannot sign a checkpoint
	ErrSigning = errors.New("unable to sign checkpoint")

	// ErrUnknownBlock is returned when a checkpoint block is not in the block index
	ErrUnknownBlock = errors.New("block index missing for checkpoint")

	// ErrConflict is returned for a checkpoint on a fork of the accepted checkpoint
	ErrConflict = errors.New("checkpoint conflicts with the accepted checkpoint")

	// ErrStale is returned for a checkpoint that is an ancestor of the accepted checkpoint
	ErrStale = errors.New("checkpoint is older than the accepted checkpoint")

	// ErrIndexCorrupt is returned when a parent link cannot be followed in the block index
	ErrIndexCorrupt = errors.New("block index structure failure")

	// ErrIO is returned when the checkpoint or the authority key cannot be persisted or loaded
	ErrIO = errors.New("checkpoint storage failure")

	// ErrWrongNetwork is returned for a persisted record written by another network
	ErrWrongNetwork = errors.New("invalid network magic number")

	// ErrActivate is returned when the checkpoint block cannot be made the best chain
	ErrActivate = errors.New("could not activate best chain for checkpoint")

	// ErrNoAuthorityKey is returned when issuing a checkpoint on a node without the authority key
	ErrNoAuthorityKey = errors.New("checkpoint master key unavailable")
)
