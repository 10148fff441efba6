package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/syncpoint-network/syncpoint/types"
)

// AutoCheckpointDepth is how many blocks behind the tip the issuing node checkpoints
const AutoCheckpointDepth = 4

// SetAuthorityKey installs the key used to issue checkpoints.
// The key must be able to sign a null checkpoint
func (s *Service) SetAuthorityKey(key *btcec.PrivateKey) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.setAuthorityKeyLocked(key)
}

func (s *Service) setAuthorityKeyLocked(key *btcec.PrivateKey) error {
	if _, err := Sign(UnsignedPayload{Version: PayloadVersion}, key); err != nil {
		return err
	}

	s.authorityKey = key

	return nil
}

// IsAuthority returns true if the node can issue checkpoints
func (s *Service) IsAuthority() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.authorityKey != nil
}

// Send signs a checkpoint, accepts it locally and relays it to the peers
func (s *Service) Send(hash types.Hash) error {
	s.lock.Lock()
	key := s.authorityKey
	s.lock.Unlock()

	if key == nil {
		return ErrNoAuthorityKey
	}

	msg, err := Sign(UnsignedPayload{Version: PayloadVersion, Hash: hash}, key)
	if err != nil {
		return err
	}

	outcome, err := s.ProcessMessage("", msg)

	switch outcome {
	case OutcomeAccepted:
		s.logger.Debug("checkpoint sent", "hash", hash)

		return nil
	case OutcomeAlreadyAccepted:
		s.relay.RelayAll(s.CurrentMessage())

		return nil
	}

	if err == nil {
		err = fmt.Errorf("checkpoint %s", outcome)
	}

	s.logger.Warn("failed to process checkpoint to send", "hash", hash, "err", err)

	return fmt.Errorf("failed to process checkpoint to send: %w", err)
}

// AutoSelect returns the block AutoCheckpointDepth blocks behind the tip
func (s *Service) AutoSelect() (types.Hash, error) {
	s.index.Lock()
	defer s.index.Unlock()

	header := s.index.Tip()
	if header == nil {
		return types.ZeroHash, errors.New("no chain tip")
	}

	if header.Number < AutoCheckpointDepth+1 {
		return header.Hash, nil
	}

	for i := 0; i < AutoCheckpointDepth; i++ {
		parent, ok := s.index.GetHeader(header.ParentHash)
		if !ok {
			break
		}

		header = parent
	}

	return header.Hash, nil
}

// Run drives the checkpoint workflow until the context is done. The issuing node
// checkpoints the chain, other nodes finalize the pending checkpoint.
// The accepted checkpoint is relayed to peers that do not know it yet
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.tick()
	}
}

func (s *Service) tick() {
	if s.IsAuthority() {
		hash, err := s.AutoSelect()
		if err != nil {
			s.logger.Error("failed to select checkpoint", "err", err)

			return
		}

		if hash != s.Current() {
			if err := s.Send(hash); err != nil {
				s.logger.Error("failed to send checkpoint", "hash", hash, "err", err)
			}
		}
	} else if _, err := s.AcceptPending(); err != nil {
		s.logger.Warn("failed to accept pending checkpoint", "err", err)
	}

	s.relay.RelayAll(s.CurrentMessage())
}
