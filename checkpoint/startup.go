package checkpoint

import (
	"errors"
	"fmt"

	"github.com/syncpoint-network/syncpoint/checkpoint/storage"
)

// Open loads the persisted checkpoint, seeding it with the genesis block on first run.
// If the persisted authority key differs from the configured one the new key is stored
// and the checkpoint is reset to the hardened checkpoint.
//
// The authority private key is not looked up here, see TryInit
func (s *Service) Open() error {
	s.index.Lock()
	defer s.index.Unlock()

	s.lock.Lock()
	defer s.lock.Unlock()

	hash, err := s.persistence.ReadCheckpoint()
	if errors.Is(err, storage.ErrNotFound) {
		if err := s.persistence.WriteCheckpoint(s.index.GenesisHash()); err != nil {
			return fmt.Errorf("failed to init sync checkpoint: %w", err)
		}

		hash, err = s.persistence.ReadCheckpoint()
	}

	if err != nil {
		return fmt.Errorf("failed to read sync checkpoint: %w", err)
	}

	// a null checkpoint after bad block recovery puts the node on the bootstrap path
	if !hash.IsZero() {
		if _, ok := s.index.GetHeader(hash); !ok {
			return fmt.Errorf("%w: sync checkpoint %s is corrupted, remove it and restart", ErrUnknownBlock, hash)
		}
	}

	s.setCurrentLocked(hash, nil)
	s.logger.Info("using synchronized checkpoint", "hash", hash)

	pubKey, err := s.persistence.ReadPubKey()
	if err != nil || pubKey != s.config.MasterPubKey {
		s.logger.Info("checkpoint master key changed", "stored", pubKey, "configured", s.config.MasterPubKey, "err", err)

		if err := s.persistence.WritePubKey(s.config.MasterPubKey); err != nil {
			return err
		}

		if err := s.resetLocked(); err != nil {
			return fmt.Errorf("failed to reset sync-checkpoint: %w", err)
		}
	}

	return nil
}

// TryInit stores the authority public key and looks up its private key, once.
// Used when sync checkpoints activate after the node started
func (s *Service) TryInit() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.tryInitDone {
		return nil
	}

	if err := s.persistence.WritePubKey(s.config.MasterPubKey); err != nil {
		return err
	}

	s.logger.Info("sync checkpoint try init done")

	s.tryInitAuthorityKeyLocked()
	s.tryInitDone = true

	return nil
}

// TryInitAuthorityKey looks up the authority private key in the key store,
// if the node does not have it yet
func (s *Service) TryInitAuthorityKey() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.tryInitAuthorityKeyLocked()
}

func (s *Service) tryInitAuthorityKeyLocked() {
	if s.authorityKey != nil || s.config.KeyStore == nil {
		return
	}

	key, err := s.config.KeyStore.GetAuthorityKey(s.config.MasterPubKey)
	if err != nil {
		s.logger.Debug("authority key not available", "pubkey", s.config.MasterPubKey, "err", err)

		return
	}

	if err := s.setAuthorityKeyLocked(key); err != nil {
		s.logger.Error("failed to set authority key", "err", err)

		return
	}

	s.logger.Info("sync checkpoint master key set", "pubkey", s.config.MasterPubKey)
}
