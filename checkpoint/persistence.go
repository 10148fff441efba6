package checkpoint

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/umbracle/fastrlp"

	"github.com/syncpoint-network/syncpoint/checkpoint/storage"
	"github.com/syncpoint-network/syncpoint/types"
)

const magicLength = 4

// Persistence stores the accepted checkpoint and the authority public key,
// each record prefixed with the network magic
type Persistence struct {
	backend   storage.Backend
	magic     [magicLength]byte
	badBlocks map[types.Hash]struct{}
	index     ChainIndex
	bans      BanClearer
	logger    hclog.Logger
}

// NewPersistence creates the persistence layer. bans may be nil
func NewPersistence(
	backend storage.Backend,
	magic [magicLength]byte,
	badBlocks []types.Hash,
	index ChainIndex,
	bans BanClearer,
	logger hclog.Logger,
) *Persistence {
	set := make(map[types.Hash]struct{}, len(badBlocks))
	for _, h := range badBlocks {
		set[h] = struct{}{}
	}

	return &Persistence{
		backend:   backend,
		magic:     magic,
		badBlocks: set,
		index:     index,
		bans:      bans,
		logger:    logger,
	}
}

// WriteCheckpoint persists the checkpoint hash
func (p *Persistence) WriteCheckpoint(hash types.Hash) error {
	if err := p.backend.Write(storage.KeyCheckpoint, p.withMagic(hash.Bytes())); err != nil {
		return fmt.Errorf("%w: failed to write sync checkpoint %s: %w", ErrIO, hash, err)
	}

	p.logger.Debug("written checkpoint", "hash", hash)

	return nil
}

// ReadCheckpoint loads the persisted checkpoint. storage.ErrNotFound is returned if none was written.
//
// Every read also heals a node stuck behind a bad block: the result is null if it is a bad block,
// and every known bad block not yet failed is invalidated in the block index. If any was invalidated
// the result is null and all peer bans are lifted so the node can resync
func (p *Persistence) ReadCheckpoint() (types.Hash, error) {
	payload, err := p.read(storage.KeyCheckpoint)
	if err != nil {
		return types.ZeroHash, err
	}

	if len(payload) != types.HashLength {
		return types.ZeroHash, fmt.Errorf("%w: invalid checkpoint record length %d", ErrIO, len(payload))
	}

	hash := types.BytesToHash(payload)

	if _, bad := p.badBlocks[hash]; bad {
		p.logger.Warn("persisted checkpoint is a bad block, ignoring it", "hash", hash)

		hash = types.ZeroHash
	}

	anyBad := false

	for badHash := range p.badBlocks {
		if _, ok := p.index.GetHeader(badHash); !ok || p.index.IsFailed(badHash) {
			continue
		}

		anyBad = true

		if err := p.index.InvalidateBlock(badHash); err != nil {
			p.logger.Error("failed to invalidate bad block", "hash", badHash, "err", err)
		} else {
			p.logger.Info("invalidated bad block", "hash", badHash)
		}
	}

	if anyBad {
		hash = types.ZeroHash

		if p.bans != nil {
			p.bans.ClearBans()
		}
	}

	p.logger.Debug("read checkpoint", "hash", hash)

	return hash, nil
}

// WritePubKey persists the authority public key the checkpoint belongs to
func (p *Persistence) WritePubKey(pubKey string) error {
	ar := marshalArenaPool.Get()
	defer marshalArenaPool.Put(ar)

	payload := ar.NewBytes([]byte(pubKey)).MarshalTo(nil)

	if err := p.backend.Write(storage.KeyPubKeys, p.withMagic(payload)); err != nil {
		return fmt.Errorf("%w: failed to write checkpoint master key: %w", ErrIO, err)
	}

	return nil
}

// ReadPubKey loads the persisted authority public key
func (p *Persistence) ReadPubKey() (string, error) {
	payload, err := p.read(storage.KeyPubKeys)
	if err != nil {
		return "", err
	}

	pr := fastrlp.DefaultParserPool.Get()
	defer fastrlp.DefaultParserPool.Put(pr)

	v, err := pr.Parse(payload)
	if err != nil {
		return "", fmt.Errorf("%w: invalid master key record: %w", ErrIO, err)
	}

	buf, err := v.GetBytes(nil)
	if err != nil {
		return "", fmt.Errorf("%w: invalid master key record: %w", ErrIO, err)
	}

	return string(buf), nil
}

func (p *Persistence) withMagic(payload []byte) []byte {
	buf := make([]byte, 0, magicLength+len(payload))
	buf = append(buf, p.magic[:]...)

	return append(buf, payload...)
}

// read returns the record payload after checking the magic
func (p *Persistence) read(key storage.Key) ([]byte, error) {
	data, err := p.backend.Read(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrIO, key, err)
	}

	if len(data) < magicLength {
		return nil, fmt.Errorf("%w: truncated %s record", ErrIO, key)
	}

	if !bytes.Equal(data[:magicLength], p.magic[:]) {
		return nil, fmt.Errorf("%w: %w in %s record", ErrIO, ErrWrongNetwork, key)
	}

	return data[magicLength:], nil
}
