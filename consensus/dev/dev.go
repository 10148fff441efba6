package dev

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/syncpoint-network/syncpoint/consensus"
	"github.com/syncpoint-network/syncpoint/types"
)

const defaultBlockTime = 2 * time.Second

type blockchainInterface interface {
	Header() *types.Header
	WriteHeaders(headers []*types.Header) error
}

// Dev consensus protocol produces a new header every block time
type Dev struct {
	logger hclog.Logger

	closeCh   chan struct{}
	blockTime time.Duration
	now       func() time.Time

	blockchain blockchainInterface
}

// Factory implements the base consensus Factory method
func Factory(params *consensus.Params) (consensus.Consensus, error) {
	logger := params.Logger.Named("dev")

	blockTime := defaultBlockTime
	if params.Config != nil && params.Config.BlockTime > 0 {
		blockTime = params.Config.BlockTime
	}

	return newDev(params.Blockchain, blockTime, logger), nil
}

func newDev(blockchain blockchainInterface, blockTime time.Duration, logger hclog.Logger) *Dev {
	return &Dev{
		logger:     logger,
		closeCh:    make(chan struct{}),
		blockTime:  blockTime,
		now:        time.Now,
		blockchain: blockchain,
	}
}

// Start starts the consensus mechanism
func (d *Dev) Start() error {
	go d.run()

	return nil
}

func (d *Dev) run() {
	d.logger.Info("consensus started", "block time", d.blockTime)

	ticker := time.NewTicker(d.blockTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-d.closeCh:
			return
		}

		if err := d.writeNewBlock(d.blockchain.Header()); err != nil {
			d.logger.Error("failed to produce new block", "err", err)
		}
	}
}

func (d *Dev) writeNewBlock(parent *types.Header) error {
	header := consensus.BuildHeader(parent, uint64(d.now().Unix()))

	if err := d.blockchain.WriteHeaders([]*types.Header{header}); err != nil {
		return fmt.Errorf("failed to write header %d: %w", header.Number, err)
	}

	d.logger.Debug("block produced", "number", header.Number, "hash", header.Hash)

	return nil
}

// VerifyHeader checks the links and the hash of a dev header
func (d *Dev) VerifyHeader(parent *types.Header, header *types.Header) error {
	if err := consensus.VerifyLinkage(parent, header); err != nil {
		return err
	}

	if expected := consensus.ComputeHash(header.ParentHash, header.Number, header.Timestamp); expected != header.Hash {
		return fmt.Errorf("%w: expected %s, found %s", consensus.ErrInvalidHash, expected, header.Hash)
	}

	return nil
}

// Close closes the consensus
func (d *Dev) Close() error {
	close(d.closeCh)

	return nil
}
