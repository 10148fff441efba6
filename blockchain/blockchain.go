package blockchain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/armon/go-metrics"
	"github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru"

	"github.com/syncpoint-network/syncpoint/blockchain/storage"
	"github.com/syncpoint-network/syncpoint/chain"
	"github.com/syncpoint-network/syncpoint/types"
)

const (
	defaultCacheSize = 100

	// locatorDenseSteps is the number of consecutive hashes at the top of a locator
	locatorDenseSteps = 10

	// MaxHeadersPerRequest is the maximum number of headers served for one locator
	MaxHeadersPerRequest = 2000
)

var (
	ErrNoBlock            = errors.New("no block data passed in")
	ErrParentNotFound     = errors.New("parent block not found")
	ErrInvalidParentChain = errors.New("parent block is marked as failed")
	ErrInvalidNumber      = errors.New("invalid block number")
	ErrCheckpointMismatch = errors.New("block does not match the hardened checkpoint")
	ErrSyncCheckpoint     = errors.New("block rejected by the sync-checkpoint")
	ErrUnknownBlock       = errors.New("unknown block")
	ErrFailedBlock        = errors.New("block is marked as failed")
	ErrGenesisMismatch    = errors.New("genesis block mismatch")
)

// SyncCheck decides if a block with the given parent may be added to the index
type SyncCheck func(hash, parentHash types.Hash) bool

// Blockchain is the header index of the chain. It keeps every known header,
// the best chain and the headers marked as failed
type Blockchain struct {
	logger hclog.Logger
	db     storage.Storage

	// chainLock is the engine lock. Held while the best chain changes
	chainLock sync.Mutex

	// lock guards head and genesis
	lock    sync.RWMutex
	genesis *types.Header
	head    *types.Header

	headersCache *lru.Cache

	hardened    chain.Checkpoints
	hardenedMap map[uint64]types.Hash

	syncCheck SyncCheck
}

// NewBlockchain creates a new blockchain object
func NewBlockchain(
	logger hclog.Logger,
	db storage.Storage,
	config *chain.Chain,
) (*Blockchain, error) {
	headersCache, err := lru.New(defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("unable to create headers cache, %w", err)
	}

	b := &Blockchain{
		logger:       logger.Named("blockchain"),
		db:           db,
		headersCache: headersCache,
		hardened:     config.Hardened,
		hardenedMap:  make(map[uint64]types.Hash, len(config.Hardened)),
	}

	for _, cp := range config.Hardened {
		b.hardenedMap[cp.Number] = cp.Hash
	}

	return b, nil
}

// SetSyncCheck installs the sync-checkpoint veto on new headers
func (b *Blockchain) SetSyncCheck(check SyncCheck) {
	b.chainLock.Lock()
	defer b.chainLock.Unlock()

	b.syncCheck = check
}

// ComputeGenesis loads the best chain from the storage or writes
// the genesis block if the storage is empty
func (b *Blockchain) ComputeGenesis(genesis *types.Header) error {
	b.chainLock.Lock()
	defer b.chainLock.Unlock()

	headHash, ok := b.db.ReadHeadHash()
	if !ok {
		if err := b.writeGenesisImpl(genesis); err != nil {
			return err
		}

		b.logger.Info("genesis", "hash", genesis.Hash)

		return nil
	}

	stored, ok := b.db.ReadCanonicalHash(0)
	if !ok || stored != genesis.Hash {
		return fmt.Errorf("%w: expected %s, found %s", ErrGenesisMismatch, genesis.Hash, stored)
	}

	head, err := b.db.ReadHeader(headHash)
	if err != nil {
		return fmt.Errorf("failed to read the head %s: %w", headHash, err)
	}

	b.lock.Lock()
	b.genesis = genesis.Copy()
	b.head = head
	b.lock.Unlock()

	updateHeightMetric(head.Number)

	b.logger.Info("current header", "hash", head.Hash, "number", head.Number)

	return nil
}

func (b *Blockchain) writeGenesisImpl(genesis *types.Header) error {
	if genesis.Number != 0 {
		return fmt.Errorf("%w: genesis at %d", ErrInvalidNumber, genesis.Number)
	}

	if err := b.db.WriteHeader(genesis); err != nil {
		return err
	}

	b.lock.Lock()
	b.genesis = genesis.Copy()
	b.lock.Unlock()

	return b.setHead(genesis)
}

// Lock takes the engine lock
func (b *Blockchain) Lock() {
	b.chainLock.Lock()
}

// Unlock releases the engine lock
func (b *Blockchain) Unlock() {
	b.chainLock.Unlock()
}

// GenesisHash returns the hash of the genesis block
func (b *Blockchain) GenesisHash() types.Hash {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if b.genesis == nil {
		return types.ZeroHash
	}

	return b.genesis.Hash
}

// Tip returns the head of the best chain
func (b *Blockchain) Tip() *types.Header {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if b.head == nil {
		return nil
	}

	return b.head.Copy()
}

// Header is an alias of Tip
func (b *Blockchain) Header() *types.Header {
	return b.Tip()
}

// GetHeader returns the header by its hash
func (b *Blockchain) GetHeader(hash types.Hash) (*types.Header, bool) {
	if h, ok := b.headersCache.Get(hash); ok {
		//nolint:forcetypeassert
		return h.(*types.Header).Copy(), true
	}

	header, err := b.db.ReadHeader(hash)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			b.logger.Error("failed to read header", "hash", hash, "err", err)
		}

		return nil, false
	}

	b.headersCache.Add(hash, header)

	return header.Copy(), true
}

// GetHeaderByNumber returns the header of the best chain at the given height
func (b *Blockchain) GetHeaderByNumber(n uint64) (*types.Header, bool) {
	head := b.Tip()
	if head == nil || n > head.Number {
		return nil, false
	}

	hash, ok := b.db.ReadCanonicalHash(n)
	if !ok {
		return nil, false
	}

	return b.GetHeader(hash)
}

// IsOnActiveChain returns true if the block is part of the best chain
func (b *Blockchain) IsOnActiveChain(hash types.Hash) bool {
	header, ok := b.GetHeader(hash)
	if !ok {
		return false
	}

	return b.isCanonical(header)
}

func (b *Blockchain) isCanonical(header *types.Header) bool {
	head := b.Tip()
	if head == nil || header.Number > head.Number {
		return false
	}

	canonical, ok := b.db.ReadCanonicalHash(header.Number)

	return ok && canonical == header.Hash
}

// IsFailed returns true if the block is marked as failed
func (b *Blockchain) IsFailed(hash types.Hash) bool {
	return b.db.IsFailed(hash)
}

// HardcodedCheckpoints returns the hashes of the hardened checkpoints, the latest last
func (b *Blockchain) HardcodedCheckpoints() []types.Hash {
	return b.hardened.Hashes()
}

// GetForks returns the tips of the known side chains
func (b *Blockchain) GetForks() ([]types.Hash, error) {
	return b.db.ReadForks()
}

// WriteHeaders writes a batch of headers and updates the best chain
func (b *Blockchain) WriteHeaders(headers []*types.Header) error {
	if len(headers) == 0 {
		return ErrNoBlock
	}

	b.chainLock.Lock()
	defer b.chainLock.Unlock()

	for _, header := range headers {
		if err := b.writeHeaderImpl(header); err != nil {
			return err
		}
	}

	return nil
}

// WriteHeader writes a single header, assumes the genesis is already set
func (b *Blockchain) WriteHeader(header *types.Header) error {
	return b.WriteHeaders([]*types.Header{header})
}

func (b *Blockchain) writeHeaderImpl(header *types.Header) error {
	if _, ok := b.GetHeader(header.Hash); ok {
		return nil
	}

	parent, ok := b.GetHeader(header.ParentHash)
	if !ok {
		return fmt.Errorf("%w: parent of %s (%d)", ErrParentNotFound, header.Hash, header.Number)
	}

	if header.Number != parent.Number+1 {
		return fmt.Errorf("%w: expected %d, found %d", ErrInvalidNumber, parent.Number+1, header.Number)
	}

	if b.db.IsFailed(parent.Hash) {
		return fmt.Errorf("%w: %s", ErrInvalidParentChain, parent.Hash)
	}

	if expected, ok := b.hardenedMap[header.Number]; ok && expected != header.Hash {
		return fmt.Errorf("%w: %s at %d", ErrCheckpointMismatch, header.Hash, header.Number)
	}

	if b.syncCheck != nil && !b.syncCheck(header.Hash, header.ParentHash) {
		return fmt.Errorf("%w: %s (%d)", ErrSyncCheckpoint, header.Hash, header.Number)
	}

	if err := b.db.WriteHeader(header); err != nil {
		return err
	}

	head := b.Tip()

	switch {
	case header.ParentHash == head.Hash:
		// advance the chain
		return b.setHead(header)
	case header.Number > head.Number:
		b.logger.Info("reorg", "old", head.Hash, "new", header.Hash, "number", header.Number)

		return b.setHead(header)
	default:
		return b.writeFork(header)
	}
}

// writeFork replaces the parent of the header as side chain tip
func (b *Blockchain) writeFork(header *types.Header) error {
	forks, err := b.db.ReadForks()
	if err != nil {
		return err
	}

	newForks := []types.Hash{}

	for _, fork := range forks {
		if fork != header.ParentHash && fork != header.Hash {
			newForks = append(newForks, fork)
		}
	}

	newForks = append(newForks, header.Hash)

	return b.db.WriteForks(newForks)
}

// setHead makes the chain ending in the header the best chain
func (b *Blockchain) setHead(header *types.Header) error {
	oldHead := b.Tip()

	// rewrite the canonical hashes down to the common ancestor
	for cursor := header; ; {
		canonical, ok := b.db.ReadCanonicalHash(cursor.Number)
		if ok && canonical == cursor.Hash && oldHead != nil && cursor.Number <= oldHead.Number {
			break
		}

		if err := b.db.WriteCanonicalHash(cursor.Number, cursor.Hash); err != nil {
			return err
		}

		if cursor.Number == 0 {
			break
		}

		parent, ok := b.GetHeader(cursor.ParentHash)
		if !ok {
			return fmt.Errorf("%w: parent of %s (%d)", ErrParentNotFound, cursor.Hash, cursor.Number)
		}

		cursor = parent
	}

	if err := b.db.WriteHeadHash(header.Hash); err != nil {
		return err
	}

	b.lock.Lock()
	b.head = header.Copy()
	b.lock.Unlock()

	updateHeightMetric(header.Number)

	return b.updateForks(oldHead)
}

// updateForks drops the side chain tips that became part of the best chain
// and keeps the old head if it left it
func (b *Blockchain) updateForks(oldHead *types.Header) error {
	forks, err := b.db.ReadForks()
	if err != nil {
		return err
	}

	newForks := []types.Hash{}

	for _, fork := range forks {
		if !b.IsOnActiveChain(fork) {
			newForks = append(newForks, fork)
		}
	}

	if oldHead != nil && !b.isCanonical(oldHead) && !containsHash(newForks, oldHead.Hash) {
		newForks = append(newForks, oldHead.Hash)
	}

	return b.db.WriteForks(newForks)
}

// ActivateBestChain makes the chain ending in the block the best chain.
// The caller holds the engine lock
func (b *Blockchain) ActivateBestChain(hash types.Hash) error {
	header, ok := b.GetHeader(hash)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBlock, hash)
	}

	if b.db.IsFailed(hash) {
		return fmt.Errorf("%w: %s", ErrFailedBlock, hash)
	}

	if b.isCanonical(header) {
		return nil
	}

	b.logger.Info("activate best chain", "hash", hash, "number", header.Number)

	return b.setHead(header)
}

// InvalidateBlock marks the block and its known descendants as failed and moves
// the best chain away from them. The caller holds the engine lock
func (b *Blockchain) InvalidateBlock(hash types.Hash) error {
	header, ok := b.GetHeader(hash)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBlock, hash)
	}

	if header.Number == 0 {
		return fmt.Errorf("%w: cannot invalidate the genesis block", ErrInvalidNumber)
	}

	if err := b.db.WriteFailed(hash); err != nil {
		return err
	}

	forks, err := b.db.ReadForks()
	if err != nil {
		return err
	}

	head := b.Tip()
	wasCanonical := b.isCanonical(header)

	for _, tip := range append(forks, head.Hash) {
		if err := b.invalidateDescendants(tip, header); err != nil {
			return err
		}
	}

	b.logger.Warn("block invalidated", "hash", hash, "number", header.Number)

	if !wasCanonical {
		return nil
	}

	best, err := b.bestValidTip(header.ParentHash, forks)
	if err != nil {
		return err
	}

	return b.setHead(best)
}

// invalidateDescendants marks the blocks between tip and the failed block
// if the tip descends from it
func (b *Blockchain) invalidateDescendants(tip types.Hash, failed *types.Header) error {
	cursor, ok := b.GetHeader(tip)
	if !ok || cursor.Number <= failed.Number {
		return nil
	}

	path := []types.Hash{}

	for cursor.Number > failed.Number {
		path = append(path, cursor.Hash)

		if cursor, ok = b.GetHeader(cursor.ParentHash); !ok {
			return nil
		}
	}

	if cursor.Hash != failed.Hash {
		return nil
	}

	for _, h := range path {
		if err := b.db.WriteFailed(h); err != nil {
			return err
		}
	}

	return nil
}

// bestValidTip returns the highest valid block among the parent of the
// invalidated block and the side chain tips
func (b *Blockchain) bestValidTip(parentHash types.Hash, forks []types.Hash) (*types.Header, error) {
	best, ok := b.GetHeader(parentHash)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrParentNotFound, parentHash)
	}

	for _, fork := range forks {
		cursor, ok := b.GetHeader(fork)
		for ok && b.db.IsFailed(cursor.Hash) {
			cursor, ok = b.GetHeader(cursor.ParentHash)
		}

		if ok && cursor.Number > best.Number {
			best = cursor
		}
	}

	return best, nil
}

// Locator returns the block locator of the best chain: the latest hashes
// one by one, then exponentially spaced, and the genesis last
func (b *Blockchain) Locator() []types.Hash {
	head := b.Tip()
	if head == nil {
		return nil
	}

	locator := []types.Hash{}
	step := uint64(1)
	n := head.Number

	for {
		hash, ok := b.db.ReadCanonicalHash(n)
		if ok {
			locator = append(locator, hash)
		}

		if n == 0 {
			break
		}

		if len(locator) >= locatorDenseSteps {
			step *= 2
		}

		if n < step {
			n = 0
		} else {
			n -= step
		}
	}

	return locator
}

// HeadersAfter returns the headers of the best chain that follow the first
// locator hash found on it, at most max of them
func (b *Blockchain) HeadersAfter(locator []types.Hash, max int) []*types.Header {
	if max <= 0 || max > MaxHeadersPerRequest {
		max = MaxHeadersPerRequest
	}

	start := uint64(0)

	for _, hash := range locator {
		if header, ok := b.GetHeader(hash); ok && b.isCanonical(header) {
			start = header.Number + 1

			break
		}
	}

	headers := []*types.Header{}

	for n := start; len(headers) < max; n++ {
		header, ok := b.GetHeaderByNumber(n)
		if !ok {
			break
		}

		headers = append(headers, header)
	}

	return headers
}

// Close closes the storage
func (b *Blockchain) Close() error {
	return b.db.Close()
}

func containsHash(list []types.Hash, hash types.Hash) bool {
	for _, h := range list {
		if h == hash {
			return true
		}
	}

	return false
}

func updateHeightMetric(n uint64) {
	metrics.SetGauge([]string{"blockchain", "height"}, float32(n))
}
