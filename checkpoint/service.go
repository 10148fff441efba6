package checkpoint

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/syncpoint-network/syncpoint/checkpoint/storage"
	"github.com/syncpoint-network/syncpoint/types"
)

// Outcome is the result of processing a checkpoint message
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeAccepted
	OutcomePending
	OutcomeStale
	OutcomeAlreadyAccepted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomePending:
		return "pending"
	case OutcomeStale:
		return "stale"
	case OutcomeAlreadyAccepted:
		return "already accepted"
	default:
		return "rejected"
	}
}

// Config is the checkpoint service configuration
type Config struct {
	// Magic is the network identity prefix of the persisted records
	Magic [4]byte

	// MasterPubKey is the hex encoded authority public key
	MasterPubKey string

	// BadBlocks are invalidated on every load of the persisted checkpoint
	BadBlocks []types.Hash

	// RelayCacheSize bounds the per-peer relay state
	RelayCacheSize int

	// KeyStore locates the authority private key, only needed on the issuing node
	KeyStore KeyStore

	// BanClearer lifts peer bans after bad blocks were invalidated
	BanClearer BanClearer
}

// Status is a snapshot of the checkpoint state
type Status struct {
	Current       types.Hash `json:"current"`
	CurrentHeight uint64     `json:"currentHeight"`
	Pending       types.Hash `json:"pending"`
	LastInvalid   types.Hash `json:"lastInvalid"`
	MasterPubKey  string     `json:"masterPubKey"`
	IsAuthority   bool       `json:"isAuthority"`
}

// Service owns the synchronized checkpoint state
type Service struct {
	config      *Config
	logger      hclog.Logger
	index       ChainIndex
	broadcaster PeerBroadcaster
	clock       Clock
	persistence *Persistence
	relay       *Relay

	lock           sync.Mutex
	current        types.Hash
	currentMessage *Message
	pending        types.Hash
	pendingMessage *Message
	lastInvalid    types.Hash
	authorityKey   *btcec.PrivateKey
	tryInitDone    bool
}

// NewService creates the checkpoint service. The state is empty until Open is called
func NewService(
	config *Config,
	index ChainIndex,
	backend storage.Backend,
	broadcaster PeerBroadcaster,
	clock Clock,
	logger hclog.Logger,
) (*Service, error) {
	logger = logger.Named("checkpoint")

	if clock == nil {
		clock = SystemClock{}
	}

	relay, err := NewRelay(broadcaster, config.RelayCacheSize, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		config:      config,
		logger:      logger,
		index:       index,
		broadcaster: broadcaster,
		clock:       clock,
		persistence: NewPersistence(backend, config.Magic, config.BadBlocks, index, config.BanClearer, logger),
		relay:       relay,
	}, nil
}

// Relay returns the peer relay of the service
func (s *Service) Relay() *Relay {
	return s.relay
}

// followup is the network work left after the locks are released
type followup struct {
	relay   *Message
	askPeer PeerID
}

// ProcessMessage handles a checkpoint message received from a peer. An empty peer id
// means the message was produced locally
func (s *Service) ProcessMessage(from PeerID, msg *Message) (Outcome, error) {
	if _, err := msg.Verify(s.config.MasterPubKey); err != nil {
		s.logger.Debug("dropping checkpoint", "peer", from, "reason", "signature check", "err", err)
		rejectedCheckpointsInc("signature")

		return OutcomeRejected, err
	}

	if msg.IsNull() {
		rejectedCheckpointsInc("invalid")

		return OutcomeRejected, fmt.Errorf("%w: null checkpoint", ErrUnknownBlock)
	}

	outcome, next, err := s.processMessage(from, msg)

	s.runFollowup(next)

	return outcome, err
}

func (s *Service) processMessage(from PeerID, msg *Message) (Outcome, followup, error) {
	s.index.Lock()
	defer s.index.Unlock()

	s.lock.Lock()
	defer s.lock.Unlock()

	hash := msg.Hash()

	if hash == s.current && !hash.IsZero() {
		return OutcomeAlreadyAccepted, followup{}, nil
	}

	if _, ok := s.index.GetHeader(hash); !ok {
		// the checkpoint chain is not received yet, keep it as pending
		s.pending = hash
		s.pendingMessage = msg
		pendingSet(true)

		s.logger.Debug("pending for sync-checkpoint", "hash", hash, "peer", from)

		return OutcomePending, followup{askPeer: from}, nil
	}

	if err := s.acceptLocked(hash, msg); err != nil {
		return s.rejection(hash, err)
	}

	return OutcomeAccepted, followup{relay: msg}, nil
}

func (s *Service) rejection(hash types.Hash, err error) (Outcome, followup, error) {
	switch {
	case errors.Is(err, ErrStale):
		s.logger.Debug("ignoring old sync-checkpoint", "hash", hash, "reason", err)
		rejectedCheckpointsInc("stale")

		return OutcomeStale, followup{}, nil
	case errors.Is(err, ErrConflict):
		s.logger.Error("rejected sync-checkpoint", "hash", hash, "err", err)
		rejectedCheckpointsInc("conflict")
	case errors.Is(err, ErrIO), errors.Is(err, ErrIndexCorrupt), errors.Is(err, ErrActivate):
		s.logger.Error("failed to accept sync-checkpoint", "hash", hash, "err", err)
		rejectedCheckpointsInc("failure")
	default:
		s.logger.Debug("rejected sync-checkpoint", "hash", hash, "err", err)
		rejectedCheckpointsInc("invalid")
	}

	return OutcomeRejected, followup{}, err
}

// acceptLocked validates, activates and persists the checkpoint and installs it as current.
// Both the index and the checkpoint lock are held
func (s *Service) acceptLocked(hash types.Hash, msg *Message) error {
	if err := Validate(hash, s.current, s.index); err != nil {
		if errors.Is(err, ErrConflict) {
			s.lastInvalid = hash
		}

		return err
	}

	if !s.index.IsOnActiveChain(hash) {
		// checkpoint chain received but not yet the best chain
		if err := s.index.ActivateBestChain(hash); err != nil {
			s.lastInvalid = hash

			return fmt.Errorf("%w %s: %w", ErrActivate, hash, err)
		}
	}

	if err := s.persistence.WriteCheckpoint(hash); err != nil {
		return err
	}

	s.setCurrentLocked(hash, msg)

	if !s.pending.IsZero() && s.supersedesPendingLocked(hash) {
		s.clearPendingLocked()
	}

	acceptedCheckpointsInc()
	s.logger.Info("sync-checkpoint accepted", "hash", hash)

	return nil
}

// supersedesPendingLocked returns true if the pending checkpoint is the accepted one
// or a known block not above it
func (s *Service) supersedesPendingLocked(accepted types.Hash) bool {
	if s.pending == accepted {
		return true
	}

	pendingHeader, ok := s.index.GetHeader(s.pending)
	if !ok {
		return false
	}

	acceptedHeader, ok := s.index.GetHeader(accepted)

	return ok && pendingHeader.Number <= acceptedHeader.Number
}

func (s *Service) setCurrentLocked(hash types.Hash, msg *Message) {
	s.current = hash
	s.currentMessage = msg

	if header, ok := s.index.GetHeader(hash); ok {
		currentHeightSet(header.Number)
	}
}

func (s *Service) clearPendingLocked() {
	s.pending = types.ZeroHash
	s.pendingMessage = nil
	pendingSet(false)
}

func (s *Service) runFollowup(next followup) {
	if next.relay != nil {
		if n := s.relay.RelayAll(next.relay); n > 0 {
			s.logger.Debug("relayed sync-checkpoint", "hash", next.relay.Hash(), "peers", n)
		}
	}

	if next.askPeer != "" {
		s.AskForPending(next.askPeer)
	}
}

// AcceptPending accepts the pending checkpoint once its block is known.
// On failure the pending state is dropped, it is not retried
func (s *Service) AcceptPending() (bool, error) {
	accepted, next, err := s.acceptPending()

	s.runFollowup(next)

	return accepted, err
}

func (s *Service) acceptPending() (bool, followup, error) {
	s.index.Lock()
	defer s.index.Unlock()

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.pending.IsZero() {
		return false, followup{}, nil
	}

	if _, ok := s.index.GetHeader(s.pending); !ok {
		return false, followup{}, nil
	}

	hash, msg := s.pending, s.pendingMessage

	if hash == s.current {
		s.clearPendingLocked()

		return false, followup{}, nil
	}

	if err := s.acceptLocked(hash, msg); err != nil {
		s.clearPendingLocked()

		_, _, err = s.rejection(hash, err)

		return false, followup{}, err
	}

	return true, followup{relay: msg}, nil
}

// Reset moves the checkpoint to the latest hardcoded checkpoint (the genesis block if there is none),
// activating it if needed. Descendant validation is bypassed
func (s *Service) Reset() error {
	s.index.Lock()
	defer s.index.Unlock()

	s.lock.Lock()
	defer s.lock.Unlock()

	return s.resetLocked()
}

func (s *Service) resetLocked() error {
	hash := s.index.GenesisHash()
	if hardcoded := s.index.HardcodedCheckpoints(); len(hardcoded) > 0 {
		hash = hardcoded[len(hardcoded)-1]
	}

	if _, ok := s.index.GetHeader(hash); !ok {
		return fmt.Errorf("%w: hardened checkpoint %s", ErrUnknownBlock, hash)
	}

	if !s.index.IsOnActiveChain(hash) {
		s.logger.Info("set best chain to hardened checkpoint", "hash", hash)

		if err := s.index.ActivateBestChain(hash); err != nil {
			return fmt.Errorf("%w: hardened checkpoint %s: %w", ErrActivate, hash, err)
		}
	}

	if err := s.persistence.WriteCheckpoint(hash); err != nil {
		return err
	}

	s.setCurrentLocked(hash, nil)
	s.logger.Info("sync-checkpoint reset", "hash", hash)

	return nil
}

// maxAgeSeconds is the largest age a time.Duration can hold
const maxAgeSeconds = uint64(math.MaxInt64 / int64(time.Second))

// IsTooOld returns true if there is no checkpoint or the checkpoint block
// is older than the given number of seconds
func (s *Service) IsTooOld(seconds uint64) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.current.IsZero() {
		return true
	}

	header, ok := s.index.GetHeader(s.current)
	if !ok {
		s.logger.Error("block index missing for current sync-checkpoint", "hash", s.current)

		return true
	}

	if seconds > maxAgeSeconds {
		seconds = maxAgeSeconds
	}

	deadline := time.Unix(int64(header.Timestamp), 0).Add(time.Duration(seconds) * time.Second)

	return deadline.Before(s.clock.Now())
}

// IsSecuredBy returns true if the block is strictly below the checkpoint height.
// The caller holds the engine lock
func (s *Service) IsSecuredBy(hash types.Hash) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.current.IsZero() {
		return false
	}

	syncHeader, ok := s.index.GetHeader(s.current)
	if !ok {
		return false
	}

	header, ok := s.index.GetHeader(hash)
	if !ok {
		return false
	}

	return header.Number < syncHeader.Number
}

// CheckSync returns true if a block with the given parent may be added under the current checkpoint:
// above the checkpoint it must descend from it, at its height it must be the checkpoint
// and below it the block must already be known. The caller holds the engine lock
func (s *Service) CheckSync(hash, parentHash types.Hash) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.current.IsZero() {
		return true
	}

	syncHeader, ok := s.index.GetHeader(s.current)
	if !ok {
		s.logger.Error("block index missing for current sync-checkpoint", "hash", s.current)

		return false
	}

	parent, ok := s.index.GetHeader(parentHash)
	if !ok {
		s.logger.Debug("check sync: unknown parent", "hash", hash, "parent", parentHash)

		return false
	}

	height := parent.Number + 1

	if height > syncHeader.Number {
		ancestor, err := ancestorAt(s.index, parent, syncHeader.Number)
		if err != nil {
			s.logger.Error("check sync failed", "hash", hash, "err", err)

			return false
		}

		if ancestor.Number < syncHeader.Number || ancestor.Hash != s.current {
			s.logger.Debug("check sync: not a sync-checkpoint descendant", "hash", hash)

			return false
		}
	}

	if height == syncHeader.Number && hash != s.current {
		s.logger.Debug("check sync: same height with sync-checkpoint", "hash", hash)

		return false
	}

	if height < syncHeader.Number {
		if _, ok := s.index.GetHeader(hash); !ok {
			s.logger.Debug("check sync: lower height than sync-checkpoint", "hash", hash)

			return false
		}
	}

	return true
}

// WantedByPending returns true if the block is the pending checkpoint
func (s *Service) WantedByPending(hash types.Hash) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return !s.pending.IsZero() && s.pending == hash
}

// AskForPending requests headers from the peer if the pending checkpoint block is unknown
func (s *Service) AskForPending(id PeerID) {
	s.lock.Lock()
	pending := s.pending
	s.lock.Unlock()

	if pending.IsZero() {
		return
	}

	if _, ok := s.index.GetHeader(pending); ok {
		return
	}

	peer, ok := s.broadcaster.GetPeer(id)
	if !ok || !peer.Connected() {
		return
	}

	locator := s.index.Locator()

	s.logger.Debug("getheaders for pending sync-checkpoint", "peer", id, "hash", pending, "locator", len(locator))

	if err := peer.RequestHeaders(locator); err != nil {
		s.logger.Debug("failed to request headers", "peer", id, "err", err)
	}
}

// Current returns the accepted checkpoint
func (s *Service) Current() types.Hash {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.current
}

// CurrentMessage returns the signed message of the accepted checkpoint,
// nil if it was not received from the authority
func (s *Service) CurrentMessage() *Message {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.currentMessage
}

// Pending returns the pending checkpoint
func (s *Service) Pending() types.Hash {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.pending
}

// LastInvalid returns the last checkpoint that conflicted or failed activation
func (s *Service) LastInvalid() types.Hash {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.lastInvalid
}

// Status returns a snapshot of the state
func (s *Service) Status() Status {
	s.lock.Lock()
	defer s.lock.Unlock()

	status := Status{
		Current:      s.current,
		Pending:      s.pending,
		LastInvalid:  s.lastInvalid,
		MasterPubKey: s.config.MasterPubKey,
		IsAuthority:  s.authorityKey != nil,
	}

	if header, ok := s.index.GetHeader(s.current); ok {
		status.CurrentHeight = header.Number
	}

	return status
}
