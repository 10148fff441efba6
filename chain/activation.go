package chain

import (
	"errors"
	"sync"

	"github.com/hashicorp/go-hclog"
)

const (
	// LocktimeThreshold is the default boundary below which an activation
	// value is read as a block height, and at or above which as a UNIX timestamp
	LocktimeThreshold int64 = 500000000

	// mclActivationTimestamp is the activation time of sync checkpoints on MCL
	mclActivationTimestamp int64 = 1767225600

	mclMasterPubKey = "03fdc6ca526c0cfaed2211d03dc2ea9c083aea127c7769d97dc92fed2085803ce3"
)

var (
	// ErrActivationNotConfigured is returned when the chain has no sync checkpoint params,
	// the protocol is inert for it
	ErrActivationNotConfigured = errors.New("sync checkpoints not configured for chain")
)

// SyncCheckpointParams are the activation threshold and the authority key of a chain
type SyncCheckpointParams struct {
	// ActiveAt is a block height when below the locktime threshold, a timestamp otherwise
	ActiveAt int64 `json:"activeAt"`

	// MasterPubKey is the hex encoded authority public key
	MasterPubKey string `json:"masterPubKey"`
}

// ChainIdentity selects the activation params. An empty symbol is the main chain
type ChainIdentity struct {
	Symbol  string
	Testnet bool
}

func (c ChainIdentity) String() string {
	if c.Symbol != "" {
		return c.Symbol
	}

	if c.Testnet {
		return "testnet"
	}

	return "mainnet"
}

// ActivationPolicy resolves whether sync checkpoints are enforced
// for a chain at a given height or time
type ActivationPolicy struct {
	lock sync.RWMutex

	mainnet     *SyncCheckpointParams
	testnet     *SyncCheckpointParams
	assetChains map[string]SyncCheckpointParams

	threshold int64
	logger    hclog.Logger
}

// NewActivationPolicy creates an empty policy, no chain is configured
func NewActivationPolicy(threshold int64, logger hclog.Logger) *ActivationPolicy {
	if threshold <= 0 {
		threshold = LocktimeThreshold
	}

	return &ActivationPolicy{
		assetChains: map[string]SyncCheckpointParams{},
		threshold:   threshold,
		logger:      logger.Named("activation"),
	}
}

// DefaultActivationPolicy returns the policy with the known chains configured
func DefaultActivationPolicy(threshold int64, logger hclog.Logger) *ActivationPolicy {
	p := NewActivationPolicy(threshold, logger)
	p.assetChains["MCL"] = SyncCheckpointParams{
		ActiveAt:     mclActivationTimestamp,
		MasterPubKey: mclMasterPubKey,
	}

	return p
}

// Threshold returns the height/timestamp boundary in use
func (p *ActivationPolicy) Threshold() int64 {
	return p.threshold
}

// Set configures (or overrides) the params of a chain
func (p *ActivationPolicy) Set(id ChainIdentity, params SyncCheckpointParams) {
	p.lock.Lock()
	defer p.lock.Unlock()

	switch {
	case id.Symbol != "":
		p.assetChains[id.Symbol] = params
	case id.Testnet:
		p.testnet = &params
	default:
		p.mainnet = &params
	}
}

// Params returns the activation params of the chain
func (p *ActivationPolicy) Params(id ChainIdentity) (SyncCheckpointParams, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	var params *SyncCheckpointParams

	switch {
	case id.Symbol != "":
		if pp, ok := p.assetChains[id.Symbol]; ok {
			params = &pp
		}
	case id.Testnet:
		params = p.testnet
	default:
		params = p.mainnet
	}

	if params == nil {
		p.logger.Debug("no sync checkpoint params", "chain", id)

		return SyncCheckpointParams{}, ErrActivationNotConfigured
	}

	return *params, nil
}

// IsActive returns the chain params and whether sync checkpoints are active
// at the given height and time. Activation requires the value to be strictly greater
// than the threshold
func (p *ActivationPolicy) IsActive(id ChainIdentity, height uint64, timestamp int64) (SyncCheckpointParams, bool) {
	params, err := p.Params(id)
	if err != nil {
		return params, false
	}

	if params.ActiveAt < p.threshold {
		if int64(height) > params.ActiveAt {
			p.logger.Debug("sync checkpoint active", "height", height, "activeAt", params.ActiveAt)

			return params, true
		}

		return params, false
	}

	if timestamp > params.ActiveAt {
		p.logger.Debug("sync checkpoint active", "timestamp", timestamp, "activeAt", params.ActiveAt)

		return params, true
	}

	return params, false
}
