package consensus

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/syncpoint-network/syncpoint/blockchain"
	"github.com/syncpoint-network/syncpoint/types"
)

// Consensus is the interface for consensus
type Consensus interface {
	// VerifyHeader verifies the header is correct
	VerifyHeader(parent *types.Header, header *types.Header) error

	// Start starts the consensus
	Start() error

	// Close closes the connection
	Close() error
}

// Config is the configuration for the consensus
type Config struct {
	// Logger to be used by the backend
	Logger hclog.Logger

	// BlockTime is the interval between produced blocks, if the backend produces any
	BlockTime time.Duration

	// Specific configuration parameters for the backend
	Config map[string]interface{}
}

// Params are the parameters passed to the consensus factory
type Params struct {
	Context    context.Context
	Config     *Config
	Blockchain *blockchain.Blockchain
	Logger     hclog.Logger
}

// Factory is the factory function to create a consensus backend
type Factory func(*Params) (Consensus, error)
