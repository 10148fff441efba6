package server

import (
	"net"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/syncpoint-network/syncpoint/chain"
	"github.com/syncpoint-network/syncpoint/network"
	"github.com/syncpoint-network/syncpoint/secrets"
	"github.com/syncpoint-network/syncpoint/types"
)

const (
	DefaultCheckpointInterval = 30 * time.Second
	DefaultActivationInterval = 10 * time.Second
)

// Config is used to parametrize the node
type Config struct {
	Chain *chain.Chain

	Telemetry *Telemetry
	Network   *network.Config

	DataDir string

	// BlockIndexBackend selects the header store: leveldb, boltdb or memory
	BlockIndexBackend string

	// CheckpointBackend selects the checkpoint store: file, boltdb or memory
	CheckpointBackend string

	Consensus ConsensusType
	Seal      bool
	BlockTime time.Duration

	Checkpoint *Checkpoint

	SecretsManager *secrets.SecretsManagerConfig

	LogLevel hclog.Level

	JSONLogFormat bool

	LogFilePath string
}

// Telemetry holds the config details for metric services
type Telemetry struct {
	PrometheusAddr *net.TCPAddr
}

// Checkpoint holds the sync checkpoint settings of the node
type Checkpoint struct {
	// MasterPubKey overrides the authority key of the running chain
	MasterPubKey string

	// BadBlocks are added to the bad blocks of the chain
	BadBlocks []types.Hash

	// Interval is the period of the checkpoint loop
	Interval time.Duration

	// ActivationInterval is how often the tip is checked against the activation point
	ActivationInterval time.Duration

	// LocktimeThreshold is the activation height/timestamp boundary
	LocktimeThreshold int64

	// MaxAge is the checkpoint age in seconds after which the node warns
	MaxAge uint64

	RelayCacheSize int
}
