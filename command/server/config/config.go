package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl"
	"gopkg.in/yaml.v3"

	"github.com/syncpoint-network/syncpoint/network"
	"github.com/syncpoint-network/syncpoint/server"
)

// Config defines the server configuration params
type Config struct {
	ChainPath         string      `json:"chain" yaml:"chain" hcl:"chain"`
	SecretsConfigPath string      `json:"secrets_config" yaml:"secrets_config" hcl:"secrets_config"`
	DataDir           string      `json:"data_dir" yaml:"data_dir" hcl:"data_dir"`
	BlockIndexBackend string      `json:"block_index" yaml:"block_index" hcl:"block_index"`
	CheckpointBackend string      `json:"checkpoint_backend" yaml:"checkpoint_backend" hcl:"checkpoint_backend"`
	Consensus         string      `json:"consensus" yaml:"consensus" hcl:"consensus"`
	ShouldSeal        bool        `json:"seal" yaml:"seal" hcl:"seal"`
	BlockTime         int64       `json:"block_time_s" yaml:"block_time_s" hcl:"block_time_s"`
	Telemetry         *Telemetry  `json:"telemetry" yaml:"telemetry" hcl:"telemetry"`
	Network           *Network    `json:"network" yaml:"network" hcl:"network"`
	Checkpoint        *Checkpoint `json:"checkpoint" yaml:"checkpoint" hcl:"checkpoint"`
	LogLevel          string      `json:"log_level" yaml:"log_level" hcl:"log_level"`
	LogFilePath       string      `json:"log_to" yaml:"log_to" hcl:"log_to"`
	JSONLogFormat     bool        `json:"json_log_format" yaml:"json_log_format" hcl:"json_log_format"`
}

// Telemetry holds the config details for metric services.
type Telemetry struct {
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr" hcl:"prometheus_addr"`
}

// Network defines the network configuration params
type Network struct {
	NoDiscover  bool     `json:"no_discover" yaml:"no_discover" hcl:"no_discover"`
	Libp2pAddr  string   `json:"libp2p_addr" yaml:"libp2p_addr" hcl:"libp2p_addr"`
	NatAddr     string   `json:"nat_addr" yaml:"nat_addr" hcl:"nat_addr"`
	MaxPeers    int64    `json:"max_peers,omitempty" yaml:"max_peers,omitempty" hcl:"max_peers"`
	BanDuration string   `json:"ban_duration,omitempty" yaml:"ban_duration,omitempty" hcl:"ban_duration"`
	Bootnodes   []string `json:"bootnodes,omitempty" yaml:"bootnodes,omitempty" hcl:"bootnodes"`
}

// Checkpoint defines the sync checkpoint params
type Checkpoint struct {
	MasterPubKey      string   `json:"master_pub_key" yaml:"master_pub_key" hcl:"master_pub_key"`
	BadBlocks         []string `json:"bad_blocks" yaml:"bad_blocks" hcl:"bad_blocks"`
	Interval          int64    `json:"interval_s" yaml:"interval_s" hcl:"interval_s"`
	LocktimeThreshold int64    `json:"locktime_threshold" yaml:"locktime_threshold" hcl:"locktime_threshold"`
	MaxAge            int64    `json:"max_age_s" yaml:"max_age_s" hcl:"max_age_s"`
	RelayCacheSize    int      `json:"relay_cache_size" yaml:"relay_cache_size" hcl:"relay_cache_size"`
}

const (
	// DefaultBlockTime is the block time of the dev consensus, in seconds
	DefaultBlockTime int64 = 2
)

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	defaultNetworkConfig := network.DefaultConfig()

	return &Config{
		ChainPath:         "mainnet",
		DataDir:           "",
		BlockIndexBackend: server.LevelDBBackend,
		CheckpointBackend: server.FileBackend,
		Consensus:         string(server.NoProofConsensus),
		Network: &Network{
			NoDiscover: defaultNetworkConfig.NoDiscover,
			MaxPeers:   defaultNetworkConfig.MaxPeers,
			Libp2pAddr: fmt.Sprintf("%s:%d",
				defaultNetworkConfig.Addr.IP,
				defaultNetworkConfig.Addr.Port,
			),
			BanDuration: defaultNetworkConfig.BanDuration.String(),
		},
		Telemetry:  &Telemetry{},
		Checkpoint: &Checkpoint{
			Interval: int64(server.DefaultCheckpointInterval.Seconds()),
		},
		ShouldSeal:  false,
		BlockTime:   DefaultBlockTime,
		LogLevel:    "INFO",
		LogFilePath: "",
	}
}

// ReadConfigFile reads the config file from the specified path, builds a Config object
// and returns it.
//
// Supported file types: .json, .hcl, .yaml, .yml
func ReadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var unmarshalFunc func([]byte, interface{}) error

	switch {
	case strings.HasSuffix(path, ".hcl"):
		unmarshalFunc = hcl.Unmarshal
	case strings.HasSuffix(path, ".json"):
		unmarshalFunc = json.Unmarshal
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		unmarshalFunc = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("suffix of %s is neither hcl, json, yaml nor yml", path)
	}

	config := DefaultConfig()

	if err := unmarshalFunc(data, config); err != nil {
		return nil, err
	}

	return config, nil
}
