package server

import (
	"errors"
	"net"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/syncpoint-network/syncpoint/chain"
	"github.com/syncpoint-network/syncpoint/command/server/config"
	"github.com/syncpoint-network/syncpoint/network"
	"github.com/syncpoint-network/syncpoint/secrets"
	"github.com/syncpoint-network/syncpoint/server"
	"github.com/syncpoint-network/syncpoint/types"
)

const (
	configFlag             = "config"
	chainFlag              = "chain"
	dataDirFlag            = "data-dir"
	libp2pAddressFlag      = "libp2p"
	prometheusAddressFlag  = "prometheus"
	natFlag                = "nat"
	sealFlag               = "seal"
	maxPeersFlag           = "max-peers"
	bootnodeFlag           = "bootnode"
	secretsConfigFlag      = "secrets-config"
	blockTimeFlag          = "block-time"
	blockIndexFlag         = "block-index"
	checkpointBackendFlag  = "checkpoint-backend"
	consensusFlag          = "consensus"
	masterKeyFlag          = "checkpoint-master-key"
	badBlockFlag           = "bad-block"
	checkpointIntervalFlag = "checkpoint-interval"
	checkpointMaxAgeFlag   = "checkpoint-max-age"
	logFileLocationFlag    = "log-to"
	jsonLogFormatFlag      = "json-log-format"
)

var (
	params = &serverParams{
		rawConfig: &config.Config{
			Telemetry:  &config.Telemetry{},
			Network:    &config.Network{},
			Checkpoint: &config.Checkpoint{},
		},
	}
)

var (
	errInvalidNATAddress = errors.New("could not parse NAT IP address")
)

type serverParams struct {
	rawConfig  *config.Config
	configPath string

	libp2pAddress     *net.TCPAddr
	prometheusAddress *net.TCPAddr
	natAddress        net.IP
	banDuration       time.Duration
	badBlocks         []types.Hash
	logLevel          hclog.Level

	genesisConfig *chain.Chain
	secretsConfig *secrets.SecretsManagerConfig
}

func (p *serverParams) isSecretsConfigPathSet() bool {
	return p.rawConfig.SecretsConfigPath != ""
}

func (p *serverParams) isPrometheusAddressSet() bool {
	return p.rawConfig.Telemetry.PrometheusAddr != ""
}

func (p *serverParams) isNATAddressSet() bool {
	return p.rawConfig.Network.NatAddr != ""
}

func (p *serverParams) generateConfig() *server.Config {
	chainConfig := p.genesisConfig
	chainConfig.Bootnodes = append(chainConfig.Bootnodes, p.rawConfig.Network.Bootnodes...)

	return &server.Config{
		Chain: chainConfig,
		Telemetry: &server.Telemetry{
			PrometheusAddr: p.prometheusAddress,
		},
		Network: &network.Config{
			NoDiscover:  p.rawConfig.Network.NoDiscover,
			Addr:        p.libp2pAddress,
			NatAddr:     p.natAddress,
			MaxPeers:    p.rawConfig.Network.MaxPeers,
			BanDuration: p.banDuration,
		},
		DataDir:           p.rawConfig.DataDir,
		BlockIndexBackend: p.rawConfig.BlockIndexBackend,
		CheckpointBackend: p.rawConfig.CheckpointBackend,
		Consensus:         server.ConsensusType(p.rawConfig.Consensus),
		Seal:              p.rawConfig.ShouldSeal,
		BlockTime:         time.Duration(p.rawConfig.BlockTime) * time.Second,
		Checkpoint: &server.Checkpoint{
			MasterPubKey:      p.rawConfig.Checkpoint.MasterPubKey,
			BadBlocks:         p.badBlocks,
			Interval:          time.Duration(p.rawConfig.Checkpoint.Interval) * time.Second,
			LocktimeThreshold: p.rawConfig.Checkpoint.LocktimeThreshold,
			MaxAge:            uint64(p.rawConfig.Checkpoint.MaxAge),
			RelayCacheSize:    p.rawConfig.Checkpoint.RelayCacheSize,
		},
		SecretsManager: p.secretsConfig,
		LogLevel:       p.logLevel,
		JSONLogFormat:  p.rawConfig.JSONLogFormat,
		LogFilePath:    p.rawConfig.LogFilePath,
	}
}
