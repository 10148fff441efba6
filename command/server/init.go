package server

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/syncpoint-network/syncpoint/chain"
	"github.com/syncpoint-network/syncpoint/command/helper"
	"github.com/syncpoint-network/syncpoint/command/server/config"
	"github.com/syncpoint-network/syncpoint/crypto"
	"github.com/syncpoint-network/syncpoint/secrets"
	"github.com/syncpoint-network/syncpoint/server"
	"github.com/syncpoint-network/syncpoint/types"
)

var (
	errInvalidBlockTime       = errors.New("invalid block time specified")
	errDataDirectoryUndefined = errors.New("data directory not defined")
	errInvalidInterval        = errors.New("invalid checkpoint interval specified")
)

func (p *serverParams) initConfigFromFile() error {
	var parseErr error

	if p.rawConfig, parseErr = config.ReadConfigFile(p.configPath); parseErr != nil {
		return parseErr
	}

	return nil
}

func (p *serverParams) initRawParams() error {
	if err := p.validateBackends(); err != nil {
		return err
	}

	if err := p.initSecretsConfig(); err != nil {
		return err
	}

	if err := p.initGenesisConfig(); err != nil {
		return err
	}

	if err := p.initDataDirLocation(); err != nil {
		return err
	}

	if err := p.initBlockTime(); err != nil {
		return err
	}

	if err := p.initCheckpoint(); err != nil {
		return err
	}

	if err := p.initBanDuration(); err != nil {
		return err
	}

	p.logLevel = hclog.LevelFromString(p.rawConfig.LogLevel)
	if p.logLevel == hclog.NoLevel {
		return fmt.Errorf("invalid log level %q", p.rawConfig.LogLevel)
	}

	return p.initAddresses()
}

func (p *serverParams) validateBackends() error {
	if !server.ConsensusSupported(p.rawConfig.Consensus) {
		return fmt.Errorf("unsupported consensus %q", p.rawConfig.Consensus)
	}

	if !server.BlockIndexBackendSupported(p.rawConfig.BlockIndexBackend) {
		return fmt.Errorf("unsupported block index backend %q", p.rawConfig.BlockIndexBackend)
	}

	if !server.CheckpointBackendSupported(p.rawConfig.CheckpointBackend) {
		return fmt.Errorf("unsupported checkpoint backend %q", p.rawConfig.CheckpointBackend)
	}

	return nil
}

func (p *serverParams) initBlockTime() error {
	if p.rawConfig.BlockTime < 1 {
		return errInvalidBlockTime
	}

	return nil
}

func (p *serverParams) initDataDirLocation() error {
	if p.rawConfig.DataDir == "" {
		return errDataDirectoryUndefined
	}

	return nil
}

func (p *serverParams) initSecretsConfig() error {
	if !p.isSecretsConfigPathSet() {
		return nil
	}

	var parseErr error

	if p.secretsConfig, parseErr = secrets.ReadConfig(
		p.rawConfig.SecretsConfigPath,
	); parseErr != nil {
		return fmt.Errorf("unable to read secrets config file, %w", parseErr)
	}

	if !secrets.SupportedServiceManager(p.secretsConfig.Type) {
		return fmt.Errorf("unsupported secrets manager %q", p.secretsConfig.Type)
	}

	return nil
}

func (p *serverParams) initGenesisConfig() error {
	var parseErr error

	if p.genesisConfig, parseErr = chain.Import(
		p.rawConfig.ChainPath,
	); parseErr != nil {
		return fmt.Errorf("failed to load chain %q: %w", p.rawConfig.ChainPath, parseErr)
	}

	return nil
}

func (p *serverParams) initCheckpoint() error {
	cp := p.rawConfig.Checkpoint
	if cp == nil {
		cp = &config.Checkpoint{}
		p.rawConfig.Checkpoint = cp
	}

	if cp.Interval < 0 || cp.MaxAge < 0 {
		return errInvalidInterval
	}

	if cp.MasterPubKey != "" {
		if _, err := crypto.ParsePublicKeyHex(cp.MasterPubKey); err != nil {
			return fmt.Errorf("invalid checkpoint master key: %w", err)
		}
	}

	p.badBlocks = make([]types.Hash, 0, len(cp.BadBlocks))

	for _, raw := range cp.BadBlocks {
		hash, err := types.ParseHash(raw)
		if err != nil {
			return fmt.Errorf("invalid bad block %q: %w", raw, err)
		}

		p.badBlocks = append(p.badBlocks, hash)
	}

	return nil
}

func (p *serverParams) initBanDuration() error {
	if p.rawConfig.Network.BanDuration == "" {
		return nil
	}

	var err error

	if p.banDuration, err = time.ParseDuration(p.rawConfig.Network.BanDuration); err != nil {
		return fmt.Errorf("invalid ban duration: %w", err)
	}

	return nil
}

func (p *serverParams) initAddresses() error {
	if err := p.initPrometheusAddress(); err != nil {
		return err
	}

	if err := p.initLibp2pAddress(); err != nil {
		return err
	}

	return p.initNATAddress()
}

func (p *serverParams) initPrometheusAddress() error {
	if !p.isPrometheusAddressSet() {
		return nil
	}

	var parseErr error

	if p.prometheusAddress, parseErr = helper.ResolveAddr(
		p.rawConfig.Telemetry.PrometheusAddr,
		helper.AllInterfacesBinding,
	); parseErr != nil {
		return parseErr
	}

	return nil
}

func (p *serverParams) initLibp2pAddress() error {
	var parseErr error

	if p.libp2pAddress, parseErr = helper.ResolveAddr(
		p.rawConfig.Network.Libp2pAddr,
		helper.LocalHostBinding,
	); parseErr != nil {
		return parseErr
	}

	return nil
}

func (p *serverParams) initNATAddress() error {
	if !p.isNATAddressSet() {
		return nil
	}

	if p.natAddress = net.ParseIP(
		p.rawConfig.Network.NatAddr,
	); p.natAddress == nil {
		return errInvalidNATAddress
	}

	return nil
}
