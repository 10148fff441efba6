package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/syncpoint-network/syncpoint/blockchain"
	"github.com/syncpoint-network/syncpoint/chain"
	"github.com/syncpoint-network/syncpoint/checkpoint"
	cpstorage "github.com/syncpoint-network/syncpoint/checkpoint/storage"
	"github.com/syncpoint-network/syncpoint/consensus"
	"github.com/syncpoint-network/syncpoint/crypto"
	"github.com/syncpoint-network/syncpoint/helper/common"
	"github.com/syncpoint-network/syncpoint/network"
	"github.com/syncpoint-network/syncpoint/secrets"
	secretsHelper "github.com/syncpoint-network/syncpoint/secrets/helper"
	"github.com/syncpoint-network/syncpoint/syncer"
	"github.com/syncpoint-network/syncpoint/types"
)

// BlockchainDir is the directory of the header store under the data dir
const BlockchainDir = "blockchain"

var (
	errUnknownBlockIndexBackend = errors.New("unknown block index backend")
	errUnknownCheckpointBackend = errors.New("unknown checkpoint backend")
	errUnknownConsensus         = errors.New("unknown consensus")
)

// Server is the node. It follows the chain headers and enforces the sync checkpoints
type Server struct {
	logger hclog.Logger
	config *Config
	chain  *chain.Chain

	blockchain *blockchain.Blockchain
	consensus  consensus.Consensus
	network    *network.Server
	syncer     *syncer.Syncer

	// nil when the chain has no sync checkpoint params
	checkpoints       *checkpoint.Service
	checkpointBackend cpstorage.Backend
	policy            *chain.ActivationPolicy

	secretsManager secrets.SecretsManager

	prometheusServer *http.Server

	group  *errgroup.Group
	cancel context.CancelFunc
}

// newFileLogger returns logger instance that writes all logs to a specified file.
// If log file can't be created, it returns an error
func newFileLogger(config *Config) (hclog.Logger, error) {
	logFileWriter, err := os.Create(config.LogFilePath)
	if err != nil {
		return nil, fmt.Errorf("could not create log file, %w", err)
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       "syncpoint",
		Level:      config.LogLevel,
		Output:     logFileWriter,
		JSONFormat: config.JSONLogFormat,
	}), nil
}

// newCLILogger returns minimal logger instance that sends all logs to standard output
func newCLILogger(config *Config) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "syncpoint",
		Level:      config.LogLevel,
		JSONFormat: config.JSONLogFormat,
	})
}

// newLoggerFromConfig creates a new logger which logs to a specified file.
// If log file is not set it outputs to standard output (console).
// If log file is specified, and it can't be created the server command will error out
func newLoggerFromConfig(config *Config) (hclog.Logger, error) {
	if config.LogFilePath != "" {
		fileLoggerInstance, err := newFileLogger(config)
		if err != nil {
			return nil, err
		}

		return fileLoggerInstance, nil
	}

	return newCLILogger(config), nil
}

// NewServer creates a new node, using the passed in configuration
func NewServer(config *Config) (*Server, error) {
	logger, err := newLoggerFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("could not setup new logger instance, %w", err)
	}

	return newServer(config, logger)
}

func newServer(config *Config, logger hclog.Logger) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	m := &Server{
		logger: logger.Named("server"),
		config: config,
		chain:  config.Chain,
		group:  group,
		cancel: cancel,
	}

	if err := m.setup(ctx); err != nil {
		_ = m.Close()

		return nil, err
	}

	return m, nil
}

// OpenLocal opens the block index and the checkpoint state of the data dir
// without networking, for operator commands. Close releases them
func OpenLocal(config *Config, logger hclog.Logger) (*Server, error) {
	s := &Server{
		logger: logger.Named("server"),
		config: config,
		chain:  config.Chain,
		group:  &errgroup.Group{},
		cancel: func() {},
	}

	if err := s.setupLocal(); err != nil {
		_ = s.Close()

		return nil, err
	}

	return s, nil
}

func (s *Server) setupLocal() error {
	if err := common.SetupDataDir(s.config.DataDir, []string{BlockchainDir}); err != nil {
		return err
	}

	secretsManager, err := secretsHelper.SetupSecretsManager(s.config.SecretsManager, s.config.DataDir, s.logger)
	if err != nil {
		return fmt.Errorf("failed to set up the secrets manager: %w", err)
	}

	s.secretsManager = secretsManager

	if err := s.setupBlockchain(); err != nil {
		return err
	}

	return s.setupCheckpoints()
}

func (s *Server) setup(ctx context.Context) error {
	config := s.config
	logger := s.logger

	logger.Info("Data dir", "path", config.DataDir)

	if err := common.SetupDataDir(config.DataDir, []string{BlockchainDir}); err != nil {
		return err
	}

	if config.Telemetry != nil && config.Telemetry.PrometheusAddr != nil {
		if err := s.setupTelemetry(); err != nil {
			return err
		}

		s.prometheusServer = s.startPrometheusServer(config.Telemetry.PrometheusAddr)
	}

	secretsManager, err := secretsHelper.SetupSecretsManager(config.SecretsManager, config.DataDir, logger)
	if err != nil {
		return fmt.Errorf("failed to set up the secrets manager: %w", err)
	}

	s.secretsManager = secretsManager

	if err := s.setupBlockchain(); err != nil {
		return err
	}

	// network
	netConfig := config.Network
	if netConfig == nil {
		netConfig = network.DefaultConfig()
	}

	netConfig.Chain = config.Chain
	netConfig.SecretsManager = secretsManager

	s.network, err = network.NewServer(logger, netConfig)
	if err != nil {
		return err
	}

	if err := s.setupConsensus(ctx); err != nil {
		return err
	}

	s.syncer = syncer.NewSyncer(logger, s.network, s.blockchain, s.consensus)

	if err := s.setupCheckpoints(); err != nil {
		return err
	}

	if s.checkpoints != nil {
		s.syncer.SetCheckpoints(s.checkpoints)
	}

	if err := s.network.Start(); err != nil {
		return err
	}

	if err := s.syncer.Start(ctx); err != nil {
		return err
	}

	if config.Seal {
		if err := s.consensus.Start(); err != nil {
			return err
		}
	}

	if s.checkpoints != nil {
		s.group.Go(func() error {
			s.runActivation(ctx)

			return nil
		})
	}

	return nil
}

func (s *Server) setupBlockchain() error {
	backend := s.config.BlockIndexBackend
	if backend == "" {
		backend = LevelDBBackend
	}

	factory, ok := blockIndexBackends[backend]
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownBlockIndexBackend, backend)
	}

	db, err := factory(filepath.Join(s.config.DataDir, BlockchainDir), s.logger)
	if err != nil {
		return fmt.Errorf("failed to open block index: %w", err)
	}

	s.blockchain, err = blockchain.NewBlockchain(s.logger, db, s.chain)
	if err != nil {
		_ = db.Close()

		return err
	}

	return s.blockchain.ComputeGenesis(s.chain.Genesis.Header())
}

func (s *Server) setupConsensus(ctx context.Context) error {
	engineName := s.config.Consensus
	if engineName == "" {
		engineName = NoProofConsensus
	}

	factory, ok := consensusBackends[engineName]
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownConsensus, engineName)
	}

	engine, err := factory(&consensus.Params{
		Context: ctx,
		Config: &consensus.Config{
			Logger:    s.logger,
			BlockTime: s.config.BlockTime,
		},
		Blockchain: s.blockchain,
		Logger:     s.logger,
	})
	if err != nil {
		return err
	}

	s.consensus = engine

	return nil
}

// setupCheckpoints resolves the sync checkpoint params of the chain and opens the
// persisted checkpoint. Chains without params run without sync checkpoints
func (s *Server) setupCheckpoints() error {
	cfg := s.config.Checkpoint
	if cfg == nil {
		cfg = &Checkpoint{}
	}

	id := s.chain.Identity()
	s.policy = chain.DefaultActivationPolicy(cfg.LocktimeThreshold, s.logger)

	badBlocks := append([]types.Hash{}, cfg.BadBlocks...)

	if s.chain.Params != nil {
		if s.chain.Params.SyncCheckpoint != nil {
			s.policy.Set(id, *s.chain.Params.SyncCheckpoint)
		}

		badBlocks = append(badBlocks, s.chain.Params.BadBlocks...)
	}

	if cfg.MasterPubKey != "" {
		params, _ := s.policy.Params(id)
		params.MasterPubKey = cfg.MasterPubKey
		s.policy.Set(id, params)
	}

	params, err := s.policy.Params(id)
	if errors.Is(err, chain.ErrActivationNotConfigured) {
		s.logger.Info("sync checkpoints disabled", "chain", id)

		return nil
	}

	if _, err := crypto.ParsePublicKeyHex(params.MasterPubKey); err != nil {
		return fmt.Errorf("invalid sync checkpoint master key: %w", err)
	}

	backendName := s.config.CheckpointBackend
	if backendName == "" {
		backendName = FileBackend
	}

	factory, ok := checkpointBackends[backendName]
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownCheckpointBackend, backendName)
	}

	s.checkpointBackend, err = factory(s.config.DataDir, s.logger)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}

	var (
		broadcaster checkpoint.PeerBroadcaster = noPeers{}
		bans        checkpoint.BanClearer
	)

	if s.syncer != nil {
		broadcaster = s.syncer
	}

	if s.network != nil {
		bans = s.network
	}

	s.checkpoints, err = checkpoint.NewService(&checkpoint.Config{
		Magic:          s.chain.Magic,
		MasterPubKey:   params.MasterPubKey,
		BadBlocks:      badBlocks,
		RelayCacheSize: cfg.RelayCacheSize,
		KeyStore:       secretsHelper.NewKeyStore(s.secretsManager),
		BanClearer:     bans,
	}, s.blockchain, s.checkpointBackend, broadcaster, checkpoint.SystemClock{}, s.logger)
	if err != nil {
		return err
	}

	return s.checkpoints.Open()
}

// runActivation waits for the chain to reach the activation point, then enforces
// the checkpoints and runs the checkpoint loop
func (s *Server) runActivation(ctx context.Context) {
	activationInterval := DefaultActivationInterval
	if s.config.Checkpoint != nil && s.config.Checkpoint.ActivationInterval > 0 {
		activationInterval = s.config.Checkpoint.ActivationInterval
	}

	ticker := time.NewTicker(activationInterval)
	defer ticker.Stop()

	for !s.activate() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}

	interval := DefaultCheckpointInterval
	if s.config.Checkpoint != nil && s.config.Checkpoint.Interval > 0 {
		interval = s.config.Checkpoint.Interval
	}

	s.checkpoints.Run(ctx, interval)
}

// activate enables the checkpoints once the tip is past the activation point
func (s *Server) activate() bool {
	tip := s.blockchain.Tip()

	if _, ok := s.policy.IsActive(s.chain.Identity(), tip.Number, int64(tip.Timestamp)); !ok {
		return false
	}

	if err := s.checkpoints.TryInit(); err != nil {
		s.logger.Error("failed to init sync checkpoint", "err", err)

		return false
	}

	s.blockchain.SetSyncCheck(s.checkpoints.CheckSync)

	if s.syncer != nil {
		s.syncer.EnableCheckpoints()
		s.checkpoints.Relay().RelayAll(s.checkpoints.CurrentMessage())
	}

	s.logger.Info("sync checkpoints active", "height", tip.Number, "authority", s.checkpoints.IsAuthority())

	if maxAge := s.maxAge(); maxAge > 0 && s.checkpoints.IsTooOld(maxAge) {
		s.logger.Warn("sync checkpoint too old, the node may be out of sync", "current", s.checkpoints.Current())
	}

	return true
}

func (s *Server) maxAge() uint64 {
	if s.config.Checkpoint == nil {
		return 0
	}

	return s.config.Checkpoint.MaxAge
}

// noPeers is the broadcaster of a node without networking
type noPeers struct{}

func (noPeers) Peers() []checkpoint.Peer { return nil }

func (noPeers) GetPeer(checkpoint.PeerID) (checkpoint.Peer, bool) { return nil, false }

// Blockchain returns the block index
func (s *Server) Blockchain() *blockchain.Blockchain {
	return s.blockchain
}

// Checkpoints returns the sync checkpoint service, nil if checkpoints are disabled
func (s *Server) Checkpoints() *checkpoint.Service {
	return s.checkpoints
}

// Network returns the networking server
func (s *Server) Network() *network.Server {
	return s.network
}

// Close stops the node and releases its resources
func (s *Server) Close() error {
	var result error

	s.cancel()

	closers := []struct {
		name   string
		closer io.Closer
	}{}

	if s.syncer != nil {
		closers = append(closers, struct {
			name   string
			closer io.Closer
		}{"syncer", s.syncer})
	}

	if s.consensus != nil {
		closers = append(closers, struct {
			name   string
			closer io.Closer
		}{"consensus", s.consensus})
	}

	if s.network != nil {
		closers = append(closers, struct {
			name   string
			closer io.Closer
		}{"network", s.network})
	}

	for _, c := range closers {
		if err := c.closer.Close(); err != nil {
			s.logger.Error("failed to close", "component", c.name, "err", err)
			result = multierror.Append(result, err)
		}
	}

	if s.prometheusServer != nil {
		if err := s.prometheusServer.Shutdown(context.Background()); err != nil {
			s.logger.Error("Prometheus server shutdown error", "err", err)
			result = multierror.Append(result, err)
		}
	}

	if err := s.group.Wait(); err != nil {
		result = multierror.Append(result, err)
	}

	if s.checkpointBackend != nil {
		if err := s.checkpointBackend.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if s.blockchain != nil {
		if err := s.blockchain.Close(); err != nil {
			s.logger.Error("failed to close blockchain", "err", err)
			result = multierror.Append(result, err)
		}
	}

	return result
}
