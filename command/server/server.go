package server

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syncpoint-network/syncpoint/command"
	"github.com/syncpoint-network/syncpoint/command/helper"
	"github.com/syncpoint-network/syncpoint/command/server/config"
	"github.com/syncpoint-network/syncpoint/server"
)

func GetCommand() *cobra.Command {
	serverCmd := &cobra.Command{
		Use:     "server",
		Short:   "Starts the node: follows the chain headers and enforces the synchronized checkpoints",
		PreRunE: runPreRun,
		RunE:    runCommand,
	}

	setFlags(serverCmd)

	return serverCmd
}

func setFlags(cmd *cobra.Command) {
	defaultConfig := config.DefaultConfig()

	cmd.Flags().StringVar(
		&params.rawConfig.LogLevel,
		command.LogLevelFlag,
		defaultConfig.LogLevel,
		"the log level for console output",
	)

	cmd.Flags().StringVar(
		&params.rawConfig.ChainPath,
		chainFlag,
		defaultConfig.ChainPath,
		"the built-in chain name or the path of the chain file",
	)

	cmd.Flags().StringVar(
		&params.configPath,
		configFlag,
		"",
		"the path to the CLI config. Supports .json, .hcl and .yaml",
	)

	cmd.Flags().StringVar(
		&params.rawConfig.DataDir,
		dataDirFlag,
		defaultConfig.DataDir,
		"the data directory used for storing the block index and the checkpoint",
	)

	cmd.Flags().StringVar(
		&params.rawConfig.BlockIndexBackend,
		blockIndexFlag,
		defaultConfig.BlockIndexBackend,
		"the block index backend: leveldb, boltdb or memory",
	)

	cmd.Flags().StringVar(
		&params.rawConfig.CheckpointBackend,
		checkpointBackendFlag,
		defaultConfig.CheckpointBackend,
		"the checkpoint backend: file, boltdb or memory",
	)

	cmd.Flags().StringVar(
		&params.rawConfig.Consensus,
		consensusFlag,
		defaultConfig.Consensus,
		"the header verification engine: noproof or dev",
	)

	cmd.Flags().StringVar(
		&params.rawConfig.Network.Libp2pAddr,
		libp2pAddressFlag,
		defaultConfig.Network.Libp2pAddr,
		"the address and port for the libp2p service (address:port)",
	)

	cmd.Flags().StringVar(
		&params.rawConfig.Telemetry.PrometheusAddr,
		prometheusAddressFlag,
		"",
		"the address and port for the prometheus instrumentation service (address:port)",
	)

	cmd.Flags().StringVar(
		&params.rawConfig.Network.NatAddr,
		natFlag,
		"",
		"the external IP address without port, as can be seen by peers",
	)

	cmd.Flags().StringArrayVar(
		&params.rawConfig.Network.Bootnodes,
		bootnodeFlag,
		nil,
		"multiaddr of a bootnode, added to the bootnodes of the chain",
	)

	cmd.Flags().StringVar(
		&params.rawConfig.Network.BanDuration,
		"ban-duration",
		defaultConfig.Network.BanDuration,
		"how long a misbehaving peer stays banned",
	)

	cmd.Flags().StringVar(
		&params.rawConfig.SecretsConfigPath,
		secretsConfigFlag,
		"",
		"the path to the SecretsManager config file. Used for Hashicorp Vault, AWS SSM and GCP SM. "+
			"If omitted, the local FS secrets manager is used",
	)

	cmd.Flags().BoolVar(
		&params.rawConfig.ShouldSeal,
		sealFlag,
		defaultConfig.ShouldSeal,
		"the flag indicating that the dev consensus should produce headers",
	)

	cmd.Flags().BoolVar(
		&params.rawConfig.Network.NoDiscover,
		command.NoDiscoverFlag,
		defaultConfig.Network.NoDiscover,
		"prevent the client from dialing the bootnodes",
	)

	cmd.Flags().Int64Var(
		&params.rawConfig.Network.MaxPeers,
		maxPeersFlag,
		defaultConfig.Network.MaxPeers,
		"the client's max number of peers allowed",
	)

	cmd.Flags().Int64Var(
		&params.rawConfig.BlockTime,
		blockTimeFlag,
		defaultConfig.BlockTime,
		"the dev consensus block time in seconds",
	)

	cmd.Flags().StringVar(
		&params.rawConfig.Checkpoint.MasterPubKey,
		masterKeyFlag,
		"",
		"overrides the sync checkpoint master public key of the chain",
	)

	cmd.Flags().StringArrayVar(
		&params.rawConfig.Checkpoint.BadBlocks,
		badBlockFlag,
		nil,
		"hash of a block to invalidate on startup, added to the bad blocks of the chain",
	)

	cmd.Flags().Int64Var(
		&params.rawConfig.Checkpoint.Interval,
		checkpointIntervalFlag,
		defaultConfig.Checkpoint.Interval,
		"the period of the checkpoint loop in seconds",
	)

	cmd.Flags().Int64Var(
		&params.rawConfig.Checkpoint.MaxAge,
		checkpointMaxAgeFlag,
		0,
		"warn on activation if the checkpoint is older than this many seconds, 0 disables the check",
	)

	cmd.Flags().StringVar(
		&params.rawConfig.LogFilePath,
		logFileLocationFlag,
		defaultConfig.LogFilePath,
		"write all logs to the file at specified location instead of writing them to console",
	)

	cmd.Flags().BoolVar(
		&params.rawConfig.JSONLogFormat,
		jsonLogFormatFlag,
		defaultConfig.JSONLogFormat,
		"write the logs in json format",
	)
}

func runPreRun(cmd *cobra.Command, _ []string) error {
	// Check if the config file has been specified
	if isConfigFileSpecified(cmd) {
		if err := params.initConfigFromFile(); err != nil {
			return err
		}
	}

	return params.initRawParams()
}

func isConfigFileSpecified(cmd *cobra.Command) bool {
	return cmd.Flags().Changed(configFlag)
}

func runCommand(cmd *cobra.Command, _ []string) error {
	outputter := command.InitializeOutputter(cmd)

	if err := runServerLoop(params.generateConfig(), outputter); err != nil {
		outputter.SetError(err)
		outputter.WriteOutput()

		return err
	}

	return nil
}

func runServerLoop(
	config *server.Config,
	outputter command.OutputFormatter,
) error {
	serverInstance, err := server.NewServer(config)
	if err != nil {
		return fmt.Errorf("failed to start the node: %w", err)
	}

	return helper.HandleSignals(serverInstance.Close, outputter)
}
