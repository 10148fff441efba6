package helper

import (
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/syncpoint-network/syncpoint/chain"
	"github.com/syncpoint-network/syncpoint/command"
	"github.com/syncpoint-network/syncpoint/secrets"
	"github.com/syncpoint-network/syncpoint/server"
)

// LocalParams locate the data dir of a stopped node
type LocalParams struct {
	DataDir           string
	ChainPath         string
	MasterPubKey      string
	BlockIndexBackend string
	CheckpointBackend string
	SecretsConfigPath string
}

// OpenLocalNode opens the block index and the checkpoint state of a stopped node.
// The node must not be running, the stores are opened exclusively
func OpenLocalNode(p *LocalParams) (*server.Server, error) {
	c, err := chain.Import(p.ChainPath)
	if err != nil {
		return nil, err
	}

	config := &server.Config{
		Chain:             c,
		DataDir:           p.DataDir,
		BlockIndexBackend: p.BlockIndexBackend,
		CheckpointBackend: p.CheckpointBackend,
		Checkpoint:        &server.Checkpoint{MasterPubKey: p.MasterPubKey},
	}

	if p.SecretsConfigPath != "" {
		if config.SecretsManager, err = secrets.ReadConfig(p.SecretsConfigPath); err != nil {
			return nil, err
		}
	}

	local, err := server.OpenLocal(config, hclog.New(&hclog.LoggerOptions{
		Name:  "syncpoint",
		Level: hclog.Warn,
	}))
	if err != nil {
		return nil, err
	}

	if local.Checkpoints() == nil {
		_ = local.Close()

		return nil, chain.ErrActivationNotConfigured
	}

	return local, nil
}

// RegisterLocalFlags registers the flags locating the data dir of a stopped node
func RegisterLocalFlags(cmd *cobra.Command, p *LocalParams) {
	cmd.Flags().StringVar(
		&p.DataDir,
		command.DataDirFlag,
		"",
		"the data directory of the node",
	)

	cmd.Flags().StringVar(
		&p.ChainPath,
		command.ChainFlag,
		command.DefaultChainName,
		"the built-in chain name or the path of the chain file",
	)

	cmd.Flags().StringVar(
		&p.MasterPubKey,
		command.MasterKeyFlag,
		"",
		"overrides the sync checkpoint master public key of the chain",
	)

	cmd.Flags().StringVar(
		&p.BlockIndexBackend,
		"block-index",
		server.LevelDBBackend,
		"the block index backend of the node",
	)

	cmd.Flags().StringVar(
		&p.CheckpointBackend,
		"checkpoint-backend",
		server.FileBackend,
		"the checkpoint backend of the node",
	)

	cmd.Flags().StringVar(
		&p.SecretsConfigPath,
		"secrets-config",
		"",
		"the path to the SecretsManager config file. If omitted, the local FS secrets manager is used",
	)

	_ = cmd.MarkFlagRequired(command.DataDirFlag)
}
