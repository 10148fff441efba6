package sign

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/syncpoint-network/syncpoint/checkpoint"
	"github.com/syncpoint-network/syncpoint/command"
	"github.com/syncpoint-network/syncpoint/command/helper"
	"github.com/syncpoint-network/syncpoint/crypto"
	"github.com/syncpoint-network/syncpoint/helper/hex"
	"github.com/syncpoint-network/syncpoint/secrets"
	secretsHelper "github.com/syncpoint-network/syncpoint/secrets/helper"
	"github.com/syncpoint-network/syncpoint/types"
)

const (
	hashFlag = "hash"
)

var (
	params = &signParams{}

	errNoSecrets = errors.New("no config file or data directory passed in")
)

type signParams struct {
	hash       string
	dataDir    string
	configPath string
}

func GetCommand() *cobra.Command {
	signCmd := &cobra.Command{
		Use:   "sign",
		Short: "Signs a checkpoint message with the authority key of the secrets manager",
		Args:  cobra.NoArgs,
		Run:   runCommand,
	}

	cmd := signCmd.Flags()
	cmd.StringVar(&params.hash, hashFlag, "", "the hash of the checkpoint block")
	cmd.StringVar(&params.dataDir, command.DataDirFlag, "", "the directory of the local FS secrets")
	cmd.StringVar(&params.configPath, command.ConfigFlag, "", "the path to the SecretsManager config file")

	signCmd.MarkFlagsMutuallyExclusive(command.DataDirFlag, command.ConfigFlag)
	_ = signCmd.MarkFlagRequired(hashFlag)

	return signCmd
}

func (p *signParams) loadKey() (*btcec.PrivateKey, error) {
	var config *secrets.SecretsManagerConfig

	switch {
	case p.configPath != "":
		c, err := secrets.ReadConfig(p.configPath)
		if err != nil {
			return nil, err
		}

		config = c
	case p.dataDir == "":
		return nil, errNoSecrets
	}

	manager, err := secretsHelper.SetupSecretsManager(config, p.dataDir, hclog.NewNullLogger())
	if err != nil {
		return nil, err
	}

	key, err := secretsHelper.LoadAuthorityKey(manager)
	if err != nil {
		return nil, fmt.Errorf("failed to load the authority key: %w", err)
	}

	return key, nil
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := command.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	hash, err := types.ParseHash(params.hash)
	if err != nil {
		outputter.SetError(err)

		return
	}

	key, err := params.loadKey()
	if err != nil {
		outputter.SetError(err)

		return
	}

	res, err := Sign(hash, key)
	if err != nil {
		outputter.SetError(err)

		return
	}

	outputter.SetCommandResult(res)
}

// Sign signs the checkpoint with the authority key
func Sign(hash types.Hash, key *btcec.PrivateKey) (*SignResult, error) {
	msg, err := checkpoint.Sign(checkpoint.UnsignedPayload{Version: checkpoint.PayloadVersion, Hash: hash}, key)
	if err != nil {
		return nil, err
	}

	raw, err := msg.MarshalBinary()
	if err != nil {
		return nil, err
	}

	return &SignResult{
		Hash:         hash,
		MasterPubKey: crypto.PublicKeyHex(key.PubKey()),
		Message:      hex.EncodeToHex(raw),
	}, nil
}

type SignResult struct {
	Hash         types.Hash `json:"hash"`
	MasterPubKey string     `json:"masterPubKey"`
	Message      string     `json:"message"`
}

func (r *SignResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString("\n[CHECKPOINT SIGN]\n")
	buffer.WriteString(helper.FormatKV([]string{
		fmt.Sprintf("Hash|%s", r.Hash),
		fmt.Sprintf("Master public key|%s", r.MasterPubKey),
		fmt.Sprintf("Message|%s", r.Message),
	}))
	buffer.WriteString("\n")

	return buffer.String()
}
