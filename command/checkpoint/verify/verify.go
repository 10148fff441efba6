package verify

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/syncpoint-network/syncpoint/chain"
	"github.com/syncpoint-network/syncpoint/checkpoint"
	"github.com/syncpoint-network/syncpoint/command"
	"github.com/syncpoint-network/syncpoint/command/helper"
	"github.com/syncpoint-network/syncpoint/helper/hex"
	"github.com/syncpoint-network/syncpoint/types"
)

const (
	messageFlag = "message"
)

var (
	params = &verifyParams{}

	errNoMasterKey = errors.New("no master key passed in and none configured for the chain")
)

type verifyParams struct {
	message   string
	masterKey string
	chainPath string
}

func GetCommand() *cobra.Command {
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verifies the signature of a checkpoint message",
		Args:  cobra.NoArgs,
		Run:   runCommand,
	}

	cmd := verifyCmd.Flags()
	cmd.StringVar(&params.message, messageFlag, "", "the hex encoded checkpoint message")
	cmd.StringVar(&params.masterKey, command.MasterKeyFlag, "", "the master public key, defaults to the one of the chain")
	cmd.StringVar(&params.chainPath, command.ChainFlag, command.DefaultChainName, "the built-in chain name or the path of the chain file")

	_ = verifyCmd.MarkFlagRequired(messageFlag)

	return verifyCmd
}

// resolveMasterKey returns the explicit master key or the one the chain activates with
func (p *verifyParams) resolveMasterKey() (string, error) {
	if p.masterKey != "" {
		return p.masterKey, nil
	}

	c, err := chain.Import(p.chainPath)
	if err != nil {
		return "", err
	}

	policy := chain.DefaultActivationPolicy(0, hclog.NewNullLogger())
	if c.Params != nil && c.Params.SyncCheckpoint != nil {
		policy.Set(c.Identity(), *c.Params.SyncCheckpoint)
	}

	cpParams, err := policy.Params(c.Identity())
	if err != nil {
		return "", errNoMasterKey
	}

	return cpParams.MasterPubKey, nil
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := command.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	masterKey, err := params.resolveMasterKey()
	if err != nil {
		outputter.SetError(err)

		return
	}

	res, err := Verify(params.message, masterKey)
	if err != nil {
		outputter.SetError(err)

		return
	}

	outputter.SetCommandResult(res)
}

// Verify decodes the hex encoded message and checks it was signed by the master key
func Verify(encoded string, masterKey string) (*VerifyResult, error) {
	raw, err := hex.DecodeHex(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid message encoding: %w", err)
	}

	msg := &checkpoint.Message{}
	if err := msg.UnmarshalBinary(raw); err != nil {
		return nil, err
	}

	payload, err := msg.Verify(masterKey)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		Hash:         payload.Hash,
		Version:      payload.Version,
		MasterPubKey: masterKey,
	}, nil
}

type VerifyResult struct {
	Hash         types.Hash `json:"hash"`
	Version      int32      `json:"version"`
	MasterPubKey string     `json:"masterPubKey"`
}

func (r *VerifyResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString("\n[CHECKPOINT VERIFY]\n")
	buffer.WriteString(helper.FormatKV([]string{
		"Signature|valid",
		fmt.Sprintf("Hash|%s", r.Hash),
		fmt.Sprintf("Version|%d", r.Version),
		fmt.Sprintf("Master public key|%s", r.MasterPubKey),
	}))
	buffer.WriteString("\n")

	return buffer.String()
}
