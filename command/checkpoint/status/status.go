package status

import (
	"github.com/spf13/cobra"

	"github.com/syncpoint-network/syncpoint/command"
	"github.com/syncpoint-network/syncpoint/command/helper"
	"github.com/syncpoint-network/syncpoint/server"
)

var params = &helper.LocalParams{}

func GetCommand() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Prints the synchronized checkpoint of a stopped node",
		Args:  cobra.NoArgs,
		Run:   runCommand,
	}

	helper.RegisterLocalFlags(statusCmd, params)

	return statusCmd
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := command.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	local, err := helper.OpenLocalNode(params)
	if err != nil {
		outputter.SetError(err)

		return
	}

	defer local.Close()

	outputter.SetCommandResult(NewResult(local))
}

// NewResult snapshots the checkpoint state of the node
func NewResult(local *server.Server) *CheckpointStatusResult {
	tip := local.Blockchain().Tip()

	return &CheckpointStatusResult{
		Status:    local.Checkpoints().Status(),
		Tip:       tip.Hash,
		TipHeight: tip.Number,
	}
}
