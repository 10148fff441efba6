package reset

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syncpoint-network/syncpoint/command"
	"github.com/syncpoint-network/syncpoint/command/checkpoint/status"
	"github.com/syncpoint-network/syncpoint/command/helper"
)

var params = &helper.LocalParams{}

func GetCommand() *cobra.Command {
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Moves the synchronized checkpoint of a stopped node back to the latest hardened checkpoint",
		Args:  cobra.NoArgs,
		Run:   runCommand,
	}

	helper.RegisterLocalFlags(resetCmd, params)

	return resetCmd
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

	if err := local.Checkpoints().Reset(); err != nil {
		outputter.SetError(fmt.Errorf("failed to reset the checkpoint: %w", err))

		return
	}

	outputter.SetCommandResult(status.NewResult(local))
}
