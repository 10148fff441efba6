package checkpoint

import (
	"github.com/spf13/cobra"

	"github.com/syncpoint-network/syncpoint/command/checkpoint/reset"
	"github.com/syncpoint-network/syncpoint/command/checkpoint/sign"
	"github.com/syncpoint-network/syncpoint/command/checkpoint/status"
	"github.com/syncpoint-network/syncpoint/command/checkpoint/verify"
)

func GetCommand() *cobra.Command {
	checkpointCmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Top level command for inspecting and issuing synchronized checkpoints. Only accepts subcommands.",
	}

	checkpointCmd.AddCommand(
		// checkpoint status
		status.GetCommand(),
		// checkpoint reset
		reset.GetCommand(),
		// checkpoint sign
		sign.GetCommand(),
		// checkpoint verify
		verify.GetCommand(),
	)

	return checkpointCmd
}
