package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syncpoint-network/syncpoint/command/checkpoint"
	"github.com/syncpoint-network/syncpoint/command/helper"
	"github.com/syncpoint-network/syncpoint/command/secrets"
	"github.com/syncpoint-network/syncpoint/command/server"
	"github.com/syncpoint-network/syncpoint/command/version"
)

type RootCommand struct {
	baseCmd *cobra.Command
}

func NewRootCommand() *RootCommand {
	rootCommand := &RootCommand{
		baseCmd: &cobra.Command{
			Use:   "syncpoint",
			Short: "Syncpoint follows a proof-of-work chain and enforces its synchronized checkpoints",
		},
	}

	helper.RegisterJSONOutputFlag(rootCommand.baseCmd)

	rootCommand.registerSubCommands()

	return rootCommand
}

func (rc *RootCommand) registerSubCommands() {
	rc.baseCmd.AddCommand(
		version.GetCommand(),
		secrets.GetCommand(),
		checkpoint.GetCommand(),
		server.GetCommand(),
	)
}

func (rc *RootCommand) Execute() {
	if err := rc.baseCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}
