package secrets

import (
	"github.com/spf13/cobra"

	"github.com/syncpoint-network/syncpoint/command/secrets/generate"
	initCmd "github.com/syncpoint-network/syncpoint/command/secrets/init"
)

func GetCommand() *cobra.Command {
	secretsCmd := &cobra.Command{
		Use:   "secrets",
		Short: "Top level SecretsManager command for interacting with secrets functionality. Only accepts subcommands.",
	}

	secretsCmd.AddCommand(
		// secrets init
		initCmd.GetCommand(),
		// secrets generate
		generate.GetCommand(),
	)

	return secretsCmd
}
