// Package rootcmd wires the root cobra.Command for the espresso binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	seedcmd "github.com/sakif/espresso-self/cmd/espresso/seed"
	servecmd "github.com/sakif/espresso-self/cmd/espresso/serve"
	"github.com/sakif/espresso-self/cmd/espresso/shared"
)

// New creates and returns the root cobra.Command.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "espresso",
		Short:         "Espresso Self! café reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(&ctx.ConfigPath, "config", "", "YAML config file (optional)")
	root.PersistentFlags().StringVar(&ctx.EnvFile, "env-file", ".env", "dotenv file loaded before the environment, skipped if missing")

	root.AddCommand(
		servecmd.New(ctx).Cmd(),
		seedcmd.New(ctx).Cmd(),
	)

	return root
}
