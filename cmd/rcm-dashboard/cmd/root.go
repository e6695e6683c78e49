package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Running the binary without a
// subcommand starts the server.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rcm-dashboard",
		Short:         "CareOptions for Kids - RCM Dashboard server",
		Long:          "Serves the pre-built RCM Dashboard assets and its JSON endpoints.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServe,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newAssetsCmd())

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
