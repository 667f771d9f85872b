// Package cli wires configuration, storage and transports into the
// siteledger command tree.
package cli

import (
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
}

// NewRootCmd creates the top-level "siteledger" command and registers all
// subcommands.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "siteledger",
		Short:         "Construction site workflow and consistency engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a config file (yaml, json or toml)")

	root.AddCommand(
		newServeCmd(flags),
		newBackupCmd(flags),
		newRestoreCmd(flags),
		newReportCmd(flags),
	)
	return root
}
