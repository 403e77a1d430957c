// Package commands holds the mwangaza CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd returns the mwangaza command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mwangaza",
		Short:         "Mwangaza Rentals property-management backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		ServeCmd(),
		MigrateCmd(),
		SeedCmd(),
		MarkOverdueCmd(),
		TokenCmd(),
	)

	return rootCmd
}
