package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// MigrateCmd creates or updates the schema from the record definitions.
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long:  `Creates the properties, tenants, billing, payments, notifications and profiles tables, adding any missing columns and indexes. Existing data is kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate schema: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", a.db.Dialect())
			return nil
		},
	}
}
