package commands

import (
	"fmt"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/spf13/cobra"
)

// MarkOverdueCmd flags pending bills whose due date has passed.
func MarkOverdueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark-overdue",
		Short: "Mark pending bills past their due date as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("as-of")
			asOf := time.Now().UTC()
			if raw != "" {
				var err error
				if asOf, err = time.Parse(models.DateLayout, raw); err != nil {
					return fmt.Errorf("invalid --as-of %q: want YYYY-MM-DD", raw)
				}
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.services().billing.MarkOverdue(cmd.Context(), asOf)
			if err != nil {
				return fmt.Errorf("failed to mark overdue bills: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d bill(s) overdue as of %s\n", n, asOf.Format(models.DateLayout))
			return nil
		},
	}

	cmd.Flags().String("as-of", "", "Cut-off date (YYYY-MM-DD); defaults to today")

	return cmd
}
