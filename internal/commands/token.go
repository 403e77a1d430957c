package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/auth"
	"github.com/Lelcaren/mwangaza-rentals/internal/config"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// TokenCmd signs a development bearer token with AUTH_JWT_SECRET.
func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			id, _ := flags.GetString("user")
			email, _ := flags.GetString("email")
			name, _ := flags.GetString("name")
			role, _ := flags.GetString("role")
			ttl, _ := flags.GetDuration("ttl")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("AUTH_JWT_SECRET is not set")
			}
			if cfg.Server.Env == "production" {
				return errors.New("refusing to issue tokens in production")
			}
			if r := models.Role(role); role != "" && !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			if id == "" {
				id = uuid.NewString()
			}

			token, err := auth.IssueToken(cfg.Auth.JWTSecret, auth.User{
				ID:       id,
				Email:    email,
				FullName: name,
				Role:     models.Role(role),
			}, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().String("user", "", "Subject (user id); a new UUID when empty")
	cmd.Flags().String("email", "", "Email claim")
	cmd.Flags().String("name", "", "Full name claim")
	cmd.Flags().String("role", string(models.RoleOwner), "Role claim (owner, tenant, admin)")
	cmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")

	return cmd
}
