package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/lab-registry/internal/config"
	"github.com/iliyamo/lab-registry/internal/middleware"
	"github.com/iliyamo/lab-registry/internal/utils"
)

// newToken mints an access token for local use. Tokens are normally issued
// by the identity service in front of the API.
func newToken() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:          "token",
		Long:         "Mint a signed access token for development",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if role != middleware.RoleSystemAdmin && role != middleware.RoleLabManager {
				return fmt.Errorf("role must be %s or %s", middleware.RoleSystemAdmin, middleware.RoleLabManager)
			}
			tok, err := utils.NewAccessToken(config.JWTSecret(), subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", tok.Exp.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "actor id recorded on writes (required)")
	cmd.Flags().StringVar(&role, "role", middleware.RoleSystemAdmin, "SYSTEM_ADMIN or LAB_MANAGER")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
