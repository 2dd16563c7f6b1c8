package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evictioncrm/internal/auth"
	"evictioncrm/internal/config"
)

func tokenCmd() *cobra.Command {
	var (
		user auth.User
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl > 0 {
				cfg.Auth.TTL = ttl
			}
			gate, err := newGate(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			token, expires, err := gate.Issue(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&user.ID, "user", "admin", "user id (token subject)")
	cmd.Flags().StringVar(&user.Email, "email", "admin@example.com", "user email")
	cmd.Flags().StringVar(&user.Name, "name", "Admin User", "display name")
	cmd.Flags().StringVar(&user.Role, "role", "admin", "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to EVICTIONCRM_AUTH_TTL)")
	return cmd
}
