package cli

import (
	"fmt"
	"time"

	"fibra-quiz-service/internal/auth"
	"fibra-quiz-service/internal/config"
	"github.com/spf13/cobra"
)

// NewTokenCmd mints a signed token for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user id",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwtSecret (or JWT_SECRET) not configured")
			}
			token, err := auth.NewVerifier(cfg.Auth.JWTSecret).
				Issue(userID, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to put in the token subject")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
