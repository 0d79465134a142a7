package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgewl2/sp-store-users-management/pkg/config"
	"github.com/edgewl2/sp-store-users-management/pkg/security/jwt"
)

// newTokenCmd issues a locally signed access token for development and
// smoke tests. It only works in hmac mode.
func newTokenCmd() *cobra.Command {
	var (
		scopes []string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue an HMAC-signed access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Auth.Mode != config.AuthModeHMAC {
				return errors.New("token issuing requires AUTH_MODE=hmac")
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL()
			}
			token, err := jwt.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience, ttl).Sign(args[0], scopes...)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "scopes to embed in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_TTL_MINUTES)")
	return cmd
}
