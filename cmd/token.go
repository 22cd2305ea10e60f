package cmd

import (
	"fmt"
	"time"

	"github.com/frahmantamala/role-permission-api/internal/auth"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenEmail   string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the API",
	Long:  `Sign an access token with the configured JWT secret. Useful for operators and local development.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		ttl := cfg.Security.AccessTokenDuration
		if tokenTTL > 0 {
			ttl = tokenTTL
		}

		gen := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, ttl)
		token, expiresAt, err := gen.GenerateAccessToken(tokenSubject, tokenEmail)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "principal id placed in the sub claim")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "optional email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to security.access_token_duration)")
	_ = tokenCmd.MarkFlagRequired("subject")
}
