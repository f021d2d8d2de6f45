package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cartellino/internal/service"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
	tokenSecret  string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API credentials",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Sign an API access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := service.NewAuthService(cfg.JWT).GenerateToken(tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok.AccessToken)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", tok.ExpiresAt.Format(time.RFC3339))
		return nil
	},
}

var tokenHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Print the bcrypt hash to use as CARTELLINO_JWT_CLIENT_SECRET_HASH",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := service.HashSecret(tokenSecret)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenSubject, "subject", "cli", "Token subject")
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default from config)")
	tokenHashCmd.Flags().StringVar(&tokenSecret, "secret", "", "Client secret to hash")
	_ = tokenHashCmd.MarkFlagRequired("secret")

	tokenCmd.AddCommand(tokenIssueCmd)
	tokenCmd.AddCommand(tokenHashCmd)
}
