package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cartellino/internal/drive"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Google Drive access and store the token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Drive.Validate(); err != nil {
			return err
		}
		if _, err := drive.NewAuthenticator(&cfg.Drive).Authorize(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", cfg.Drive.TokenPath)
		return nil
	},
}

// newDriveClient returns a Drive client authorized with the cached token.
func newDriveClient(ctx context.Context) (*drive.Client, error) {
	if err := cfg.Drive.Validate(); err != nil {
		return nil, err
	}
	httpClient, err := drive.NewAuthenticator(&cfg.Drive).HTTPClient(ctx)
	if err != nil {
		return nil, err
	}
	return drive.NewClient(httpClient, cfg.Drive.APIBaseURL), nil
}
