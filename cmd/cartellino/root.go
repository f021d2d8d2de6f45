package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"cartellino/internal/config"
	"cartellino/internal/email/noop"
	"cartellino/internal/email/ses"
	"cartellino/internal/port"
	s3storage "cartellino/internal/storage/s3"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cartellino",
	Short: "Parse Italian monthly attendance timesheets",
	Long: `cartellino turns "Cartellino mensile" timesheets into day, punch-pair and
totals tables. It parses local PDF and text files, scans a Google Drive
folder tree of employee documents and batch-processes the scan results.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(log.LstdFlags)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(tokenCmd)
}

func newObjectStorage() (port.ObjectStorage, error) {
	return s3storage.NewS3Client(&cfg.S3)
}

func newEmailSender(c config.EmailConfig) (port.EmailSender, error) {
	switch c.Provider {
	case "ses":
		return ses.NewSESSender(c.Region, c.FromAddress, c.FromName)
	case "", "noop":
		return noop.NewNoopSender(), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", c.Provider)
	}
}
