package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cartellino/internal/config"
	"cartellino/internal/scan"
)

var (
	scanRoot        string
	scanOut         string
	scanExclude     string
	scanConcurrency int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a Drive folder of employee sub-folders into a manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := scanRoot
		if root == "" {
			root = cfg.Drive.RootFolderID
		}
		if root == "" {
			return fmt.Errorf("--root or CARTELLINO_DRIVE_ROOT_FOLDER_ID is required")
		}

		terms := cfg.Batch.ExcludeTerms
		if cmd.Flags().Changed("exclude") {
			terms = config.SplitList(scanExclude)
		}
		workers := cfg.Batch.ScanWorkers
		if cmd.Flags().Changed("concurrency") {
			workers = scanConcurrency
		}

		client, err := newDriveClient(cmd.Context())
		if err != nil {
			return err
		}

		manifest, err := scan.NewScanner(client, terms, workers).ScanRoot(cmd.Context(), root)
		if err != nil {
			return err
		}
		if err := scan.WriteJSON(scanOut, manifest); err != nil {
			return err
		}

		var counts scan.Counts
		for _, e := range manifest.Employees {
			counts.Included += e.Counts.Included
			counts.SkippedFiles += e.Counts.SkippedFiles
			counts.ExcludedFolders += e.Counts.ExcludedFolders
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d employees: %d included, %d skipped files, %d excluded folders -> %s\n",
			manifest.EmployeeCount, counts.Included, counts.SkippedFiles, counts.ExcludedFolders, scanOut)
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanRoot, "root", "", "Drive folder id holding one sub-folder per employee")
	scanCmd.Flags().StringVar(&scanOut, "out", "manifest.json", "Manifest output path")
	scanCmd.Flags().StringVar(&scanExclude, "exclude", "", "Comma-separated exclude terms (default from config)")
	scanCmd.Flags().IntVar(&scanConcurrency, "concurrency", 4, "Employees scanned concurrently")
}
