package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cartellino/internal/scan"
	"cartellino/internal/service"
)

var (
	mergeManifest string
	mergeEmployee string
	mergeOut      string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge one employee's PDFs into a single document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest, err := scan.LoadManifest(mergeManifest, false)
		if err != nil {
			return err
		}
		emp, err := service.FindEmployee(manifest, mergeEmployee)
		if err != nil {
			return err
		}
		client, err := newDriveClient(cmd.Context())
		if err != nil {
			return err
		}

		merged, err := service.MergeEmployeePDFs(cmd.Context(), client, emp)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(mergeOut), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(mergeOut, merged, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d bytes)\n", emp.DisplayName(), mergeOut, len(merged))
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeManifest, "manifest", "manifest.json", "Scan manifest")
	mergeCmd.Flags().StringVar(&mergeEmployee, "employee", "", "Employee folder id or name")
	mergeCmd.Flags().StringVar(&mergeOut, "out", "merged.pdf", "Output PDF")
	_ = mergeCmd.MarkFlagRequired("employee")
}
