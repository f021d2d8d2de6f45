package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cartellino/internal/parser"
	"cartellino/internal/port"
	"cartellino/internal/scan"
	"cartellino/internal/service"
)

type batchFlags struct {
	manifest   string
	out        string
	report     string
	workers    int
	flushEvery int
	xlsx       bool
	archive    bool
	notify     bool
}

var batchOpts batchFlags

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Download and parse every included document of a scan manifest",
	Long: `Download and parse the included documents of a manifest, writing one
bundle per document under {out}/{employee}/{stem}__{id}/. Documents that
already succeeded or failed in an existing report are skipped. Interrupting
the run records outstanding documents as cancelled and flushes the report.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchOpts.manifest, "manifest", "manifest.json", "Scan manifest")
	f.StringVar(&batchOpts.out, "out", "downloads", "Output directory")
	f.StringVar(&batchOpts.report, "report", "report.json", "Report path, read to resume and rewritten while running")
	f.IntVar(&batchOpts.workers, "workers", 6, "Concurrent downloads")
	f.IntVar(&batchOpts.flushEvery, "flush-every", 25, "Rewrite the report every N documents")
	f.BoolVar(&batchOpts.xlsx, "xlsx", false, "Also write timesheet.xlsx for each document")
	f.BoolVar(&batchOpts.archive, "archive", false, "Upload each bundle to S3 under the archive prefix")
	f.BoolVar(&batchOpts.notify, "notify", false, "Email a run summary to the configured recipients")
}

func runBatch(cmd *cobra.Command, args []string) error {
	manifest, err := scan.LoadManifest(batchOpts.manifest, false)
	if err != nil {
		return err
	}
	previous, err := scan.LoadManifest(batchOpts.report, true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newDriveClient(ctx)
	if err != nil {
		return err
	}

	opts := service.BatchOptions{
		Workers:       cfg.Batch.Workers,
		FlushEvery:    cfg.Batch.FlushEvery,
		OutDir:        batchOpts.out,
		ReportPath:    batchOpts.report,
		Timeout:       time.Duration(cfg.Batch.TimeoutSecs) * time.Second,
		WriteXLSX:     batchOpts.xlsx,
		Archive:       batchOpts.archive || cfg.Batch.ArchiveToS3,
		ArchivePrefix: cfg.Batch.ArchivePrefix,
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers = batchOpts.workers
	}
	if cmd.Flags().Changed("flush-every") {
		opts.FlushEvery = batchOpts.flushEvery
	}

	var storage port.ObjectStorage
	if opts.Archive {
		if storage, err = newObjectStorage(); err != nil {
			return fmt.Errorf("initializing S3 client: %w", err)
		}
	}
	var sender port.EmailSender
	if batchOpts.notify {
		if sender, err = newEmailSender(cfg.Email); err != nil {
			return err
		}
		opts.Recipients = cfg.Email.Recipients
	}

	docParser := parser.NewDocumentParser(parser.NewDefaultRegistry(), nil)
	runner := service.NewBatchRunner(client, docParser, storage, cfg.S3.Bucket, sender)

	summary, err := runner.Run(ctx, manifest, previous, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d queued, %d cached, %d ok, %d failed, %d need review\n",
		summary.Queued, summary.Cached, summary.Succeeded, summary.Failed, len(summary.NeedsReview))
	for _, ref := range summary.NeedsReview {
		fmt.Fprintf(out, "  review: %s / %s\n", ref.Employee, ref.FileName)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("batch interrupted: %w", context.Cause(ctx))
	}
	return nil
}
