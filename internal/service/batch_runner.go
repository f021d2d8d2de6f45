package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cartellino/internal/bundle"
	"cartellino/internal/domain"
	"cartellino/internal/parser"
	"cartellino/internal/port"
	"cartellino/internal/scan"
)

const progressEvery = 25

// BatchOptions controls a batch run.
type BatchOptions struct {
	Workers    int
	FlushEvery int
	OutDir     string
	ReportPath string
	// Timeout bounds the download and parse of one document. Zero disables it.
	Timeout       time.Duration
	WriteXLSX     bool
	Archive       bool
	ArchivePrefix string
	Recipients    []string
}

// BatchRunner downloads, parses and writes every included document of a
// scan manifest, resuming from an earlier report.
type BatchRunner struct {
	source  port.DocumentSource
	parser  port.DocumentParser
	storage port.ObjectStorage
	bucket  string
	email   port.EmailSender
	now     func() time.Time
}

// NewBatchRunner creates a BatchRunner. storage and email may be nil, which
// disables archiving and notifications.
func NewBatchRunner(
	source port.DocumentSource,
	docParser port.DocumentParser,
	storage port.ObjectStorage,
	bucket string,
	email port.EmailSender,
) *BatchRunner {
	return &BatchRunner{
		source:  source,
		parser:  docParser,
		storage: storage,
		bucket:  bucket,
		email:   email,
		now:     time.Now,
	}
}

type batchJob struct {
	employee   string
	employeeID string
	item       scan.FileItem
}

// Run processes the manifest. Per-document failures are recorded in the
// report and never abort the run. The report is flushed every
// opts.FlushEvery results and once more at the end, also after ctx is
// cancelled; outstanding documents are then recorded as cancelled.
func (r *BatchRunner) Run(ctx context.Context, manifest, previous *scan.Manifest, opts BatchOptions) (*domain.BatchSummary, error) {
	if opts.Workers <= 0 {
		opts.Workers = 6
	}
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = 25
	}

	started := r.now()
	summary := &domain.BatchSummary{
		RootID:      manifest.RootID,
		StartedAt:   started,
		NeedsReview: []domain.DocumentRef{},
		Failures:    []domain.DocumentRef{},
	}

	ledger := scan.NewLedger(manifest.Employees)
	ledger.Merge(previous)
	cached := ledger.CachedIDs()

	var jobs []batchJob
	for i := range manifest.Employees {
		emp := &manifest.Employees[i]
		for _, item := range emp.Included {
			if _, ok := cached[item.FileID]; ok && item.FileID != "" {
				summary.Cached++
				continue
			}
			jobs = append(jobs, batchJob{employee: emp.DisplayName(), employeeID: emp.EmployeeID, item: item})
		}
	}
	summary.Queued = len(jobs)
	log.Printf("batchRunner: %d documents queued, %d cached, %d workers", len(jobs), summary.Cached, opts.Workers)

	flush := func() error {
		report := scan.NewManifest(manifest.RootID, ledger.Finalize(manifest.Employees), r.now())
		return scan.WriteJSON(opts.ReportPath, report)
	}

	results := make(chan scan.Result, len(jobs))
	go r.dispatch(ctx, jobs, opts, results)

	for done := 1; done <= len(jobs); done++ {
		res := <-results
		ledger.Record(res)

		ref := domain.DocumentRef{Employee: res.Employee, FileID: res.FileID, FileName: res.FileName, Reason: res.Reason}
		if res.Status == scan.StatusSuccess {
			summary.Succeeded++
			if res.NeedsReview {
				summary.NeedsReview = append(summary.NeedsReview, ref)
			}
		} else {
			summary.Failed++
			summary.Failures = append(summary.Failures, ref)
		}

		if done%opts.FlushEvery == 0 {
			if err := flush(); err != nil {
				log.Printf("batchRunner: report flush failed: %v", err)
			}
		}
		if done%progressEvery == 0 || done == len(jobs) {
			log.Printf("batchRunner: %d/%d processed (%d ok, %d failed)", done, len(jobs), summary.Succeeded, summary.Failed)
		}
	}

	if err := flush(); err != nil {
		return summary, fmt.Errorf("writing report: %w", err)
	}
	summary.Elapsed = r.now().Sub(started)
	log.Printf("batchRunner: finished in %s: %d ok, %d failed, %d need review",
		summary.Elapsed.Round(time.Millisecond), summary.Succeeded, summary.Failed, len(summary.NeedsReview))

	r.notify(ctx, opts.Recipients, summary)
	return summary, nil
}

// dispatch runs jobs on a bounded pool. Run reads exactly len(jobs) results.
func (r *BatchRunner) dispatch(ctx context.Context, jobs []batchJob, opts BatchOptions, results chan<- scan.Result) {
	sem := make(chan struct{}, opts.Workers)
	var wg sync.WaitGroup
	for i := range jobs {
		job := jobs[i]
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results <- r.process(ctx, job, opts)
		}()
	}
	wg.Wait()
}

func (r *BatchRunner) process(ctx context.Context, job batchJob, opts BatchOptions) scan.Result {
	res := scan.Result{
		Status:     scan.StatusFailed,
		Employee:   job.employee,
		EmployeeID: job.employeeID,
		FileID:     job.item.FileID,
		FileName:   job.item.FileName,
	}
	switch {
	case ctx.Err() != nil:
		res.Reason = "cancelled"
		return res
	case job.item.FileID == "":
		res.Reason = "missing file_id"
		return res
	case job.item.Container == scan.ContainerZip:
		res.Reason = "unsupported container: " + scan.ContainerZip
		return res
	}

	jobCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	outputs, review, err := r.processDocument(jobCtx, job, opts)
	if err != nil {
		if ctx.Err() != nil {
			res.Reason = "cancelled"
		} else {
			res.Reason = err.Error()
		}
		log.Printf("batchRunner: %s / %s failed: %s", job.employee, job.item.FileName, res.Reason)
		return res
	}

	res.Status = scan.StatusSuccess
	res.Outputs = outputs
	res.NeedsReview = review
	return res
}

func (r *BatchRunner) processDocument(ctx context.Context, job batchJob, opts BatchOptions) (map[string]string, bool, error) {
	data, err := r.source.Download(ctx, job.item.FileID)
	if err != nil {
		return nil, false, fmt.Errorf("downloading: %w", err)
	}

	out, err := r.parser.Parse(ctx, port.ParseInput{
		FileBytes:   data,
		ContentType: contentTypeFor(job.item),
		FileName:    job.item.FileName,
	})
	if err != nil {
		return nil, false, err
	}

	dir := bundle.BatchDir(opts.OutDir, job.employee, job.item.FileName, job.item.FileID)
	paths := bundle.DirPaths(dir, opts.WriteXLSX)
	if err := bundle.Write(paths, out.Document); err != nil {
		return nil, false, err
	}

	if opts.Archive && r.storage != nil {
		if err := r.archive(ctx, job, opts, paths); err != nil {
			return nil, false, err
		}
	}
	return paths.Outputs(), out.Document.NeedsReview(), nil
}

func contentTypeFor(item scan.FileItem) string {
	if item.MimeType != "" && item.MimeType != "application/octet-stream" {
		return item.MimeType
	}
	if ct, err := parser.ContentTypeForName(item.FileName); err == nil {
		return ct
	}
	return "application/pdf"
}

var archiveContentTypes = map[string]string{
	".csv":  "text/csv; charset=utf-8",
	".json": "application/json",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// archive uploads bundle files under {prefix}/{path relative to OutDir}.
func (r *BatchRunner) archive(ctx context.Context, job batchJob, opts BatchOptions, paths bundle.Paths) error {
	meta := map[string]string{"file-id": job.item.FileID}
	if job.employeeID != "" {
		meta["employee-folder-id"] = job.employeeID
	}
	for _, file := range paths.Files() {
		rel, err := filepath.Rel(opts.OutDir, file)
		if err != nil {
			return fmt.Errorf("archiving %s: %w", file, err)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("archiving %s: %w", file, err)
		}
		key := path.Join(opts.ArchivePrefix, filepath.ToSlash(rel))
		ct := archiveContentTypes[strings.ToLower(filepath.Ext(file))]
		if ct == "" {
			ct = "application/octet-stream"
		}
		if _, err := r.storage.Upload(ctx, port.UploadInput{
			Bucket:      r.bucket,
			Key:         key,
			Body:        bytes.NewReader(data),
			ContentType: ct,
			Size:        int64(len(data)),
			Metadata:    meta,
		}); err != nil {
			return fmt.Errorf("archiving %s: %w", key, err)
		}
	}
	return nil
}

func (r *BatchRunner) notify(ctx context.Context, recipients []string, summary *domain.BatchSummary) {
	if r.email == nil || len(recipients) == 0 {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := r.email.SendBatchSummary(sendCtx, recipients, summary); err != nil {
		log.Printf("batchRunner: sending summary failed: %v", err)
	}
}
