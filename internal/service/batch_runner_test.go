package service_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cartellino/internal/domain"
	"cartellino/internal/parser"
	"cartellino/internal/port"
	"cartellino/internal/scan"
	"cartellino/internal/service"
	"cartellino/mocks"
)

func batchManifest() *scan.Manifest {
	return &scan.Manifest{
		RootID: "root",
		Employees: []scan.EmployeeReport{
			{
				Employee:   "ROSSI MARIO",
				EmployeeID: "fA",
				Included: []scan.FileItem{
					{FileID: "f1", FileName: "marzo.txt", MimeType: "text/plain"},
					{FileID: "f2", FileName: "vuoto.txt", MimeType: "text/plain"},
					{FileID: "z1", FileName: "archivio.zip", Container: scan.ContainerZip},
					{FileName: "orfano.pdf"},
				},
				Skipped: []scan.FileItem{{FileID: "s1", FileName: "busta paga.pdf", Reason: "excluded_term:busta paga"}},
			},
			{
				Employee:   "BIANCHI LUCA",
				EmployeeID: "fB",
				Included:   []scan.FileItem{{FileID: "f3", FileName: "aprile.pdf", MimeType: "application/pdf"}},
			},
		},
	}
}

func newBatchRunner(source port.DocumentSource, storage port.ObjectStorage, email port.EmailSender) *service.BatchRunner {
	docParser := parser.NewDocumentParser(parser.NewDefaultRegistry(), nil)
	return service.NewBatchRunner(source, docParser, storage, "sheets", email)
}

func TestBatchRunner_Run(t *testing.T) {
	out := t.TempDir()
	reportPath := filepath.Join(out, "report.json")

	source := new(mocks.MockDocumentSource)
	source.On("Download", mock.Anything, "f1").Return([]byte(sheetText), nil)
	source.On("Download", mock.Anything, "f2").Return([]byte("nessuna riga"), nil)

	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return strings.HasPrefix(in.Key, "batches/ROSSI MARIO/marzo__f1/") && in.Metadata["file-id"] == "f1"
	})).Return(&port.UploadOutput{}, nil)

	email := new(mocks.MockEmailSender)
	email.On("SendBatchSummary", mock.Anything, []string{"hr@example.com"}, mock.AnythingOfType("*domain.BatchSummary")).Return(nil)

	previous := &scan.Manifest{Employees: []scan.EmployeeReport{
		{Employee: "BIANCHI LUCA", EmployeeID: "fB", Included: []scan.FileItem{{FileID: "f3", FileName: "aprile.pdf"}}},
	}}

	summary, err := newBatchRunner(source, storage, email).Run(context.Background(), batchManifest(), previous, service.BatchOptions{
		Workers:       2,
		FlushEvery:    1,
		OutDir:        out,
		ReportPath:    reportPath,
		Archive:       true,
		ArchivePrefix: "batches",
		Recipients:    []string{"hr@example.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Queued)
	assert.Equal(t, 1, summary.Cached)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 3, summary.Failed)
	assert.Empty(t, summary.NeedsReview)

	reasons := map[string]string{}
	for _, f := range summary.Failures {
		reasons[f.FileName] = f.Reason
	}
	assert.Equal(t, map[string]string{
		"vuoto.txt":    "parsing vuoto.txt: no day lines found",
		"archivio.zip": "unsupported container: zip",
		"orfano.pdf":   "missing file_id",
	}, reasons)

	dir := filepath.Join(out, "ROSSI MARIO", "marzo__f1")
	assert.FileExists(t, filepath.Join(dir, "days.csv"))
	assert.FileExists(t, filepath.Join(dir, "report.json"))
	storage.AssertNumberOfCalls(t, "Upload", 4)
	source.AssertNotCalled(t, "Download", mock.Anything, "f3")
	email.AssertExpectations(t)

	report, err := scan.LoadManifest(reportPath, false)
	require.NoError(t, err)
	require.Len(t, report.Employees, 2)

	rossi := report.Employees[0]
	assert.Equal(t, "fA", rossi.EmployeeID)
	require.Len(t, rossi.Included, 1)
	assert.Equal(t, filepath.Join(dir, "days.csv"), rossi.Included[0].Outputs["days_csv"])
	assert.Equal(t, scan.Counts{Included: 1, SkippedFiles: 4}, rossi.Counts)

	bianchi := report.Employees[1]
	require.Len(t, bianchi.Included, 1)
	assert.Equal(t, "f3", bianchi.Included[0].FileID)
}

func TestBatchRunner_CachedFailuresAreNotRetried(t *testing.T) {
	out := t.TempDir()
	source := new(mocks.MockDocumentSource)

	manifest := &scan.Manifest{RootID: "root", Employees: []scan.EmployeeReport{
		{Employee: "ROSSI MARIO", Included: []scan.FileItem{{FileID: "f1", FileName: "marzo.txt"}}},
	}}
	previous := &scan.Manifest{Files: []scan.Result{
		{Status: scan.StatusFailed, Employee: "Rossi  Mario", FileID: "f1", FileName: "marzo.txt", Reason: "boom"},
	}}

	summary, err := newBatchRunner(source, nil, nil).Run(context.Background(), manifest, previous, service.BatchOptions{
		OutDir:     out,
		ReportPath: filepath.Join(out, "report.json"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Queued)
	assert.Equal(t, 1, summary.Cached)
	source.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)

	report, err := scan.LoadManifest(filepath.Join(out, "report.json"), false)
	require.NoError(t, err)
	require.Len(t, report.Employees, 1)
	assert.Equal(t, "boom", report.Employees[0].Skipped[0].Reason)
}

func TestBatchRunner_Cancelled(t *testing.T) {
	out := t.TempDir()
	source := new(mocks.MockDocumentSource)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newBatchRunner(source, nil, nil).Run(ctx, batchManifest(), nil, service.BatchOptions{
		OutDir:     out,
		ReportPath: filepath.Join(out, "report.json"),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Failed)
	for _, f := range summary.Failures {
		assert.Equal(t, "cancelled", f.Reason)
	}
	assert.FileExists(t, filepath.Join(out, "report.json"))
	source.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
}

func TestFindEmployee(t *testing.T) {
	m := batchManifest()

	emp, err := service.FindEmployee(m, "fB")
	require.NoError(t, err)
	assert.Equal(t, "BIANCHI LUCA", emp.Employee)

	emp, err = service.FindEmployee(m, "rossi   mario")
	require.NoError(t, err)
	assert.Equal(t, "fA", emp.EmployeeID)

	_, err = service.FindEmployee(m, "verdi")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
