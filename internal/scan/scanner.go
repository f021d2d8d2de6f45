// Package scan walks a Drive folder tree, one sub-folder per employee, and
// lists the timesheet documents to process while leaving payslips out.
package scan

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"cartellino/internal/domain"
	"cartellino/internal/port"
)

const folderMimeType = "application/vnd.google-apps.folder"

var zipMimeTypes = map[string]bool{
	"application/zip":              true,
	"application/x-zip-compressed": true,
}

// Scanner lists employee documents from a DocumentSource.
type Scanner struct {
	source       port.DocumentSource
	excludeTerms []string
	workers      int
	now          func() time.Time
}

// NewScanner creates a Scanner. Exclude terms are normalized; a nil slice
// selects DefaultExcludeTerms. workers bounds concurrent employee scans.
func NewScanner(source port.DocumentSource, excludeTerms []string, workers int) *Scanner {
	if excludeTerms == nil {
		excludeTerms = DefaultExcludeTerms
	}
	terms := make([]string, 0, len(excludeTerms))
	for _, t := range excludeTerms {
		if n := NormalizeTerm(t); n != "" {
			terms = append(terms, n)
		}
	}
	if workers < 1 {
		workers = 1
	}
	return &Scanner{source: source, excludeTerms: terms, workers: workers, now: time.Now}
}

type folderRef struct {
	id   string
	name string
	path string
}

// CollectFiles walks the tree under the employee folder depth first. Folders
// named after an exclude term are not entered, PDFs are collected and zip
// archives are collected as containers.
func (s *Scanner) CollectFiles(ctx context.Context, employee domain.SourceFile) ([]FileItem, []ExcludedFolder, error) {
	var files []FileItem
	var excluded []ExcludedFolder

	stack := []folderRef{{id: employee.ID, name: employee.Name, path: employee.Name}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if term := FolderExcludedBy(cur.name, s.excludeTerms); term != "" {
			log.Printf("scan.CollectFiles: [%s] skipping folder %s (%s)", employee.Name, cur.path, term)
			excluded = append(excluded, ExcludedFolder{FolderID: cur.id, FolderName: cur.name, Reason: term})
			continue
		}

		children, err := s.source.ListChildren(ctx, cur.id)
		if err != nil {
			return nil, nil, fmt.Errorf("listing %s: %w", cur.path, err)
		}
		for _, item := range children {
			itemPath := path.Join(cur.path, item.Name)
			switch {
			case item.MimeType == folderMimeType:
				stack = append(stack, folderRef{id: item.ID, name: item.Name, path: itemPath})
			case item.MimeType == "application/pdf":
				files = append(files, FileItem{FileID: item.ID, FileName: item.Name, MimeType: item.MimeType, Path: itemPath})
			case zipMimeTypes[item.MimeType] || strings.HasSuffix(strings.ToLower(item.Name), ".zip"):
				files = append(files, FileItem{
					FileID: item.ID, FileName: item.Name, MimeType: item.MimeType,
					Container: ContainerZip, Path: itemPath,
				})
			}
		}
	}
	return files, excluded, nil
}

// ScanEmployee builds the report for one employee folder. Files whose name
// contains an exclude term are listed as skipped with that term as reason.
func (s *Scanner) ScanEmployee(ctx context.Context, employee domain.SourceFile) (*EmployeeReport, error) {
	files, excluded, err := s.CollectFiles(ctx, employee)
	if err != nil {
		return nil, err
	}

	report := &EmployeeReport{
		Employee:        employee.Name,
		EmployeeID:      employee.ID,
		Included:        []FileItem{},
		Skipped:         []FileItem{},
		ExcludedFolders: excluded,
	}
	if report.ExcludedFolders == nil {
		report.ExcludedFolders = []ExcludedFolder{}
	}
	for _, f := range files {
		if term := FileExcludedBy(f.FileName, s.excludeTerms); term != "" {
			f.Reason = term
			report.Skipped = append(report.Skipped, f)
			continue
		}
		report.Included = append(report.Included, f)
	}
	report.recount()
	return report, nil
}

// ScanRoot treats every direct sub-folder of rootID as an employee and scans
// them concurrently. Employees keep the order in which the root lists them.
func (s *Scanner) ScanRoot(ctx context.Context, rootID string) (*Manifest, error) {
	children, err := s.source.ListChildren(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("listing root %s: %w", rootID, err)
	}
	var employees []domain.SourceFile
	for _, c := range children {
		if c.MimeType == folderMimeType {
			employees = append(employees, c)
		}
	}

	reports := make([]EmployeeReport, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, emp := range employees {
		g.Go(func() error {
			r, err := s.ScanEmployee(gctx, emp)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", emp.Name, err)
			}
			log.Printf("scan.ScanRoot: %s: %d included, %d skipped, %d excluded folders",
				emp.Name, r.Counts.Included, r.Counts.SkippedFiles, r.Counts.ExcludedFolders)
			reports[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewManifest(rootID, reports, s.now()), nil
}
