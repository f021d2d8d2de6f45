package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cartellino/internal/domain"
	"cartellino/internal/pdfkit"
	"cartellino/internal/port"
	"cartellino/internal/scan"
)

// FindEmployee returns the manifest employee whose folder id or normalized
// name matches ref.
func FindEmployee(m *scan.Manifest, ref string) (*scan.EmployeeReport, error) {
	want := scan.NormalizeName(ref)
	for i := range m.Employees {
		emp := &m.Employees[i]
		if emp.EmployeeID == ref || scan.NormalizeName(emp.DisplayName()) == want {
			return emp, nil
		}
	}
	return nil, fmt.Errorf("employee %q: %w", ref, domain.ErrNotFound)
}

// MergeEmployeePDFs downloads the employee's included PDFs in lowercase path
// order and concatenates them into one document.
func MergeEmployeePDFs(ctx context.Context, source port.DocumentSource, emp *scan.EmployeeReport) ([]byte, error) {
	var items []scan.FileItem
	for _, item := range emp.Included {
		if item.FileID == "" || item.Container != "" {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no PDFs for %s: %w", emp.DisplayName(), domain.ErrEmptyDocument)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(mergeKey(items[i])) < strings.ToLower(mergeKey(items[j]))
	})

	docs := make([][]byte, 0, len(items))
	for _, item := range items {
		data, err := source.Download(ctx, item.FileID)
		if err != nil {
			return nil, fmt.Errorf("downloading %s: %w", item.FileName, err)
		}
		docs = append(docs, data)
	}
	return pdfkit.Merge(docs)
}

func mergeKey(item scan.FileItem) string {
	if item.Path != "" {
		return item.Path
	}
	return item.FileName
}
