package scan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ContainerZip marks a collected archive whose members were not expanded.
const ContainerZip = "zip"

// FileItem is one document listed under an employee.
type FileItem struct {
	FileID    string            `json:"file_id"`
	FileName  string            `json:"file_name"`
	MimeType  string            `json:"mimeType,omitempty"`
	Container string            `json:"container,omitempty"`
	Path      string            `json:"path,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Outputs   map[string]string `json:"outputs,omitempty"`
}

// ExcludedFolder is a folder skipped because its name is an exclude term.
type ExcludedFolder struct {
	FolderID   string `json:"folder_id"`
	FolderName string `json:"folder_name"`
	Reason     string `json:"reason"`
}

// Counts summarizes an EmployeeReport.
type Counts struct {
	Included        int `json:"included"`
	SkippedFiles    int `json:"skipped_files"`
	ExcludedFolders int `json:"excluded_folders"`
}

// EmployeeReport lists the documents found for one employee folder.
type EmployeeReport struct {
	Employee        string           `json:"employee"`
	EmployeeID      string           `json:"employee_id,omitempty"`
	Counts          Counts           `json:"counts"`
	Included        []FileItem       `json:"included"`
	Skipped         []FileItem       `json:"skipped"`
	ExcludedFolders []ExcludedFolder `json:"excluded_folders"`
}

// UnmarshalJSON accepts "name" and "id" as aliases of "employee" and
// "employee_id".
func (e *EmployeeReport) UnmarshalJSON(data []byte) error {
	type plain EmployeeReport
	var aux struct {
		plain
		Name string `json:"name"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = EmployeeReport(aux.plain)
	if e.Employee == "" {
		e.Employee = aux.Name
	}
	if e.EmployeeID == "" {
		e.EmployeeID = aux.ID
	}
	return nil
}

// DisplayName returns the employee name, or "unknown".
func (e *EmployeeReport) DisplayName() string {
	if e.Employee == "" {
		return "unknown"
	}
	return e.Employee
}

func (e *EmployeeReport) recount() {
	e.Counts = Counts{
		Included:        len(e.Included),
		SkippedFiles:    len(e.Skipped),
		ExcludedFolders: len(e.ExcludedFolders),
	}
}

// Result status values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Result is the outcome of processing one document. It is also the item
// shape of legacy reports, which list results under "files".
type Result struct {
	Status      string            `json:"status"`
	Employee    string            `json:"employee"`
	EmployeeID  string            `json:"employee_id,omitempty"`
	FileID      string            `json:"file_id"`
	FileName    string            `json:"file_name"`
	Reason      string            `json:"reason,omitempty"`
	Outputs     map[string]string `json:"outputs,omitempty"`
	NeedsReview bool              `json:"-"`
}

// Manifest is the scan output and, with the same shape, the batch report.
// Files is only present in legacy reports.
type Manifest struct {
	RootID        string           `json:"root_id"`
	GeneratedAt   string           `json:"generated_at"`
	EmployeeCount int              `json:"employee_count"`
	Employees     []EmployeeReport `json:"employees"`
	Files         []Result         `json:"files,omitempty"`
}

const generatedAtLayout = "2006-01-02T15:04:05Z"

// NewManifest stamps employees with the current UTC time.
func NewManifest(rootID string, employees []EmployeeReport, now time.Time) *Manifest {
	if employees == nil {
		employees = []EmployeeReport{}
	}
	return &Manifest{
		RootID:        rootID,
		GeneratedAt:   now.UTC().Format(generatedAtLayout),
		EmployeeCount: len(employees),
		Employees:     employees,
	}
}

// LoadManifest reads a manifest or report file. A missing file yields an
// empty manifest when allowMissing is set.
func LoadManifest(path string, allowMissing bool) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && allowMissing {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &m, nil
}

// WriteJSON writes v indented by two spaces, creating parent directories and
// replacing the file atomically.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
