package scan

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartellino/internal/domain"
)

type fakeSource struct {
	children map[string][]domain.SourceFile
}

func (f *fakeSource) ListChildren(_ context.Context, folderID string) ([]domain.SourceFile, error) {
	c, ok := f.children[folderID]
	if !ok {
		return nil, errors.New("no such folder " + folderID)
	}
	return c, nil
}

func (f *fakeSource) GetFile(context.Context, string) (*domain.SourceFile, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeSource) Download(context.Context, string) ([]byte, error) {
	return nil, domain.ErrNotFound
}

func folder(id, name string) domain.SourceFile {
	return domain.SourceFile{ID: id, Name: name, MimeType: folderMimeType}
}

func pdfFile(id, name string) domain.SourceFile {
	return domain.SourceFile{ID: id, Name: name, MimeType: "application/pdf"}
}

func newTree() *fakeSource {
	return &fakeSource{children: map[string][]domain.SourceFile{
		"root": {
			folder("emp1", "Rossi Mario"),
			pdfFile("stray", "readme.pdf"),
			folder("emp2", "Bianchi Luca"),
		},
		"emp1": {
			folder("e1-2023", "2023"),
			folder("e1-pay", "Buste_Paga"),
			pdfFile("r-jan", "Cartellino Gennaio.pdf"),
			pdfFile("r-ced", "cedolino gennaio.pdf"),
			{ID: "r-zip", Name: "archivio.ZIP", MimeType: "application/octet-stream"},
			{ID: "r-doc", Name: "note.docx", MimeType: "application/msword"},
		},
		"e1-2023": {
			pdfFile("r-feb", "Cartellino Febbraio.pdf"),
			{ID: "r-zip2", Name: "extra", MimeType: "application/x-zip-compressed"},
		},
		"emp2": {},
	}}
}

func TestScanner_ScanEmployee(t *testing.T) {
	s := NewScanner(newTree(), nil, 2)

	r, err := s.ScanEmployee(context.Background(), folder("emp1", "Rossi Mario"))
	require.NoError(t, err)

	assert.Equal(t, "Rossi Mario", r.Employee)
	assert.Equal(t, "emp1", r.EmployeeID)
	assert.Equal(t, Counts{Included: 4, SkippedFiles: 1, ExcludedFolders: 1}, r.Counts)

	byID := map[string]FileItem{}
	for _, f := range r.Included {
		byID[f.FileID] = f
	}
	assert.Contains(t, byID, "r-jan")
	assert.Equal(t, "Rossi Mario/2023/Cartellino Febbraio.pdf", filepath.ToSlash(byID["r-feb"].Path))
	assert.Equal(t, ContainerZip, byID["r-zip"].Container)
	assert.Equal(t, ContainerZip, byID["r-zip2"].Container)
	assert.NotContains(t, byID, "r-doc")

	assert.Equal(t, "r-ced", r.Skipped[0].FileID)
	assert.Equal(t, "cedolino", r.Skipped[0].Reason)
	assert.Equal(t, ExcludedFolder{FolderID: "e1-pay", FolderName: "Buste_Paga", Reason: "buste paga"}, r.ExcludedFolders[0])
}

func TestScanner_ScanRoot(t *testing.T) {
	s := NewScanner(newTree(), []string{"Buste-Paga", "cedolino"}, 4)
	s.now = func() time.Time { return time.Date(2024, 5, 2, 8, 30, 0, 0, time.FixedZone("CET", 3600)) }

	m, err := s.ScanRoot(context.Background(), "root")
	require.NoError(t, err)

	assert.Equal(t, "root", m.RootID)
	assert.Equal(t, "2024-05-02T07:30:00Z", m.GeneratedAt)
	assert.Equal(t, 2, m.EmployeeCount)
	require.Len(t, m.Employees, 2)
	assert.Equal(t, "Rossi Mario", m.Employees[0].Employee)
	assert.Equal(t, "Bianchi Luca", m.Employees[1].Employee)
	assert.Empty(t, m.Employees[1].Included)
	assert.NotNil(t, m.Employees[1].Included)
}

func TestScanner_ScanRoot_PropagatesListingErrors(t *testing.T) {
	tree := newTree()
	delete(tree.children, "e1-2023")
	s := NewScanner(tree, nil, 1)

	_, err := s.ScanRoot(context.Background(), "root")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanning Rossi Mario")
}

func TestScanner_ExcludedEmployeeFolder(t *testing.T) {
	s := NewScanner(newTree(), nil, 1)

	r, err := s.ScanEmployee(context.Background(), folder("emp-pay", "Cedolini"))
	require.NoError(t, err)
	assert.Equal(t, 0, r.Counts.Included)
	assert.Equal(t, 1, r.Counts.ExcludedFolders)
}

func TestManifest_RoundTripFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "manifest.json")
	m := NewManifest("root", nil, time.Unix(0, 0))
	require.NoError(t, WriteJSON(path, m))

	loaded, err := LoadManifest(path, false)
	require.NoError(t, err)
	assert.Equal(t, "1970-01-01T00:00:00Z", loaded.GeneratedAt)
	assert.Equal(t, 0, loaded.EmployeeCount)

	missing, err := LoadManifest(filepath.Join(t.TempDir(), "none.json"), true)
	require.NoError(t, err)
	assert.Empty(t, missing.Employees)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "none.json"), false)
	assert.Error(t, err)
}
