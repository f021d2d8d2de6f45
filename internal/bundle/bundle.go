// Package bundle writes the output files of one parsed timesheet.
package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cartellino/internal/csvexport"
	"cartellino/internal/domain"
	"cartellino/internal/scan"
	"cartellino/internal/xlsxexport"
)

// Paths names the files of one bundle. An empty XLSX path skips the workbook.
type Paths struct {
	DaysCSV    string
	PairsCSV   string
	TotalsJSON string
	ReportJSON string
	XLSX       string
}

// FlatPaths places files next to each other as {dir}/{stem}.days.csv etc.
func FlatPaths(dir, stem string, withXLSX bool) Paths {
	p := Paths{
		DaysCSV:    filepath.Join(dir, stem+".days.csv"),
		PairsCSV:   filepath.Join(dir, stem+".pairs.csv"),
		TotalsJSON: filepath.Join(dir, stem+".totals.json"),
		ReportJSON: filepath.Join(dir, stem+".report.json"),
	}
	if withXLSX {
		p.XLSX = filepath.Join(dir, stem+".xlsx")
	}
	return p
}

// DirPaths places files with fixed names inside dir.
func DirPaths(dir string, withXLSX bool) Paths {
	p := Paths{
		DaysCSV:    filepath.Join(dir, "days.csv"),
		PairsCSV:   filepath.Join(dir, "pairs.csv"),
		TotalsJSON: filepath.Join(dir, "totals.json"),
		ReportJSON: filepath.Join(dir, "report.json"),
	}
	if withXLSX {
		p.XLSX = filepath.Join(dir, "timesheet.xlsx")
	}
	return p
}

// Outputs maps output kinds to file paths, as recorded in batch reports.
func (p Paths) Outputs() map[string]string {
	out := map[string]string{
		"days_csv":    p.DaysCSV,
		"pairs_csv":   p.PairsCSV,
		"totals_json": p.TotalsJSON,
		"report_json": p.ReportJSON,
	}
	if p.XLSX != "" {
		out["xlsx"] = p.XLSX
	}
	return out
}

// Files lists the written paths in a stable order.
func (p Paths) Files() []string {
	files := []string{p.DaysCSV, p.PairsCSV, p.TotalsJSON, p.ReportJSON}
	if p.XLSX != "" {
		files = append(files, p.XLSX)
	}
	return files
}

// Stem returns a file name without directory and extension.
func Stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// BatchDir returns {outDir}/{employee}/{stem}__{first 8 chars of fileID}
// with path-unsafe characters replaced.
func BatchDir(outDir, employee, fileName, fileID string) string {
	short := fileID
	if len(short) > 8 {
		short = short[:8]
	}
	tag := Stem(scan.SafeName(fileName)) + "__" + short
	return filepath.Join(outDir, scan.SafeName(employee), tag)
}

// Write renders doc into the files named by p, creating directories as needed.
func Write(p Paths, doc *domain.ParsedDocument) error {
	for _, f := range p.Files() {
		if err := os.MkdirAll(filepath.Dir(f), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(f), err)
		}
	}

	if err := writeCSV(p.DaysCSV, func(w *csvexport.Writer) error { return w.WriteDays(doc.Days) }); err != nil {
		return err
	}
	if err := writeCSV(p.PairsCSV, func(w *csvexport.Writer) error { return w.WritePairs(doc.Pairs) }); err != nil {
		return err
	}
	totals := doc.Totals
	if totals == nil {
		totals = domain.Totals{}
	}
	if err := writeJSON(p.TotalsJSON, totals); err != nil {
		return err
	}
	if err := writeJSON(p.ReportJSON, doc.Report()); err != nil {
		return err
	}
	if p.XLSX != "" {
		if err := writeXLSX(p.XLSX, doc); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, fill func(*csvexport.Writer) error) error {
	var buf bytes.Buffer
	w := csvexport.NewWriter(&buf)
	if err := fill(w); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return writeFile(path, buf.Bytes())
}

// MarshalJSON encodes v indented by two spaces without HTML escaping.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(path string, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return writeFile(path, data)
}

func writeXLSX(path string, doc *domain.ParsedDocument) error {
	var buf bytes.Buffer
	if err := xlsxexport.Write(&buf, doc); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
