package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"cartellino/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// DayColumns is the header row of a days table.
var DayColumns = []string{
	"year",
	"month",
	"day",
	"dow",
	"hours_present",
	"hours_total",
	"hours_worked",
	"raw_line",
}

// PairColumns is the header row of a pairs table.
var PairColumns = []string{
	"year",
	"month",
	"day",
	"dow",
	"pair_index",
	"entry_time",
	"exit_time",
	"duration",
	"shift_label",
	"entry_raw",
	"exit_raw",
}

// Writer wraps csv.Writer for exporting day and pair tables.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteDays writes the day header followed by one row per day.
func (w *Writer) WriteDays(days []domain.DayRecord) error {
	if err := w.csv.Write(DayColumns); err != nil {
		return err
	}
	for i := range days {
		if err := w.csv.Write(DayRow(&days[i])); err != nil {
			return err
		}
	}
	return nil
}

// WritePairs writes the pair header followed by one row per pair.
func (w *Writer) WritePairs(pairs []domain.PairRecord) error {
	if err := w.csv.Write(PairColumns); err != nil {
		return err
	}
	for i := range pairs {
		if err := w.csv.Write(PairRow(&pairs[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// DayRow converts a day record to its CSV cells.
func DayRow(d *domain.DayRecord) []string {
	return []string{
		formatIntPtr(d.Year),
		formatIntPtr(d.Month),
		strconv.Itoa(d.Day),
		string(d.DOW),
		FormatHours(d.HoursPresent),
		FormatHours(d.HoursTotal),
		FormatHours(d.HoursWorked),
		d.RawLine,
	}
}

// PairRow converts a pair record to its CSV cells. Missing values are empty.
func PairRow(p *domain.PairRecord) []string {
	shift := ""
	if p.ShiftLabel != nil {
		shift = string(*p.ShiftLabel)
	}
	return []string{
		formatIntPtr(p.Year),
		formatIntPtr(p.Month),
		strconv.Itoa(p.Day),
		string(p.DOW),
		strconv.Itoa(p.PairIndex),
		deref(p.EntryTime),
		deref(p.ExitTime),
		deref(p.Duration),
		shift,
		deref(p.EntryRaw),
		deref(p.ExitRaw),
	}
}

// FormatHours prints decimal hours in their shortest round-trip form, always
// with a fractional part: 7.5, 8.0, -2.25.
func FormatHours(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a document name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "timesheet"
	}
	return s
}

// BuildFilename returns a sanitized download name for an export of the
// source document: {stem}_{suffix}.{ext}, or {stem}.{ext} without suffix.
func BuildFilename(sourceName, suffix, ext string) string {
	stem := SanitizeFilename(strings.TrimSuffix(sourceName, filepath.Ext(sourceName)))
	if suffix == "" {
		return fmt.Sprintf("%s.%s", stem, ext)
	}
	return fmt.Sprintf("%s_%s.%s", stem, suffix, ext)
}
