package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DayRecord is one calendar day's summary line. Hours are decimal hours.
type DayRecord struct {
	Year         *int      `json:"year"`
	Month        *int      `json:"month"`
	Day          int       `json:"day"`
	DOW          DayOfWeek `json:"dow"`
	HoursPresent float64   `json:"hours_present"`
	HoursTotal   float64   `json:"hours_total"`
	HoursWorked  float64   `json:"hours_worked"`
	RawLine      string    `json:"raw_line"`
}

// PairRecord is one entry/exit punch pair within a day. Either side may be
// missing when the punches are incomplete.
type PairRecord struct {
	Year       *int        `json:"year"`
	Month      *int        `json:"month"`
	Day        int         `json:"day"`
	DOW        DayOfWeek   `json:"dow"`
	PairIndex  int         `json:"pair_index"`
	EntryTime  *string     `json:"entry_time"`
	ExitTime   *string     `json:"exit_time"`
	Duration   *string     `json:"duration"`
	ShiftLabel *ShiftLabel `json:"shift_label"`
	EntryRaw   *string     `json:"entry_raw"`
	ExitRaw    *string     `json:"exit_raw"`
}

// Totals maps the monthly aggregate labels found on a document to decimal
// hours. Labels missing from the document have no key.
type Totals map[TotalKey]float64

// Get returns the value for key and whether it was present.
func (t Totals) Get(key TotalKey) (float64, bool) {
	v, ok := t[key]
	return v, ok
}

// Validation compares the per-day worked hours with the extracted monthly total.
type Validation struct {
	RowSum float64  `json:"ore_lavorate_row_sum"`
	Total  *float64 `json:"ore_lavorate_total"`
	Diff   *float64 `json:"ore_lavorate_diff"`
	IsOK   bool     `json:"is_ok"`
}

// Metadata holds employee identity and reporting period. Every field is
// optional. Unit, ShiftAssignment and JobTitle are reserved and always nil.
type Metadata struct {
	EmployeeName    *string `json:"employee_name"`
	EmployeeID      *string `json:"employee_id"`
	MonthName       *string `json:"month_name"`
	Month           *int    `json:"month"`
	Year            *int    `json:"year"`
	Unit            *string `json:"unit"`
	ShiftAssignment *string `json:"turno"`
	JobTitle        *string `json:"qualifica"`
}

// ParsedDocument is the full result of parsing one timesheet's text.
type ParsedDocument struct {
	Meta       Metadata     `json:"meta"`
	Days       []DayRecord  `json:"days"`
	Pairs      []PairRecord `json:"pairs"`
	Totals     Totals       `json:"totals"`
	Validation Validation   `json:"validation"`
}

// Report is the summary written next to the day and pair tables.
type Report struct {
	Meta       Metadata   `json:"meta"`
	Totals     Totals     `json:"totals"`
	Validation Validation `json:"validation"`
}

// Report returns the meta/totals/validation summary of d.
func (d *ParsedDocument) Report() Report {
	return Report{Meta: d.Meta, Totals: d.Totals, Validation: d.Validation}
}

// NeedsReview reports whether the document parsed but failed cross-validation.
func (d *ParsedDocument) NeedsReview() bool {
	return !d.Validation.IsOK
}

// Timesheet is a stored timesheet document and its parse status.
type Timesheet struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	SourceName    string          `db:"source_name" json:"source_name"`
	ContentType   string          `db:"content_type" json:"content_type"`
	StorageKey    string          `db:"storage_key" json:"storage_key"`
	SourceFileID  *string         `db:"source_file_id" json:"source_file_id,omitempty"`
	Status        TimesheetStatus `db:"status" json:"status"`
	ParseAttempts int             `db:"parse_attempts" json:"parse_attempts"`
	ErrorMessage  *string         `db:"error_message" json:"error_message,omitempty"`
	EmployeeName  *string         `db:"employee_name" json:"employee_name"`
	EmployeeID    *string         `db:"employee_id" json:"employee_id"`
	Month         *int            `db:"month" json:"month"`
	MonthName     *string         `db:"month_name" json:"month_name"`
	Year          *int            `db:"year" json:"year"`
	Meta          json.RawMessage `db:"meta" json:"meta,omitempty" swaggertype:"object"`
	Totals        json.RawMessage `db:"totals" json:"totals,omitempty" swaggertype:"object"`
	RowSum        *float64        `db:"row_sum" json:"row_sum"`
	WorkedTotal   *float64        `db:"worked_total" json:"worked_total"`
	WorkedDiff    *float64        `db:"worked_diff" json:"worked_diff"`
	IsOK          *bool           `db:"is_ok" json:"is_ok"`
	PageCount     int             `db:"page_count" json:"page_count"`
	ParsedAt      *time.Time      `db:"parsed_at" json:"parsed_at,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// TimesheetFilter narrows a timesheet listing. Zero values do not filter.
type TimesheetFilter struct {
	EmployeeID  string
	Year        *int
	Month       *int
	Status      TimesheetStatus
	NeedsReview *bool
}

// TimesheetDetail is a stored timesheet together with its parsed content.
type TimesheetDetail struct {
	Timesheet *Timesheet      `json:"timesheet"`
	Document  *ParsedDocument `json:"document,omitempty"`
}

// SourceFile is a file or folder listed from a document source.
type SourceFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

// DocumentRef points at one document of a batch run.
type DocumentRef struct {
	Employee string `json:"employee"`
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	Reason   string `json:"reason,omitempty"`
}

// BatchSummary describes the outcome of a batch run.
type BatchSummary struct {
	RootID      string        `json:"root_id"`
	StartedAt   time.Time     `json:"started_at"`
	Elapsed     time.Duration `json:"elapsed"`
	Queued      int           `json:"queued"`
	Cached      int           `json:"cached"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	NeedsReview []DocumentRef `json:"needs_review"`
	Failures    []DocumentRef `json:"failures"`
}

// Apply copies the identity, period and validation of doc onto t and
// encodes its metadata and totals.
func (t *Timesheet) Apply(doc *ParsedDocument) error {
	meta, err := json.Marshal(doc.Meta)
	if err != nil {
		return err
	}
	totals := doc.Totals
	if totals == nil {
		totals = Totals{}
	}
	encodedTotals, err := json.Marshal(totals)
	if err != nil {
		return err
	}

	t.EmployeeName = doc.Meta.EmployeeName
	t.EmployeeID = doc.Meta.EmployeeID
	t.Month = doc.Meta.Month
	t.MonthName = doc.Meta.MonthName
	t.Year = doc.Meta.Year
	t.Meta = meta
	t.Totals = encodedTotals
	rowSum := doc.Validation.RowSum
	isOK := doc.Validation.IsOK
	t.RowSum = &rowSum
	t.WorkedTotal = doc.Validation.Total
	t.WorkedDiff = doc.Validation.Diff
	t.IsOK = &isOK
	return nil
}
