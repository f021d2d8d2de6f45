package domain

// DayOfWeek is the two-letter Italian day code printed at the start of a day line.
type DayOfWeek string

const (
	Monday    DayOfWeek = "LU"
	Tuesday   DayOfWeek = "MA"
	Wednesday DayOfWeek = "ME"
	Thursday  DayOfWeek = "GI"
	Friday    DayOfWeek = "VE"
	Saturday  DayOfWeek = "SA"
	Sunday    DayOfWeek = "DO"
)

// DaysOfWeek lists the recognised day codes in calendar order.
var DaysOfWeek = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Valid reports whether d is one of the seven recognised codes.
func (d DayOfWeek) Valid() bool {
	for _, v := range DaysOfWeek {
		if v == d {
			return true
		}
	}
	return false
}

// ShiftLabel is the shift inferred from an entry clock time.
type ShiftLabel string

const (
	ShiftMorning   ShiftLabel = "Morning"
	ShiftAfternoon ShiftLabel = "Afternoon"
	ShiftNight     ShiftLabel = "Night"
)

// EventKind marks a clock punch as entry (E) or exit (U).
type EventKind string

const (
	EventEntry EventKind = "E"
	EventExit  EventKind = "U"
)

// TotalKey identifies one of the monthly aggregate figures.
type TotalKey string

const (
	TotalWorkedHours       TotalKey = "ore_lavorate"
	TotalScheduledDue      TotalKey = "ore_dovute_programmate"
	TotalContractualDue    TotalKey = "ore_dovute_contrattuali"
	TotalGrossConfirmed    TotalKey = "dbcr_lordo_confermato"
	TotalNetBalance        TotalKey = "dbcr_netto"
	TotalPriorMonthBalance TotalKey = "saldo_al_mese_precedente"
	TotalCurrentBalance    TotalKey = "saldo_al_mese_corrente"
)

// TotalKeys lists every total key in the order the labels appear on the document.
var TotalKeys = []TotalKey{
	TotalWorkedHours,
	TotalScheduledDue,
	TotalContractualDue,
	TotalGrossConfirmed,
	TotalNetBalance,
	TotalPriorMonthBalance,
	TotalCurrentBalance,
}

// TimesheetStatus represents the processing lifecycle of a stored timesheet.
type TimesheetStatus string

const (
	TimesheetStatusQueued     TimesheetStatus = "queued"
	TimesheetStatusProcessing TimesheetStatus = "processing"
	TimesheetStatusParsed     TimesheetStatus = "parsed"
	TimesheetStatusFailed     TimesheetStatus = "failed"
)

// ResultStatus is the outcome of processing one document in a batch.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultFailed  ResultStatus = "failed"
)

// ExportFormat selects the representation produced by a timesheet export.
type ExportFormat string

const (
	ExportXLSX  ExportFormat = "xlsx"
	ExportDays  ExportFormat = "days"
	ExportPairs ExportFormat = "pairs"
	ExportJSON  ExportFormat = "json"
)

// AllowedContentTypes maps accepted upload MIME types to their file extension.
var AllowedContentTypes = map[string]string{
	"application/pdf": "pdf",
	"text/plain":      "txt",
}
