package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"cartellino/internal/domain"
	"cartellino/internal/port"
)

type timesheetRepo struct {
	db *sqlx.DB
}

// NewTimesheetRepo creates a new PostgreSQL-backed TimesheetRepository.
func NewTimesheetRepo(db *sqlx.DB) port.TimesheetRepository {
	return &timesheetRepo{db: db}
}

type dayRow struct {
	TimesheetID  uuid.UUID `db:"timesheet_id"`
	Position     int       `db:"position"`
	Year         *int      `db:"year"`
	Month        *int      `db:"month"`
	Day          int       `db:"day"`
	DOW          string    `db:"dow"`
	HoursPresent float64   `db:"hours_present"`
	HoursTotal   float64   `db:"hours_total"`
	HoursWorked  float64   `db:"hours_worked"`
	RawLine      string    `db:"raw_line"`
}

type pairRow struct {
	TimesheetID uuid.UUID `db:"timesheet_id"`
	Position    int       `db:"position"`
	Year        *int      `db:"year"`
	Month       *int      `db:"month"`
	Day         int       `db:"day"`
	DOW         string    `db:"dow"`
	PairIndex   int       `db:"pair_index"`
	EntryTime   *string   `db:"entry_time"`
	ExitTime    *string   `db:"exit_time"`
	Duration    *string   `db:"duration"`
	ShiftLabel  *string   `db:"shift_label"`
	EntryRaw    *string   `db:"entry_raw"`
	ExitRaw     *string   `db:"exit_raw"`
}

const insertDayQuery = `INSERT INTO timesheet_days (
	timesheet_id, position, year, month, day, dow,
	hours_present, hours_total, hours_worked, raw_line
) VALUES (
	:timesheet_id, :position, :year, :month, :day, :dow,
	:hours_present, :hours_total, :hours_worked, :raw_line
)`

const insertPairQuery = `INSERT INTO timesheet_pairs (
	timesheet_id, position, year, month, day, dow, pair_index,
	entry_time, exit_time, duration, shift_label, entry_raw, exit_raw
) VALUES (
	:timesheet_id, :position, :year, :month, :day, :dow, :pair_index,
	:entry_time, :exit_time, :duration, :shift_label, :entry_raw, :exit_raw
)`

func (r *timesheetRepo) Create(ctx context.Context, ts *domain.Timesheet) error {
	now := time.Now().UTC()
	ts.CreatedAt = now
	ts.UpdatedAt = now

	query := `INSERT INTO timesheets (
		id, source_name, content_type, storage_key, source_file_id,
		status, parse_attempts, page_count, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		ts.ID, ts.SourceName, ts.ContentType, ts.StorageKey, ts.SourceFileID,
		ts.Status, ts.ParseAttempts, ts.PageCount, ts.CreatedAt, ts.UpdatedAt)
	if err != nil {
		return fmt.Errorf("timesheetRepo.Create: %w", err)
	}
	return nil
}

func (r *timesheetRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Timesheet, error) {
	var ts domain.Timesheet
	err := r.db.GetContext(ctx, &ts, "SELECT * FROM timesheets WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTimesheetNotFound
		}
		return nil, fmt.Errorf("timesheetRepo.GetByID: %w", err)
	}
	return &ts, nil
}

// filterClause renders the WHERE clause for f. Placeholders start at $1.
func filterClause(f domain.TimesheetFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.EmployeeID != "" {
		add("employee_id = $%d", f.EmployeeID)
	}
	if f.Year != nil {
		add("year = $%d", *f.Year)
	}
	if f.Month != nil {
		add("month = $%d", *f.Month)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.NeedsReview != nil {
		add("is_ok = $%d", !*f.NeedsReview)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *timesheetRepo) List(ctx context.Context, filter domain.TimesheetFilter, offset, limit int) ([]domain.Timesheet, int, error) {
	where, args := filterClause(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM timesheets"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("timesheetRepo.List count: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT * FROM timesheets%s ORDER BY year DESC NULLS LAST, month DESC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2)
	var sheets []domain.Timesheet
	if err := r.db.SelectContext(ctx, &sheets, query, append(args, limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("timesheetRepo.List: %w", err)
	}
	return sheets, total, nil
}

func (r *timesheetRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.Timesheet, error) {
	var sheets []domain.Timesheet
	err := r.db.SelectContext(ctx, &sheets,
		`UPDATE timesheets SET status = $1, parse_attempts = parse_attempts + 1, updated_at = NOW()
		 WHERE id IN (
			SELECT id FROM timesheets WHERE status = $2
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		domain.TimesheetStatusProcessing, domain.TimesheetStatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("timesheetRepo.ClaimQueued: %w", err)
	}
	return sheets, nil
}

func (r *timesheetRepo) SaveParsed(ctx context.Context, ts *domain.Timesheet, doc *domain.ParsedDocument) error {
	if err := ts.Apply(doc); err != nil {
		return fmt.Errorf("timesheetRepo.SaveParsed encode: %w", err)
	}
	now := time.Now().UTC()
	ts.Status = domain.TimesheetStatusParsed
	ts.ErrorMessage = nil
	ts.ParsedAt = &now
	ts.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("timesheetRepo.SaveParsed begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx,
		`UPDATE timesheets SET
			status = $1, error_message = NULL, employee_name = $2, employee_id = $3,
			month = $4, month_name = $5, year = $6, meta = $7, totals = $8,
			row_sum = $9, worked_total = $10, worked_diff = $11, is_ok = $12,
			page_count = $13, parsed_at = $14, updated_at = $15
		 WHERE id = $16`,
		ts.Status, ts.EmployeeName, ts.EmployeeID,
		ts.Month, ts.MonthName, ts.Year, ts.Meta, ts.Totals,
		ts.RowSum, ts.WorkedTotal, ts.WorkedDiff, ts.IsOK,
		ts.PageCount, ts.ParsedAt, ts.UpdatedAt,
		ts.ID)
	if err != nil {
		return fmt.Errorf("timesheetRepo.SaveParsed: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	for _, table := range []string{"timesheet_days", "timesheet_pairs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE timesheet_id = $1", ts.ID); err != nil {
			return fmt.Errorf("timesheetRepo.SaveParsed clear %s: %w", table, err)
		}
	}

	if days := toDayRows(ts.ID, doc.Days); len(days) > 0 {
		if _, err := tx.NamedExecContext(ctx, insertDayQuery, days); err != nil {
			return fmt.Errorf("timesheetRepo.SaveParsed days: %w", err)
		}
	}
	if pairs := toPairRows(ts.ID, doc.Pairs); len(pairs) > 0 {
		if _, err := tx.NamedExecContext(ctx, insertPairQuery, pairs); err != nil {
			return fmt.Errorf("timesheetRepo.SaveParsed pairs: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("timesheetRepo.SaveParsed commit: %w", err)
	}
	return nil
}

func (r *timesheetRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.setStatus(ctx, "timesheetRepo.MarkFailed", id, domain.TimesheetStatusFailed, reason)
}

func (r *timesheetRepo) Requeue(ctx context.Context, id uuid.UUID, reason string) error {
	return r.setStatus(ctx, "timesheetRepo.Requeue", id, domain.TimesheetStatusQueued, reason)
}

func (r *timesheetRepo) setStatus(ctx context.Context, op string, id uuid.UUID, status domain.TimesheetStatus, reason string) error {
	var msg *string
	if reason != "" {
		msg = &reason
	}
	result, err := r.db.ExecContext(ctx,
		"UPDATE timesheets SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4",
		status, msg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireAffected(result)
}

func (r *timesheetRepo) LoadDocument(ctx context.Context, id uuid.UUID) (*domain.ParsedDocument, error) {
	ts, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ts.Status != domain.TimesheetStatusParsed {
		return nil, domain.ErrTimesheetNotParsed
	}

	doc := &domain.ParsedDocument{Days: []domain.DayRecord{}, Pairs: []domain.PairRecord{}, Totals: domain.Totals{}}
	if len(ts.Meta) > 0 {
		if err := json.Unmarshal(ts.Meta, &doc.Meta); err != nil {
			return nil, fmt.Errorf("timesheetRepo.LoadDocument meta: %w", err)
		}
	}
	if len(ts.Totals) > 0 {
		if err := json.Unmarshal(ts.Totals, &doc.Totals); err != nil {
			return nil, fmt.Errorf("timesheetRepo.LoadDocument totals: %w", err)
		}
	}
	if ts.RowSum != nil {
		doc.Validation.RowSum = *ts.RowSum
	}
	doc.Validation.Total = ts.WorkedTotal
	doc.Validation.Diff = ts.WorkedDiff
	doc.Validation.IsOK = ts.IsOK != nil && *ts.IsOK

	var days []dayRow
	if err := r.db.SelectContext(ctx, &days,
		"SELECT * FROM timesheet_days WHERE timesheet_id = $1 ORDER BY position", id); err != nil {
		return nil, fmt.Errorf("timesheetRepo.LoadDocument days: %w", err)
	}
	for i := range days {
		doc.Days = append(doc.Days, days[i].record())
	}

	var pairs []pairRow
	if err := r.db.SelectContext(ctx, &pairs,
		"SELECT * FROM timesheet_pairs WHERE timesheet_id = $1 ORDER BY position", id); err != nil {
		return nil, fmt.Errorf("timesheetRepo.LoadDocument pairs: %w", err)
	}
	for i := range pairs {
		doc.Pairs = append(doc.Pairs, pairs[i].record())
	}
	return doc, nil
}

func (r *timesheetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM timesheets WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("timesheetRepo.Delete: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrTimesheetNotFound
	}
	return nil
}

func toDayRows(id uuid.UUID, days []domain.DayRecord) []dayRow {
	rows := make([]dayRow, len(days))
	for i, d := range days {
		rows[i] = dayRow{
			TimesheetID:  id,
			Position:     i,
			Year:         d.Year,
			Month:        d.Month,
			Day:          d.Day,
			DOW:          string(d.DOW),
			HoursPresent: d.HoursPresent,
			HoursTotal:   d.HoursTotal,
			HoursWorked:  d.HoursWorked,
			RawLine:      d.RawLine,
		}
	}
	return rows
}

func (r *dayRow) record() domain.DayRecord {
	return domain.DayRecord{
		Year:         r.Year,
		Month:        r.Month,
		Day:          r.Day,
		DOW:          domain.DayOfWeek(r.DOW),
		HoursPresent: r.HoursPresent,
		HoursTotal:   r.HoursTotal,
		HoursWorked:  r.HoursWorked,
		RawLine:      r.RawLine,
	}
}

func toPairRows(id uuid.UUID, pairs []domain.PairRecord) []pairRow {
	rows := make([]pairRow, len(pairs))
	for i, p := range pairs {
		var shift *string
		if p.ShiftLabel != nil {
			s := string(*p.ShiftLabel)
			shift = &s
		}
		rows[i] = pairRow{
			TimesheetID: id,
			Position:    i,
			Year:        p.Year,
			Month:       p.Month,
			Day:         p.Day,
			DOW:         string(p.DOW),
			PairIndex:   p.PairIndex,
			EntryTime:   p.EntryTime,
			ExitTime:    p.ExitTime,
			Duration:    p.Duration,
			ShiftLabel:  shift,
			EntryRaw:    p.EntryRaw,
			ExitRaw:     p.ExitRaw,
		}
	}
	return rows
}

func (r *pairRow) record() domain.PairRecord {
	var shift *domain.ShiftLabel
	if r.ShiftLabel != nil {
		s := domain.ShiftLabel(*r.ShiftLabel)
		shift = &s
	}
	return domain.PairRecord{
		Year:       r.Year,
		Month:      r.Month,
		Day:        r.Day,
		DOW:        domain.DayOfWeek(r.DOW),
		PairIndex:  r.PairIndex,
		EntryTime:  r.EntryTime,
		ExitTime:   r.ExitTime,
		Duration:   r.Duration,
		ShiftLabel: shift,
		EntryRaw:   r.EntryRaw,
		ExitRaw:    r.ExitRaw,
	}
}
