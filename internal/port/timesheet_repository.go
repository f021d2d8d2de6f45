package port

import (
	"context"

	"github.com/google/uuid"

	"cartellino/internal/domain"
)

// TimesheetRepository defines the contract for timesheet persistence.
type TimesheetRepository interface {
	Create(ctx context.Context, ts *domain.Timesheet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Timesheet, error)
	List(ctx context.Context, filter domain.TimesheetFilter, offset, limit int) ([]domain.Timesheet, int, error)
	// ClaimQueued marks up to limit queued timesheets as processing and
	// returns them. Rows locked by another worker are skipped.
	ClaimQueued(ctx context.Context, limit int) ([]domain.Timesheet, error)
	SaveParsed(ctx context.Context, ts *domain.Timesheet, doc *domain.ParsedDocument) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	Requeue(ctx context.Context, id uuid.UUID, reason string) error
	LoadDocument(ctx context.Context, id uuid.UUID) (*domain.ParsedDocument, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
