package port

import (
	"context"

	"cartellino/internal/domain"
)

// EmailSender defines the contract for sending notifications.
type EmailSender interface {
	SendBatchSummary(ctx context.Context, recipients []string, summary *domain.BatchSummary) error
}
