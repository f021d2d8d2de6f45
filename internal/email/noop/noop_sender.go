package noop

import (
	"context"
	"log"
	"strings"

	"cartellino/internal/domain"
	"cartellino/internal/email"
	"cartellino/internal/port"
)

type noopSender struct{}

// NewNoopSender creates an EmailSender that logs batch summaries instead of sending them.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendBatchSummary(_ context.Context, recipients []string, summary *domain.BatchSummary) error {
	log.Printf("[NOOP EMAIL] %s to %s\n%s", email.Subject(summary), strings.Join(recipients, ", "), email.Text(summary))
	return nil
}
