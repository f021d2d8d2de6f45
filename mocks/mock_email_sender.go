package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"cartellino/internal/domain"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendBatchSummary(ctx context.Context, recipients []string, summary *domain.BatchSummary) error {
	args := m.Called(ctx, recipients, summary)
	return args.Error(0)
}
