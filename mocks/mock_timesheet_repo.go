package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"cartellino/internal/domain"
)

// MockTimesheetRepo is a mock implementation of port.TimesheetRepository.
type MockTimesheetRepo struct {
	mock.Mock
}

func (m *MockTimesheetRepo) Create(ctx context.Context, ts *domain.Timesheet) error {
	args := m.Called(ctx, ts)
	return args.Error(0)
}

func (m *MockTimesheetRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Timesheet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Timesheet), args.Error(1)
}

func (m *MockTimesheetRepo) List(ctx context.Context, filter domain.TimesheetFilter, offset, limit int) ([]domain.Timesheet, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Timesheet), args.Int(1), args.Error(2)
}

func (m *MockTimesheetRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.Timesheet, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Timesheet), args.Error(1)
}

func (m *MockTimesheetRepo) SaveParsed(ctx context.Context, ts *domain.Timesheet, doc *domain.ParsedDocument) error {
	args := m.Called(ctx, ts, doc)
	return args.Error(0)
}

func (m *MockTimesheetRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockTimesheetRepo) Requeue(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockTimesheetRepo) LoadDocument(ctx context.Context, id uuid.UUID) (*domain.ParsedDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParsedDocument), args.Error(1)
}

func (m *MockTimesheetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
