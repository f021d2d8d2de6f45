package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"cartellino/internal/domain"
	"cartellino/internal/service"
)

// MockTimesheetService is a mock implementation of service.TimesheetService.
type MockTimesheetService struct {
	mock.Mock
}

func (m *MockTimesheetService) Upload(ctx context.Context, input service.TimesheetUploadInput) (*domain.Timesheet, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Timesheet), args.Error(1)
}

func (m *MockTimesheetService) ParseText(ctx context.Context, text string) (*domain.ParsedDocument, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParsedDocument), args.Error(1)
}

func (m *MockTimesheetService) Process(ctx context.Context, ts *domain.Timesheet, maxAttempts int) {
	m.Called(ctx, ts, maxAttempts)
}

func (m *MockTimesheetService) Get(ctx context.Context, id uuid.UUID) (*domain.TimesheetDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TimesheetDetail), args.Error(1)
}

func (m *MockTimesheetService) List(ctx context.Context, filter domain.TimesheetFilter, offset, limit int) ([]domain.Timesheet, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Timesheet), args.Int(1), args.Error(2)
}

func (m *MockTimesheetService) Reparse(ctx context.Context, id uuid.UUID) (*domain.Timesheet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Timesheet), args.Error(1)
}

func (m *MockTimesheetService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTimesheetService) SourceURL(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockTimesheetService) Export(ctx context.Context, id uuid.UUID, format domain.ExportFormat) (*service.ExportFile, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportFile), args.Error(1)
}
