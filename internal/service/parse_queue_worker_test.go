package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"cartellino/internal/domain"
	"cartellino/internal/service"
	"cartellino/mocks"
)

func runWorker(t *testing.T, worker *service.ParseQueueWorker, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	time.Sleep(d)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}

func TestParseQueueWorker_PollsAndDispatchesProcessing(t *testing.T) {
	repo := new(mocks.MockTimesheetRepo)
	svc := new(mocks.MockTimesheetService)

	ts := domain.Timesheet{
		ID:            uuid.New(),
		SourceName:    "marzo.pdf",
		ContentType:   "application/pdf",
		Status:        domain.TimesheetStatusProcessing,
		ParseAttempts: 1,
	}

	repo.On("ClaimQueued", mock.Anything, mock.AnythingOfType("int")).
		Return([]domain.Timesheet{ts}, nil).Once()
	repo.On("ClaimQueued", mock.Anything, mock.AnythingOfType("int")).
		Return([]domain.Timesheet{}, nil).Maybe()
	svc.On("Process", mock.Anything, mock.AnythingOfType("*domain.Timesheet"), 3).
		Return().Maybe()

	worker := service.NewParseQueueWorker(repo, svc, service.ParseQueueConfig{
		PollInterval: 50 * time.Millisecond,
		MaxRetries:   3,
		Concurrency:  2,
	})
	runWorker(t, worker, 200*time.Millisecond)

	repo.AssertCalled(t, "ClaimQueued", mock.Anything, mock.AnythingOfType("int"))
	svc.AssertCalled(t, "Process", mock.Anything, mock.MatchedBy(func(got *domain.Timesheet) bool {
		return got.ID == ts.ID && got.ParseAttempts == 1
	}), 3)
}

func TestParseQueueWorker_RespectsConcurrencyCap(t *testing.T) {
	repo := new(mocks.MockTimesheetRepo)
	svc := new(mocks.MockTimesheetService)

	cfg := service.ParseQueueConfig{
		PollInterval: 50 * time.Millisecond,
		MaxRetries:   3,
		Concurrency:  2,
	}
	repo.On("ClaimQueued", mock.Anything, mock.AnythingOfType("int")).
		Return([]domain.Timesheet{}, nil).Maybe()

	runWorker(t, service.NewParseQueueWorker(repo, svc, cfg), 150*time.Millisecond)

	for _, call := range repo.Calls {
		if call.Method == "ClaimQueued" {
			assert.LessOrEqual(t, call.Arguments.Get(1).(int), cfg.Concurrency)
		}
	}
}

func TestParseQueueWorker_CleanShutdown(t *testing.T) {
	repo := new(mocks.MockTimesheetRepo)
	svc := new(mocks.MockTimesheetService)
	repo.On("ClaimQueued", mock.Anything, mock.AnythingOfType("int")).
		Return([]domain.Timesheet{}, nil).Maybe()

	worker := service.NewParseQueueWorker(repo, svc, service.ParseQueueConfig{
		PollInterval: 50 * time.Millisecond,
		Concurrency:  5,
	})
	runWorker(t, worker, 0)
}

func TestParseQueueWorker_ClaimQueuedError(t *testing.T) {
	repo := new(mocks.MockTimesheetRepo)
	svc := new(mocks.MockTimesheetService)
	repo.On("ClaimQueued", mock.Anything, mock.AnythingOfType("int")).
		Return(nil, errors.New("db connection error")).Maybe()

	worker := service.NewParseQueueWorker(repo, svc, service.ParseQueueConfig{
		PollInterval: 50 * time.Millisecond,
		MaxRetries:   3,
		Concurrency:  5,
	})
	runWorker(t, worker, 200*time.Millisecond)

	svc.AssertNotCalled(t, "Process", mock.Anything, mock.Anything, mock.Anything)
}
