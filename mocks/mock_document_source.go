package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"cartellino/internal/domain"
)

// MockDocumentSource is a mock implementation of port.DocumentSource.
type MockDocumentSource struct {
	mock.Mock
}

func (m *MockDocumentSource) ListChildren(ctx context.Context, folderID string) ([]domain.SourceFile, error) {
	args := m.Called(ctx, folderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourceFile), args.Error(1)
}

func (m *MockDocumentSource) GetFile(ctx context.Context, fileID string) (*domain.SourceFile, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SourceFile), args.Error(1)
}

func (m *MockDocumentSource) Download(ctx context.Context, fileID string) ([]byte, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
