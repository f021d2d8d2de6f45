package port

import (
	"context"

	"cartellino/internal/domain"
)

// DocumentSource lists and downloads files from a remote folder tree.
type DocumentSource interface {
	ListChildren(ctx context.Context, folderID string) ([]domain.SourceFile, error)
	GetFile(ctx context.Context, fileID string) (*domain.SourceFile, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}
