package port

import (
	"context"

	"cartellino/internal/domain"
)

// ParseInput carries the data needed for document parsing.
type ParseInput struct {
	FileBytes   []byte
	ContentType string
	FileName    string
}

// ParseOutput contains the parsed timesheet and the source page count.
type ParseOutput struct {
	Document  *domain.ParsedDocument
	PageCount int
}

// DocumentParser turns an uploaded or downloaded timesheet into a parsed document.
type DocumentParser interface {
	Parse(ctx context.Context, input ParseInput) (*ParseOutput, error)
}
