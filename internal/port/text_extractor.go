package port

import "context"

// ExtractedText is the plain text of a document, pages joined by newlines.
type ExtractedText struct {
	Text      string
	PageCount int
}

// TextExtractor converts raw document bytes of one content type into text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (*ExtractedText, error)
}
