package parser

import "fmt"

// UnsupportedContentTypeError is returned when no extractor is registered for
// a document's content type.
type UnsupportedContentTypeError struct {
	ContentType string
}

func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("unsupported content type: %s", e.ContentType)
}

// ExtractError wraps a failure to read text out of a document.
type ExtractError struct {
	ContentType string
	Err         error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extracting %s text: %v", e.ContentType, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}
