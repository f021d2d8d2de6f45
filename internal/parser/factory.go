package parser

import (
	"fmt"
	"mime"
	"strings"

	"cartellino/internal/parser/pdftext"
	"cartellino/internal/port"
)

// Registry maps content types to the extractors that turn them into text.
type Registry struct {
	extractors map[string]port.TextExtractor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{extractors: map[string]port.TextExtractor{}}
}

// NewDefaultRegistry returns a Registry serving application/pdf and text/plain.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterExtractor("application/pdf", pdftext.NewExtractor())
	r.RegisterExtractor("text/plain", PlainText{})
	return r
}

// RegisterExtractor registers an extractor for a content type, replacing any
// previous registration.
func (r *Registry) RegisterExtractor(contentType string, ext port.TextExtractor) {
	r.extractors[normalizeContentType(contentType)] = ext
}

// ExtractorFor returns the extractor registered for contentType. Media type
// parameters such as charset are ignored.
func (r *Registry) ExtractorFor(contentType string) (port.TextExtractor, error) {
	ct := normalizeContentType(contentType)
	ext, ok := r.extractors[ct]
	if !ok {
		return nil, &UnsupportedContentTypeError{ContentType: contentType}
	}
	return ext, nil
}

func normalizeContentType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// ContentTypeForName guesses a supported content type from a file name.
func ContentTypeForName(name string) (string, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf", nil
	case strings.HasSuffix(lower, ".txt"):
		return "text/plain", nil
	}
	return "", fmt.Errorf("no content type for %q: %w", name, &UnsupportedContentTypeError{ContentType: name})
}
