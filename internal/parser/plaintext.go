package parser

import (
	"context"
	"strings"
	"unicode/utf8"

	"cartellino/internal/domain"
	"cartellino/internal/port"
)

// PlainText extracts text/plain documents. Line endings are normalized to LF.
type PlainText struct{}

func (PlainText) Extract(_ context.Context, data []byte) (*port.ExtractedText, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return &port.ExtractedText{Text: text, PageCount: 1}, nil
}
