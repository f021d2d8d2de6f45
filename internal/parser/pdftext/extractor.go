// Package pdftext reconstructs line-oriented text from PDF pages.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"cartellino/internal/domain"
	"cartellino/internal/port"
)

// gapFactor is the fraction of the font size above which a horizontal gap
// between two glyph runs becomes a space.
const gapFactor = 0.2

// Extractor reads the text of application/pdf documents. It implements
// port.TextExtractor.
type Extractor struct{}

// NewExtractor creates a PDF text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text of every page in order, pages joined by "\n".
// A page without content contributes an empty string.
func (e *Extractor) Extract(ctx context.Context, data []byte) (out *port.ExtractedText, err error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, domain.ErrEncryptedDocument
		}
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	// The reader panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("reading pdf: %v", rec)
		}
	}()

	total := r.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i, err)
		}
		pages = append(pages, pageText(rows))
	}

	return &port.ExtractedText{Text: strings.Join(pages, "\n"), PageCount: total}, nil
}

// pageText renders rows top to bottom, one line per row.
func pageText(rows pdf.Rows) string {
	sorted := make([]*pdf.Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position > sorted[j].Position
	})

	lines := make([]string, 0, len(sorted))
	for _, row := range sorted {
		lines = append(lines, joinRow(row.Content))
	}
	return strings.Join(lines, "\n")
}

// joinRow concatenates the glyph runs of one row left to right, inserting a
// single space wherever the gap to the previous run is wider than a fraction
// of the font size.
func joinRow(words pdf.TextHorizontal) string {
	runs := make([]pdf.Text, len(words))
	copy(runs, words)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })

	var b strings.Builder
	var prevEnd float64
	for i, w := range runs {
		if i > 0 && w.X-prevEnd > w.FontSize*gapFactor && !strings.HasPrefix(w.S, " ") &&
			!strings.HasSuffix(b.String(), " ") {
			b.WriteByte(' ')
		}
		b.WriteString(w.S)
		prevEnd = w.X + w.W
	}
	return strings.TrimRight(b.String(), " ")
}
