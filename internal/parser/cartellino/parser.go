// Package cartellino parses the plain text of an Italian monthly attendance
// report ("Cartellino") into day records, punch pairs, monthly totals and a
// worked-hours cross-check.
//
// Parsing is a pure function of the input text. A Parser may be shared
// between goroutines.
package cartellino

import (
	"io"
	"log"
	"strings"

	"cartellino/internal/domain"
)

// Parser turns document text into a domain.ParsedDocument.
type Parser struct {
	debug *log.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithDebugLog routes diagnostics about skipped lines to l.
func WithDebugLog(l *log.Logger) Option {
	return func(p *Parser) {
		p.debug = l
	}
}

// New creates a Parser. Diagnostics are discarded unless WithDebugLog is given.
func New(opts ...Option) *Parser {
	p := &Parser{debug: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = New()

// Parse parses text with a Parser that discards diagnostics.
func Parse(text string) (*domain.ParsedDocument, error) {
	return defaultParser.Parse(text)
}

// Parse extracts metadata, day records, pairs and totals from text and
// validates worked hours. It fails with domain.ErrNoDayLines when no day line
// is found; every other irregularity yields partial data instead.
func (p *Parser) Parse(text string) (*domain.ParsedDocument, error) {
	lines := SplitLines(text)

	meta := extractMetadata(text)
	days := p.ParseDays(lines, meta.Year, meta.Month)
	if len(days) == 0 {
		return nil, domain.ErrNoDayLines
	}

	pairs := ParsePairs(lines, meta.Year, meta.Month)
	if pairs == nil {
		pairs = []domain.PairRecord{}
	}
	totals := ExtractTotals(text)

	return &domain.ParsedDocument{
		Meta:       meta,
		Days:       days,
		Pairs:      pairs,
		Totals:     totals,
		Validation: Validate(days, totals),
	}, nil
}

// SplitLines splits text on LF, CRLF or CR, keeping line order.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

func (p *Parser) debugf(format string, args ...interface{}) {
	if p.debug != nil {
		p.debug.Printf(format, args...)
	}
}
