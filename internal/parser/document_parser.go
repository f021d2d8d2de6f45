package parser

import (
	"context"
	"fmt"
	"log"

	"cartellino/internal/parser/cartellino"
	"cartellino/internal/port"
)

// DocumentParser extracts a document's text and runs the timesheet parser on
// it. It implements port.DocumentParser.
type DocumentParser struct {
	registry *Registry
	core     *cartellino.Parser
}

// NewDocumentParser creates a DocumentParser. A nil core uses a Parser that
// discards diagnostics.
func NewDocumentParser(registry *Registry, core *cartellino.Parser) *DocumentParser {
	if core == nil {
		core = cartellino.New()
	}
	return &DocumentParser{registry: registry, core: core}
}

func (p *DocumentParser) Parse(ctx context.Context, input port.ParseInput) (*port.ParseOutput, error) {
	ext, err := p.registry.ExtractorFor(input.ContentType)
	if err != nil {
		return nil, err
	}

	extracted, err := ext.Extract(ctx, input.FileBytes)
	if err != nil {
		return nil, &ExtractError{ContentType: input.ContentType, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := p.core.Parse(extracted.Text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", input.FileName, err)
	}

	log.Printf("parser.DocumentParser: parsed %s: %d days, %d pairs, %d pages",
		input.FileName, len(doc.Days), len(doc.Pairs), extracted.PageCount)

	return &port.ParseOutput{Document: doc, PageCount: extracted.PageCount}, nil
}
