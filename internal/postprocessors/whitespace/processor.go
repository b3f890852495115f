// Package whitespace normalises line endings and runs of blank space in
// extracted text.
package whitespace

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

var _ driven.TextProcessor = (*Processor)(nil)

var (
	horizontalRun = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	trailingSpace = regexp.MustCompile(` +\n`)
)

// Processor collapses whitespace without touching paragraph structure.
type Processor struct {
	maxBlankLines int
}

// Option configures the processor.
type Option func(*Processor)

// WithMaxBlankLines sets how many consecutive blank lines survive.
func WithMaxBlankLines(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.maxBlankLines = n
		}
	}
}

// New creates a whitespace processor.
func New(opts ...Option) *Processor {
	p := &Processor{maxBlankLines: 1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "whitespace"
}

// Process rewrites unit.Text.
func (p *Processor) Process(_ context.Context, unit domain.RawTextUnit) (domain.RawTextUnit, error) {
	text := strings.ReplaceAll(unit.Text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = horizontalRun.ReplaceAllString(text, " ")
	text = trailingSpace.ReplaceAllString(text, "\n")

	limit := strings.Repeat("\n", p.maxBlankLines+2)
	keep := strings.Repeat("\n", p.maxBlankLines+1)
	for strings.Contains(text, limit) {
		text = strings.ReplaceAll(text, limit, keep)
	}

	unit.Text = text
	return unit, nil
}
