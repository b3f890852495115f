// Package dehyphenate rejoins words split across line breaks, which is
// common in text extracted from typeset PDFs.
package dehyphenate

import (
	"context"
	"regexp"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

var _ driven.TextProcessor = (*Processor)(nil)

// A hyphen at end of line followed by a lower-case letter.
var splitWord = regexp.MustCompile(`(\p{L})-\n[ \t]*(\p{Ll})`)

// Processor joins hyphenated line breaks.
type Processor struct{}

// New creates a dehyphenate processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "dehyphenate"
}

// Process rewrites unit.Text.
func (p *Processor) Process(_ context.Context, unit domain.RawTextUnit) (domain.RawTextUnit, error) {
	unit.Text = splitWord.ReplaceAllString(unit.Text, "$1$2")
	return unit, nil
}
