package loaders

import (
	"fmt"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/loaders/markdown"
	"github.com/custodia-labs/loremaster/internal/loaders/pdf"
	"github.com/custodia-labs/loremaster/internal/loaders/text"
)

// NewFromSettings builds a registry containing the enabled loaders.
// Unknown loader names return domain.ErrConfiguration.
func NewFromSettings(settings domain.LoaderSettings) (*Registry, error) {
	r := NewRegistry()
	for _, name := range settings.Enabled {
		switch name {
		case "pdf":
			r.Register(pdf.New(pdf.WithBinary(settings.PDFToText)))
		case "markdown":
			r.Register(markdown.New())
		case "text":
			r.Register(text.New())
		default:
			return nil, fmt.Errorf("%w: unknown loader %q", domain.ErrConfiguration, name)
		}
	}
	return r, nil
}
