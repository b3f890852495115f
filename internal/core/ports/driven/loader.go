package driven

import (
	"context"

	"github.com/custodia-labs/loremaster/internal/core/domain"
)

// DocumentLoader extracts text units from one kind of source file.
type DocumentLoader interface {
	// Name identifies the loader in configuration ("pdf", "markdown").
	Name() string

	// Extensions returns the lower-cased file extensions handled, with dot.
	Extensions() []string

	// Load reads the file and returns its units in page order.
	// The file is never modified.
	Load(ctx context.Context, path string) ([]domain.RawTextUnit, error)
}

// LoaderRegistry dispatches a file to the loader for its extension.
type LoaderRegistry interface {
	// Register adds a loader for all of its extensions.
	Register(loader DocumentLoader)

	// Supports returns true if a loader handles the path's extension.
	Supports(path string) bool

	// Extensions returns all handled extensions.
	Extensions() []string

	// Load returns domain.ErrNotFound if path is not a regular file and
	// domain.ErrNotSupported if no loader handles its extension.
	Load(ctx context.Context, path string) ([]domain.RawTextUnit, error)
}
