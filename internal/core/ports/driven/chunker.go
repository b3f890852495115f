package driven

import (
	"context"

	"github.com/custodia-labs/loremaster/internal/core/domain"
)

// Chunker splits text units into bounded, overlapping chunks.
type Chunker interface {
	Chunk(ctx context.Context, units []domain.RawTextUnit) ([]domain.Chunk, error)
}

// TextProcessor cleans a unit before chunking.
type TextProcessor interface {
	// Name returns the processor identifier used in configuration.
	Name() string

	// Process returns the transformed unit.
	Process(ctx context.Context, unit domain.RawTextUnit) (domain.RawTextUnit, error)
}
