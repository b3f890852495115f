package driving

import (
	"context"

	"github.com/custodia-labs/loremaster/internal/core/domain"
)

// Ingestor brings an IndexStore up to date with a source directory.
type Ingestor interface {
	// Sync indexes every supported file not yet present in the index.
	// File-level failures are recorded in the report; the only error
	// returned is domain.ErrNotFound for a missing directory.
	Sync(ctx context.Context, index IndexStore, sourceDir string) (*domain.IngestionReport, error)
}
