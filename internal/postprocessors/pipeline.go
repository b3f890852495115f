// Package postprocessors provides text cleaning and chunking pipelines.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.Chunker = (*Pipeline)(nil)

// Pipeline runs text processors over every unit and hands the cleaned
// units to a chunker.
type Pipeline struct {
	processors []driven.TextProcessor
	chunker    driven.Chunker
}

// NewPipeline creates a pipeline ending in chunker.
// Processors are executed in the order provided.
func NewPipeline(chunker driven.Chunker, processors ...driven.TextProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
		chunker:    chunker,
	}
}

// Chunk cleans the units and splits them.
func (p *Pipeline) Chunk(ctx context.Context, units []domain.RawTextUnit) ([]domain.Chunk, error) {
	if p.chunker == nil {
		return nil, fmt.Errorf("pipeline has no chunker")
	}

	cleaned := make([]domain.RawTextUnit, 0, len(units))
	for _, unit := range units {
		for _, processor := range p.processors {
			var err error
			unit, err = processor.Process(ctx, unit)
			if err != nil {
				return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
			}
		}
		cleaned = append(cleaned, unit)
	}

	return p.chunker.Chunk(ctx, cleaned)
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.TextProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
