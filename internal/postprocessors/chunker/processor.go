// Package chunker provides a boundary-aware text chunker with exact overlap.
package chunker

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor splits text units into chunks of at most chunkSize runes.
// Consecutive chunks of a unit share exactly overlap runes.
type Processor struct {
	chunkSize int
	overlap   int
	newID     func() string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithIDFunc replaces the chunk ID generator.
func WithIDFunc(fn func() string) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New creates a chunker. Invalid size/overlap combinations return
// domain.ErrConfiguration.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		newID:     func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := domain.ValidateChunking(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured maximum chunk length in runes.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap in runes.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Chunk splits every unit and returns the chunks in unit order.
// Units with no text after trimming produce no chunks.
func (p *Processor) Chunk(ctx context.Context, units []domain.RawTextUnit) ([]domain.Chunk, error) {
	var chunks []domain.Chunk

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("chunk %s page %d: %w", unit.Source, unit.Page, err)
		}

		for position, text := range p.Split(unit.Text) {
			metadata := make(map[string]any, len(unit.Metadata)+3)
			maps.Copy(metadata, unit.Metadata)
			metadata[domain.MetaSource] = unit.Source
			metadata[domain.MetaPage] = unit.Page
			metadata[domain.MetaPosition] = position

			chunks = append(chunks, domain.Chunk{
				ID:       p.newID(),
				Source:   unit.Source,
				Page:     unit.Page,
				Position: position,
				Text:     text,
				Metadata: metadata,
			})
		}
	}

	return chunks, nil
}

// Split divides text into pieces of at most chunkSize runes.
//
// Each cut is placed after the last separator of the strongest kind found
// in the window (start+overlap, start+chunkSize]: paragraph break, line
// break, sentence end, whitespace. With no separator the cut is hard at
// start+chunkSize. The next piece starts overlap runes before the cut, so
// neighbouring pieces share exactly overlap runes.
func (p *Processor) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var pieces []string
	start := 0
	for {
		if len(runes)-start <= p.chunkSize {
			pieces = append(pieces, string(runes[start:]))
			return pieces
		}

		end := findCut(runes, start+p.overlap, start+p.chunkSize)
		pieces = append(pieces, string(runes[start:end]))
		start = end - p.overlap
	}
}

// findCut returns a cut index in (lo, hi].
func findCut(runes []rune, lo, hi int) int {
	for _, after := range separators {
		for i := hi; i > lo; i-- {
			if after(runes, i) {
				return i
			}
		}
	}
	return hi
}

// separators report whether runes[:i] ends with a boundary, strongest first.
var separators = []func(runes []rune, i int) bool{
	// paragraph
	func(r []rune, i int) bool { return i >= 2 && r[i-1] == '\n' && r[i-2] == '\n' },
	// line
	func(r []rune, i int) bool { return r[i-1] == '\n' },
	// sentence
	func(r []rune, i int) bool {
		return i >= 2 && unicode.IsSpace(r[i-1]) && strings.ContainsRune(".!?", r[i-2])
	},
	// word
	func(r []rune, i int) bool { return unicode.IsSpace(r[i-1]) },
}
