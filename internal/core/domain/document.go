package domain

import (
	"path/filepath"
	"strings"
)

// Metadata keys attached to every chunk.
const (
	MetaSource   = "source"
	MetaPage     = "page"
	MetaPosition = "position"
)

// SourceDocument is a file discovered in the source directory.
type SourceDocument struct {
	// Path is the file path as walked from the source directory.
	Path string

	// Type is the lower-cased extension without the leading dot.
	Type string
}

// NewSourceDocument derives the document type from the path extension.
func NewSourceDocument(path string) SourceDocument {
	ext := filepath.Ext(path)
	if ext != "" {
		ext = ext[1:]
	}
	return SourceDocument{Path: path, Type: strings.ToLower(ext)}
}

// RawTextUnit is one natural subdivision of a source document,
// such as a PDF page or a markdown section.
type RawTextUnit struct {
	// Source is the path of the document the text came from.
	Source string

	// Page is the 1-based subdivision index.
	Page int

	// Text is the extracted text.
	Text string

	// Metadata carries loader-specific attributes (format, title, heading).
	Metadata map[string]any
}

// Chunk is a bounded piece of a RawTextUnit. Consecutive chunks of the
// same unit share exactly the configured overlap.
type Chunk struct {
	// ID is a random identifier assigned at creation and never reused.
	ID string

	// Source is the originating document path.
	Source string

	// Page is inherited from the unit.
	Page int

	// Position is the 0-based index of the chunk within its unit.
	Position int

	// Text is the chunk content.
	Text string

	// Metadata is the unit metadata merged with source, page and position.
	Metadata map[string]any
}

// IndexEntry is a chunk as stored in a collection.
type IndexEntry struct {
	Chunk  Chunk
	Vector []float32

	// Seq is the insertion sequence assigned by the store.
	// Equal distances are ordered by Seq.
	Seq int64
}

// ScoredChunk is a retrieval hit.
type ScoredChunk struct {
	Chunk Chunk

	// Distance is the cosine distance to the query vector (0 = identical).
	Distance float64
}

// RetrievalResult is ordered by non-decreasing distance.
type RetrievalResult []ScoredChunk

// Chunks returns the chunks in retrieval order.
func (r RetrievalResult) Chunks() []Chunk {
	out := make([]Chunk, len(r))
	for i, hit := range r {
		out[i] = hit.Chunk
	}
	return out
}

// CollectionSpec identifies a vector collection and the embedder it was
// created with. The embedder identity is fixed for the collection lifetime.
type CollectionSpec struct {
	Name           string
	EmbeddingModel string
	Dimensions     int
}

// Compatible reports whether other was produced by the same embedder.
func (s CollectionSpec) Compatible(other CollectionSpec) bool {
	return s.EmbeddingModel == other.EmbeddingModel && s.Dimensions == other.Dimensions
}

// Answer is the detailed result of a question.
type Answer struct {
	Text        string
	SearchQuery string
	Context     RetrievalResult
}
