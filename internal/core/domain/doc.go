// Package domain defines the core business entities for Loremaster.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawTextUnit: One page or section of text extracted from a source file
//   - Chunk: A bounded, overlapping slice of a unit that is embedded and indexed
//   - IndexEntry: A chunk together with its vector and insertion sequence
//   - ChatHistory: The caller-owned conversation passed into every question
//   - IngestionReport: The per-file outcome of a sync run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
