package domain

import "errors"

// Domain errors represent business logic failures.
// Adapters wrap them with %w so callers can dispatch with errors.Is.
var (
	// ErrNotFound indicates a requested file, directory or entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotSupported indicates a source file type has no registered loader.
	// Ingestion records the file as skipped and moves on.
	ErrNotSupported = errors.New("not supported")

	// ErrGeneration indicates the embedder or chat model failed or
	// returned an empty result. It is never retried by the core.
	ErrGeneration = errors.New("generation failed")

	// ErrConfiguration indicates invalid static configuration: bad chunking
	// parameters, malformed prompt templates or a collection whose embedder
	// does not match the configured one.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)
