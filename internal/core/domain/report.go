package domain

import "time"

// Skip reasons recorded by ingestion.
const (
	ReasonAlreadyIndexed = "already indexed"
	ReasonNoText         = "no text extracted"
)

// FileOutcome records what happened to one file during a sync.
type FileOutcome struct {
	Path   string
	Chunks int
	Reason string
}

// IngestionReport summarises a sync run. File-level failures are
// collected here rather than returned as errors.
type IngestionReport struct {
	SourceDir string
	Indexed   []FileOutcome
	Skipped   []FileOutcome
	Failed    []FileOutcome
	StartedAt time.Time
	Duration  time.Duration
}

// TotalChunks returns the number of chunks inserted by the run.
func (r *IngestionReport) TotalChunks() int {
	total := 0
	for _, f := range r.Indexed {
		total += f.Chunks
	}
	return total
}

// Files returns the number of files visited.
func (r *IngestionReport) Files() int {
	return len(r.Indexed) + len(r.Skipped) + len(r.Failed)
}

// HasFailures returns true if any file failed.
func (r *IngestionReport) HasFailures() bool {
	return len(r.Failed) > 0
}
