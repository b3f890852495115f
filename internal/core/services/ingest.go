package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
	"github.com/custodia-labs/loremaster/internal/core/ports/driving"
	"github.com/custodia-labs/loremaster/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driving.Ingestor = (*Ingestor)(nil)

// Ingestor walks a source directory and indexes files that are not yet
// in the collection. Files already present are never re-read, so a
// repeated sync over an unchanged directory performs no writes.
type Ingestor struct {
	loaders driven.LoaderRegistry
	chunker driven.Chunker
	now     func() time.Time
}

// NewIngestor creates an ingestor from a loader registry and a chunker
// (usually the post-processor pipeline).
func NewIngestor(loaders driven.LoaderRegistry, chunker driven.Chunker) *Ingestor {
	return &Ingestor{
		loaders: loaders,
		chunker: chunker,
		now:     time.Now,
	}
}

// outcome of a single file.
type outcome int

const (
	outcomeIndexed outcome = iota
	outcomeSkipped
	outcomeFailed
)

// Sync indexes every supported file under sourceDir. Capability calls run
// detached from ctx cancellation so a document is never half-processed.
func (i *Ingestor) Sync(ctx context.Context, index driving.IndexStore, sourceDir string) (*domain.IngestionReport, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("%w: source directory %s: %w", domain.ErrNotFound, sourceDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrNotFound, sourceDir)
	}

	ctx = context.WithoutCancel(ctx)
	report := &domain.IngestionReport{SourceDir: sourceDir, StartedAt: i.now()}
	logger.Section("Sync")
	logger.Debug("Scanning %s", sourceDir)

	walkErr := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == sourceDir {
				return err
			}
			logger.Error("Cannot read %s: %v", path, err)
			report.Failed = append(report.Failed, domain.FileOutcome{Path: path, Reason: err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path != sourceDir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		result, chunks, reason := i.ingestFile(ctx, index, path)
		record := domain.FileOutcome{Path: path, Chunks: chunks, Reason: reason}
		switch result {
		case outcomeIndexed:
			report.Indexed = append(report.Indexed, record)
		case outcomeSkipped:
			report.Skipped = append(report.Skipped, record)
		case outcomeFailed:
			report.Failed = append(report.Failed, record)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("%w: walk %s: %w", domain.ErrNotFound, sourceDir, walkErr)
	}

	report.Duration = i.now().Sub(report.StartedAt)
	logger.L().Info("sync complete",
		zap.String("source_dir", sourceDir),
		zap.Int("indexed", len(report.Indexed)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("chunks", report.TotalChunks()),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (i *Ingestor) ingestFile(ctx context.Context, index driving.IndexStore, path string) (outcome, int, string) {
	if !i.loaders.Supports(path) {
		reason := fmt.Sprintf("unsupported file type %q", filepath.Ext(path))
		logger.Warn("Skipping %s: %s", path, reason)
		return outcomeSkipped, 0, reason
	}

	exists, err := index.HasSource(ctx, path)
	if err != nil {
		logger.Error("Cannot check %s: %v", path, err)
		return outcomeFailed, 0, err.Error()
	}
	if exists {
		logger.Debug("Skipping %s: %s", path, domain.ReasonAlreadyIndexed)
		return outcomeSkipped, 0, domain.ReasonAlreadyIndexed
	}

	chunks, err := i.prepare(ctx, path)
	switch {
	case errors.Is(err, domain.ErrNotSupported):
		logger.Warn("Skipping %s: %v", path, err)
		return outcomeSkipped, 0, err.Error()
	case err != nil:
		logger.Error("Failed to load %s: %v", path, err)
		return outcomeFailed, 0, err.Error()
	case len(chunks) == 0:
		logger.Warn("Skipping %s: %s", path, domain.ReasonNoText)
		return outcomeSkipped, 0, domain.ReasonNoText
	}

	if err := index.Insert(ctx, chunks); err != nil {
		logger.Error("Failed to index %s: %v", path, err)
		return outcomeFailed, 0, err.Error()
	}

	logger.Info("Indexed %s (%d chunks)", path, len(chunks))
	return outcomeIndexed, len(chunks), ""
}

func (i *Ingestor) prepare(ctx context.Context, path string) ([]domain.Chunk, error) {
	units, err := i.loaders.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	chunks, err := i.chunker.Chunk(ctx, units)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", path, err)
	}
	return chunks, nil
}
