// Package pdf extracts per-page text from PDF files using pdftotext.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// DefaultBinary is the pdftotext executable looked up on PATH.
const DefaultBinary = "pdftotext"

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler-utils to index PDF files")

// pageBreak separates pages in pdftotext output.
const pageBreak = "\f"

// maxTitleLength bounds the line used as a document title.
const maxTitleLength = 200

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, ErrPDFToolNotFound
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Loader handles PDF documents.
type Loader struct {
	runner CommandRunner
	binary string
}

// Option configures the loader.
type Option func(*Loader)

// WithBinary overrides the pdftotext executable.
func WithBinary(binary string) Option {
	return func(l *Loader) {
		if binary != "" {
			l.binary = binary
		}
	}
}

// WithRunner injects a command runner.
func WithRunner(runner CommandRunner) Option {
	return func(l *Loader) {
		if runner != nil {
			l.runner = runner
		}
	}
}

// New creates a PDF loader that shells out to pdftotext.
func New(opts ...Option) *Loader {
	l := &Loader{runner: execRunner{}, binary: DefaultBinary}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewWithRunner creates a PDF loader with a custom command runner.
func NewWithRunner(runner CommandRunner) *Loader {
	return New(WithRunner(runner))
}

// CheckAvailable returns ErrPDFToolNotFound if the configured pdftotext
// binary cannot be resolved.
func (l *Loader) CheckAvailable() error {
	if _, err := exec.LookPath(l.binary); err != nil {
		return fmt.Errorf("%w (looked for %q)", ErrPDFToolNotFound, l.binary)
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return `pdftotext is part of poppler:
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils`
}

// Name returns the loader name.
func (l *Loader) Name() string {
	return "pdf"
}

// Extensions returns the handled extensions.
func (l *Loader) Extensions() []string {
	return []string{".pdf"}
}

// Load returns one unit per non-blank page. Page numbers are 1-based and
// follow the document, so blank pages leave gaps.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.RawTextUnit, error) {
	out, err := l.runner.Run(ctx, l.binary, "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, err
	}

	pages := strings.Split(string(out), pageBreak)
	title := extractTitle(firstText(pages), path)

	units := make([]domain.RawTextUnit, 0, len(pages))
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		units = append(units, domain.RawTextUnit{
			Source: path,
			Page:   i + 1,
			Text:   page,
			Metadata: map[string]any{
				"format":    "pdf",
				"mime_type": "application/pdf",
				"title":     title,
			},
		})
	}
	return units, nil
}

func firstText(pages []string) string {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return p
		}
	}
	return ""
}

// extractTitle uses the first short non-empty line, falling back to the
// file name.
func extractTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		// Length is judged on the raw line so NUL padding counts.
		if len(strings.TrimSpace(line)) > maxTitleLength {
			continue
		}
		if line = strings.TrimSpace(strings.Trim(line, "\x00")); line != "" {
			return line
		}
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}
