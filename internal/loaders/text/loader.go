// Package text loads plain text files as a single unit.
package text

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Loader handles plain text documents. It is not enabled by default.
type Loader struct{}

// New creates a plain text loader.
func New() *Loader {
	return &Loader{}
}

// Name returns the loader name.
func (l *Loader) Name() string {
	return "text"
}

// Extensions returns the handled extensions.
func (l *Loader) Extensions() []string {
	return []string{".txt", ".text"}
}

// Load returns the whole file as page 1. Blank files yield no units;
// content that is not valid UTF-8 returns domain.ErrNotSupported.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.RawTextUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not UTF-8 text", domain.ErrNotSupported, path)
	}

	content := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
	if content == "" {
		return nil, nil
	}
	return []domain.RawTextUnit{{
		Source: path,
		Page:   1,
		Text:   content,
		Metadata: map[string]any{
			"format":    "text",
			"mime_type": "text/plain",
			"title":     titleFromPath(path),
		},
	}}, nil
}

// titleFromPath turns "player_handbook-v2.txt" into "player handbook v2".
func titleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
