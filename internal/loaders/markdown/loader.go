// Package markdown loads markdown files as one text unit per top-level
// section, using goldmark to strip formatting.
package markdown

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// sectionLevel is the deepest heading level that starts a new unit.
const sectionLevel = 2

// Loader handles markdown documents.
type Loader struct {
	md goldmark.Markdown
}

// New creates a markdown loader.
func New() *Loader {
	return &Loader{md: goldmark.New()}
}

// Name returns the loader name.
func (l *Loader) Name() string {
	return "markdown"
}

// Extensions returns the handled extensions.
func (l *Loader) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Load splits the document at level 1 and 2 headings. Text before the
// first heading forms its own section. The unit Page is the 1-based
// section number.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.RawTextUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return l.parse(path, source), nil
}

type section struct {
	heading string
	body    strings.Builder
}

func (l *Loader) parse(path string, source []byte) []domain.RawTextUnit {
	doc := l.md.Parser().Parse(text.NewReader(source))

	sections := []*section{{}}
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if h, ok := node.(*ast.Heading); ok && h.Level <= sectionLevel {
			heading := strings.TrimSpace(plainText(h, source))
			s := &section{heading: heading}
			s.body.WriteString(heading)
			s.body.WriteString("\n\n")
			sections = append(sections, s)
			continue
		}
		current := sections[len(sections)-1]
		current.body.WriteString(plainText(node, source))
	}

	var units []domain.RawTextUnit
	for _, s := range sections {
		body := strings.TrimSpace(s.body.String())
		if body == "" {
			continue
		}
		metadata := map[string]any{
			"format":    "markdown",
			"mime_type": "text/markdown",
		}
		if s.heading != "" {
			metadata["heading"] = s.heading
		}
		units = append(units, domain.RawTextUnit{
			Source:   path,
			Page:     len(units) + 1,
			Text:     body,
			Metadata: metadata,
		})
	}
	return units
}

// plainText renders a node without markup. Blocks end with a blank line,
// list items with a single newline.
func plainText(node ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch v := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(v.Segment.Value(source))
				if v.SoftLineBreak() || v.HardLineBreak() {
					b.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				b.Write(v.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(v.Label(source))
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(source))
				}
				b.WriteString("\n")
				return ast.WalkSkipChildren, nil
			}
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.TextBlock:
			if !entering {
				b.WriteByte('\n')
			}
		case *ast.Paragraph, *ast.Heading, *ast.List, *ast.Blockquote, *ast.ThematicBreak:
			if !entering {
				b.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
