package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
	"github.com/custodia-labs/loremaster/internal/postprocessors/chunker"
	"github.com/custodia-labs/loremaster/internal/postprocessors/dehyphenate"
	"github.com/custodia-labs/loremaster/internal/postprocessors/whitespace"
)

// RegisterDefaults registers all built-in text processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("whitespace", buildWhitespace)
	r.Register("dehyphenate", buildDehyphenate)
}

// buildWhitespace creates the whitespace normaliser.
// Supported config keys:
//   - max_blank_lines (int): Blank lines kept between paragraphs (default: 1)
func buildWhitespace(cfg map[string]any) (driven.TextProcessor, error) {
	var opts []whitespace.Option
	if _, set := cfg["max_blank_lines"]; set {
		n, ok := getIntFromConfig(cfg, "max_blank_lines")
		if !ok || n < 0 {
			return nil, fmt.Errorf("max_blank_lines must be a non-negative integer, got %v", cfg["max_blank_lines"])
		}
		opts = append(opts, whitespace.WithMaxBlankLines(n))
	}
	return whitespace.New(opts...), nil
}

func buildDehyphenate(_ map[string]any) (driven.TextProcessor, error) {
	return dehyphenate.New(), nil
}

// Build assembles the chunking pipeline from settings. Unknown processor
// names and invalid chunk parameters return domain.ErrConfiguration.
func Build(r *Registry, settings domain.ChunkingSettings, processorConfigs map[string]map[string]any) (*Pipeline, error) {
	c, err := chunker.New(
		chunker.WithChunkSize(settings.ChunkSize),
		chunker.WithOverlap(settings.ChunkOverlap),
	)
	if err != nil {
		return nil, err
	}

	pipeline := NewPipeline(c)
	for _, name := range settings.Processors {
		processor, err := r.Build(name, processorConfigs[name])
		if err != nil {
			return nil, err
		}
		pipeline.Add(processor)
	}
	return pipeline, nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
