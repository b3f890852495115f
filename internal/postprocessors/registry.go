package postprocessors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

// BuilderFunc creates a TextProcessor from its [chunking.<name>] config.
type BuilderFunc func(cfg map[string]any) (driven.TextProcessor, error)

// Registry maps the processor names accepted in chunking.processors to
// their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a builder. A later registration under the same name
// replaces the earlier one.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates the named processor. Unknown names return
// domain.ErrConfiguration listing the registered ones.
func (r *Registry) Build(name string, cfg map[string]any) (driven.TextProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown processor %q (available: %s)",
			domain.ErrConfiguration, name, strings.Join(r.Names(), ", "))
	}
	processor, err := builder(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: processor %s: %w", domain.ErrConfiguration, name, err)
	}
	return processor, nil
}

// Names returns the registered processor names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
