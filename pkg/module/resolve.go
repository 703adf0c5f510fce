package module

import (
	"fmt"

	"github.com/daviddao/xivlens/pkg/depgraph"
)

// Resolve orders candidates so that every descriptor follows the
// descriptors it depends on. Independent descriptors keep their candidate
// order. Duplicate IDs, unknown dependencies, cycles and missing
// constructors are reported as *ConfigError.
func Resolve(candidates []Descriptor) ([]Descriptor, error) {
	nodes := make([]depgraph.Node, len(candidates))
	for i, d := range candidates {
		if d.New == nil {
			return nil, &ConfigError{Err: fmt.Errorf("module %q has no constructor", d.ID)}
		}
		nodes[i] = depgraph.Node{ID: d.ID, Deps: d.Deps}
	}
	g, err := depgraph.New(nodes)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	order, err := g.Sort()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	out := make([]Descriptor, len(order))
	for i, j := range order {
		out[i] = candidates[j]
	}
	return out, nil
}
