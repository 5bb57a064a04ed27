package loader

import (
	"strings"

	"crisis-replay/internal/config"
)

// Registry assigns canonical lookup keys to well-known benchmark indices so
// callers can address "the primary market index" without its raw code.
type Registry struct {
	benchmarks []config.Benchmark
}

// NewRegistry creates a registry from configured benchmarks. Earlier entries
// take precedence when several match.
func NewRegistry(benchmarks []config.Benchmark) *Registry {
	return &Registry{benchmarks: append([]config.Benchmark(nil), benchmarks...)}
}

// KeyFor returns the canonical key of an index, or its raw code when it is
// not a recognised benchmark. Codes are matched exactly, names by substring.
func (r *Registry) KeyFor(code, name string) string {
	if r == nil {
		return code
	}
	for _, b := range r.benchmarks {
		for _, c := range b.Codes {
			if c == code {
				return b.Key
			}
		}
		for _, fragment := range b.NameContains {
			if fragment != "" && strings.Contains(name, fragment) {
				return b.Key
			}
		}
	}
	return code
}

// Keys returns the canonical benchmark keys in registry order.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, len(r.benchmarks))
	for _, b := range r.benchmarks {
		keys = append(keys, b.Key)
	}
	return keys
}
