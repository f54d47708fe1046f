package ingest

import (
	"github.com/rotisserie/eris"
)

// Registry maps benchmark IDs to their source adapters in preference
// order: the first registered adapter for a benchmark is tried first, the
// rest are fallbacks. Benchmark iteration order is registration order.
type Registry struct {
	order    []string
	adapters map[string][]Ingestor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string][]Ingestor)}
}

// Register appends ing as the next-preference source for its benchmark.
func (r *Registry) Register(ing Ingestor) {
	id := ing.BenchmarkID()
	if _, ok := r.adapters[id]; !ok {
		r.order = append(r.order, id)
	}
	r.adapters[id] = append(r.adapters[id], ing)
}

// BenchmarkIDs lists registered benchmarks in registration order.
func (r *Registry) BenchmarkIDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ForBenchmark returns the adapters for one benchmark in preference order.
func (r *Registry) ForBenchmark(benchmarkID string) ([]Ingestor, error) {
	ings, ok := r.adapters[benchmarkID]
	if !ok {
		return nil, eris.Errorf("ingest: unknown benchmark %q", benchmarkID)
	}
	return ings, nil
}

// Sources lists the source names registered for one benchmark.
func (r *Registry) Sources(benchmarkID string) []string {
	var out []string
	for _, ing := range r.adapters[benchmarkID] {
		out = append(out, ing.SourceName())
	}
	return out
}
