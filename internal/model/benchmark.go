package model

import "time"

// Benchmark is a static benchmark definition. Benchmarks form a lookup
// dimension and are rarely mutated after first ingestion.
type Benchmark struct {
	ID             string    `json:"benchmark_id" yaml:"benchmark_id"`
	Name           string    `json:"name" yaml:"name"`
	Category       string    `json:"category" yaml:"category"`
	Description    string    `json:"description,omitempty" yaml:"description,omitempty"`
	Unit           string    `json:"unit" yaml:"unit"`
	ScaleMin       float64   `json:"scale_min" yaml:"scale_min"`
	ScaleMax       float64   `json:"scale_max" yaml:"scale_max"`
	HigherIsBetter bool      `json:"higher_is_better" yaml:"higher_is_better"`
	OfficialURL    string    `json:"official_url,omitempty" yaml:"official_url,omitempty"`
	PaperURL       string    `json:"paper_url,omitempty" yaml:"paper_url,omitempty"`
	Notes          string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at" yaml:"-"`
}

// Ceiling returns the maximum meaningful score, used to bound
// saturation-model asymptotes.
func (b Benchmark) Ceiling() float64 { return b.ScaleMax }

// InScale reports whether score falls inside the declared [min, max] range.
func (b Benchmark) InScale(score float64) bool {
	return score >= b.ScaleMin && score <= b.ScaleMax
}
