// Package ingest runs per-benchmark adapters through a shared
// fetch / parse / validate / persist pipeline with per-adapter failure
// isolation.
package ingest

import (
	"context"
	"fmt"

	"github.com/atlas-research/bench-cli/internal/model"
)

// Ingestor is a per-benchmark source adapter. FetchRaw acquires raw bytes
// (HTTP or local snapshot); Parse turns them into staged records. Parse is
// permissive: per-row failures become warnings on the Staging, never an
// abort.
type Ingestor interface {
	// BenchmarkID is the benchmark this adapter feeds.
	BenchmarkID() string
	// SourceName distinguishes adapters for the same benchmark
	// ("official", "epoch", ...). Preference order is registration order.
	SourceName() string
	// Benchmark returns the static benchmark definition.
	Benchmark() model.Benchmark
	// FetchRaw acquires the raw upstream bytes.
	FetchRaw(ctx context.Context) ([]byte, error)
	// Parse stages sources, models, and results from raw bytes.
	Parse(ctx context.Context, raw []byte) (*Staging, error)
}

// Staging accumulates one adapter run's records before persistence,
// together with its warning and error lists. All staged writes commit
// together or not at all for a given adapter.
type Staging struct {
	Sources []model.Source
	Models  []model.Model
	Results []model.Result

	Warnings []string
	Errors   []string

	modelSeen map[string]int
}

// NewStaging returns an empty accumulator.
func NewStaging() *Staging {
	return &Staging{modelSeen: make(map[string]int)}
}

// AddSource stages a provenance record.
func (s *Staging) AddSource(src model.Source) {
	s.Sources = append(s.Sources, src)
}

// AddModel stages a model, last-write-wins on duplicate IDs within the run.
func (s *Staging) AddModel(m model.Model) {
	if i, ok := s.modelSeen[m.ID]; ok {
		s.Models[i] = m
		return
	}
	s.modelSeen[m.ID] = len(s.Models)
	s.Models = append(s.Models, m)
}

// AddResult stages a result.
func (s *Staging) AddResult(r model.Result) {
	s.Results = append(s.Results, r)
}

// Warnf records a recoverable per-row problem.
func (s *Staging) Warnf(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// Errorf records a problem that counts against run success.
func (s *Staging) Errorf(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// Summary reports one adapter run. Success means zero errors; a run with
// validation-dropped rows but no errors still succeeds with Inserted less
// than Parsed.
type Summary struct {
	BenchmarkID string   `json:"benchmark_id"`
	Source      string   `json:"source"`
	RunID       string   `json:"run_id"`
	Parsed      int      `json:"parsed"`
	Validated   int      `json:"validated"`
	Inserted    int      `json:"inserted"`
	Warnings    []string `json:"warnings,omitempty"`
	Errors      []string `json:"errors,omitempty"`
	Success     bool     `json:"success"`
	DryRun      bool     `json:"dry_run"`
}

// AnyFailed reports whether any summary in a batch failed.
func AnyFailed(sums []*Summary) bool {
	for _, s := range sums {
		if !s.Success {
			return true
		}
	}
	return false
}
