// Package store persists benchmark data behind a narrow upsert/read
// interface. Two drivers are provided: an embedded SQLite database
// (default) and Postgres.
package store

import (
	"context"
	"time"

	"github.com/atlas-research/bench-cli/internal/model"
)

// ResultFilter narrows ResultsForBenchmark queries.
type ResultFilter struct {
	MinDate      *time.Time        `json:"min_date,omitempty"`
	MaxDate      *time.Time        `json:"max_date,omitempty"`
	Providers    []string          `json:"providers,omitempty"`
	TrustTiers   []model.TrustTier `json:"trust_tiers,omitempty"`
	OfficialOnly bool              `json:"official_only,omitempty"` // tier A only
}

// ResultRow is a Result joined with the model and source columns the
// frontier and projection engines need.
type ResultRow struct {
	model.Result

	ModelName        string     `json:"model_name"`
	Provider         string     `json:"provider"`
	Family           string     `json:"family,omitempty"`
	ModelReleaseDate *time.Time `json:"model_release_date,omitempty"`

	SourceType  model.SourceType `json:"source_type"`
	SourceTitle string           `json:"source_title"`
	SourceURL   string           `json:"source_url"`
}

// BenchmarkCoverage summarizes result coverage for one benchmark.
type BenchmarkCoverage struct {
	BenchmarkID string `json:"benchmark_id"`
	Name        string `json:"name"`
	ModelCount  int    `json:"model_count"`
	ResultCount int    `json:"result_count"`
	ValidScores int    `json:"valid_scores"`
}

// QualitySummary aggregates data-quality metrics across the store.
type QualitySummary struct {
	TotalResults     int                       `json:"total_results"`
	TotalModels      int                       `json:"total_models"`
	TotalBenchmarks  int                       `json:"total_benchmarks"`
	MissingScores    int                       `json:"missing_scores"`
	TierDistribution map[model.TrustTier]int   `json:"tier_distribution"`
	Coverage         []BenchmarkCoverage       `json:"coverage"`
}

// Store defines the persistence interface for the ingestion pipeline and
// the read paths of the frontier and projection engines. All writes are
// upserts; records are never hard-deleted.
type Store interface {
	UpsertSource(ctx context.Context, s model.Source) error
	UpsertModel(ctx context.Context, m model.Model) error
	UpsertBenchmark(ctx context.Context, b model.Benchmark) error
	UpsertResults(ctx context.Context, results []model.Result) (int, error)

	ResultsForBenchmark(ctx context.Context, benchmarkID string, filter ResultFilter) ([]ResultRow, error)
	ResultsForModel(ctx context.Context, modelID string) ([]ResultRow, error)
	GetResult(ctx context.Context, resultID string) (*ResultRow, error)
	AllBenchmarks(ctx context.Context) ([]model.Benchmark, error)
	GetBenchmark(ctx context.Context, benchmarkID string) (*model.Benchmark, error)
	QualitySummary(ctx context.Context) (*QualitySummary, error)

	Migrate(ctx context.Context) error
	Close() error
}
