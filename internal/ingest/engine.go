package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atlas-research/bench-cli/internal/changelog"
	"github.com/atlas-research/bench-cli/internal/model"
	"github.com/atlas-research/bench-cli/internal/store"
)

// Engine orchestrates adapter runs. Failures are isolated per adapter: one
// failing benchmark never prevents the rest of a batch from running.
type Engine struct {
	store store.Store
	clog  *changelog.Writer
	reg   *Registry
}

// RunOpts selects what to ingest and how.
type RunOpts struct {
	Benchmark string // restrict to one benchmark ID
	Source    string // restrict to one named source adapter
	DryRun    bool   // parse and validate without persisting
}

// NewEngine creates an ingest engine.
func NewEngine(st store.Store, clog *changelog.Writer, reg *Registry) *Engine {
	return &Engine{store: st, clog: clog, reg: reg}
}

// Run executes the selected benchmarks in registry order. For benchmarks
// with multiple sources it tries each in preference order and stops at the
// first success; all attempted summaries are returned so a fallback that
// rescued a failed official source is still visible.
func (e *Engine) Run(ctx context.Context, opts RunOpts) ([]*Summary, error) {
	log := zap.L().With(zap.String("component", "ingest.engine"))

	ids := e.reg.BenchmarkIDs()
	if opts.Benchmark != "" {
		if _, err := e.reg.ForBenchmark(opts.Benchmark); err != nil {
			return nil, err
		}
		ids = []string{opts.Benchmark}
	}

	log.Info("selected benchmarks", zap.Int("count", len(ids)), zap.Bool("dry_run", opts.DryRun))

	var summaries []*Summary
	var succeeded, failed int

	for _, id := range ids {
		select {
		case <-ctx.Done():
			return summaries, ctx.Err()
		default:
		}

		adapters, err := e.reg.ForBenchmark(id)
		if err != nil {
			return summaries, err
		}

		attempted := 0
		benchmarkOK := false
		for _, ing := range adapters {
			if opts.Source != "" && ing.SourceName() != opts.Source {
				continue
			}
			attempted++

			sum := e.runOne(ctx, ing, opts.DryRun)
			summaries = append(summaries, sum)
			if sum.Success {
				benchmarkOK = true
				break
			}
			log.Warn("source failed, trying fallback",
				zap.String("benchmark", id),
				zap.String("source", ing.SourceName()),
			)
		}

		if attempted == 0 {
			continue
		}
		if benchmarkOK {
			succeeded++
		} else {
			failed++
		}
	}

	log.Info("ingest batch complete",
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
	)
	return summaries, nil
}

// runOne executes a single adapter end to end. Panics and errors anywhere
// in fetch/parse/persist become a failed summary, never a propagated crash.
func (e *Engine) runOne(ctx context.Context, ing Ingestor, dryRun bool) (sum *Summary) {
	log := zap.L().With(
		zap.String("component", "ingest.engine"),
		zap.String("benchmark", ing.BenchmarkID()),
		zap.String("source", ing.SourceName()),
	)

	sum = &Summary{
		BenchmarkID: ing.BenchmarkID(),
		Source:      ing.SourceName(),
		RunID:       uuid.NewString(),
		DryRun:      dryRun,
	}

	defer func() {
		if r := recover(); r != nil {
			sum.Errors = append(sum.Errors, fmt.Sprintf("panic: %v", r))
			sum.Success = false
			log.Error("adapter panicked", zap.Any("panic", r))
		}
	}()

	start := time.Now()
	log.Info("starting ingest")

	raw, err := ing.FetchRaw(ctx)
	if err != nil {
		sum.Errors = append(sum.Errors, fmt.Sprintf("fetch: %v", err))
		log.Error("fetch failed", zap.Error(err))
		return sum
	}

	st, err := ing.Parse(ctx, raw)
	if err != nil {
		sum.Errors = append(sum.Errors, fmt.Sprintf("parse: %v", err))
		log.Error("parse failed", zap.Error(err))
		return sum
	}

	sum.Parsed = len(st.Results)
	Validate(ing.Benchmark(), st)
	sum.Validated = len(st.Results)
	sum.Warnings = append(sum.Warnings, st.Warnings...)
	sum.Errors = append(sum.Errors, st.Errors...)

	if dryRun {
		sum.Success = len(sum.Errors) == 0
		log.Info("dry run complete",
			zap.Int("parsed", sum.Parsed),
			zap.Int("validated", sum.Validated),
		)
		return sum
	}

	inserted, err := e.persist(ctx, ing, st, sum.RunID)
	if err != nil {
		sum.Errors = append(sum.Errors, fmt.Sprintf("persist: %v", err))
		log.Error("persist failed", zap.Error(err))
		return sum
	}
	sum.Inserted = inserted
	sum.Success = len(sum.Errors) == 0

	log.Info("ingest complete",
		zap.Int("parsed", sum.Parsed),
		zap.Int("validated", sum.Validated),
		zap.Int("inserted", sum.Inserted),
		zap.Int("warnings", len(sum.Warnings)),
		zap.Bool("success", sum.Success),
		zap.Duration("elapsed", time.Since(start)),
	)
	return sum
}

// persist writes staged records in dependency order: benchmark, sources,
// models, then results, since results reference all three. One changelog
// entry records the completed batch.
func (e *Engine) persist(ctx context.Context, ing Ingestor, st *Staging, runID string) (int, error) {
	if err := e.store.UpsertBenchmark(ctx, ing.Benchmark()); err != nil {
		return 0, err
	}
	for _, src := range st.Sources {
		if err := e.store.UpsertSource(ctx, src); err != nil {
			return 0, err
		}
	}
	for _, m := range st.Models {
		if err := e.store.UpsertModel(ctx, m); err != nil {
			return 0, err
		}
	}

	inserted, err := e.store.UpsertResults(ctx, st.Results)
	if err != nil {
		return 0, err
	}

	if e.clog != nil && inserted > 0 {
		entry := model.ChangelogEntry{
			Timestamp: time.Now().UTC(),
			Action:    "batch_insert",
			Table:     "results",
			RecordID:  runID,
			Reason:    fmt.Sprintf("ingest %s via %s: %d results", ing.BenchmarkID(), ing.SourceName(), inserted),
			Source:    ing.SourceName(),
		}
		if err := e.clog.Append(entry); err != nil {
			// Audit failure must not roll back a completed ingest.
			zap.L().Warn("changelog append failed", zap.Error(err))
		}
	}
	return inserted, nil
}
