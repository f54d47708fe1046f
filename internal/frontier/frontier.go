// Package frontier computes the best-so-far time series for a benchmark:
// the monotonic step function of record-setting results.
package frontier

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/atlas-research/bench-cli/internal/model"
	"github.com/atlas-research/bench-cli/internal/store"
)

// Point is one record-setting result on the frontier.
type Point struct {
	Date      time.Time       `json:"date"`
	Score     float64         `json:"score"`
	ModelID   string          `json:"model_id"`
	ModelName string          `json:"model_name"`
	Provider  string          `json:"provider"`
	TrustTier model.TrustTier `json:"trust_tier"`
	ResultID  string          `json:"result_id"`
	SourceID  string          `json:"source_id"`
}

// Series is the frontier for one benchmark.
type Series struct {
	BenchmarkID    string  `json:"benchmark_id"`
	HigherIsBetter bool    `json:"higher_is_better"`
	Points         []Point `json:"points"`
	TotalResults   int     `json:"total_results"`
	Unusable       int     `json:"unusable"`
}

// Compute scans rows for record-setting scores. Each row's effective date is
// its evaluation date, falling back to the model release date; rows with
// neither, or with no score, are unusable and skipped. Ties with the current
// extremum are all retained. Empty input yields an empty frontier.
func Compute(rows []store.ResultRow, higherIsBetter bool) []Point {
	candidates := make([]Point, 0, len(rows))
	for _, r := range rows {
		if r.Score == nil {
			continue
		}
		d, ok := r.Result.EffectiveDate(r.ModelReleaseDate)
		if !ok {
			continue
		}
		candidates = append(candidates, Point{
			Date:      d,
			Score:     *r.Score,
			ModelID:   r.ModelID,
			ModelName: r.ModelName,
			Provider:  r.Provider,
			TrustTier: r.TrustTier,
			ResultID:  r.ID,
			SourceID:  r.SourceID,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Date.Before(candidates[j].Date)
	})

	var out []Point
	var best float64
	for i, p := range candidates {
		improved := i == 0 ||
			(higherIsBetter && p.Score > best) ||
			(!higherIsBetter && p.Score < best)
		if improved {
			best = p.Score
		}
		if p.Score == best {
			out = append(out, p)
		}
	}
	return out
}

// ForBenchmark loads filtered results and computes the frontier, reading
// directionality from the benchmark definition.
func ForBenchmark(ctx context.Context, st store.Store, benchmarkID string, filter store.ResultFilter) (*Series, error) {
	b, err := st.GetBenchmark(ctx, benchmarkID)
	if err != nil {
		return nil, eris.Wrapf(err, "frontier: load benchmark %s", benchmarkID)
	}
	if b == nil {
		return nil, eris.Errorf("frontier: unknown benchmark %q", benchmarkID)
	}

	rows, err := st.ResultsForBenchmark(ctx, benchmarkID, filter)
	if err != nil {
		return nil, eris.Wrapf(err, "frontier: load results for %s", benchmarkID)
	}

	points := Compute(rows, b.HigherIsBetter)
	return &Series{
		BenchmarkID:    benchmarkID,
		HigherIsBetter: b.HigherIsBetter,
		Points:         points,
		TotalResults:   len(rows),
		Unusable:       countUnusable(rows),
	}, nil
}

func countUnusable(rows []store.ResultRow) int {
	n := 0
	for _, r := range rows {
		if r.Score == nil {
			n++
			continue
		}
		if _, ok := r.Result.EffectiveDate(r.ModelReleaseDate); !ok {
			n++
		}
	}
	return n
}
