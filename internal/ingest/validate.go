package ingest

import (
	"github.com/atlas-research/bench-cli/internal/model"
)

// Validate applies the shared post-parse checks and rewrites st.Results to
// the surviving rows. Out-of-scale scores are dropped with a warning (unit
// mismatches are common upstream); missing provenance is dropped with an
// error, which fails the run. Null scores pass through: "unknown" is a
// first-class state.
func Validate(b model.Benchmark, st *Staging) {
	kept := st.Results[:0]
	for _, r := range st.Results {
		if r.SourceID == "" {
			st.Errorf("result %s/%s has no source_id", r.ModelID, r.BenchmarkID)
			continue
		}
		if r.Score != nil && !b.InScale(*r.Score) {
			st.Warnf("result %s score %.2f outside scale [%.1f, %.1f], dropped",
				r.ModelID, *r.Score, b.ScaleMin, b.ScaleMax)
			continue
		}
		kept = append(kept, r)
	}
	st.Results = kept
}
