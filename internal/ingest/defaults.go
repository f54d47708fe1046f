package ingest

import (
	"github.com/atlas-research/bench-cli/internal/fetcher"
)

// DefaultRegistry wires the production adapter set. SWE-Bench Verified has
// two sources: the official leaderboard scrape first, the Epoch CSV export
// as fallback. Registration order fixes both batch order and source
// preference.
func DefaultRegistry(f fetcher.Fetcher, snaps fetcher.Snapshots) *Registry {
	reg := NewRegistry()

	epochBenchmarks := EpochBenchmarks()
	for _, b := range epochBenchmarks {
		if b.ID == "swe_bench_verified" {
			reg.Register(NewSWEBenchAdapter(f, b))
		}
		reg.Register(NewEpochAdapter(b, snaps))
	}

	reg.Register(NewMETRAdapter(snaps))
	reg.Register(NewRLIAdapter(snaps))
	return reg
}
