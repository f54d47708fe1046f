package ingest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/atlas-research/bench-cli/internal/fetcher"
	"github.com/atlas-research/bench-cli/internal/model"
	"github.com/atlas-research/bench-cli/internal/normalize"
)

const (
	rliSnapshotName = "remote_labor_index.xlsx"
	rliURL          = "https://scale.com/leaderboard/rli"
)

// RLIAdapter ingests the Remote Labor Index, a leaderboard measuring
// practical remote-work capability. Scores arrive as an XLSX export; the
// leaderboard aggregates runs it did not perform itself, so the tier is B.
type RLIAdapter struct {
	snapshots fetcher.Snapshots

	snapshotPath string
}

// NewRLIAdapter creates the Remote Labor Index adapter.
func NewRLIAdapter(snaps fetcher.Snapshots) *RLIAdapter {
	return &RLIAdapter{snapshots: snaps}
}

func (a *RLIAdapter) BenchmarkID() string { return "remote_labor_index" }
func (a *RLIAdapter) SourceName() string  { return "rli" }

func (a *RLIAdapter) Benchmark() model.Benchmark {
	return model.Benchmark{
		ID:             "remote_labor_index",
		Name:           "Remote Labor Index",
		Category:       "agentic",
		Description:    "Evaluates AI systems on remote labor tasks measuring practical work capability.",
		Unit:           "hours",
		ScaleMin:       0,
		ScaleMax:       1000,
		HigherIsBetter: true,
		OfficialURL:    rliURL,
		CreatedAt:      time.Now().UTC(),
	}
}

func (a *RLIAdapter) FetchRaw(ctx context.Context) ([]byte, error) {
	path, err := a.snapshots.Resolve(rliSnapshotName)
	if err != nil {
		return nil, err
	}
	a.snapshotPath = path
	return a.snapshots.Read(rliSnapshotName)
}

func (a *RLIAdapter) Parse(_ context.Context, raw []byte) (*Staging, error) {
	table, err := fetcher.ReadXLSXBytes(raw, fetcher.XLSXOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "rli: read xlsx")
	}

	st := NewStaging()

	src := newSource(
		rliURL,
		model.SourceThirdPartyLeaderboard,
		"Remote Labor Index Leaderboard",
		model.ParseXLSX,
		a.snapshotPath,
	)
	st.AddSource(src)

	for i := range table.Rows {
		modelName := table.Cell(i, "model")
		if modelName == "" {
			modelName = table.Cell(i, "Model")
		}
		if modelName == "" {
			continue
		}

		provider := table.Cell(i, "provider")
		if provider == "" {
			provider = normalize.InferProvider(modelName)
		}
		evalDate := normalize.ParseDate(table.Cell(i, "date"))
		modelID := normalize.ModelID(modelName, provider)
		now := time.Now().UTC()

		st.AddModel(model.Model{
			ID:          modelID,
			Name:        modelName,
			Provider:    provider,
			Family:      normalize.InferFamily(modelName),
			ReleaseDate: evalDate,
			Status:      model.StatusVerified,
			CreatedAt:   now,
			UpdatedAt:   now,
		})

		r, err := model.NewResult(modelID, a.BenchmarkID(), src.ID, model.TierB, evalDate)
		if err != nil {
			st.Warnf("rli: row %d: %v", i, err)
			continue
		}
		score := table.Cell(i, "score")
		if score == "" {
			score = table.Cell(i, "hours")
		}
		r.Score = parseFloat(score)
		st.AddResult(*r)
	}

	return st, nil
}
