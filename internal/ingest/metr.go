package ingest

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/atlas-research/bench-cli/internal/fetcher"
	"github.com/atlas-research/bench-cli/internal/model"
	"github.com/atlas-research/bench-cli/internal/normalize"
)

const metrSnapshotName = "metr_time_horizons_external.csv"

// METRAdapter ingests METR's time-horizons report: the task length (in
// hours) an AI agent completes reliably. Results come from METR's own
// report, so the tier is pinned to A rather than derived from the source
// type.
type METRAdapter struct {
	snapshots fetcher.Snapshots

	snapshotPath string
}

// NewMETRAdapter creates the METR time-horizons adapter.
func NewMETRAdapter(snaps fetcher.Snapshots) *METRAdapter {
	return &METRAdapter{snapshots: snaps}
}

func (a *METRAdapter) BenchmarkID() string { return "metr_time_horizons" }
func (a *METRAdapter) SourceName() string  { return "metr" }

func (a *METRAdapter) Benchmark() model.Benchmark {
	return model.Benchmark{
		ID:             "metr_time_horizons",
		Name:           "METR Time Horizons",
		Category:       "agentic",
		Description:    "METR evaluates AI agents on long-horizon autonomous tasks. The time horizon metric indicates task complexity the model can complete.",
		Unit:           "hours",
		ScaleMin:       0,
		ScaleMax:       1000,
		HigherIsBetter: true,
		OfficialURL:    "https://metr.org/",
		PaperURL:       "https://metr.org/blog/2025-03-19-measuring-ai-ability-to-complete-long-tasks/",
		Notes:          "Time horizon in hours. Higher = can complete more complex autonomous tasks.",
		CreatedAt:      time.Now().UTC(),
	}
}

func (a *METRAdapter) FetchRaw(ctx context.Context) ([]byte, error) {
	path, err := a.snapshots.Resolve(metrSnapshotName)
	if err != nil {
		return nil, err
	}
	a.snapshotPath = path
	return a.snapshots.Read(metrSnapshotName)
}

func (a *METRAdapter) Parse(_ context.Context, raw []byte) (*Staging, error) {
	table, err := fetcher.ReadCSV(bytes.NewReader(raw))
	if err != nil {
		return nil, eris.Wrap(err, "metr: read csv")
	}

	st := NewStaging()

	src := newSource(
		"https://metr.org/time-horizons",
		model.SourceOfficialPaper,
		"METR Time Horizons Report",
		model.ParseCSVDownload,
		a.snapshotPath,
	)
	src.Notes = "METR's evaluation of AI agent time horizons"
	st.AddSource(src)

	for i := range table.Rows {
		modelName := table.Cell(i, "Model version")
		if modelName == "" {
			continue
		}

		provider := table.Cell(i, "Organization")
		if provider == "" {
			provider = normalize.InferProvider(modelName)
		}
		releaseDate := normalize.ParseDate(table.Cell(i, "Release date"))
		modelID := normalize.ModelID(modelName, provider)
		now := time.Now().UTC()

		st.AddModel(model.Model{
			ID:                   modelID,
			Name:                 modelName,
			Provider:             provider,
			Family:               normalize.InferFamily(modelName),
			ReleaseDate:          releaseDate,
			Status:               model.StatusVerified,
			TrainingComputeFLOP:  parseFloat(table.Cell(i, "Training compute (FLOP)")),
			TrainingComputeNotes: table.Cell(i, "Training compute notes"),
			Metadata: map[string]any{
				"country":     table.Cell(i, "Country"),
				"source_link": table.Cell(i, "Source link"),
			},
			CreatedAt: now,
			UpdatedAt: now,
		})

		// The report dates results by model release, so the release date
		// doubles as the evaluation date.
		r, err := model.NewResult(modelID, a.BenchmarkID(), src.ID, model.TierA, releaseDate)
		if err != nil {
			st.Warnf("metr: row %d: %v", i, err)
			continue
		}
		r.Score = parseFloat(table.Cell(i, "Time horizon"))
		r.ScoreCILow = parseFloat(table.Cell(i, "CI_low"))
		r.ScoreCIHigh = parseFloat(table.Cell(i, "CI_high"))
		if r.Score != nil {
			r.EvaluationNotes = fmt.Sprintf("Time horizon: %.2fh", *r.Score)
		}
		st.AddResult(*r)
	}

	return st, nil
}
