package ingest

import (
	"bytes"
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/atlas-research/bench-cli/internal/fetcher"
	"github.com/atlas-research/bench-cli/internal/model"
	"github.com/atlas-research/bench-cli/internal/normalize"
)

// EpochAdapter ingests any benchmark CSV following Epoch AI's standardized
// evaluation export format. One parameterized adapter covers every
// Epoch-format benchmark; the benchmark definition is injected.
type EpochAdapter struct {
	benchmark model.Benchmark
	snapshots fetcher.Snapshots

	snapshotPath string
}

// EpochBenchmarks returns the benchmark definitions served by the Epoch
// export format.
func EpochBenchmarks() []model.Benchmark {
	now := time.Now().UTC()
	return []model.Benchmark{
		{
			ID:             "swe_bench_verified",
			Name:           "SWE-Bench Verified",
			Category:       "coding",
			Description:    "SWE-Bench evaluates AI models on real GitHub issues. The Verified subset contains 500 human-verified test cases.",
			Unit:           "percent",
			ScaleMin:       0,
			ScaleMax:       100,
			HigherIsBetter: true,
			OfficialURL:    "https://www.swebench.com/",
			PaperURL:       "https://arxiv.org/abs/2310.06770",
			CreatedAt:      now,
		},
		{
			ID:             "gpqa_diamond",
			Name:           "GPQA Diamond",
			Category:       "reasoning",
			Description:    "Graduate-level science questions requiring expert knowledge.",
			Unit:           "percent",
			ScaleMin:       0,
			ScaleMax:       100,
			HigherIsBetter: true,
			OfficialURL:    "https://arxiv.org/abs/2311.12022",
			CreatedAt:      now,
		},
		{
			ID:             "math_level_5",
			Name:           "MATH (Level 5)",
			Category:       "math",
			Description:    "Competition mathematics problems at the hardest difficulty level.",
			Unit:           "percent",
			ScaleMin:       0,
			ScaleMax:       100,
			HigherIsBetter: true,
			OfficialURL:    "https://arxiv.org/abs/2103.03874",
			CreatedAt:      now,
		},
		{
			ID:             "aider_polyglot",
			Name:           "Aider Polyglot",
			Category:       "coding",
			Description:    "Code editing benchmark across multiple programming languages.",
			Unit:           "percent",
			ScaleMin:       0,
			ScaleMax:       100,
			HigherIsBetter: true,
			OfficialURL:    "https://aider.chat/docs/leaderboards/",
			CreatedAt:      now,
		},
		{
			ID:             "frontiermath_tier4",
			Name:           "FrontierMath (Tier 4)",
			Category:       "math",
			Description:    "Research-level mathematics problems at the hardest tier.",
			Unit:           "percent",
			ScaleMin:       0,
			ScaleMax:       100,
			HigherIsBetter: true,
			OfficialURL:    "https://epoch.ai/frontiermath",
			CreatedAt:      now,
		},
	}
}

// NewEpochAdapter creates an adapter for one Epoch-format benchmark.
func NewEpochAdapter(b model.Benchmark, snaps fetcher.Snapshots) *EpochAdapter {
	return &EpochAdapter{benchmark: b, snapshots: snaps}
}

func (a *EpochAdapter) BenchmarkID() string        { return a.benchmark.ID }
func (a *EpochAdapter) SourceName() string         { return "epoch" }
func (a *EpochAdapter) Benchmark() model.Benchmark { return a.benchmark }

// FetchRaw reads the benchmark's CSV snapshot, trying the plain and
// _external naming conventions.
func (a *EpochAdapter) FetchRaw(ctx context.Context) ([]byte, error) {
	names := []string{a.benchmark.ID + ".csv", a.benchmark.ID + "_external.csv"}
	for _, name := range names {
		path, err := a.snapshots.Resolve(name)
		if err != nil {
			if eris.Is(err, fetcher.ErrNotFound) {
				continue
			}
			return nil, err
		}
		a.snapshotPath = path
		return a.snapshots.Read(name)
	}
	return nil, eris.Wrapf(fetcher.ErrNotFound, "epoch: no snapshot for %s (tried %v)", a.benchmark.ID, names)
}

// epochScoreColumns lists the score header variants seen across exports.
var epochScoreColumns = []string{"Best score (across scorers)", "score", "accuracy", "Score"}

func (a *EpochAdapter) Parse(_ context.Context, raw []byte) (*Staging, error) {
	table, err := fetcher.ReadCSV(bytes.NewReader(raw))
	if err != nil {
		return nil, eris.Wrapf(err, "epoch: read csv for %s", a.benchmark.ID)
	}

	st := NewStaging()

	src := newSource(
		"https://epoch.ai/benchmarks/"+a.benchmark.ID,
		model.SourceThirdPartyLeaderboard,
		"Epoch AI "+a.benchmark.Name+" Evaluations",
		model.ParseCSVDownload,
		a.snapshotPath,
	)
	st.AddSource(src)

	scoreCol := ""
	for _, c := range epochScoreColumns {
		if table.HasColumn(c) {
			scoreCol = c
			break
		}
	}
	if scoreCol == "" {
		st.Errorf("epoch: no score column found for %s", a.benchmark.ID)
		return st, nil
	}

	for i := range table.Rows {
		modelName := table.Cell(i, "Model version")
		if modelName == "" {
			modelName = table.Cell(i, "model")
		}
		if modelName == "" {
			continue
		}

		provider := table.Cell(i, "Organization")
		if provider == "" {
			provider = table.Cell(i, "organization")
		}
		if provider == "" {
			provider = normalize.InferProvider(modelName)
		}

		releaseDate := normalize.ParseDate(table.Cell(i, "Release date"))
		modelID := normalize.ModelID(modelName, provider)
		now := time.Now().UTC()

		st.AddModel(model.Model{
			ID:                  modelID,
			Name:                modelName,
			Provider:            provider,
			Family:              normalize.InferFamily(modelName),
			ReleaseDate:         releaseDate,
			Status:              model.StatusVerified,
			TrainingComputeFLOP: parseFloat(table.Cell(i, "Training compute (FLOP)")),
			CreatedAt:           now,
			UpdatedAt:           now,
		})

		evalDate := normalize.ParseDate(table.Cell(i, "Started at"))
		r, err := model.NewResult(modelID, a.benchmark.ID, src.ID, model.TierB, evalDate)
		if err != nil {
			st.Warnf("epoch: row %d: %v", i, err)
			continue
		}
		r.Score = asPercent(parseFloat(table.Cell(i, scoreCol)))
		r.ScoreStderr = asPercent(parseFloat(table.Cell(i, "stderr")))
		r.EvaluationNotes = "Epoch AI evaluation"
		st.AddResult(*r)
	}

	return st, nil
}
