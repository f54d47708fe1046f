package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/atlas-research/bench-cli/internal/changelog"
	"github.com/atlas-research/bench-cli/internal/fetcher"
	"github.com/atlas-research/bench-cli/internal/model"
)

func writeSnapshot(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestEpochAdapterParse(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "gpqa_diamond.csv",
		"Model version,Organization,Release date,Best score (across scorers),stderr,Started at\n"+
			"GPT-4o,OpenAI,2024-05-13,0.53,0.02,2024-06-01\n"+
			"Claude 3.5 Sonnet,Anthropic,2024-06-20,67.2,1.5,2024-07-01\n"+
			",NoName,2024-01-01,0.5,,\n")

	var bench model.Benchmark
	for _, b := range EpochBenchmarks() {
		if b.ID == "gpqa_diamond" {
			bench = b
		}
	}
	require.NotEmpty(t, bench.ID)

	a := NewEpochAdapter(bench, fetcher.Snapshots{Dir: dir})
	raw, err := a.FetchRaw(context.Background())
	require.NoError(t, err)

	st, err := a.Parse(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, st.Results, 2, "nameless row skipped")
	require.Len(t, st.Models, 2)
	require.Len(t, st.Sources, 1)

	assert.Equal(t, model.SourceThirdPartyLeaderboard, st.Sources[0].Type)
	assert.NotEmpty(t, st.Sources[0].RawSnapshotPath)

	// Fractional scores scale to percent, already-percent values pass through.
	gpt := st.Results[0]
	require.NotNil(t, gpt.Score)
	assert.InDelta(t, 53.0, *gpt.Score, 1e-9)
	require.NotNil(t, gpt.ScoreStderr)
	assert.InDelta(t, 2.0, *gpt.ScoreStderr, 1e-9)
	assert.Equal(t, model.TierB, gpt.TrustTier)
	require.NotNil(t, gpt.EvaluationDate)
	assert.Equal(t, "2024-06-01", gpt.EvaluationDate.Format("2006-01-02"))

	claude := st.Results[1]
	require.NotNil(t, claude.Score)
	assert.InDelta(t, 67.2, *claude.Score, 1e-9)
	assert.Equal(t, "anthropic:claude_3.5_sonnet", claude.ModelID)

	require.NotNil(t, st.Models[0].ReleaseDate)
	assert.Equal(t, "2024-05-13", st.Models[0].ReleaseDate.Format("2006-01-02"))
}

func TestEpochAdapterMissingScoreColumn(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "gpqa_diamond.csv", "Model version,Organization\nGPT-4o,OpenAI\n")

	var bench model.Benchmark
	for _, b := range EpochBenchmarks() {
		if b.ID == "gpqa_diamond" {
			bench = b
		}
	}
	a := NewEpochAdapter(bench, fetcher.Snapshots{Dir: dir})
	raw, err := a.FetchRaw(context.Background())
	require.NoError(t, err)

	st, err := a.Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.Empty(t, st.Results)
	require.Len(t, st.Errors, 1)
	assert.Contains(t, st.Errors[0], "no score column")
}

func TestEpochAdapterSnapshotFallbackName(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "gpqa_diamond_external.csv",
		"Model version,Organization,score\nGPT-4o,OpenAI,53\n")

	var bench model.Benchmark
	for _, b := range EpochBenchmarks() {
		if b.ID == "gpqa_diamond" {
			bench = b
		}
	}
	a := NewEpochAdapter(bench, fetcher.Snapshots{Dir: dir})
	_, err := a.FetchRaw(context.Background())
	require.NoError(t, err)

	a = NewEpochAdapter(bench, fetcher.Snapshots{Dir: t.TempDir()})
	_, err = a.FetchRaw(context.Background())
	require.Error(t, err)
	assert.True(t, eris.Is(err, fetcher.ErrNotFound))
}

func TestMETRAdapterParse(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, metrSnapshotName,
		"Model version,Organization,Release date,Time horizon,CI_low,CI_high,Country,Source link\n"+
			"Claude 3.7 Sonnet,Anthropic,2025-02-24,0.97,0.5,1.7,USA,https://metr.org\n")

	a := NewMETRAdapter(fetcher.Snapshots{Dir: dir})
	raw, err := a.FetchRaw(context.Background())
	require.NoError(t, err)

	st, err := a.Parse(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, st.Results, 1)

	r := st.Results[0]
	assert.Equal(t, model.TierA, r.TrustTier)
	require.NotNil(t, r.Score)
	assert.InDelta(t, 0.97, *r.Score, 1e-9, "hours are never percent-coerced")
	require.NotNil(t, r.ScoreCILow)
	assert.InDelta(t, 0.5, *r.ScoreCILow, 1e-9)
	require.NotNil(t, r.ScoreCIHigh)
	assert.InDelta(t, 1.7, *r.ScoreCIHigh, 1e-9)

	// Release date doubles as evaluation date.
	require.NotNil(t, r.EvaluationDate)
	assert.Equal(t, "2025-02-24", r.EvaluationDate.Format("2006-01-02"))

	m := st.Models[0]
	assert.Equal(t, "USA", m.Metadata["country"])
	assert.Equal(t, model.SourceOfficialPaper, st.Sources[0].Type)
}

func TestSWEBenchParseEmbeddedJSON(t *testing.T) {
	html := `<html><script>
	var leaderboard = [
		{"model": "GPT-5 (high reasoning)", "resolved_rate": 0.749},
		{"model": "Claude Opus 4", "resolved_rate": 72.5},
		{"model": "", "resolved_rate": 0.1}
	];
	</script></html>`

	a := &SWEBenchAdapter{benchmark: swebenchTestBenchmark()}
	st, err := a.Parse(context.Background(), []byte(html))
	require.NoError(t, err)
	require.Len(t, st.Results, 2)

	gpt := st.Results[0]
	require.NotNil(t, gpt.Score)
	assert.InDelta(t, 74.9, *gpt.Score, 1e-9)
	assert.Equal(t, model.TierA, gpt.TrustTier)
	assert.Equal(t, "openai:gpt-5_high", gpt.ModelID, "variant names canonicalize")

	claude := st.Results[1]
	assert.Equal(t, "anthropic:claude_4_opus", claude.ModelID)
}

func TestSWEBenchParseHTMLTableFallback(t *testing.T) {
	html := `<html><body><table class="leaderboard">
	<tr><th>Model</th><th>% Resolved</th></tr>
	<tr><td>Gemini 3 Pro Preview</td><td>76.2%</td></tr>
	<tr><td>SomeAgent v2</td><td>n/a</td></tr>
	</table></body></html>`

	a := &SWEBenchAdapter{benchmark: swebenchTestBenchmark()}
	st, err := a.Parse(context.Background(), []byte(html))
	require.NoError(t, err)
	require.Len(t, st.Results, 1, "unscorable row skipped")

	r := st.Results[0]
	require.NotNil(t, r.Score)
	assert.InDelta(t, 76.2, *r.Score, 1e-9)
	assert.Equal(t, "google_deepmind:gemini_3_pro", r.ModelID)
	require.NotNil(t, r.EvaluationDate, "dated by retrieval day")
}

func TestSWEBenchParseNoTable(t *testing.T) {
	a := &SWEBenchAdapter{benchmark: swebenchTestBenchmark()}
	st, err := a.Parse(context.Background(), []byte("<html><body>maintenance</body></html>"))
	require.NoError(t, err)
	assert.Empty(t, st.Results)
	assert.NotEmpty(t, st.Warnings)
}

func swebenchTestBenchmark() model.Benchmark {
	for _, b := range EpochBenchmarks() {
		if b.ID == "swe_bench_verified" {
			return b
		}
	}
	return model.Benchmark{}
}

func TestRLIAdapterParse(t *testing.T) {
	dir := t.TempDir()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leaderboard")
	require.NoError(t, err)
	for _, rowVals := range [][]string{
		{"model", "provider", "score", "date"},
		{"GPT-5", "OpenAI", "1.25", "2025-08-07"},
		{"", "Nobody", "2.0", "2025-01-01"},
	} {
		row := sheet.AddRow()
		for _, v := range rowVals {
			row.AddCell().Value = v
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, os.WriteFile(filepath.Join(dir, rliSnapshotName), buf.Bytes(), 0o644))

	a := NewRLIAdapter(fetcher.Snapshots{Dir: dir})
	raw, err := a.FetchRaw(context.Background())
	require.NoError(t, err)

	st, err := a.Parse(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, st.Results, 1)

	r := st.Results[0]
	assert.Equal(t, "openai:gpt-5", r.ModelID)
	require.NotNil(t, r.Score)
	assert.InDelta(t, 1.25, *r.Score, 1e-9)
	assert.Equal(t, model.TierB, r.TrustTier)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
overrides:
  - result_id: "abc123"
    field: score
    old_value: 45.2
    new_value: 46.1
    reason: "Corrected per official errata"
`), 0o644))

	overrides, err := LoadOverrides(path)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, "abc123", overrides[0].ResultID)
	assert.Equal(t, "score", overrides[0].Field)

	// Missing file is empty, not an error.
	missing, err := LoadOverrides(filepath.Join(dir, "nope.yml"))
	require.NoError(t, err)
	assert.Empty(t, missing)

	// Reason is mandatory.
	require.NoError(t, os.WriteFile(path, []byte(`
overrides:
  - result_id: "abc123"
    field: score
    new_value: 46.1
`), 0o644))
	_, err = LoadOverrides(path)
	require.Error(t, err)
}

func TestOverrideApply(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()

	seeded, err := model.NewResult("openai:gpt_5", "swe_bench_verified", "src1", model.TierA, nil)
	require.NoError(t, err)
	s := 45.2
	seeded.Score = &s
	_, err = st.UpsertResults(ctx, []model.Result{*seeded})
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
overrides:
  - result_id: "`+seeded.ID+`"
    field: score
    new_value: 46.1
    reason: "Corrected per official errata"
`), 0o644))

	clogPath := filepath.Join(dir, "changelog.jsonl")
	applier := NewOverrideApplier(st, changelog.NewWriter(clogPath))
	applied, err := applier.Apply(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	got := st.results[seeded.ID]
	require.NotNil(t, got.Score)
	assert.InDelta(t, 46.1, *got.Score, 1e-9)
	assert.True(t, got.IsOverride)
	assert.FileExists(t, clogPath)
}

func TestOverrideApplyUnknownResult(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
overrides:
  - result_id: "does_not_exist"
    field: score
    new_value: 50.0
    reason: "test"
`), 0o644))

	applier := NewOverrideApplier(newMemStore(), nil)
	applied, err := applier.Apply(context.Background(), path)
	require.NoError(t, err, "unknown targets warn, not fail")
	assert.Zero(t, applied)
}
