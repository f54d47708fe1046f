package frontier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-research/bench-cli/internal/model"
	"github.com/atlas-research/bench-cli/internal/store"
)

func row(modelID string, score float64, evalDate *time.Time, release *time.Time) store.ResultRow {
	s := score
	return store.ResultRow{
		Result: model.Result{
			ID:             model.ResultID(modelID, "bench", evalDate),
			ModelID:        modelID,
			BenchmarkID:    "bench",
			Score:          &s,
			EvaluationDate: evalDate,
			SourceID:       "src",
			TrustTier:      model.TierA,
		},
		ModelName:        modelID,
		ModelReleaseDate: release,
	}
}

func d(y int, m time.Month, day int) *time.Time {
	t := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestComputeHigherIsBetter(t *testing.T) {
	rows := []store.ResultRow{
		row("m1", 50, d(2024, 1, 1), nil),
		row("m2", 40, d(2024, 2, 1), nil),
		row("m3", 70, d(2024, 3, 1), nil),
		row("m4", 60, d(2024, 4, 1), nil),
	}

	points := Compute(rows, true)
	require.Len(t, points, 2)
	assert.Equal(t, "m1", points[0].ModelID)
	assert.Equal(t, 50.0, points[0].Score)
	assert.Equal(t, "m3", points[1].ModelID)
	assert.Equal(t, 70.0, points[1].Score)
}

func TestComputeLowerIsBetter(t *testing.T) {
	rows := []store.ResultRow{
		row("m1", 50, d(2024, 1, 1), nil),
		row("m2", 40, d(2024, 2, 1), nil),
		row("m3", 70, d(2024, 3, 1), nil),
		row("m4", 35, d(2024, 4, 1), nil),
	}

	points := Compute(rows, false)
	require.Len(t, points, 3)
	assert.Equal(t, []float64{50, 40, 35},
		[]float64{points[0].Score, points[1].Score, points[2].Score})
}

func TestComputeSortsOutOfOrderInput(t *testing.T) {
	rows := []store.ResultRow{
		row("m1", 40, d(2024, 1, 1), nil),
		row("m3", 55, d(2024, 3, 1), nil),
		row("m2", 50, d(2024, 2, 1), nil),
	}

	points := Compute(rows, true)
	require.Len(t, points, 3)
	assert.Equal(t, "2024-01-01", points[0].Date.Format("2006-01-02"))
	assert.Equal(t, 40.0, points[0].Score)
	assert.Equal(t, "2024-02-01", points[1].Date.Format("2006-01-02"))
	assert.Equal(t, 50.0, points[1].Score)
	assert.Equal(t, "2024-03-01", points[2].Date.Format("2006-01-02"))
	assert.Equal(t, 55.0, points[2].Score)
}

func TestComputeRetainsTies(t *testing.T) {
	rows := []store.ResultRow{
		row("m1", 60, d(2024, 1, 1), nil),
		row("m2", 60, d(2024, 2, 1), nil),
		row("m3", 55, d(2024, 3, 1), nil),
	}

	points := Compute(rows, true)
	require.Len(t, points, 2)
	assert.Equal(t, "m1", points[0].ModelID)
	assert.Equal(t, "m2", points[1].ModelID)
}

func TestComputeReleaseDateFallback(t *testing.T) {
	rows := []store.ResultRow{
		// No evaluation date: release date places it first.
		row("m1", 45, nil, d(2023, 12, 1)),
		row("m2", 50, d(2024, 1, 15), nil),
	}

	points := Compute(rows, true)
	require.Len(t, points, 2)
	assert.Equal(t, "m1", points[0].ModelID)
	assert.Equal(t, "2023-12-01", points[0].Date.Format("2006-01-02"))
}

func TestComputeSkipsUnusableRows(t *testing.T) {
	noScore := row("m1", 0, d(2024, 1, 1), nil)
	noScore.Score = nil

	rows := []store.ResultRow{
		noScore,
		row("m2", 50, nil, nil), // no date at all
		row("m3", 60, d(2024, 2, 1), nil),
	}

	points := Compute(rows, true)
	require.Len(t, points, 1)
	assert.Equal(t, "m3", points[0].ModelID)
	assert.Equal(t, 2, countUnusable(rows))
}

func TestComputeEmptyInput(t *testing.T) {
	assert.Empty(t, Compute(nil, true))
	assert.Empty(t, Compute([]store.ResultRow{}, false))
}
