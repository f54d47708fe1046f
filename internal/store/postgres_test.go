package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-research/bench-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgresUpsertSource(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO sources`).
		WithArgs("abc123", "official_leaderboard", "SWE-bench leaderboard",
			"https://www.swebench.com", now, "html_scrape", nil, nil, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertSource(context.Background(), model.Source{
		ID:          "abc123",
		Type:        model.SourceOfficialLeaderboard,
		Title:       "SWE-bench leaderboard",
		URL:         "https://www.swebench.com",
		RetrievedAt: now,
		ParseMethod: model.ParseHTMLScrape,
		CreatedAt:   now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertResultsTransaction(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	eval := time.Date(2025, 8, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO results`).
		WithArgs("r1", "openai:gpt_5", "swe_bench_verified", fptr(74.9),
			nil, nil, nil, eval, "abc123", "A", nil, now, now, false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	n, err := s.UpsertResults(context.Background(), []model.Result{{
		ID:             "r1",
		ModelID:        "openai:gpt_5",
		BenchmarkID:    "swe_bench_verified",
		Score:          fptr(74.9),
		EvaluationDate: &eval,
		SourceID:       "abc123",
		TrustTier:      model.TierA,
		CreatedAt:      now,
		UpdatedAt:      now,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertResultsRollbackOnError(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO results`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := s.UpsertResults(context.Background(), []model.Result{{
		ID: "r1", ModelID: "m", BenchmarkID: "b", SourceID: "s",
		TrustTier: model.TierA, CreatedAt: now, UpdatedAt: now,
	}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertResultsEmpty(t *testing.T) {
	s, mock := newMockStore(t)
	n, err := s.UpsertResults(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetBenchmarkNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT benchmark_id`).
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{
			"benchmark_id", "name", "category", "description", "unit",
			"scale_min", "scale_max", "higher_is_better", "official_url",
			"paper_url", "notes", "created_at",
		}))

	b, err := s.GetBenchmark(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, b)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresResultsForBenchmarkFilterSQL(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	minDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rel := time.Date(2025, 8, 7, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{
		"result_id", "model_id", "benchmark_id", "score", "score_stderr",
		"score_ci_low", "score_ci_high", "evaluation_date", "source_id",
		"trust_tier", "evaluation_notes", "created_at", "updated_at", "is_override",
		"name", "provider", "family", "release_date",
		"source_type", "source_title", "source_url",
	}).AddRow(
		"r1", "openai:gpt_5", "swe_bench_verified", fptr(74.9), (*float64)(nil),
		(*float64)(nil), (*float64)(nil), &rel, "abc123",
		"A", (*string)(nil), now, now, false,
		"GPT-5", "OpenAI", (*string)(nil), &rel,
		"official_leaderboard", "SWE-bench leaderboard", "https://www.swebench.com",
	)

	mock.ExpectQuery(`WHERE r\.benchmark_id = \$1 AND COALESCE\(r\.evaluation_date, m\.release_date\) >= \$2 AND r\.trust_tier = 'A'`).
		WithArgs("swe_bench_verified", minDate).
		WillReturnRows(rows)

	got, err := s.ResultsForBenchmark(context.Background(), "swe_bench_verified", ResultFilter{
		MinDate:      &minDate,
		OfficialOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "openai:gpt_5", got[0].ModelID)
	assert.Equal(t, model.TierA, got[0].TrustTier)
	require.NotNil(t, got[0].Score)
	assert.InDelta(t, 74.9, *got[0].Score, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}
