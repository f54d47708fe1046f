package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/atlas-research/bench-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock implements it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sources (
	source_id         TEXT PRIMARY KEY,
	source_type       TEXT NOT NULL,
	source_title      TEXT NOT NULL,
	source_url        TEXT NOT NULL,
	retrieved_at      TIMESTAMPTZ NOT NULL,
	parse_method      TEXT NOT NULL,
	raw_snapshot_path TEXT,
	notes             TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS benchmarks (
	benchmark_id     TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	category         TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	unit             TEXT NOT NULL DEFAULT 'percent',
	scale_min        DOUBLE PRECISION NOT NULL DEFAULT 0,
	scale_max        DOUBLE PRECISION NOT NULL DEFAULT 100,
	higher_is_better BOOLEAN NOT NULL DEFAULT true,
	official_url     TEXT,
	paper_url        TEXT,
	notes            TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS models (
	model_id               TEXT PRIMARY KEY,
	name                   TEXT NOT NULL,
	provider               TEXT NOT NULL,
	family                 TEXT,
	release_date           DATE,
	release_date_source    TEXT,
	status                 TEXT NOT NULL DEFAULT 'verified',
	parameter_count_b      DOUBLE PRECISION,
	training_compute_flop  DOUBLE PRECISION,
	training_compute_notes TEXT,
	metadata               JSONB NOT NULL DEFAULT '{}',
	created_at             TIMESTAMPTZ NOT NULL,
	updated_at             TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	result_id        TEXT PRIMARY KEY,
	model_id         TEXT NOT NULL REFERENCES models(model_id),
	benchmark_id     TEXT NOT NULL REFERENCES benchmarks(benchmark_id),
	score            DOUBLE PRECISION,
	score_stderr     DOUBLE PRECISION,
	score_ci_low     DOUBLE PRECISION,
	score_ci_high    DOUBLE PRECISION,
	evaluation_date  DATE,
	source_id        TEXT NOT NULL REFERENCES sources(source_id),
	trust_tier       TEXT NOT NULL,
	evaluation_notes TEXT,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL,
	is_override      BOOLEAN NOT NULL DEFAULT false
);

CREATE INDEX IF NOT EXISTS idx_results_benchmark ON results(benchmark_id);
CREATE INDEX IF NOT EXISTS idx_results_model ON results(model_id);
CREATE INDEX IF NOT EXISTS idx_models_provider ON models(provider);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertSource(ctx context.Context, src model.Source) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sources
			(source_id, source_type, source_title, source_url, retrieved_at,
			 parse_method, raw_snapshot_path, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_id) DO UPDATE SET
			source_type = EXCLUDED.source_type,
			source_title = EXCLUDED.source_title,
			source_url = EXCLUDED.source_url,
			retrieved_at = EXCLUDED.retrieved_at,
			parse_method = EXCLUDED.parse_method,
			raw_snapshot_path = EXCLUDED.raw_snapshot_path,
			notes = EXCLUDED.notes`,
		src.ID, string(src.Type), src.Title, src.URL, src.RetrievedAt.UTC(),
		string(src.ParseMethod), nullStr(src.RawSnapshotPath), nullStr(src.Notes),
		src.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert source %s", src.ID)
}

func (s *PostgresStore) UpsertBenchmark(ctx context.Context, b model.Benchmark) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO benchmarks
			(benchmark_id, name, category, description, unit, scale_min, scale_max,
			 higher_is_better, official_url, paper_url, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (benchmark_id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			unit = EXCLUDED.unit,
			scale_min = EXCLUDED.scale_min,
			scale_max = EXCLUDED.scale_max,
			higher_is_better = EXCLUDED.higher_is_better,
			official_url = EXCLUDED.official_url,
			paper_url = EXCLUDED.paper_url,
			notes = EXCLUDED.notes`,
		b.ID, b.Name, b.Category, b.Description, b.Unit, b.ScaleMin, b.ScaleMax,
		b.HigherIsBetter, nullStr(b.OfficialURL), nullStr(b.PaperURL), nullStr(b.Notes),
		b.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert benchmark %s", b.ID)
}

func (s *PostgresStore) UpsertModel(ctx context.Context, m model.Model) error {
	meta, err := json.Marshal(m.Metadata)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal metadata for %s", m.ID)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO models
			(model_id, name, provider, family, release_date, release_date_source,
			 status, parameter_count_b, training_compute_flop, training_compute_notes,
			 metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (model_id) DO UPDATE SET
			name = EXCLUDED.name,
			provider = EXCLUDED.provider,
			family = EXCLUDED.family,
			release_date = EXCLUDED.release_date,
			release_date_source = EXCLUDED.release_date_source,
			status = EXCLUDED.status,
			parameter_count_b = EXCLUDED.parameter_count_b,
			training_compute_flop = EXCLUDED.training_compute_flop,
			training_compute_notes = EXCLUDED.training_compute_notes,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at`,
		m.ID, m.Name, m.Provider, nullStr(m.Family), pgDate(m.ReleaseDate),
		nullStr(m.ReleaseDateSource), string(m.Status), m.ParameterCountB,
		m.TrainingComputeFLOP, nullStr(m.TrainingComputeNotes), meta,
		m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert model %s", m.ID)
}

func (s *PostgresStore) UpsertResults(ctx context.Context, results []model.Result) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const upsertSQL = `
		INSERT INTO results
			(result_id, model_id, benchmark_id, score, score_stderr,
			 score_ci_low, score_ci_high, evaluation_date, source_id, trust_tier,
			 evaluation_notes, created_at, updated_at, is_override)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (result_id) DO UPDATE SET
			score = EXCLUDED.score,
			score_stderr = EXCLUDED.score_stderr,
			score_ci_low = EXCLUDED.score_ci_low,
			score_ci_high = EXCLUDED.score_ci_high,
			evaluation_date = EXCLUDED.evaluation_date,
			source_id = EXCLUDED.source_id,
			trust_tier = EXCLUDED.trust_tier,
			evaluation_notes = EXCLUDED.evaluation_notes,
			updated_at = EXCLUDED.updated_at,
			is_override = EXCLUDED.is_override`

	for _, r := range results {
		if _, err := tx.Exec(ctx, upsertSQL,
			r.ID, r.ModelID, r.BenchmarkID, r.Score, r.ScoreStderr,
			r.ScoreCILow, r.ScoreCIHigh, pgDate(r.EvaluationDate), r.SourceID,
			string(r.TrustTier), nullStr(r.EvaluationNotes),
			r.CreatedAt.UTC(), r.UpdatedAt.UTC(), r.IsOverride,
		); err != nil {
			return 0, eris.Wrapf(err, "postgres: upsert result %s", r.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit results")
	}
	return len(results), nil
}

const pgResultRowColumns = `
	r.result_id, r.model_id, r.benchmark_id, r.score, r.score_stderr,
	r.score_ci_low, r.score_ci_high, r.evaluation_date, r.source_id,
	r.trust_tier, r.evaluation_notes, r.created_at, r.updated_at, r.is_override,
	m.name, m.provider, m.family, m.release_date,
	s.source_type, s.source_title, s.source_url`

func (s *PostgresStore) ResultsForBenchmark(ctx context.Context, benchmarkID string, filter ResultFilter) ([]ResultRow, error) {
	query := `SELECT ` + pgResultRowColumns + `
		FROM results r
		JOIN models m ON r.model_id = m.model_id
		JOIN sources s ON r.source_id = s.source_id
		WHERE r.benchmark_id = $1`
	args := []any{benchmarkID}

	if filter.MinDate != nil {
		args = append(args, *filter.MinDate)
		query += fmt.Sprintf(` AND COALESCE(r.evaluation_date, m.release_date) >= $%d`, len(args))
	}
	if filter.MaxDate != nil {
		args = append(args, *filter.MaxDate)
		query += fmt.Sprintf(` AND COALESCE(r.evaluation_date, m.release_date) <= $%d`, len(args))
	}
	if len(filter.Providers) > 0 {
		args = append(args, filter.Providers)
		query += fmt.Sprintf(` AND m.provider = ANY($%d)`, len(args))
	}
	if filter.OfficialOnly {
		query += ` AND r.trust_tier = 'A'`
	} else if len(filter.TrustTiers) > 0 {
		tiers := make([]string, len(filter.TrustTiers))
		for i, t := range filter.TrustTiers {
			tiers[i] = string(t)
		}
		args = append(args, tiers)
		query += fmt.Sprintf(` AND r.trust_tier = ANY($%d)`, len(args))
	}

	query += ` ORDER BY COALESCE(r.evaluation_date, m.release_date) ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: results for benchmark %s", benchmarkID)
	}
	defer rows.Close()

	return scanPgResultRows(rows)
}

func (s *PostgresStore) ResultsForModel(ctx context.Context, modelID string) ([]ResultRow, error) {
	query := `SELECT ` + pgResultRowColumns + `
		FROM results r
		JOIN models m ON r.model_id = m.model_id
		JOIN sources s ON r.source_id = s.source_id
		WHERE r.model_id = $1
		ORDER BY r.benchmark_id ASC`

	rows, err := s.pool.Query(ctx, query, modelID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: results for model %s", modelID)
	}
	defer rows.Close()

	return scanPgResultRows(rows)
}

func (s *PostgresStore) GetResult(ctx context.Context, resultID string) (*ResultRow, error) {
	query := `SELECT ` + pgResultRowColumns + `
		FROM results r
		JOIN models m ON r.model_id = m.model_id
		JOIN sources s ON r.source_id = s.source_id
		WHERE r.result_id = $1`

	rows, err := s.pool.Query(ctx, query, resultID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get result %s", resultID)
	}
	defer rows.Close()

	out, err := scanPgResultRows(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (s *PostgresStore) AllBenchmarks(ctx context.Context) ([]model.Benchmark, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT benchmark_id, name, category, description, unit, scale_min, scale_max,
		       higher_is_better, official_url, paper_url, notes, created_at
		FROM benchmarks ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: all benchmarks")
	}
	defer rows.Close()

	var out []model.Benchmark
	for rows.Next() {
		b, err := scanPgBenchmark(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, eris.Wrap(rows.Err(), "postgres: all benchmarks iterate")
}

func (s *PostgresStore) GetBenchmark(ctx context.Context, benchmarkID string) (*model.Benchmark, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT benchmark_id, name, category, description, unit, scale_min, scale_max,
		       higher_is_better, official_url, paper_url, notes, created_at
		FROM benchmarks WHERE benchmark_id = $1`, benchmarkID)

	b, err := scanPgBenchmark(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get benchmark %s", benchmarkID)
	}
	return b, nil
}

func (s *PostgresStore) QualitySummary(ctx context.Context) (*QualitySummary, error) {
	sum := &QualitySummary{TierDistribution: make(map[model.TrustTier]int)}

	row := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM results),
			(SELECT COUNT(*) FROM models),
			(SELECT COUNT(*) FROM benchmarks),
			(SELECT COUNT(*) FROM results WHERE score IS NULL)`)
	if err := row.Scan(&sum.TotalResults, &sum.TotalModels, &sum.TotalBenchmarks, &sum.MissingScores); err != nil {
		return nil, eris.Wrap(err, "postgres: quality summary counts")
	}

	tierRows, err := s.pool.Query(ctx,
		`SELECT trust_tier, COUNT(*) FROM results GROUP BY trust_tier`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: quality summary tiers")
	}
	defer tierRows.Close()
	for tierRows.Next() {
		var tier string
		var count int
		if err := tierRows.Scan(&tier, &count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tier count")
		}
		sum.TierDistribution[model.TrustTier(tier)] = count
	}
	if err := tierRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: quality summary tiers iterate")
	}

	covRows, err := s.pool.Query(ctx, `
		SELECT b.benchmark_id, b.name,
		       COUNT(DISTINCT r.model_id),
		       COUNT(r.result_id),
		       COUNT(CASE WHEN r.score IS NOT NULL THEN 1 END)
		FROM benchmarks b
		LEFT JOIN results r ON b.benchmark_id = r.benchmark_id
		GROUP BY b.benchmark_id, b.name
		ORDER BY b.name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: quality summary coverage")
	}
	defer covRows.Close()
	for covRows.Next() {
		var c BenchmarkCoverage
		if err := covRows.Scan(&c.BenchmarkID, &c.Name, &c.ModelCount, &c.ResultCount, &c.ValidScores); err != nil {
			return nil, eris.Wrap(err, "postgres: scan coverage")
		}
		sum.Coverage = append(sum.Coverage, c)
	}
	return sum, eris.Wrap(covRows.Err(), "postgres: quality summary coverage iterate")
}

func scanPgBenchmark(row pgx.Row) (*model.Benchmark, error) {
	var b model.Benchmark
	var officialURL, paperURL, notes *string
	if err := row.Scan(&b.ID, &b.Name, &b.Category, &b.Description, &b.Unit,
		&b.ScaleMin, &b.ScaleMax, &b.HigherIsBetter, &officialURL, &paperURL,
		&notes, &b.CreatedAt); err != nil {
		return nil, eris.Wrap(err, "postgres: scan benchmark")
	}
	b.OfficialURL = deref(officialURL)
	b.PaperURL = deref(paperURL)
	b.Notes = deref(notes)
	return &b, nil
}

func scanPgResultRows(rows pgx.Rows) ([]ResultRow, error) {
	var out []ResultRow
	for rows.Next() {
		var rr ResultRow
		var evalDate, releaseDate *time.Time
		var family, notes *string
		var tier, srcType string

		if err := rows.Scan(
			&rr.ID, &rr.ModelID, &rr.BenchmarkID, &rr.Score, &rr.ScoreStderr,
			&rr.ScoreCILow, &rr.ScoreCIHigh, &evalDate, &rr.SourceID,
			&tier, &notes, &rr.CreatedAt, &rr.UpdatedAt, &rr.IsOverride,
			&rr.ModelName, &rr.Provider, &family, &releaseDate,
			&srcType, &rr.SourceTitle, &rr.SourceURL,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result row")
		}

		rr.EvaluationDate = evalDate
		rr.TrustTier = model.TrustTier(tier)
		rr.EvaluationNotes = deref(notes)
		rr.Family = deref(family)
		rr.ModelReleaseDate = releaseDate
		rr.SourceType = model.SourceType(srcType)

		out = append(out, rr)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate result rows")
}

func pgDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ Store = (*PostgresStore)(nil)
