package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/atlas-research/bench-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sources (
	source_id         TEXT PRIMARY KEY,
	source_type       TEXT NOT NULL,
	source_title      TEXT NOT NULL,
	source_url        TEXT NOT NULL,
	retrieved_at      DATETIME NOT NULL,
	parse_method      TEXT NOT NULL,
	raw_snapshot_path TEXT,
	notes             TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS benchmarks (
	benchmark_id     TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	category         TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	unit             TEXT NOT NULL DEFAULT 'percent',
	scale_min        REAL NOT NULL DEFAULT 0,
	scale_max        REAL NOT NULL DEFAULT 100,
	higher_is_better INTEGER NOT NULL DEFAULT 1,
	official_url     TEXT,
	paper_url        TEXT,
	notes            TEXT,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS models (
	model_id               TEXT PRIMARY KEY,
	name                   TEXT NOT NULL,
	provider               TEXT NOT NULL,
	family                 TEXT,
	release_date           TEXT,
	release_date_source    TEXT,
	status                 TEXT NOT NULL DEFAULT 'verified',
	parameter_count_b      REAL,
	training_compute_flop  REAL,
	training_compute_notes TEXT,
	metadata               TEXT NOT NULL DEFAULT '{}',
	created_at             DATETIME NOT NULL,
	updated_at             DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	result_id       TEXT PRIMARY KEY,
	model_id        TEXT NOT NULL REFERENCES models(model_id),
	benchmark_id    TEXT NOT NULL REFERENCES benchmarks(benchmark_id),
	score           REAL,
	score_stderr    REAL,
	score_ci_low    REAL,
	score_ci_high   REAL,
	evaluation_date TEXT,
	source_id       TEXT NOT NULL REFERENCES sources(source_id),
	trust_tier      TEXT NOT NULL,
	evaluation_notes TEXT,
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL,
	is_override     INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_results_benchmark ON results(benchmark_id);
CREATE INDEX IF NOT EXISTS idx_results_model ON results(model_id);
CREATE INDEX IF NOT EXISTS idx_results_source ON results(source_id);
CREATE INDEX IF NOT EXISTS idx_models_provider ON models(provider);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertSource(ctx context.Context, src model.Source) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sources
			(source_id, source_type, source_title, source_url, retrieved_at,
			 parse_method, raw_snapshot_path, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			source_type = excluded.source_type,
			source_title = excluded.source_title,
			source_url = excluded.source_url,
			retrieved_at = excluded.retrieved_at,
			parse_method = excluded.parse_method,
			raw_snapshot_path = excluded.raw_snapshot_path,
			notes = excluded.notes`,
		src.ID, string(src.Type), src.Title, src.URL, src.RetrievedAt.UTC(),
		string(src.ParseMethod), nullStr(src.RawSnapshotPath), nullStr(src.Notes),
		src.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert source %s", src.ID)
}

func (s *SQLiteStore) UpsertBenchmark(ctx context.Context, b model.Benchmark) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO benchmarks
			(benchmark_id, name, category, description, unit, scale_min, scale_max,
			 higher_is_better, official_url, paper_url, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(benchmark_id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			description = excluded.description,
			unit = excluded.unit,
			scale_min = excluded.scale_min,
			scale_max = excluded.scale_max,
			higher_is_better = excluded.higher_is_better,
			official_url = excluded.official_url,
			paper_url = excluded.paper_url,
			notes = excluded.notes`,
		b.ID, b.Name, b.Category, b.Description, b.Unit, b.ScaleMin, b.ScaleMax,
		b.HigherIsBetter, nullStr(b.OfficialURL), nullStr(b.PaperURL), nullStr(b.Notes),
		b.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert benchmark %s", b.ID)
}

func (s *SQLiteStore) UpsertModel(ctx context.Context, m model.Model) error {
	meta, err := json.Marshal(m.Metadata)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal metadata for %s", m.ID)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO models
			(model_id, name, provider, family, release_date, release_date_source,
			 status, parameter_count_b, training_compute_flop, training_compute_notes,
			 metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(model_id) DO UPDATE SET
			name = excluded.name,
			provider = excluded.provider,
			family = excluded.family,
			release_date = excluded.release_date,
			release_date_source = excluded.release_date_source,
			status = excluded.status,
			parameter_count_b = excluded.parameter_count_b,
			training_compute_flop = excluded.training_compute_flop,
			training_compute_notes = excluded.training_compute_notes,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`,
		m.ID, m.Name, m.Provider, nullStr(m.Family), dateStr(m.ReleaseDate),
		nullStr(m.ReleaseDateSource), string(m.Status), m.ParameterCountB,
		m.TrainingComputeFLOP, nullStr(m.TrainingComputeNotes), string(meta),
		m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert model %s", m.ID)
}

func (s *SQLiteStore) UpsertResults(ctx context.Context, results []model.Result) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results
			(result_id, model_id, benchmark_id, score, score_stderr,
			 score_ci_low, score_ci_high, evaluation_date, source_id, trust_tier,
			 evaluation_notes, created_at, updated_at, is_override)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(result_id) DO UPDATE SET
			score = excluded.score,
			score_stderr = excluded.score_stderr,
			score_ci_low = excluded.score_ci_low,
			score_ci_high = excluded.score_ci_high,
			evaluation_date = excluded.evaluation_date,
			source_id = excluded.source_id,
			trust_tier = excluded.trust_tier,
			evaluation_notes = excluded.evaluation_notes,
			updated_at = excluded.updated_at,
			is_override = excluded.is_override`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert results")
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.ModelID, r.BenchmarkID, r.Score, r.ScoreStderr,
			r.ScoreCILow, r.ScoreCIHigh, dateStr(r.EvaluationDate), r.SourceID,
			string(r.TrustTier), nullStr(r.EvaluationNotes),
			r.CreatedAt.UTC(), r.UpdatedAt.UTC(), r.IsOverride,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert result %s", r.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit results")
	}
	return len(results), nil
}

const resultRowColumns = `
	r.result_id, r.model_id, r.benchmark_id, r.score, r.score_stderr,
	r.score_ci_low, r.score_ci_high, r.evaluation_date, r.source_id,
	r.trust_tier, r.evaluation_notes, r.created_at, r.updated_at, r.is_override,
	m.name, m.provider, m.family, m.release_date,
	s.source_type, s.source_title, s.source_url`

func (s *SQLiteStore) ResultsForBenchmark(ctx context.Context, benchmarkID string, filter ResultFilter) ([]ResultRow, error) {
	query := `SELECT ` + resultRowColumns + `
		FROM results r
		JOIN models m ON r.model_id = m.model_id
		JOIN sources s ON r.source_id = s.source_id
		WHERE r.benchmark_id = ?`
	args := []any{benchmarkID}

	if filter.MinDate != nil {
		query += ` AND COALESCE(r.evaluation_date, m.release_date) >= ?`
		args = append(args, filter.MinDate.Format("2006-01-02"))
	}
	if filter.MaxDate != nil {
		query += ` AND COALESCE(r.evaluation_date, m.release_date) <= ?`
		args = append(args, filter.MaxDate.Format("2006-01-02"))
	}
	if len(filter.Providers) > 0 {
		query += ` AND m.provider IN (` + placeholders(len(filter.Providers)) + `)`
		for _, p := range filter.Providers {
			args = append(args, p)
		}
	}
	if filter.OfficialOnly {
		query += ` AND r.trust_tier = 'A'`
	} else if len(filter.TrustTiers) > 0 {
		query += ` AND r.trust_tier IN (` + placeholders(len(filter.TrustTiers)) + `)`
		for _, t := range filter.TrustTiers {
			args = append(args, string(t))
		}
	}

	query += ` ORDER BY COALESCE(r.evaluation_date, m.release_date) ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: results for benchmark %s", benchmarkID)
	}
	defer func() { _ = rows.Close() }()

	return scanResultRows(rows)
}

func (s *SQLiteStore) ResultsForModel(ctx context.Context, modelID string) ([]ResultRow, error) {
	query := `SELECT ` + resultRowColumns + `
		FROM results r
		JOIN models m ON r.model_id = m.model_id
		JOIN sources s ON r.source_id = s.source_id
		WHERE r.model_id = ?
		ORDER BY r.benchmark_id ASC`

	rows, err := s.db.QueryContext(ctx, query, modelID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: results for model %s", modelID)
	}
	defer func() { _ = rows.Close() }()

	return scanResultRows(rows)
}

func (s *SQLiteStore) GetResult(ctx context.Context, resultID string) (*ResultRow, error) {
	query := `SELECT ` + resultRowColumns + `
		FROM results r
		JOIN models m ON r.model_id = m.model_id
		JOIN sources s ON r.source_id = s.source_id
		WHERE r.result_id = ?`

	rows, err := s.db.QueryContext(ctx, query, resultID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get result %s", resultID)
	}
	defer func() { _ = rows.Close() }()

	out, err := scanResultRows(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (s *SQLiteStore) AllBenchmarks(ctx context.Context) ([]model.Benchmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT benchmark_id, name, category, description, unit, scale_min, scale_max,
		       higher_is_better, official_url, paper_url, notes, created_at
		FROM benchmarks ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: all benchmarks")
	}
	defer func() { _ = rows.Close() }()

	var out []model.Benchmark
	for rows.Next() {
		b, err := scanBenchmark(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: all benchmarks iterate")
}

func (s *SQLiteStore) GetBenchmark(ctx context.Context, benchmarkID string) (*model.Benchmark, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT benchmark_id, name, category, description, unit, scale_min, scale_max,
		       higher_is_better, official_url, paper_url, notes, created_at
		FROM benchmarks WHERE benchmark_id = ?`, benchmarkID)

	b, err := scanBenchmark(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get benchmark %s", benchmarkID)
	}
	return b, nil
}

func (s *SQLiteStore) QualitySummary(ctx context.Context) (*QualitySummary, error) {
	sum := &QualitySummary{TierDistribution: make(map[model.TrustTier]int)}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM results`, &sum.TotalResults},
		{`SELECT COUNT(*) FROM models`, &sum.TotalModels},
		{`SELECT COUNT(*) FROM benchmarks`, &sum.TotalBenchmarks},
		{`SELECT COUNT(*) FROM results WHERE score IS NULL`, &sum.MissingScores},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, eris.Wrap(err, "sqlite: quality summary counts")
		}
	}

	tierRows, err := s.db.QueryContext(ctx,
		`SELECT trust_tier, COUNT(*) FROM results GROUP BY trust_tier`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: quality summary tiers")
	}
	defer func() { _ = tierRows.Close() }()
	for tierRows.Next() {
		var tier string
		var count int
		if err := tierRows.Scan(&tier, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tier count")
		}
		sum.TierDistribution[model.TrustTier(tier)] = count
	}
	if err := tierRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: quality summary tiers iterate")
	}

	covRows, err := s.db.QueryContext(ctx, `
		SELECT b.benchmark_id, b.name,
		       COUNT(DISTINCT r.model_id),
		       COUNT(r.result_id),
		       COUNT(CASE WHEN r.score IS NOT NULL THEN 1 END)
		FROM benchmarks b
		LEFT JOIN results r ON b.benchmark_id = r.benchmark_id
		GROUP BY b.benchmark_id, b.name
		ORDER BY b.name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: quality summary coverage")
	}
	defer func() { _ = covRows.Close() }()
	for covRows.Next() {
		var c BenchmarkCoverage
		if err := covRows.Scan(&c.BenchmarkID, &c.Name, &c.ModelCount, &c.ResultCount, &c.ValidScores); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan coverage")
		}
		sum.Coverage = append(sum.Coverage, c)
	}
	return sum, eris.Wrap(covRows.Err(), "sqlite: quality summary coverage iterate")
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBenchmark(row rowScanner) (*model.Benchmark, error) {
	var b model.Benchmark
	var higher int
	var officialURL, paperURL, notes sql.NullString
	if err := row.Scan(&b.ID, &b.Name, &b.Category, &b.Description, &b.Unit,
		&b.ScaleMin, &b.ScaleMax, &higher, &officialURL, &paperURL, &notes,
		&b.CreatedAt); err != nil {
		return nil, eris.Wrap(err, "sqlite: scan benchmark")
	}
	b.HigherIsBetter = higher != 0
	b.OfficialURL = officialURL.String
	b.PaperURL = paperURL.String
	b.Notes = notes.String
	return &b, nil
}

func scanResultRows(rows *sql.Rows) ([]ResultRow, error) {
	var out []ResultRow
	for rows.Next() {
		var rr ResultRow
		var score, stderr, ciLow, ciHigh sql.NullFloat64
		var evalDate, family, releaseDate, notes sql.NullString
		var tier, srcType string
		var isOverride int

		if err := rows.Scan(
			&rr.ID, &rr.ModelID, &rr.BenchmarkID, &score, &stderr,
			&ciLow, &ciHigh, &evalDate, &rr.SourceID,
			&tier, &notes, &rr.CreatedAt, &rr.UpdatedAt, &isOverride,
			&rr.ModelName, &rr.Provider, &family, &releaseDate,
			&srcType, &rr.SourceTitle, &rr.SourceURL,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result row")
		}

		rr.Score = nullableFloat(score)
		rr.ScoreStderr = nullableFloat(stderr)
		rr.ScoreCILow = nullableFloat(ciLow)
		rr.ScoreCIHigh = nullableFloat(ciHigh)
		rr.EvaluationDate = parseDateCol(evalDate)
		rr.TrustTier = model.TrustTier(tier)
		rr.EvaluationNotes = notes.String
		rr.IsOverride = isOverride != 0
		rr.Family = family.String
		rr.ModelReleaseDate = parseDateCol(releaseDate)
		rr.SourceType = model.SourceType(srcType)

		out = append(out, rr)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate result rows")
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func parseDateCol(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", v.String)
	if err != nil {
		return nil
	}
	return &t
}

func dateStr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var _ Store = (*SQLiteStore)(nil)
