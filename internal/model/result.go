package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Result is the atomic benchmark fact. A nil Score is an explicit
// "unknown", never zero. Every Result carries mandatory provenance:
// construction fails without a source ID and a valid trust tier.
type Result struct {
	ID          string `json:"result_id"`
	ModelID     string `json:"model_id"`
	BenchmarkID string `json:"benchmark_id"`

	Score       *float64 `json:"score,omitempty"`
	ScoreStderr *float64 `json:"score_stderr,omitempty"`
	ScoreCILow  *float64 `json:"score_ci_low,omitempty"`
	ScoreCIHigh *float64 `json:"score_ci_high,omitempty"`

	EvaluationDate *time.Time `json:"evaluation_date,omitempty"`

	SourceID        string    `json:"source_id"`
	TrustTier       TrustTier `json:"trust_tier"`
	EvaluationNotes string    `json:"evaluation_notes,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	IsOverride bool      `json:"is_override"`
}

// NewResult constructs a Result and enforces the provenance invariant.
// modelID, benchmarkID, sourceID, and a valid tier are all required.
func NewResult(modelID, benchmarkID, sourceID string, tier TrustTier, evalDate *time.Time) (*Result, error) {
	if modelID == "" {
		return nil, eris.New("result: model_id is required")
	}
	if benchmarkID == "" {
		return nil, eris.New("result: benchmark_id is required")
	}
	if sourceID == "" {
		return nil, eris.New("result: source_id is required for all results")
	}
	if !tier.Valid() {
		return nil, eris.Errorf("result: invalid trust tier %q", string(tier))
	}

	now := time.Now().UTC()
	return &Result{
		ID:             ResultID(modelID, benchmarkID, evalDate),
		ModelID:        modelID,
		BenchmarkID:    benchmarkID,
		EvaluationDate: evalDate,
		SourceID:       sourceID,
		TrustTier:      tier,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ResultID derives the deterministic result identifier. Re-ingesting the
// same model/benchmark/date combination produces the same ID, so upserts
// overwrite rather than duplicate. A nil date hashes as "unknown".
func ResultID(modelID, benchmarkID string, evalDate *time.Time) string {
	dateStr := "unknown"
	if evalDate != nil {
		dateStr = evalDate.Format("2006-01-02")
	}
	return truncatedHash(modelID + ":" + benchmarkID + ":" + dateStr)
}

// EffectiveDate returns the date used for time-series placement:
// the evaluation date when known, else the model's release date.
// ok is false when neither is available, making the result unusable
// for frontier purposes.
func (r *Result) EffectiveDate(modelRelease *time.Time) (time.Time, bool) {
	if r.EvaluationDate != nil {
		return *r.EvaluationDate, true
	}
	if modelRelease != nil {
		return *modelRelease, true
	}
	return time.Time{}, false
}
