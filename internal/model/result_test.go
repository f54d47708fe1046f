package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dateOf(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestResultID_Deterministic(t *testing.T) {
	d := dateOf(2024, time.June, 1)

	first := ResultID("openai:gpt-4", "swe_bench_verified", d)
	second := ResultID("openai:gpt-4", "swe_bench_verified", d)
	assert.Equal(t, first, second)
	assert.Len(t, first, 16)

	// A different date yields a different ID.
	other := ResultID("openai:gpt-4", "swe_bench_verified", dateOf(2024, time.June, 2))
	assert.NotEqual(t, first, other)

	// A nil date hashes as "unknown" and is stable too.
	unknown := ResultID("openai:gpt-4", "swe_bench_verified", nil)
	assert.Equal(t, unknown, ResultID("openai:gpt-4", "swe_bench_verified", nil))
	assert.NotEqual(t, first, unknown)
}

func TestNewResult_ProvenanceRequired(t *testing.T) {
	_, err := NewResult("openai:gpt-4", "swe_bench_verified", "", TierA, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source_id")

	_, err = NewResult("openai:gpt-4", "swe_bench_verified", "abc123", TrustTier(""), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trust tier")

	_, err = NewResult("openai:gpt-4", "swe_bench_verified", "abc123", TrustTier("D"), nil)
	require.Error(t, err)

	r, err := NewResult("openai:gpt-4", "swe_bench_verified", "abc123", TierA, dateOf(2024, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, ResultID("openai:gpt-4", "swe_bench_verified", dateOf(2024, time.June, 1)), r.ID)
	assert.Nil(t, r.Score, "score starts as explicit unknown")
}

func TestNewResult_MissingKeys(t *testing.T) {
	_, err := NewResult("", "swe_bench_verified", "abc123", TierA, nil)
	require.Error(t, err)

	_, err = NewResult("openai:gpt-4", "", "abc123", TierA, nil)
	require.Error(t, err)
}

func TestEffectiveDate(t *testing.T) {
	eval := dateOf(2024, time.March, 10)
	release := dateOf(2024, time.January, 5)

	r := &Result{EvaluationDate: eval}
	got, ok := r.EffectiveDate(release)
	require.True(t, ok)
	assert.Equal(t, *eval, got, "evaluation date wins when present")

	r = &Result{}
	got, ok = r.EffectiveDate(release)
	require.True(t, ok)
	assert.Equal(t, *release, got, "falls back to model release date")

	_, ok = r.EffectiveDate(nil)
	assert.False(t, ok, "no usable date")
}

func TestSourceID_TimestampDistinguishes(t *testing.T) {
	at := time.Date(2025, time.February, 1, 12, 0, 0, 0, time.UTC)

	a := SourceID("https://www.swebench.com/", at)
	b := SourceID("https://www.swebench.com/", at)
	assert.Equal(t, a, b, "same url and instant is idempotent")
	assert.Len(t, a, 16)

	c := SourceID("https://www.swebench.com/", at.Add(time.Second))
	assert.NotEqual(t, a, c, "later fetch is a distinct source")
}

func TestTierForSourceType(t *testing.T) {
	assert.Equal(t, TierA, TierForSourceType(SourceOfficialLeaderboard))
	assert.Equal(t, TierA, TierForSourceType(SourceOfficialPaper))
	assert.Equal(t, TierB, TierForSourceType(SourceOfficialBlog))
	assert.Equal(t, TierB, TierForSourceType(SourceThirdPartyLeaderboard))
	assert.Equal(t, TierC, TierForSourceType(SourceThirdPartyEval))
	assert.Equal(t, TierC, TierForSourceType(SourceManualEntry))
}

func TestOverride_Validate(t *testing.T) {
	err := Override{Field: "score", NewValue: 42.0, Reason: "unit fix"}.Validate()
	require.Error(t, err, "needs a target")

	err = Override{ResultID: "abc", NewValue: 42.0, Reason: "unit fix"}.Validate()
	require.Error(t, err, "needs a field")

	err = Override{ResultID: "abc", Field: "score", NewValue: 42.0}.Validate()
	require.Error(t, err, "needs a reason")

	err = Override{ResultID: "abc", Field: "score", NewValue: 42.0, Reason: "unit fix"}.Validate()
	assert.NoError(t, err)
}
