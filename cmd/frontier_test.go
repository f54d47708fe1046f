package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-research/bench-cli/internal/model"
)

func TestBuildResultFilter(t *testing.T) {
	f, err := buildResultFilter(true, []string{"OpenAI", "Anthropic"}, []string{"a", "B"}, "2025-01-01", "")
	require.NoError(t, err)

	assert.True(t, f.OfficialOnly)
	assert.Equal(t, []string{"OpenAI", "Anthropic"}, f.Providers)
	assert.Equal(t, []model.TrustTier{model.TierA, model.TierB}, f.TrustTiers)
	require.NotNil(t, f.MinDate)
	assert.Equal(t, "2025-01-01", f.MinDate.Format("2006-01-02"))
	assert.Nil(t, f.MaxDate)
}

func TestBuildResultFilterRejectsBadInput(t *testing.T) {
	_, err := buildResultFilter(false, nil, []string{"D"}, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trust tier")

	_, err = buildResultFilter(false, nil, nil, "01/02/2025", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min-date")
}
