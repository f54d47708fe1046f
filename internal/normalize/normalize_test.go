package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferProvider(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"GPT-4o", "OpenAI"},
		{"o3-mini High", "OpenAI"},
		{"Claude 3.5 Sonnet", "Anthropic"},
		{"Gemini 2.0 Flash", "Google DeepMind"},
		{"Llama-3.1-405B", "Meta"},
		{"Mixtral 8x22B", "Mistral"},
		{"Grok-3", "xAI"},
		{"DeepSeek-R1", "DeepSeek"},
		{"Qwen2.5-Coder", "Alibaba"},
		{"SomeRandomModel", ProviderUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, InferProvider(tt.name), tt.name)
	}
}

func TestInferFamily(t *testing.T) {
	assert.Equal(t, "claude-3.5", InferFamily("Claude 3.5 Sonnet (claude-3-5-sonnet)"))
	assert.Equal(t, "gpt-4", InferFamily("GPT-4o mini"))
	assert.Equal(t, "o3", InferFamily("o3-mini"))
	assert.Equal(t, "gemini-2", InferFamily("Gemini 2.0 Pro"))
	assert.Equal(t, "", InferFamily("Mystery Model"))
}

func TestModelID(t *testing.T) {
	assert.Equal(t, "openai:gpt-4o", ModelID("GPT-4o", "OpenAI"))
	assert.Equal(t, "anthropic:claude_3.5_sonnet", ModelID("Claude 3.5 Sonnet", "Anthropic"))

	// Provider inferred when not supplied.
	assert.Equal(t, "anthropic:claude_3.5_sonnet", ModelID("Claude 3.5 Sonnet", ""))
	assert.Equal(t, "unknown:mystery_model", ModelID("Mystery Model", ""))

	// Diacritics fold instead of collapsing to underscore.
	assert.Equal(t, "mistral:modele_cafe", ModelID("Modèle Café", "Mistral"))

	// Stability: identity must not drift between calls.
	assert.Equal(t, ModelID("GPT-4o", ""), ModelID("GPT-4o", ""))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	for _, s := range []string{
		"2024-06-01",
		"2024/06/01",
		"06/01/2024",
		"2024-06-01T10:30:00",
		"Jun 1, 2024",
	} {
		got := ParseDate(s)
		require.NotNil(t, got, s)
		assert.Equal(t, want, *got, s)
	}

	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("None"))
	assert.Nil(t, ParseDate("not a date"))
}
