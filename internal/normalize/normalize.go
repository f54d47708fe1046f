// Package normalize canonicalizes model names, providers, and dates coming
// out of heterogeneous scraped sources. The output of this package determines
// Model and Result identity, so the mapping tables must stay stable across
// runs: changing them retroactively changes historical IDs.
package normalize

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ProviderUnknown is returned when no pattern matches a model name.
const ProviderUnknown = "Unknown"

// providerPatterns maps a provider to the name substrings that identify it.
// Order matters: the first matching provider wins.
var providerPatterns = []struct {
	provider string
	patterns []string
}{
	{"OpenAI", []string{"gpt-", "o1-", "o3-", "o4-", "davinci", "text-"}},
	{"Anthropic", []string{"claude", "opus", "sonnet", "haiku"}},
	{"Google DeepMind", []string{"gemini", "palm", "bard"}},
	{"Meta", []string{"llama", "codellama"}},
	{"Mistral", []string{"mistral", "mixtral"}},
	{"xAI", []string{"grok"}},
	{"Cohere", []string{"command", "cohere"}},
	{"DeepSeek", []string{"deepseek"}},
	{"Alibaba", []string{"qwen"}},
}

// familyPatterns maps a model family to identifying substrings.
var familyPatterns = []struct {
	family   string
	patterns []string
}{
	{"gpt-4", []string{"gpt-4", "gpt4"}},
	{"gpt-3.5", []string{"gpt-3.5", "gpt3.5"}},
	{"o1", []string{"o1-"}},
	{"o3", []string{"o3-"}},
	{"o4", []string{"o4-"}},
	{"claude-3.5", []string{"claude-3-5", "claude-3.5", "sonnet-3.5"}},
	{"claude-3.7", []string{"claude-3-7", "claude-3.7"}},
	{"claude-4", []string{"claude-4", "sonnet-4", "opus-4"}},
	{"gemini-1.5", []string{"gemini-1.5", "gemini-1-5"}},
	{"gemini-2", []string{"gemini-2"}},
	{"grok-3", []string{"grok-3"}},
	{"llama-3", []string{"llama-3", "llama3"}},
	{"deepseek", []string{"deepseek"}},
	{"qwen", []string{"qwen"}},
}

// InferProvider guesses the provider organization from a raw model name.
func InferProvider(modelName string) string {
	lower := strings.ToLower(modelName)
	for _, p := range providerPatterns {
		for _, pat := range p.patterns {
			if strings.Contains(lower, pat) {
				return p.provider
			}
		}
	}
	return ProviderUnknown
}

// InferFamily guesses the model family from a raw model name.
// Returns "" when no family matches.
func InferFamily(modelName string) string {
	lower := strings.ToLower(modelName)
	for _, f := range familyPatterns {
		for _, pat := range f.patterns {
			if strings.Contains(lower, pat) {
				return f.family
			}
		}
	}
	return ""
}

// ModelID builds the canonical "provider:name" identifier. The provider is
// inferred when empty. Both halves are lowercased, diacritics folded, and
// any character outside [a-z0-9._-] collapsed to underscore.
func ModelID(rawName, provider string) string {
	name := strings.TrimSpace(rawName)
	if provider == "" {
		provider = InferProvider(name)
	}
	return slug(provider) + ":" + slug(name)
}

// foldDiacritics strips combining marks ("Café" -> "Cafe").
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func slug(s string) string {
	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// dateFormats are tried in order by ParseDate.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"01/02/2006",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000Z",
	time.RFC3339,
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate parses a date string in any of the formats that appear in
// upstream leaderboard exports. Returns nil when the value is empty or
// unparseable; callers log a warning in the latter case.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "N/A" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &day
		}
	}
	return nil
}
