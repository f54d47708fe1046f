package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/atlas-research/bench-cli/internal/fetcher"
	"github.com/atlas-research/bench-cli/internal/model"
	"github.com/atlas-research/bench-cli/internal/normalize"
)

const swebenchURL = "https://www.swebench.com/"

// swebenchVariants canonicalizes leaderboard entry names that encode
// scaffold or reasoning-effort variants. Ordered: more specific patterns
// first. Changing these retroactively changes model identities, so extend
// at the end only.
var swebenchVariants = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`(?i)o3.*high`), "o3 High"},
	{regexp.MustCompile(`(?i)o3.*medium`), "o3 Medium"},
	{regexp.MustCompile(`(?i)o3.*low`), "o3 Low"},
	{regexp.MustCompile(`(?i)gpt-?5.*high`), "GPT-5 High"},
	{regexp.MustCompile(`(?i)gpt-?5.*medium`), "GPT-5 Medium"},
	{regexp.MustCompile(`(?i)gpt-?5`), "GPT-5"},
	{regexp.MustCompile(`(?i)claude.?opus.?4`), "Claude 4 Opus"},
	{regexp.MustCompile(`(?i)claude.?4.?opus`), "Claude 4 Opus"},
	{regexp.MustCompile(`(?i)claude.?sonnet.?4`), "Claude 4 Sonnet"},
	{regexp.MustCompile(`(?i)gemini.?3.*pro`), "Gemini 3 Pro"},
	{regexp.MustCompile(`(?i)gemini.?2.*flash`), "Gemini 2 Flash"},
}

// embedded leaderboard payload shapes seen in page source over time
var swebenchJSONPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)leaderboard\s*=\s*(\[.*?\]);`),
	regexp.MustCompile(`(?s)data\s*=\s*(\[.*?\]);`),
	regexp.MustCompile(`(?s)"results"\s*:\s*(\[.*?\])`),
}

// SWEBenchAdapter scrapes the official swebench.com leaderboard, the
// authoritative tier-A source for SWE-Bench Verified scores. It prefers
// JSON embedded in the page and falls back to the HTML table.
type SWEBenchAdapter struct {
	fetcher   fetcher.Fetcher
	benchmark model.Benchmark

	snapshotPath string
}

// NewSWEBenchAdapter creates the official SWE-Bench leaderboard adapter.
// The benchmark definition is shared with the Epoch fallback adapter so
// both stage identical metadata.
func NewSWEBenchAdapter(f fetcher.Fetcher, b model.Benchmark) *SWEBenchAdapter {
	return &SWEBenchAdapter{fetcher: f, benchmark: b}
}

func (a *SWEBenchAdapter) BenchmarkID() string        { return a.benchmark.ID }
func (a *SWEBenchAdapter) SourceName() string         { return "official" }
func (a *SWEBenchAdapter) Benchmark() model.Benchmark { return a.benchmark }

// FetchRaw downloads the leaderboard page and keeps a raw snapshot for
// provenance.
func (a *SWEBenchAdapter) FetchRaw(ctx context.Context) ([]byte, error) {
	path, err := a.fetcher.SaveSnapshot(ctx, swebenchURL, "swebench_official")
	if err != nil {
		return nil, err
	}
	a.snapshotPath = path

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "swebench: read snapshot %s", path)
	}
	return raw, nil
}

func (a *SWEBenchAdapter) Parse(_ context.Context, raw []byte) (*Staging, error) {
	st := NewStaging()

	src := newSource(
		swebenchURL,
		model.SourceOfficialLeaderboard,
		"SWE-Bench Official Leaderboard",
		model.ParseHTMLScrape,
		a.snapshotPath,
	)
	st.AddSource(src)

	if entries := extractEmbeddedJSON(raw); len(entries) > 0 {
		a.stageEntries(st, src, entries)
	}
	if len(st.Results) == 0 {
		if err := a.parseHTMLTable(st, src, raw); err != nil {
			return nil, err
		}
	}
	return st, nil
}

type swebenchEntry struct {
	name  string
	score float64
}

// extractEmbeddedJSON tries the known embedded payload shapes and returns
// the first one that decodes.
func extractEmbeddedJSON(raw []byte) []swebenchEntry {
	for _, re := range swebenchJSONPatterns {
		m := re.FindSubmatch(raw)
		if m == nil {
			continue
		}
		var rows []map[string]any
		if err := json.Unmarshal(m[1], &rows); err != nil {
			continue
		}

		var out []swebenchEntry
		for _, row := range rows {
			name := stringField(row, "model", "name")
			score, ok := floatField(row, "resolved_rate", "score", "accuracy")
			if name == "" || !ok {
				continue
			}
			out = append(out, swebenchEntry{name: name, score: score})
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func (a *SWEBenchAdapter) parseHTMLTable(st *Staging, src model.Source, raw []byte) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return eris.Wrap(err, "swebench: parse html")
	}

	table := doc.Find(`table[class*="leaderboard"], table[class*="results"]`).First()
	if table.Length() == 0 {
		table = doc.Find("table").First()
	}
	if table.Length() == 0 {
		st.Warnf("swebench: no leaderboard table found")
		return nil
	}

	scoreRe := regexp.MustCompile(`[\d.]+`)
	var entries []swebenchEntry
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		name := strings.TrimSpace(cells.Eq(0).Text())
		scoreText := scoreRe.FindString(cells.Eq(1).Text())
		score := parseFloat(scoreText)
		if name == "" || score == nil {
			return
		}
		entries = append(entries, swebenchEntry{name: name, score: *score})
	})

	a.stageEntries(st, src, entries)
	return nil
}

// stageEntries converts leaderboard entries to staged models and results.
// The leaderboard carries no evaluation dates, so results are dated by the
// retrieval day.
func (a *SWEBenchAdapter) stageEntries(st *Staging, src model.Source, entries []swebenchEntry) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	for _, e := range entries {
		name := canonicalVariant(e.name)
		provider := normalize.InferProvider(e.name)
		modelID := normalize.ModelID(name, provider)
		now := time.Now().UTC()

		st.AddModel(model.Model{
			ID:        modelID,
			Name:      name,
			Provider:  provider,
			Family:    normalize.InferFamily(e.name),
			Status:    model.StatusVerified,
			CreatedAt: now,
			UpdatedAt: now,
		})

		r, err := model.NewResult(modelID, a.benchmark.ID, src.ID, model.TierA, &today)
		if err != nil {
			st.Warnf("swebench: entry %q: %v", e.name, err)
			continue
		}
		score := e.score
		if score <= 1 {
			score *= 100
		}
		r.Score = &score
		r.EvaluationNotes = "Official SWE-Bench leaderboard result"
		st.AddResult(*r)
	}
}

func canonicalVariant(raw string) string {
	for _, v := range swebenchVariants {
		if v.re.MatchString(raw) {
			return v.name
		}
	}
	return raw
}

func stringField(row map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func floatField(row map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := row[k].(float64); ok {
			return v, true
		}
	}
	return 0, false
}
