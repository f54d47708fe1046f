package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/atlas-research/bench-cli/internal/model"
)

// parseFloat returns nil for empty, "None", "N/A", or unparseable values.
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	switch s {
	case "", "None", "N/A", "-", "—":
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &f
}

// asPercent coerces fractional scores (0-1) onto the percent scale.
// Upstream CSVs mix the two conventions freely.
func asPercent(v *float64) *float64 {
	if v == nil || *v > 1 {
		return v
	}
	scaled := *v * 100
	return &scaled
}

// newSource builds a provenance record stamped at now.
func newSource(url string, st model.SourceType, title string, pm model.ParseMethod, snapshotPath string) model.Source {
	now := time.Now().UTC()
	return model.Source{
		ID:              model.SourceID(url, now),
		Type:            st,
		Title:           title,
		URL:             url,
		RetrievedAt:     now,
		ParseMethod:     pm,
		RawSnapshotPath: snapshotPath,
		CreatedAt:       now,
	}
}
