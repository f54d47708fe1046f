package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// ChangelogEntry is one line of the append-only audit log. Entries are
// never mutated or deleted.
type ChangelogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"` // insert, update, override
	Table     string         `json:"table"`  // results, models, benchmarks, sources
	RecordID  string         `json:"record_id"`
	OldValue  map[string]any `json:"old_value,omitempty"`
	NewValue  map[string]any `json:"new_value,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Source    string         `json:"source"` // originating actor, e.g. "ingestor:<run_id>"
}

// Override is a manual correction loaded from overrides.yml. At least one
// of ResultID, ModelID, or BenchmarkID must target the correction.
type Override struct {
	ResultID     string     `yaml:"result_id,omitempty"`
	ModelID      string     `yaml:"model_id,omitempty"`
	BenchmarkID  string     `yaml:"benchmark_id,omitempty"`
	Field        string     `yaml:"field"`
	OldValue     any        `yaml:"old_value,omitempty"`
	NewValue     any        `yaml:"new_value"`
	Reason       string     `yaml:"reason"`
	OverrideDate *time.Time `yaml:"override_date,omitempty"`
}

// Validate checks that the override names a target and a reason.
func (o Override) Validate() error {
	if o.ResultID == "" && o.ModelID == "" && o.BenchmarkID == "" {
		return eris.New("override: at least one of result_id, model_id, or benchmark_id is required")
	}
	if o.Field == "" {
		return eris.New("override: field is required")
	}
	if o.Reason == "" {
		return eris.New("override: reason is required")
	}
	return nil
}
