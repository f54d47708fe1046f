package ingest

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/atlas-research/bench-cli/internal/changelog"
	"github.com/atlas-research/bench-cli/internal/model"
	"github.com/atlas-research/bench-cli/internal/store"
)

// overridesFile is the on-disk shape of overrides.yml.
type overridesFile struct {
	Overrides []model.Override `yaml:"overrides"`
}

// LoadOverrides parses overrides.yml. A missing file is an empty list, not
// an error; invalid entries fail the whole load so a typo cannot silently
// drop a correction.
func LoadOverrides(path string) ([]model.Override, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "overrides: read %s", path)
	}

	var f overridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "overrides: parse %s", path)
	}
	for i, o := range f.Overrides {
		if err := o.Validate(); err != nil {
			return nil, eris.Wrapf(err, "overrides: entry %d", i)
		}
	}
	return f.Overrides, nil
}

// OverrideApplier re-upserts manually corrected results with
// is_override=true and writes one changelog entry per applied correction.
type OverrideApplier struct {
	store store.Store
	clog  *changelog.Writer
}

// NewOverrideApplier creates an applier.
func NewOverrideApplier(st store.Store, clog *changelog.Writer) *OverrideApplier {
	return &OverrideApplier{store: st, clog: clog}
}

// Apply loads the overrides file and applies each result-level correction.
// Returns the number applied. Corrections targeting models or benchmarks
// are not supported and fail loudly rather than being skipped.
func (a *OverrideApplier) Apply(ctx context.Context, path string) (int, error) {
	log := zap.L().With(zap.String("component", "ingest.overrides"))

	overrides, err := LoadOverrides(path)
	if err != nil {
		return 0, err
	}
	if len(overrides) == 0 {
		return 0, nil
	}

	applied := 0
	for _, o := range overrides {
		if o.ResultID == "" {
			return applied, eris.Errorf("overrides: only result-level overrides are supported (field %q, reason %q)", o.Field, o.Reason)
		}

		row, err := a.store.GetResult(ctx, o.ResultID)
		if err != nil {
			return applied, err
		}
		if row == nil {
			log.Warn("override targets unknown result", zap.String("result_id", o.ResultID))
			continue
		}

		updated := row.Result
		oldVal, err := applyField(&updated, o)
		if err != nil {
			return applied, err
		}
		updated.IsOverride = true
		updated.UpdatedAt = time.Now().UTC()

		if _, err := a.store.UpsertResults(ctx, []model.Result{updated}); err != nil {
			return applied, err
		}

		if a.clog != nil {
			entry := model.ChangelogEntry{
				Timestamp: time.Now().UTC(),
				Action:    "override",
				Table:     "results",
				RecordID:  o.ResultID,
				OldValue:  map[string]any{o.Field: oldVal},
				NewValue:  map[string]any{o.Field: o.NewValue},
				Reason:    o.Reason,
				Source:    "overrides.yml",
			}
			if err := a.clog.Append(entry); err != nil {
				log.Warn("changelog append failed", zap.Error(err))
			}
		}

		applied++
		log.Info("override applied",
			zap.String("result_id", o.ResultID),
			zap.String("field", o.Field),
			zap.String("reason", o.Reason),
		)
	}
	return applied, nil
}

// applyField mutates the named field and returns its previous value.
func applyField(r *model.Result, o model.Override) (any, error) {
	switch o.Field {
	case "score":
		old := r.Score
		v, err := toFloat(o.NewValue)
		if err != nil {
			return nil, eris.Wrapf(err, "overrides: result %s field score", o.ResultID)
		}
		r.Score = v
		return derefFloat(old), nil
	case "score_stderr":
		old := r.ScoreStderr
		v, err := toFloat(o.NewValue)
		if err != nil {
			return nil, eris.Wrapf(err, "overrides: result %s field score_stderr", o.ResultID)
		}
		r.ScoreStderr = v
		return derefFloat(old), nil
	case "score_ci_low":
		old := r.ScoreCILow
		v, err := toFloat(o.NewValue)
		if err != nil {
			return nil, eris.Wrapf(err, "overrides: result %s field score_ci_low", o.ResultID)
		}
		r.ScoreCILow = v
		return derefFloat(old), nil
	case "score_ci_high":
		old := r.ScoreCIHigh
		v, err := toFloat(o.NewValue)
		if err != nil {
			return nil, eris.Wrapf(err, "overrides: result %s field score_ci_high", o.ResultID)
		}
		r.ScoreCIHigh = v
		return derefFloat(old), nil
	case "evaluation_notes":
		old := r.EvaluationNotes
		s, ok := o.NewValue.(string)
		if !ok {
			return nil, eris.Errorf("overrides: result %s field evaluation_notes wants a string", o.ResultID)
		}
		r.EvaluationNotes = s
		return old, nil
	case "trust_tier":
		old := r.TrustTier
		s, ok := o.NewValue.(string)
		tier := model.TrustTier(s)
		if !ok || !tier.Valid() {
			return nil, eris.Errorf("overrides: result %s has invalid trust_tier %v", o.ResultID, o.NewValue)
		}
		r.TrustTier = tier
		return string(old), nil
	default:
		return nil, eris.Errorf("overrides: unsupported field %q on result %s", o.Field, o.ResultID)
	}
}

// toFloat accepts the numeric types yaml produces, plus null.
func toFloat(v any) (*float64, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return &x, nil
	case int:
		f := float64(x)
		return &f, nil
	default:
		return nil, eris.Errorf("want a number, got %T", v)
	}
}

func derefFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
