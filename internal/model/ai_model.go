package model

import "time"

// Model is an AI model record. The canonical ID has the form
// "provider:normalized_name" and is produced by the normalize package.
// Models are upserted by ingestors with last-write-wins semantics.
type Model struct {
	ID                   string         `json:"model_id"`
	Name                 string         `json:"name"`
	Provider             string         `json:"provider"`
	Family               string         `json:"family,omitempty"`
	ReleaseDate          *time.Time     `json:"release_date,omitempty"`
	ReleaseDateSource    string         `json:"release_date_source,omitempty"`
	Status               ModelStatus    `json:"status"`
	ParameterCountB      *float64       `json:"parameter_count_b,omitempty"`
	TrainingComputeFLOP  *float64       `json:"training_compute_flop,omitempty"`
	TrainingComputeNotes string         `json:"training_compute_notes,omitempty"`
	Metadata             map[string]any `json:"metadata,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}
