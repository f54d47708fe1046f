package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Source is a provenance record. Every Result must reference one.
// A Source is immutable after creation; a re-fetch of the same URL produces
// a new Source with a later retrieval timestamp.
type Source struct {
	ID              string     `json:"source_id"`
	Type            SourceType `json:"source_type"`
	Title           string     `json:"source_title"`
	URL             string     `json:"source_url"`
	RetrievedAt     time.Time  `json:"retrieved_at"`
	ParseMethod     ParseMethod `json:"parse_method"`
	RawSnapshotPath string     `json:"raw_snapshot_path,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// SourceID derives the deterministic source identifier from the URL and
// retrieval timestamp. Re-fetching the same URL at the same instant is
// idempotent; a later fetch yields a distinct ID.
func SourceID(url string, retrievedAt time.Time) string {
	return truncatedHash(url + ":" + retrievedAt.UTC().Format(time.RFC3339))
}

// truncatedHash returns the first 16 hex characters of the SHA-256 of s.
func truncatedHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
