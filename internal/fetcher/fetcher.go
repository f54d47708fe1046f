// Package fetcher acquires raw benchmark data: HTTP downloads with retry
// and per-host rate limiting, local snapshot resolution, and streaming
// CSV/XLSX parsing of the resulting tabular bytes.
package fetcher

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrNotFound marks a missing upstream resource or local snapshot.
// Callers use it to distinguish acquisition failures from parse failures.
var ErrNotFound = eris.New("fetcher: not found")

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body bytes.
	Download(ctx context.Context, url string) ([]byte, error)

	// SaveSnapshot fetches the URL and writes the body under the raw data
	// directory as <prefix>_<timestamp>.<ext>. Returns the file path.
	SaveSnapshot(ctx context.Context, url, prefix string) (string, error)
}
