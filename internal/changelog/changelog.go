// Package changelog appends audit records to a JSONL file. Entries are
// write-once: nothing in this package mutates or deletes existing lines.
package changelog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/atlas-research/bench-cli/internal/model"
)

// Writer appends ChangelogEntry records to a JSONL file.
type Writer struct {
	path string
}

// NewWriter creates a changelog writer for the given file path. The parent
// directory is created on first append.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Append writes one entry as a single JSON line. The timestamp is filled
// in when unset.
func (w *Writer) Append(entry model.ChangelogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return eris.Wrapf(err, "changelog: create dir for %s", w.path)
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return eris.Wrapf(err, "changelog: open %s", w.path)
	}
	defer func() { _ = f.Close() }()

	line, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "changelog: marshal entry")
	}

	if _, err := f.Write(append(line, '\n')); err != nil {
		return eris.Wrapf(err, "changelog: append to %s", w.path)
	}
	return nil
}
