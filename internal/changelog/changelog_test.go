package changelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-research/bench-cli/internal/model"
)

func TestWriter_AppendIsAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "changelog.jsonl")
	w := NewWriter(path)

	require.NoError(t, w.Append(model.ChangelogEntry{
		Action:   "insert",
		Table:    "results",
		RecordID: "abc123",
		Source:   "ingestor:run-1",
	}))
	require.NoError(t, w.Append(model.ChangelogEntry{
		Action:   "override",
		Table:    "results",
		RecordID: "abc123",
		Reason:   "manual unit correction",
		Source:   "operator",
	}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []model.ChangelogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e model.ChangelogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, entries, 2)
	assert.Equal(t, "insert", entries[0].Action)
	assert.Equal(t, "override", entries[1].Action)
	assert.False(t, entries[0].Timestamp.IsZero(), "timestamp filled in")
	assert.Equal(t, "manual unit correction", entries[1].Reason)
}
