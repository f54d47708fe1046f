package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := "Model version,Best score (across scorers),Release date\n" +
		"GPT-4o,0.33,2024-05-13\n" +
		"Claude 3.5 Sonnet,0.49,2024-06-20\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, "GPT-4o", table.Cell(0, "Model version"))
	assert.Equal(t, "0.49", table.Cell(1, "Best score (across scorers)"))
	assert.Equal(t, "2024-05-13", table.Cell(0, "Release date"))
}

func TestReadCSV_VariableFieldsAndMissingColumns(t *testing.T) {
	input := "a,b,c\n1,2\n4,5,6,7\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, "", table.Cell(0, "c"), "short row")
	assert.Equal(t, "6", table.Cell(1, "c"))
	assert.Equal(t, "", table.Cell(0, "nope"), "unknown column")
	assert.Equal(t, "", table.Cell(9, "a"), "row out of range")
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestSnapshots_Resolve(t *testing.T) {
	dir := t.TempDir()
	s := Snapshots{Dir: dir}

	_, err := s.Resolve("missing.csv")
	require.Error(t, err)

	require.NoError(t, writeFile(t, dir, "metr.csv", "Model version\nGPT-4o\n"))
	path, err := s.Resolve("metr.csv")
	require.NoError(t, err)
	assert.Contains(t, path, "metr.csv")

	data, err := s.Read("metr.csv")
	require.NoError(t, err)
	assert.Contains(t, string(data), "GPT-4o")
}
