package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeXLSX(t *testing.T, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Scores")
	require.NoError(t, err)

	for _, row := range rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}

	path := filepath.Join(t.TempDir(), "rli.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := writeXLSX(t, [][]string{
		{"Model", "Automation rate", "Date"},
		{"GPT-4o", "2.5", "2024-05-13"},
		{"Claude 3.5 Sonnet", "3.1", "2024-06-20"},
	})

	table, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "GPT-4o", table.Cell(0, "Model"))
	assert.Equal(t, "3.1", table.Cell(1, "Automation rate"))
}

func TestReadXLSX_SheetSelection(t *testing.T) {
	path := writeXLSX(t, [][]string{{"Model"}, {"GPT-4o"}})

	_, err := ReadXLSX(path, XLSXOptions{SheetName: "Scores"})
	require.NoError(t, err)

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)

	_, err = ReadXLSX(path, XLSXOptions{SheetIndex: 5})
	require.Error(t, err)
}
