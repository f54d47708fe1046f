package fetcher

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a parsed tabular snapshot with header-keyed cell access.
type Table struct {
	Header []string
	Rows   [][]string

	colIdx map[string]int
}

// NewTable builds a Table and its column index. Duplicate header names keep
// the first occurrence.
func NewTable(header []string, rows [][]string) *Table {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.TrimSpace(h)
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return &Table{Header: header, Rows: rows, colIdx: idx}
}

// Cell returns the named column of the given row, trimmed. Missing columns
// and short rows return "".
func (t *Table) Cell(row int, column string) string {
	i, ok := t.colIdx[column]
	if !ok || row < 0 || row >= len(t.Rows) || i >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][i])
}

// HasColumn reports whether the header contains the named column.
func (t *Table) HasColumn(column string) bool {
	_, ok := t.colIdx[column]
	return ok
}

// ReadCSV parses CSV bytes into a Table. The first row is the header.
// Rows with a varying number of fields are tolerated; quoting is lazy since
// leaderboard exports are frequently sloppy about it.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("csv: empty input")
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		rows = append(rows, record)
	}

	return NewTable(header, rows), nil
}
