package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParseCSV reads a CSV document with a header row into a Dataset. Cell
// whitespace is trimmed; empty cells are kept (the encoder treats them as a
// missing-value category).
func ParseCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(rows)+2, err)
		}

		row := make([]string, len(rec))
		for i, cell := range rec {
			row[i] = strings.TrimSpace(cell)
		}
		rows = append(rows, row)
	}

	return New(columns, rows)
}

// ParseCSVString parses CSV content held in memory.
func ParseCSVString(content string) (*Dataset, error) {
	return ParseCSV(strings.NewReader(content))
}
