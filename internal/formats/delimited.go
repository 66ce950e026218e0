package formats

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/jackzampolin/tableqa/internal/table"
)

func renderCSV(t *table.Table) (any, error) {
	return delimited(t, ',')
}

func renderTSV(t *table.Table) (any, error) {
	return delimited(t, '\t')
}

// delimited writes the header and every row, without an index column.
func delimited(t *table.Table, sep rune) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = sep

	if err := w.Write(t.Columns); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush: %w", err)
	}
	return buf.String(), nil
}
