// Package table holds the raw and normalized table types passed between
// extraction, serialization and querying.
package table

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrEmptyTable is returned when a raw table has no rows to promote as header.
	ErrEmptyTable = errors.New("empty table")
	// ErrDuplicateColumn is returned when sanitized column names collide.
	ErrDuplicateColumn = errors.New("duplicate column name")
	// ErrEmptyColumn is returned when a column name is empty after sanitization.
	ErrEmptyColumn = errors.New("empty column name")
	// ErrRaggedRow is returned when a data row has more cells than there are columns.
	ErrRaggedRow = errors.New("row wider than header")
)

// RawTable is a grid of text cells extracted from one PDF page.
// Row 0 conventionally holds the header text.
type RawTable struct {
	Page  int        `json:"page" yaml:"page"`   // 1-indexed page the table came from
	Index int        `json:"index" yaml:"index"` // position of the table on its page
	Rows  [][]string `json:"rows" yaml:"rows"`
}

// Table is a RawTable with its header promoted and its cells and column
// names sanitized. Column names are unique and contain no whitespace or
// parentheses.
type Table struct {
	Page    int        `json:"page" yaml:"page"`
	Index   int        `json:"index" yaml:"index"`
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Label identifies the table for logs and result rows, e.g. "page 3 table 0".
func (t *Table) Label() string {
	return fmt.Sprintf("page %d table %d", t.Page, t.Index)
}

// NumRows returns the number of data rows (header excluded).
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// Column returns the values of the named column, or false if absent.
func (t *Table) Column(name string) ([]string, bool) {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, true
}

// Normalize promotes row 0 of raw to the header and sanitizes every cell
// and column name.
func Normalize(raw RawTable) (*Table, error) {
	if len(raw.Rows) == 0 {
		return nil, fmt.Errorf("page %d table %d: %w", raw.Page, raw.Index, ErrEmptyTable)
	}

	t := &Table{
		Page:    raw.Page,
		Index:   raw.Index,
		Columns: append([]string(nil), raw.Rows[0]...),
		Rows:    make([][]string, 0, len(raw.Rows)-1),
	}
	for _, row := range raw.Rows[1:] {
		t.Rows = append(t.Rows, append([]string(nil), row...))
	}

	return t.Normalize()
}

// Normalize re-applies cell and column sanitization without promoting a row.
// Calling it on an already normalized table returns an equal table.
func (t *Table) Normalize() (*Table, error) {
	out := &Table{
		Page:    t.Page,
		Index:   t.Index,
		Columns: make([]string, len(t.Columns)),
		Rows:    make([][]string, len(t.Rows)),
	}

	seen := make(map[string]int, len(t.Columns))
	for i, col := range t.Columns {
		name := SanitizeColumn(col)
		if name == "" {
			return nil, fmt.Errorf("%s: column %d (%q): %w", t.Label(), i, col, ErrEmptyColumn)
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%s: columns %d and %d both become %q: %w", t.Label(), prev, i, name, ErrDuplicateColumn)
		}
		seen[name] = i
		out.Columns[i] = name
	}

	for r, row := range t.Rows {
		if len(row) > len(out.Columns) {
			return nil, fmt.Errorf("%s: row %d has %d cells for %d columns: %w", t.Label(), r, len(row), len(out.Columns), ErrRaggedRow)
		}
		cells := make([]string, len(out.Columns))
		for c, v := range row {
			cells[c] = CleanCell(v)
		}
		out.Rows[r] = cells
	}

	return out, nil
}

// CleanCell deletes newline characters from a cell value.
func CleanCell(v string) string {
	return strings.ReplaceAll(v, "\n", "")
}

// SanitizeColumn turns header text into an identifier-safe column name:
// newlines become spaces, then all whitespace and parentheses are removed.
func SanitizeColumn(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '(' || r == ')' {
			return -1
		}
		return r
	}, strings.ReplaceAll(name, "\n", " "))
}
