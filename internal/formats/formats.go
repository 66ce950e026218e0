// Package formats renders a normalized table into the textual and
// structural representations used as LLM context.
package formats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/jackzampolin/tableqa/internal/table"
)

// Format names one serialization of a table.
type Format string

const (
	JSON     Format = "JSON"
	DICT     Format = "DICT"
	CSV      Format = "CSV"
	TSV      Format = "TSV"
	HTML     Format = "HTML"
	LaTeX    Format = "LaTeX"
	Markdown Format = "Markdown"
	STRING   Format = "STRING"
	NumPy    Format = "NumPy"
	XML      Format = "XML"
)

// ErrUnknownFormat is returned by Parse for names outside the enumeration.
var ErrUnknownFormat = errors.New("unknown format")

type renderFunc func(*table.Table) (any, error)

// registry is ordered; Serialize emits records in this order.
var registry = []struct {
	format Format
	render renderFunc
}{
	{JSON, renderJSON},
	{DICT, renderDict},
	{CSV, renderCSV},
	{TSV, renderTSV},
	{HTML, renderHTML},
	{LaTeX, renderLaTeX},
	{Markdown, renderMarkdown},
	{STRING, renderString},
	{NumPy, renderArray},
	{XML, renderXML},
}

// All returns every format in serialization order.
func All() []Format {
	out := make([]Format, len(registry))
	for i, r := range registry {
		out[i] = r.format
	}
	return out
}

// Parse resolves a format name case-insensitively.
func Parse(name string) (Format, error) {
	for _, r := range registry {
		if strings.EqualFold(string(r.format), strings.TrimSpace(name)) {
			return r.format, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Record is one named serialization of a table. Records are never mutated
// after Serialize returns them.
type Record struct {
	Format  Format
	Payload any
}

// Text returns the payload as the string sent to the model.
// String payloads are returned as is; DICT and NumPy payloads are rendered
// as literals.
func (r Record) Text() string {
	switch p := r.Payload.(type) {
	case string:
		return p
	case []*orderedmap.OrderedMap[string, string]:
		return dictLiteral(p)
	case [][]string:
		return arrayLiteral(p)
	default:
		return fmt.Sprint(p)
	}
}

// Error reports which format failed to serialize.
type Error struct {
	Format Format
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("serialize %s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Serialize renders t in every format, in enumeration order.
func Serialize(t *table.Table) ([]Record, error) {
	return SerializeFormats(t, All())
}

// SerializeFormats renders t in the given formats, keeping enumeration
// order regardless of the order of fs. An empty fs means all formats.
func SerializeFormats(t *table.Table, fs []Format) ([]Record, error) {
	want := make(map[Format]bool, len(fs))
	for _, f := range fs {
		want[f] = true
	}

	records := make([]Record, 0, len(registry))
	for _, r := range registry {
		if len(want) > 0 && !want[r.format] {
			continue
		}
		payload, err := r.render(t)
		if err != nil {
			return nil, &Error{Format: r.format, Err: err}
		}
		records = append(records, Record{Format: r.format, Payload: payload})
	}
	return records, nil
}

// numericColumns reports, per column, whether every non-empty value parses
// as a number. Columns with no values are not numeric.
func numericColumns(t *table.Table) []bool {
	out := make([]bool, len(t.Columns))
	for c := range t.Columns {
		seen := false
		numeric := true
		for _, row := range t.Rows {
			v := strings.TrimSpace(row[c])
			if v == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric = false
				break
			}
		}
		out[c] = seen && numeric
	}
	return out
}
