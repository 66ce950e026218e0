package formats

import (
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/jackzampolin/tableqa/internal/table"
)

// records builds one ordered mapping per row, keyed by column name.
func records(t *table.Table) []*orderedmap.OrderedMap[string, string] {
	out := make([]*orderedmap.OrderedMap[string, string], 0, len(t.Rows))
	for _, row := range t.Rows {
		m := orderedmap.New[string, string]()
		for c, col := range t.Columns {
			m.Set(col, row[c])
		}
		out = append(out, m)
	}
	return out
}

func renderDict(t *table.Table) (any, error) {
	return records(t), nil
}

func renderJSON(t *table.Table) (any, error) {
	data, err := json.Marshal(records(t))
	if err != nil {
		return nil, fmt.Errorf("marshal rows: %w", err)
	}
	return string(data), nil
}

func renderArray(t *table.Table) (any, error) {
	grid := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		grid[i] = append([]string(nil), row...)
	}
	return grid, nil
}

// dictLiteral renders rows as [{'col': 'value', ...}, ...].
func dictLiteral(rows []*orderedmap.OrderedMap[string, string]) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, m := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('{')
		first := true
		for pair := m.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(quoteLiteral(pair.Key))
			b.WriteString(": ")
			b.WriteString(quoteLiteral(pair.Value))
		}
		b.WriteByte('}')
	}
	b.WriteByte(']')
	return b.String()
}

// arrayLiteral renders a grid as [['a' 'b']\n ['c' 'd']].
func arrayLiteral(grid [][]string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, row := range grid {
		if i > 0 {
			b.WriteString("\n ")
		}
		b.WriteByte('[')
		for j, v := range row {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(quoteLiteral(v))
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

// quoteLiteral single-quotes s, switching to double quotes when s holds a
// single quote but no double quote.
func quoteLiteral(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}
