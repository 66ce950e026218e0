package formats

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jackzampolin/tableqa/internal/table"
)

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

func renderLaTeX(t *table.Table) (any, error) {
	numeric := numericColumns(t)
	spec := make([]byte, len(t.Columns))
	for i := range t.Columns {
		spec[i] = 'l'
		if numeric[i] {
			spec[i] = 'r'
		}
	}

	var b strings.Builder
	b.WriteString(`\begin{tabular}{` + string(spec) + "}\n")
	b.WriteString("\\toprule\n")
	writeLaTeXRow(&b, t.Columns)
	b.WriteString("\\midrule\n")
	for _, row := range t.Rows {
		writeLaTeXRow(&b, row)
	}
	b.WriteString("\\bottomrule\n")
	b.WriteString("\\end{tabular}\n")
	return b.String(), nil
}

func writeLaTeXRow(b *strings.Builder, values []string) {
	for i, v := range values {
		if i > 0 {
			b.WriteString(" & ")
		}
		b.WriteString(latexEscaper.Replace(v))
	}
	b.WriteString(" \\\\\n")
}

// columnWidths returns the display width of the widest value per column,
// header included.
func columnWidths(t *table.Table) []int {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for _, row := range t.Rows {
		for i, v := range row {
			if w := runewidth.StringWidth(v); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

var markdownEscaper = strings.NewReplacer("|", `\|`)

func renderMarkdown(t *table.Table) (any, error) {
	numeric := numericColumns(t)

	header := make([]string, len(t.Columns))
	copy(header, t.Columns)
	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		rows[r] = make([]string, len(row))
		for c, v := range row {
			rows[r][c] = markdownEscaper.Replace(v)
		}
	}
	for c := range header {
		header[c] = markdownEscaper.Replace(header[c])
	}
	widths := columnWidths(&table.Table{Columns: header, Rows: rows})

	pad := func(v string, c int) string {
		if numeric[c] {
			return runewidth.FillLeft(v, widths[c])
		}
		return runewidth.FillRight(v, widths[c])
	}

	var b strings.Builder
	writeLine := func(values []string) {
		b.WriteString("|")
		for c, v := range values {
			b.WriteString(" " + pad(v, c) + " |")
		}
		b.WriteString("\n")
	}

	writeLine(header)
	b.WriteString("|")
	for c, w := range widths {
		if numeric[c] {
			b.WriteString(strings.Repeat("-", w+1) + ":|")
		} else {
			b.WriteString(":" + strings.Repeat("-", w+1) + "|")
		}
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeLine(row)
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// renderString lays the table out as right-justified columns separated by
// a single space.
func renderString(t *table.Table) (any, error) {
	widths := columnWidths(t)

	var b strings.Builder
	writeLine := func(values []string) {
		for c, v := range values {
			if c > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(runewidth.FillLeft(v, widths[c]))
		}
	}

	writeLine(t.Columns)
	for _, row := range t.Rows {
		b.WriteByte('\n')
		writeLine(row)
	}
	return b.String(), nil
}
