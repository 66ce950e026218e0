// Package present renders query answers for the terminal.
package present

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jackzampolin/tableqa/internal/query"
)

// DefaultMaxWidth is the widest line RenderTable draws when given zero.
const DefaultMaxWidth = 150

// minColumnWidth is the narrowest content area a column may shrink to.
const minColumnWidth = 3

// Headers are the column titles of the answer table.
var Headers = []string{"Data Format", "Query", "Answer"}

// ErrWidthTooSmall is returned when maxWidth cannot fit the borders and
// the minimum content width of every column.
var ErrWidthTooSmall = errors.New("max width too small for table")

// MinWidth is the smallest maxWidth RenderTable accepts.
func MinWidth() int {
	return chrome(len(Headers)) + minColumnWidth*len(Headers)
}

// chrome is the number of border and padding cells on one line.
func chrome(cols int) int {
	return 3*cols + 1
}

// RenderTable writes a bordered, left-aligned table with one row per answer.
// Failed answers show their error in the Answer column. No line is wider
// than maxWidth display cells.
func RenderTable(w io.Writer, question string, answers []query.AnswerRecord, maxWidth int) error {
	rows := make([][]string, 0, len(answers))
	labelled := false
	for _, a := range answers {
		if a.Table != "" {
			labelled = true
		}
	}
	for _, a := range answers {
		answer := a.Answer
		if a.Error != "" {
			answer = "error: " + a.Error
		}
		format := string(a.Format)
		if labelled && a.Table != "" {
			format = format + "\n(" + a.Table + ")"
		}
		q := a.Question
		if q == "" {
			q = question
		}
		rows = append(rows, []string{format, q, answer})
	}
	return Render(w, Headers, rows, maxWidth)
}

// Render draws an arbitrary grid in the same style as RenderTable.
func Render(w io.Writer, headers []string, rows [][]string, maxWidth int) error {
	if maxWidth == 0 {
		maxWidth = DefaultMaxWidth
	}
	cols := len(headers)
	if cols == 0 {
		return errors.New("table has no columns")
	}
	if maxWidth < chrome(cols)+minColumnWidth*cols {
		return fmt.Errorf("%w: %d < %d", ErrWidthTooSmall, maxWidth, chrome(cols)+minColumnWidth*cols)
	}

	natural := make([]int, cols)
	measure := func(row []string) {
		for i := 0; i < cols && i < len(row); i++ {
			for _, line := range strings.Split(clean(row[i]), "\n") {
				if n := runewidth.StringWidth(line); n > natural[i] {
					natural[i] = n
				}
			}
		}
	}
	measure(headers)
	for _, r := range rows {
		measure(r)
	}
	widths := allocate(natural, maxWidth-chrome(cols))

	var b strings.Builder
	rule := ruleLine(widths)
	b.WriteString(rule)
	writeRow(&b, headers, widths)
	b.WriteString(rule)
	for _, r := range rows {
		writeRow(&b, r, widths)
		b.WriteString(rule)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// allocate fits the natural column widths into budget. Columns narrower
// than an even share keep their width; the rest split what remains.
func allocate(natural []int, budget int) []int {
	widths := make([]int, len(natural))
	idx := make([]int, len(natural))
	for i := range idx {
		idx[i] = i
		widths[i] = max(natural[i], minColumnWidth)
	}
	total := 0
	for _, w := range widths {
		total += w
	}
	if total <= budget {
		return widths
	}

	sort.Slice(idx, func(a, b int) bool { return widths[idx[a]] < widths[idx[b]] })
	remaining := budget
	for k, i := range idx {
		share := remaining / (len(idx) - k)
		if widths[i] > share {
			// Everything from here on is at least this wide; split evenly
			// and hand the remainder to the widest columns.
			left := len(idx) - k
			for j, c := range idx[k:] {
				widths[c] = remaining / left
				if j >= left-remaining%left {
					widths[c]++
				}
			}
			break
		}
		remaining -= widths[i]
	}
	return widths
}

func ruleLine(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}

func writeRow(b *strings.Builder, row []string, widths []int) {
	cells := make([][]string, len(widths))
	height := 1
	for i, w := range widths {
		v := ""
		if i < len(row) {
			v = row[i]
		}
		cells[i] = wrap(clean(v), w)
		height = max(height, len(cells[i]))
	}
	for line := 0; line < height; line++ {
		b.WriteByte('|')
		for i, w := range widths {
			v := ""
			if line < len(cells[i]) {
				v = cells[i][line]
			}
			b.WriteByte(' ')
			b.WriteString(runewidth.FillRight(v, w))
			b.WriteString(" |")
		}
		b.WriteByte('\n')
	}
}

// clean normalizes line endings and expands tabs so widths can be measured.
func clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\t", "    ")
}

// wrap breaks s into lines no wider than width, at spaces where possible
// and inside words that are wider than width by themselves. Leading
// indentation and runs of spaces within a line are kept; the spaces at a
// line break are dropped.
func wrap(s string, width int) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		lines = append(lines, wrapParagraph(strings.TrimRight(para, " "), width)...)
	}
	return lines
}

func wrapParagraph(para string, width int) []string {
	if para == "" {
		return []string{""}
	}

	var lines []string
	cur, curW := "", 0
	for _, tok := range splitWords(para) {
		gap, word := tok[0], tok[1]
		gw, ww := len(gap), runewidth.StringWidth(word)
		if curW+gw+ww <= width {
			cur += gap + word
			curW += gw + ww
			continue
		}
		if curW > 0 {
			lines = append(lines, cur)
			cur, curW = "", 0
			gap, gw = "", 0
		}
		if gw+ww > width && width-gw < 2 {
			gap, gw = "", 0
		}
		for gw+ww > width {
			head, rest := splitAt(word, width-gw)
			lines = append(lines, gap+head)
			gap, gw = "", 0
			word = rest
			ww = runewidth.StringWidth(word)
		}
		cur, curW = gap+word, gw+ww
	}
	return append(lines, cur)
}

// splitWords cuts s into {spaces, word} pairs; the spaces precede the word.
func splitWords(s string) [][2]string {
	var out [][2]string
	for s != "" {
		word := strings.TrimLeft(s, " ")
		gap := s[:len(s)-len(word)]
		end := strings.IndexByte(word, ' ')
		if end < 0 {
			end = len(word)
		}
		out = append(out, [2]string{gap, word[:end]})
		s = word[end:]
	}
	return out
}

func splitAt(s string, width int) (string, string) {
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > width && i > 0 {
			return s[:i], s[i:]
		}
		w += rw
	}
	return s, ""
}
