package present

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/jackzampolin/tableqa/internal/formats"
	"github.com/jackzampolin/tableqa/internal/query"
)

const question = "What is the median age of the billionaires listed in the table?"

func sampleAnswers() []query.AnswerRecord {
	var out []query.AnswerRecord
	for _, f := range formats.All() {
		out = append(out, query.AnswerRecord{
			Format:   f,
			Question: question,
			Answer: "To find the median age we sort the ages and take the middle value. " +
				"The sorted ages are 60, 65 and 70, so the median age is 65.\nMethodology: sorting.",
		})
	}
	return out
}

func TestRenderTableWidths(t *testing.T) {
	for _, maxWidth := range []int{MinWidth(), 40, 80, 150, 250} {
		var buf bytes.Buffer
		if err := RenderTable(&buf, question, sampleAnswers(), maxWidth); err != nil {
			t.Fatalf("RenderTable(%d) error = %v", maxWidth, err)
		}
		for i, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
			if w := runewidth.StringWidth(line); w > maxWidth {
				t.Errorf("maxWidth %d: line %d is %d wide: %q", maxWidth, i, w, line)
			}
		}
	}
}

func TestRenderTableFormatsOnce(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTable(&buf, question, sampleAnswers(), 150); err != nil {
		t.Fatalf("RenderTable() error = %v", err)
	}

	for _, f := range formats.All() {
		n := 0
		for _, line := range strings.Split(buf.String(), "\n") {
			cells := strings.Split(line, "|")
			if len(cells) > 1 && strings.TrimSpace(cells[1]) == string(f) {
				n++
			}
		}
		if n != 1 {
			t.Errorf("format %s appears %d times in the first column, want 1", f, n)
		}
	}
	if !strings.Contains(buf.String(), "| Data Format ") {
		t.Errorf("missing header:\n%s", buf.String())
	}
}

func TestRenderTableShape(t *testing.T) {
	answers := []query.AnswerRecord{{Format: formats.CSV, Question: "q", Answer: "a"}}
	var buf bytes.Buffer
	if err := RenderTable(&buf, "q", answers, 150); err != nil {
		t.Fatalf("RenderTable() error = %v", err)
	}
	want := "" +
		"+-------------+-------+--------+\n" +
		"| Data Format | Query | Answer |\n" +
		"+-------------+-------+--------+\n" +
		"| CSV         | q     | a      |\n" +
		"+-------------+-------+--------+\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRenderTableErrorAnswer(t *testing.T) {
	answers := []query.AnswerRecord{{Format: formats.XML, Question: "q", Error: "rate limited"}}
	var buf bytes.Buffer
	if err := RenderTable(&buf, "q", answers, 80); err != nil {
		t.Fatalf("RenderTable() error = %v", err)
	}
	if !strings.Contains(buf.String(), "error: rate limited") {
		t.Errorf("error not shown:\n%s", buf.String())
	}
}

func TestRenderTableWidthTooSmall(t *testing.T) {
	err := RenderTable(&bytes.Buffer{}, question, sampleAnswers(), MinWidth()-1)
	if !errors.Is(err, ErrWidthTooSmall) {
		t.Fatalf("RenderTable() error = %v, want ErrWidthTooSmall", err)
	}
}

func TestRenderWideRunes(t *testing.T) {
	rows := [][]string{{"JSON", "年齢の中央値は?", "中央値は六十五歳です。"}}
	var buf bytes.Buffer
	if err := Render(&buf, Headers, rows, 30); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		if w := runewidth.StringWidth(line); w > 30 {
			t.Errorf("line %q is %d wide", line, w)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  []string
	}{
		{"a b c", 10, []string{"a b c"}},
		{"hello world", 5, []string{"hello", "world"}},
		{"abcdefgh", 3, []string{"abc", "def", "gh"}},
		{"one\ntwo", 10, []string{"one", "two"}},
		{"", 4, []string{""}},
		{"  indented line", 20, []string{"  indented line"}},
		{"a  b", 10, []string{"a  b"}},
		{"1. item\n   detail here", 10, []string{"1. item", "   detail", "here"}},
		{"    abcdef", 6, []string{"    ab", "cdef"}},
		{"trailing   ", 10, []string{"trailing"}},
	}
	for _, tt := range tests {
		got := wrap(tt.in, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("wrap(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
		for _, line := range got {
			if w := runewidth.StringWidth(line); w > tt.width {
				t.Errorf("wrap(%q, %d): line %q is %d wide", tt.in, tt.width, line, w)
			}
		}
	}
}

func TestAllocate(t *testing.T) {
	got := allocate([]int{11, 60, 500}, 100)
	if got[0] != 11 {
		t.Errorf("narrow column shrank: %v", got)
	}
	if sum := got[0] + got[1] + got[2]; sum != 100 {
		t.Errorf("allocated %d cells, want 100: %v", sum, got)
	}
}
