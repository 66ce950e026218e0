package extract

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	plumber "github.com/pyhub-apps/pdfplumber-golang/pkg/pdf"
)

// writeFixture writes a two-page PDF: page 1 holds a heading only, page 2 a
// ruled table.
func writeFixture(t *testing.T) string {
	t.Helper()

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)

	pdf.AddPage()
	pdf.CellFormat(200, 20, "Introduction", "", 1, "L", false, 0, "")

	pdf.AddPage()
	rows := [][]string{
		{"Name", "Country", "Age"},
		{"Musk", "USA", "52"},
		{"Arnault", "France", "75"},
	}
	for _, row := range rows {
		for _, cell := range row {
			pdf.CellFormat(120, 20, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(20)
	}

	path := filepath.Join(t.TempDir(), "fixture.pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestPDFExtractor_Extract(t *testing.T) {
	path := writeFixture(t)
	e := NewPDFExtractor(Options{}, nil)

	t.Run("finds the table", func(t *testing.T) {
		tables, err := e.Extract(context.Background(), path, []int{2})
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if len(tables) != 1 {
			t.Fatalf("got %d tables, want 1", len(tables))
		}
		got := tables[0].Rows
		if len(got) != 3 {
			t.Fatalf("rows = %q, want 3 rows", got)
		}
		for _, want := range []string{"Name", "Musk", "Arnault", "France", "75"} {
			if !containsCell(got, want) {
				t.Errorf("rows = %q, missing %q", got, want)
			}
		}
		if tables[0].Page != 2 || tables[0].Index != 0 {
			t.Errorf("page/index = %d/%d, want 2/0", tables[0].Page, tables[0].Index)
		}
	})

	t.Run("page without table", func(t *testing.T) {
		_, err := e.Extract(context.Background(), path, []int{1})
		if !errors.Is(err, ErrNoTables) {
			t.Fatalf("Extract() error = %v, want ErrNoTables", err)
		}
	})

	t.Run("page out of range", func(t *testing.T) {
		_, err := e.Extract(context.Background(), path, []int{2, 9})
		if !errors.Is(err, ErrPageOutOfRange) {
			t.Fatalf("Extract() error = %v, want ErrPageOutOfRange", err)
		}
	})

	t.Run("no pages", func(t *testing.T) {
		_, err := e.Extract(context.Background(), path, nil)
		if !errors.Is(err, ErrNoPages) {
			t.Fatalf("Extract() error = %v, want ErrNoPages", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := e.Extract(ctx, path, []int{2})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Extract() error = %v, want context.Canceled", err)
		}
	})
}

func TestPDFExtractor_MissingFile(t *testing.T) {
	e := NewPDFExtractor(Options{}, nil)
	if _, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), []int{1}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func containsCell(rows [][]string, want string) bool {
	for _, r := range rows {
		for _, c := range r {
			if strings.Contains(c, want) {
				return true
			}
		}
	}
	return false
}

func TestKeepTables(t *testing.T) {
	tests := []struct {
		name    string
		found   []plumber.Table
		minRows int
		want    [][][]string
	}{
		{
			name: "trims and pads",
			found: []plumber.Table{{Rows: [][]string{
				{" Name ", "Age"},
				{"Musk", "52", ""},
				{"Arnault"},
			}}},
			minRows: 3,
			want:    [][][]string{{{"Name", "Age"}, {"Musk", "52"}, {"Arnault", ""}}},
		},
		{
			name: "drops blank rows and columns",
			found: []plumber.Table{{Rows: [][]string{
				{"Name", "", "Age"},
				{"  ", "", ""},
				{"Musk", " ", "52"},
			}}},
			minRows: 2,
			want:    [][][]string{{{"Name", "Age"}, {"Musk", "52"}}},
		},
		{
			name:    "too few rows",
			found:   []plumber.Table{{Rows: [][]string{{"Name", "Age"}, {"Musk", "52"}}}},
			minRows: 3,
		},
		{
			name:    "single column",
			found:   []plumber.Table{{Rows: [][]string{{"Name"}, {"Musk"}, {"Arnault"}}}},
			minRows: 3,
		},
		{
			name: "keeps order",
			found: []plumber.Table{
				{Rows: [][]string{{"a", "b"}, {"1", "2"}}},
				{Rows: [][]string{{"c", "d"}, {"3", "4"}}},
			},
			minRows: 2,
			want: [][][]string{
				{{"a", "b"}, {"1", "2"}},
				{{"c", "d"}, {"3", "4"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keepTables(tt.found, tt.minRows)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("keepTables() = %q, want %q", got, tt.want)
			}
		})
	}
}
