// Package extract pulls raw tables out of PDF pages.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	plumber "github.com/pyhub-apps/pdfplumber-golang/pkg/pdf"

	"github.com/jackzampolin/tableqa/internal/table"
)

var (
	// ErrPageOutOfRange is returned when a requested page is not in the document.
	ErrPageOutOfRange = errors.New("page out of range")
	// ErrNoTables is returned when a requested page yields no table.
	ErrNoTables = errors.New("no tables found")
	// ErrNoPages is returned when Extract is called without pages.
	ErrNoPages = errors.New("no pages requested")
)

// Extractor returns the raw tables found on the given 1-indexed pages,
// in page order and then in top-to-bottom order within a page.
type Extractor interface {
	Extract(ctx context.Context, path string, pages []int) ([]table.RawTable, error)
}

// Options tunes which detected tables are kept.
type Options struct {
	MinRows int `mapstructure:"min_rows" yaml:"min_rows"` // header included
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{MinRows: 3}
}

func (o Options) withDefaults() Options {
	if o.MinRows <= 0 {
		o.MinRows = DefaultOptions().MinRows
	}
	return o
}

// PDFExtractor finds tables with pdfplumber's table finder on the pdfcpu backend.
type PDFExtractor struct {
	opts   Options
	logger *slog.Logger
}

// NewPDFExtractor creates an extractor; zero option fields take defaults.
func NewPDFExtractor(opts Options, logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{opts: opts.withDefaults(), logger: logger}
}

// Extract implements Extractor.
func (e *PDFExtractor) Extract(ctx context.Context, path string, pages []int) ([]table.RawTable, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	count, err := pageCount(path)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if p < 1 || p > count {
			return nil, fmt.Errorf("page %d of %d: %w", p, count, ErrPageOutOfRange)
		}
	}

	doc, err := plumber.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer doc.Close()

	var out []table.RawTable
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		found, err := pageTables(doc, p)
		if err != nil {
			return nil, err
		}

		grids := keepTables(found, e.opts.MinRows)
		e.logger.Debug("extracted page", "page", p, "detected", len(found), "tables", len(grids))
		if len(grids) == 0 {
			return nil, fmt.Errorf("page %d: %w", p, ErrNoTables)
		}
		for i, rows := range grids {
			out = append(out, table.RawTable{Page: p, Index: i, Rows: rows})
		}
	}
	return out, nil
}

// pageCount validates the document and returns its number of pages.
func pageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	n, err := api.PageCount(f, conf)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count for %s: %w", path, err)
	}
	return n, nil
}

// pageTables runs the table finder on a 1-indexed page. The content parser
// panics on some malformed streams, so panics are turned into errors.
func pageTables(doc plumber.Document, pageNum int) (tables []plumber.Table, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: failed to read content: %v", pageNum, rec)
		}
	}()

	page, err := doc.GetPage(pageNum - 1)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w: %v", pageNum, ErrPageOutOfRange, err)
	}
	return page.ExtractTables(), nil
}

// keepTables trims cells, drops blank rows and columns, and keeps the grids
// with at least minRows rows and two columns. Short rows are padded so every
// grid is rectangular.
func keepTables(found []plumber.Table, minRows int) [][][]string {
	var grids [][][]string
	for _, t := range found {
		rows := trimGrid(t.Rows)
		if len(rows) < minRows || len(rows[0]) < 2 {
			continue
		}
		grids = append(grids, rows)
	}
	return grids
}

func trimGrid(in [][]string) [][]string {
	width := 0
	var rows [][]string
	for _, r := range in {
		row := make([]string, len(r))
		blank := true
		for i, c := range r {
			row[i] = strings.TrimSpace(c)
			if row[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		width = max(width, len(row))
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}

	used := make([]bool, width)
	for i, r := range rows {
		for len(r) < width {
			r = append(r, "")
		}
		rows[i] = r
		for j, c := range r {
			if c != "" {
				used[j] = true
			}
		}
	}
	for i, r := range rows {
		kept := r[:0]
		for j, c := range r {
			if used[j] {
				kept = append(kept, c)
			}
		}
		rows[i] = kept
	}
	return rows
}
