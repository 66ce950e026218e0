package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jackzampolin/tableqa/internal/extract"
	"github.com/jackzampolin/tableqa/internal/formats"
	"github.com/jackzampolin/tableqa/internal/present"
	"github.com/jackzampolin/tableqa/internal/providers"
	"github.com/jackzampolin/tableqa/internal/query"
	"github.com/jackzampolin/tableqa/internal/table"
)

type fakeExtractor struct {
	tables []table.RawTable
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, path string, pages []int) ([]table.RawTable, error) {
	return f.tables, f.err
}

var billionaires = table.RawTable{Page: 3, Index: 0, Rows: [][]string{
	{"No.", "Name", "Net worth\n(USD)", "Age"},
	{"1", "Elon\nMusk", "$195 billion", "52"},
	{"2", "Bernard Arnault", "$191 billion", "75"},
}}

var countries = table.RawTable{Page: 4, Index: 0, Rows: [][]string{
	{"Country", "Count"},
	{"United States", "735"},
}}

func newPipeline(ext extract.Extractor, client providers.LLMClient, sel Selection) *Pipeline {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return &Pipeline{
		Extractor: ext,
		Runner:    &query.Runner{Client: client, Model: "gpt-4o-mini", Logger: logger},
		Selection: sel,
		Logger:    logger,
	}
}

func TestRunEndToEnd(t *testing.T) {
	client := providers.NewMockClient()
	client.ResponseText = "The median age is 63.5."
	p := newPipeline(&fakeExtractor{tables: []table.RawTable{billionaires}}, client, SelectLast)

	res, err := p.Run(context.Background(), Request{PDFPath: "x.pdf", Pages: []int{3}, Question: "Median age?"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.RunID == "" {
		t.Error("missing run id")
	}
	if len(res.Tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(res.Tables))
	}
	if got := strings.Join(res.Tables[0].Columns, ","); got != "No.,Name,NetworthUSD,Age" {
		t.Errorf("columns = %s", got)
	}
	if len(res.Answers) != len(formats.All()) {
		t.Fatalf("got %d answers, want %d", len(res.Answers), len(formats.All()))
	}
	for i, f := range formats.All() {
		if res.Answers[i].Format != f {
			t.Errorf("answer %d format = %s, want %s", i, res.Answers[i].Format, f)
		}
	}

	var buf bytes.Buffer
	if err := present.RenderTable(&buf, res.Question, res.Answers, 150); err != nil {
		t.Fatalf("RenderTable() error = %v", err)
	}
	if !strings.Contains(buf.String(), "The median age is 63.5.") {
		t.Errorf("answer missing from table:\n%s", buf.String())
	}
}

func TestRunSelection(t *testing.T) {
	ext := &fakeExtractor{tables: []table.RawTable{billionaires, countries}}

	t.Run("last", func(t *testing.T) {
		client := providers.NewMockClient()
		res, err := newPipeline(ext, client, SelectLast).Run(context.Background(), Request{Question: "q"})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(res.Tables) != 1 || res.Tables[0].Page != 4 {
			t.Errorf("selected %+v, want page 4", res.Tables)
		}
	})

	t.Run("first", func(t *testing.T) {
		res, err := newPipeline(ext, providers.NewMockClient(), SelectFirst).Run(context.Background(), Request{Question: "q"})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if res.Tables[0].Page != 3 {
			t.Errorf("selected page %d, want 3", res.Tables[0].Page)
		}
	})

	t.Run("single", func(t *testing.T) {
		_, err := newPipeline(ext, providers.NewMockClient(), SelectSingle).Run(context.Background(), Request{Question: "q"})
		if !errors.Is(err, ErrExtraction) || !errors.Is(err, ErrAmbiguousTable) {
			t.Fatalf("Run() error = %v, want ambiguous extraction error", err)
		}
	})

	t.Run("all", func(t *testing.T) {
		client := providers.NewMockClient()
		res, err := newPipeline(ext, client, SelectAll).Run(context.Background(), Request{Question: "q"})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		n := len(formats.All())
		if len(res.Answers) != 2*n {
			t.Fatalf("got %d answers, want %d", len(res.Answers), 2*n)
		}
		if res.Answers[0].Table != "page 3 table 0" || res.Answers[n].Table != "page 4 table 0" {
			t.Errorf("labels = %q, %q", res.Answers[0].Table, res.Answers[n].Table)
		}
		if len(client.Requests()) != 2*n {
			t.Errorf("sent %d requests, want %d", len(client.Requests()), 2*n)
		}
	})
}

func TestRunStageErrors(t *testing.T) {
	t.Run("extract", func(t *testing.T) {
		ext := &fakeExtractor{err: extract.ErrPageOutOfRange}
		_, err := newPipeline(ext, providers.NewMockClient(), SelectLast).Run(context.Background(), Request{Question: "q"})
		var se *StageError
		if !errors.As(err, &se) || se.Stage != StageExtract {
			t.Fatalf("Run() error = %v, want extract StageError", err)
		}
		if !errors.Is(err, ErrExtraction) || !errors.Is(err, extract.ErrPageOutOfRange) {
			t.Errorf("error chain broken: %v", err)
		}
	})

	t.Run("normalize", func(t *testing.T) {
		dup := table.RawTable{Page: 3, Rows: [][]string{{"A B", "AB"}, {"1", "2"}}}
		_, err := newPipeline(&fakeExtractor{tables: []table.RawTable{dup}}, providers.NewMockClient(), SelectLast).
			Run(context.Background(), Request{Question: "q"})
		if !errors.Is(err, ErrNormalization) || !errors.Is(err, table.ErrDuplicateColumn) {
			t.Fatalf("Run() error = %v, want duplicate column normalization error", err)
		}
	})

	t.Run("serialize", func(t *testing.T) {
		bad := table.RawTable{Page: 3, Rows: [][]string{{"No.", "1st"}, {"1", "2"}}}
		_, err := newPipeline(&fakeExtractor{tables: []table.RawTable{bad}}, providers.NewMockClient(), SelectLast).
			Run(context.Background(), Request{Question: "q"})
		var se *StageError
		if !errors.As(err, &se) || se.Stage != StageSerialize || se.Format != formats.XML {
			t.Fatalf("Run() error = %v, want XML serialize StageError", err)
		}
		if !errors.Is(err, ErrSerialization) {
			t.Errorf("errors.Is(ErrSerialization) = false")
		}
	})

	t.Run("query fail fast", func(t *testing.T) {
		client := providers.NewMockClient()
		client.FailAfter = 2
		res, err := newPipeline(&fakeExtractor{tables: []table.RawTable{billionaires}}, client, SelectLast).
			Run(context.Background(), Request{Question: "q"})
		var se *StageError
		if !errors.As(err, &se) || se.Stage != StageQuery {
			t.Fatalf("Run() error = %v, want query StageError", err)
		}
		if se.Format != formats.CSV {
			t.Errorf("failed format = %s, want CSV", se.Format)
		}
		if !errors.Is(err, ErrService) {
			t.Errorf("errors.Is(ErrService) = false")
		}
		if len(res.Answers) != 2 {
			t.Errorf("got %d answers before failure, want 2", len(res.Answers))
		}
	})

	t.Run("query continue", func(t *testing.T) {
		client := providers.NewMockClient()
		client.FailAfter = 2
		p := newPipeline(&fakeExtractor{tables: []table.RawTable{billionaires}}, client, SelectLast)
		p.Runner.Policy = query.Continue
		res, err := p.Run(context.Background(), Request{Question: "q"})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got := query.Failed(res.Answers); got != len(formats.All())-2 {
			t.Errorf("failed answers = %d, want %d", got, len(formats.All())-2)
		}
	})
}

func TestSerializeOnly(t *testing.T) {
	p := &Pipeline{Extractor: &fakeExtractor{tables: []table.RawTable{billionaires}}}
	res, err := p.Serialize(context.Background(), Request{Formats: []formats.Format{formats.CSV, formats.JSON}})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if len(res.Records) != 2 || res.Records[0].Format != formats.JSON || res.Records[1].Format != formats.CSV {
		t.Errorf("records = %+v", res.Records)
	}
	if !strings.Contains(res.Records[1].Text(), "ElonMusk") {
		t.Errorf("CSV missing cleaned cell:\n%s", res.Records[1].Text())
	}
}

func TestParseSelection(t *testing.T) {
	for in, want := range map[string]Selection{"": SelectLast, "LAST": SelectLast, "first": SelectFirst, "single": SelectSingle, "all": SelectAll} {
		got, err := ParseSelection(in)
		if err != nil || got != want {
			t.Errorf("ParseSelection(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseSelection("middle"); err == nil {
		t.Error("expected error")
	}
}

func TestSelectionEmpty(t *testing.T) {
	if _, err := SelectLast.Apply(nil); !errors.Is(err, table.ErrEmptyTable) {
		t.Fatalf("Apply(nil) error = %v", err)
	}
}
