// Package pipeline runs extraction, normalization, serialization and
// querying for one PDF in sequence and collects the answers.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/tableqa/internal/extract"
	"github.com/jackzampolin/tableqa/internal/formats"
	"github.com/jackzampolin/tableqa/internal/query"
	"github.com/jackzampolin/tableqa/internal/table"
)

// Request describes one run.
type Request struct {
	PDFPath  string
	Pages    []int
	Question string
	Formats  []formats.Format // empty means all
}

// Result is everything a run produced. It is safe to encode as JSON or YAML.
type Result struct {
	RunID     string               `json:"run_id" yaml:"run_id"`
	PDFPath   string               `json:"pdf_path" yaml:"pdf_path"`
	Pages     []int                `json:"pages" yaml:"pages"`
	Question  string               `json:"question" yaml:"question"`
	Selection Selection            `json:"selection" yaml:"selection"`
	Tables    []*table.Table       `json:"tables" yaml:"tables"`
	Records   []formats.Record     `json:"-" yaml:"-"`
	Answers   []query.AnswerRecord `json:"answers" yaml:"answers"`
	StartedAt time.Time            `json:"started_at" yaml:"started_at"`
	Duration  time.Duration        `json:"duration" yaml:"duration"`
}

// Pipeline wires an extractor to a query runner.
type Pipeline struct {
	Extractor extract.Extractor
	Runner    *query.Runner // nil is allowed for Serialize
	Selection Selection
	Logger    *slog.Logger
}

// Run executes every stage. The first failure aborts the run and is
// returned as a *StageError; the partial Result is returned with it.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	res, err := p.Serialize(ctx, req)
	if err != nil {
		return res, err
	}
	if p.Runner == nil {
		return res, &StageError{Stage: StageQuery, Err: errors.New("pipeline has no query runner")}
	}

	logger := p.logger().With("run_id", res.RunID)
	runner := *p.Runner
	runner.RunID = res.RunID
	for i, t := range res.Tables {
		records := recordsFor(res, i)
		label := ""
		if len(res.Tables) > 1 {
			label = t.Label()
		}
		logger.Info("querying", "table", t.Label(), "formats", len(records))
		answers, err := runner.RunTable(ctx, label, req.Question, records)
		res.Answers = append(res.Answers, answers...)
		if err != nil {
			se := &StageError{Stage: StageQuery, Page: t.Page, Table: t.Label(), Err: err}
			var qerr *query.Error
			if errors.As(err, &qerr) {
				se.Format = qerr.Format
				se.Err = qerr.Err
			}
			res.Duration = time.Since(res.StartedAt)
			return res, se
		}
	}
	res.Duration = time.Since(res.StartedAt)
	logger.Info("run complete", "answers", len(res.Answers), "failed", query.Failed(res.Answers),
		"duration", res.Duration)
	return res, nil
}

// Serialize runs extraction, normalization and serialization only.
// Records of all selected tables are concatenated in table order.
func (p *Pipeline) Serialize(ctx context.Context, req Request) (*Result, error) {
	res := &Result{
		RunID:     uuid.New().String(),
		PDFPath:   req.PDFPath,
		Pages:     req.Pages,
		Question:  req.Question,
		Selection: p.Selection,
		StartedAt: time.Now(),
	}
	if res.Selection == "" {
		res.Selection = SelectLast
	}
	logger := p.logger().With("run_id", res.RunID)

	if p.Extractor == nil {
		return res, &StageError{Stage: StageExtract, Err: errors.New("pipeline has no extractor")}
	}
	logger.Info("extracting", "pdf", req.PDFPath, "pages", req.Pages)
	raws, err := p.Extractor.Extract(ctx, req.PDFPath, req.Pages)
	if err != nil {
		return res, &StageError{Stage: StageExtract, Err: err}
	}
	raws, err = res.Selection.Apply(raws)
	if err != nil {
		return res, &StageError{Stage: StageExtract, Err: err}
	}

	for _, raw := range raws {
		t, err := table.Normalize(raw)
		if err != nil {
			return res, &StageError{Stage: StageNormalize, Page: raw.Page,
				Table: (&table.Table{Page: raw.Page, Index: raw.Index}).Label(), Err: err}
		}
		logger.Debug("normalized", "table", t.Label(), "columns", len(t.Columns), "rows", t.NumRows())
		res.Tables = append(res.Tables, t)

		records, err := formats.SerializeFormats(t, req.Formats)
		if err != nil {
			se := &StageError{Stage: StageSerialize, Page: t.Page, Table: t.Label(), Err: err}
			var ferr *formats.Error
			if errors.As(err, &ferr) {
				se.Format = ferr.Format
				se.Err = ferr.Err
			}
			return res, se
		}
		res.Records = append(res.Records, records...)
	}
	res.Duration = time.Since(res.StartedAt)
	return res, nil
}

// recordsFor returns the slice of res.Records belonging to table i.
// Every table contributes the same number of records.
func recordsFor(res *Result, i int) []formats.Record {
	per := len(res.Records) / len(res.Tables)
	return res.Records[i*per : (i+1)*per]
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
