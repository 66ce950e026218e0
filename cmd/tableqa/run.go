package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tableqa/internal/config"
	"github.com/jackzampolin/tableqa/internal/extract"
	"github.com/jackzampolin/tableqa/internal/home"
	"github.com/jackzampolin/tableqa/internal/llmcall"
	"github.com/jackzampolin/tableqa/internal/pipeline"
	"github.com/jackzampolin/tableqa/internal/present"
	"github.com/jackzampolin/tableqa/internal/providers"
	"github.com/jackzampolin/tableqa/internal/query"
)

var (
	runSave   bool
	runRecord bool
)

// sourceBindings are shared by run and formats.
var sourceBindings = map[string]string{
	"source.pdf_path":  "pdf",
	"source.pages":     "pages",
	"source.selection": "selection",
	"query.formats":    "formats",
}

var runBindings = map[string]string{
	"query.question":   "question",
	"query.on_error":   "on-error",
	"llm.provider":     "provider",
	"llm.model":        "model",
	"output.max_width": "max-width",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract the table, query every format and print the answers",
	Long: `Extract the table from the configured PDF pages, serialize it into every
format and ask the configured question once per format.

With the default fail-fast policy the first failed request aborts the run
and nothing is printed. With --on-error continue failed formats are shown
with their error instead of an answer.

Examples:
  tableqa run
  tableqa run --pdf report.pdf --pages 2,3 --selection all
  tableqa run --question "Who is the oldest person listed?" --max-width 120
  tableqa run -o json --save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bindings := map[string]string{}
		for k, v := range sourceBindings {
			bindings[k] = v
		}
		for k, v := range runBindings {
			bindings[k] = v
		}
		cfg, h, err := loadConfig(cmd, bindings)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		fs, err := cfg.Formats()
		if err != nil {
			return err
		}

		logger := newLogger()
		logger.Debug("effective config", "config", cfg)

		p, err := buildPipeline(cfg, logger)
		if err != nil {
			return err
		}
		if runRecord {
			if err := h.EnsureExists(); err != nil {
				return err
			}
			rec, err := llmcall.OpenFile(h.CallsPath(), logger)
			if err != nil {
				return err
			}
			defer rec.Close()
			p.Runner.Recorder = rec
		}

		res, err := p.Run(cmd.Context(), pipeline.Request{
			PDFPath:  cfg.Source.PDFPath,
			Pages:    cfg.Source.Pages,
			Question: cfg.Query.Question,
			Formats:  fs,
		})
		if err != nil {
			return err
		}

		if runSave {
			if err := saveResult(h, res); err != nil {
				return err
			}
			logger.Info("saved result", "path", h.RunPath(res.RunID, "yaml"))
		}

		if f := output(); f.IsStructured() {
			return present.OutputTo(os.Stdout, f, res)
		}
		return present.RenderTable(os.Stdout, res.Question, res.Answers, cfg.Output.MaxWidth)
	},
}

func init() {
	addSourceFlags(runCmd)
	runCmd.Flags().String("question", "", "question to ask about the table")
	runCmd.Flags().String("on-error", "", "failure policy: fail-fast or continue")
	runCmd.Flags().String("provider", "", "LLM provider: openai or mock")
	runCmd.Flags().String("model", "", "chat model (default gpt-4o-mini)")
	runCmd.Flags().Int("max-width", 0, "maximum width of the printed table")
	runCmd.Flags().BoolVar(&runSave, "save", false, "also write the result to ~/.tableqa/runs/<run_id>.yaml")
	runCmd.Flags().BoolVar(&runRecord, "record-calls", false, "append every LLM call to ~/.tableqa/calls.jsonl")
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("pdf", "", "PDF file to read")
	cmd.Flags().IntSlice("pages", nil, "1-indexed pages to extract, e.g. 3 or 3,4")
	cmd.Flags().String("selection", "", "which tables to use: last, first, single or all")
	cmd.Flags().StringSlice("formats", nil, "limit to these formats, e.g. csv,json")
}

func buildPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	sel, err := pipeline.ParseSelection(cfg.Source.Selection)
	if err != nil {
		return nil, err
	}
	policy, err := query.ParsePolicy(cfg.Query.OnError)
	if err != nil {
		return nil, err
	}
	client, err := providers.NewClient(cfg.ToClientConfig(), logger)
	if err != nil {
		return nil, err
	}

	return &pipeline.Pipeline{
		Extractor: extract.NewPDFExtractor(cfg.Extract, logger),
		Runner: &query.Runner{
			Client:       client,
			Model:        cfg.LLM.Model,
			SystemPrompt: cfg.Query.SystemPrompt,
			Temperature:  cfg.LLM.Temperature,
			MaxTokens:    cfg.LLM.MaxTokens,
			Policy:       policy,
			Logger:       logger,
		},
		Selection: sel,
		Logger:    logger,
	}, nil
}

func saveResult(h *home.Dir, res *pipeline.Result) error {
	if err := h.EnsureExists(); err != nil {
		return err
	}
	f, err := os.Create(h.RunPath(res.RunID, "yaml"))
	if err != nil {
		return fmt.Errorf("failed to create result file: %w", err)
	}
	defer f.Close()
	return present.OutputTo(f, present.OutputFormatYAML, res)
}
