package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tableqa/internal/extract"
	"github.com/jackzampolin/tableqa/internal/pipeline"
	"github.com/jackzampolin/tableqa/internal/present"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "Print the table in every serialization format without querying",
	Long: `Extract and normalize the table, then print each serialization exactly as
it would be sent to the model. No LLM request is made.

Examples:
  tableqa formats
  tableqa formats --pdf report.pdf --pages 2 --formats markdown,latex`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd, sourceBindings)
		if err != nil {
			return err
		}
		sel, err := pipeline.ParseSelection(cfg.Source.Selection)
		if err != nil {
			return err
		}
		fs, err := cfg.Formats()
		if err != nil {
			return err
		}

		logger := newLogger()
		p := &pipeline.Pipeline{
			Extractor: extract.NewPDFExtractor(cfg.Extract, logger),
			Selection: sel,
			Logger:    logger,
		}
		res, err := p.Serialize(cmd.Context(), pipeline.Request{
			PDFPath: cfg.Source.PDFPath,
			Pages:   cfg.Source.Pages,
			Formats: fs,
		})
		if err != nil {
			return err
		}

		type formatOutput struct {
			Format string `json:"format" yaml:"format"`
			Text   string `json:"text" yaml:"text"`
		}
		out := make([]formatOutput, 0, len(res.Records))
		for _, r := range res.Records {
			out = append(out, formatOutput{Format: string(r.Format), Text: r.Text()})
		}

		if f := output(); f.IsStructured() {
			return present.OutputTo(os.Stdout, f, out)
		}
		for _, o := range out {
			fmt.Printf("==> %s <==\n%s\n\n", o.Format, o.Text)
		}
		return nil
	},
}

func init() {
	addSourceFlags(formatsCmd)
}
