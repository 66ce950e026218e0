package config

import (
	"github.com/spf13/viper"

	"github.com/jackzampolin/tableqa/internal/extract"
	"github.com/jackzampolin/tableqa/internal/present"
	"github.com/jackzampolin/tableqa/internal/providers"
	"github.com/jackzampolin/tableqa/internal/query"
)

// DefaultPDFPath is where the sample document is expected.
const DefaultPDFPath = "./data_sources/World_Billionaires_Wikipedia.pdf"

// DefaultConfig returns the configuration used when no file or
// environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceCfg{
			PDFPath:   DefaultPDFPath,
			Pages:     []int{3},
			Selection: "last",
		},
		LLM: LLMCfg{
			Provider:       providers.OpenAIName,
			Model:          "gpt-4o-mini",
			APIKey:         "${OPENAI_API_KEY}",
			OrgID:          "${OPENAI_ORG_ID}",
			ProjectID:      "${OPENAI_PROJECT_ID}",
			TimeoutSeconds: 120,
			MaxRetries:     3,
		},
		Query: QueryCfg{
			Question:     query.DefaultQuestion,
			SystemPrompt: query.SystemPrompt(),
			OnError:      string(query.FailFast),
		},
		Output: OutputCfg{
			MaxWidth: present.DefaultMaxWidth,
		},
		Extract: extract.DefaultOptions(),
	}
}

// setDefaults registers every leaf key so that environment variables and
// flags can override them individually.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("source.pdf_path", d.Source.PDFPath)
	v.SetDefault("source.pages", d.Source.Pages)
	v.SetDefault("source.selection", d.Source.Selection)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.org_id", d.LLM.OrgID)
	v.SetDefault("llm.project_id", d.LLM.ProjectID)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.timeout_seconds", d.LLM.TimeoutSeconds)
	v.SetDefault("llm.max_retries", d.LLM.MaxRetries)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)

	v.SetDefault("query.question", d.Query.Question)
	v.SetDefault("query.system_prompt", d.Query.SystemPrompt)
	v.SetDefault("query.on_error", d.Query.OnError)
	v.SetDefault("query.formats", []string{})

	v.SetDefault("output.max_width", d.Output.MaxWidth)

	v.SetDefault("extract.min_rows", d.Extract.MinRows)
}
