package config

import "github.com/jackzampolin/tableqa/internal/extract"

// Config holds tableqa configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Source  SourceCfg       `mapstructure:"source" yaml:"source"`
	LLM     LLMCfg          `mapstructure:"llm" yaml:"llm"`
	Query   QueryCfg        `mapstructure:"query" yaml:"query"`
	Output  OutputCfg       `mapstructure:"output" yaml:"output"`
	Extract extract.Options `mapstructure:"extract" yaml:"extract"`
}

// SourceCfg selects the document and the tables to read from it.
type SourceCfg struct {
	PDFPath   string `mapstructure:"pdf_path" yaml:"pdf_path"`
	Pages     []int  `mapstructure:"pages" yaml:"pages"`         // 1-indexed
	Selection string `mapstructure:"selection" yaml:"selection"` // last, first, single, all
}

// LLMCfg configures the chat-completion service.
type LLMCfg struct {
	Provider       string   `mapstructure:"provider" yaml:"provider"`             // "openai" or "mock"
	Model          string   `mapstructure:"model" yaml:"model"`
	APIKey         string   `mapstructure:"api_key" yaml:"api_key"`               // supports ${ENV_VAR} syntax
	OrgID          string   `mapstructure:"org_id" yaml:"org_id"`                 // supports ${ENV_VAR} syntax
	ProjectID      string   `mapstructure:"project_id" yaml:"project_id"`         // supports ${ENV_VAR} syntax
	BaseURL        string   `mapstructure:"base_url" yaml:"base_url"`             // compatible endpoints
	TimeoutSeconds int      `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int      `mapstructure:"max_retries" yaml:"max_retries"`
	Temperature    *float64 `mapstructure:"temperature" yaml:"temperature,omitempty"`
	MaxTokens      int      `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// QueryCfg holds the question and how failures are handled.
type QueryCfg struct {
	Question     string   `mapstructure:"question" yaml:"question"`
	SystemPrompt string   `mapstructure:"system_prompt" yaml:"system_prompt"`
	OnError      string   `mapstructure:"on_error" yaml:"on_error"` // fail-fast, continue
	Formats      []string `mapstructure:"formats" yaml:"formats"`   // empty means all
}

// OutputCfg controls how results are shown.
type OutputCfg struct {
	MaxWidth int `mapstructure:"max_width" yaml:"max_width"`
}
