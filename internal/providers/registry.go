package providers

import (
	"fmt"
	"log/slog"
	"time"
)

// ClientConfig selects and configures an LLM client.
type ClientConfig struct {
	Provider   string // "openai" or "mock"
	APIKey     string
	OrgID      string
	ProjectID  string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// NewClient builds the client named by cfg.Provider.
func NewClient(cfg ClientConfig, logger *slog.Logger) (LLMClient, error) {
	switch cfg.Provider {
	case OpenAIName, "":
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai provider requires an API key (set llm.api_key or OPENAI_API_KEY)")
		}
		return NewOpenAIClient(OpenAIConfig{
			APIKey:     cfg.APIKey,
			OrgID:      cfg.OrgID,
			ProjectID:  cfg.ProjectID,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			Logger:     logger,
		}), nil
	case MockClientName:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
