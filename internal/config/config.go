package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/tableqa/internal/formats"
	"github.com/jackzampolin/tableqa/internal/pipeline"
	"github.com/jackzampolin/tableqa/internal/present"
	"github.com/jackzampolin/tableqa/internal/providers"
	"github.com/jackzampolin/tableqa/internal/query"
)

// Manager loads configuration from defaults, a config file, TABLEQA_*
// environment variables and bound command-line flags, in increasing order
// of precedence.
type Manager struct {
	mu     sync.RWMutex
	v      *viper.Viper
	config *Config
}

// NewManager creates a new config manager and loads initial config.
// cfgFile may be empty, in which case ./config.yaml and then
// searchDirs/config.yaml are tried.
func NewManager(cfgFile string, searchDirs ...string) (*Manager, error) {
	cm := &Manager{v: viper.New()}

	if err := cm.initViper(cfgFile, searchDirs); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string, searchDirs []string) error {
	v := cm.v
	setDefaults(v)

	// Environment variables with TABLEQA_ prefix, e.g. TABLEQA_LLM_MODEL
	v.SetEnvPrefix("TABLEQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		for _, dir := range searchDirs {
			v.AddConfigPath(dir)
		}
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		return nil
	}

	return validateFile(v.ConfigFileUsed())
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// BindFlag makes a command-line flag override key when the flag is set.
func (cm *Manager) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag for config key %s", key)
	}
	return cm.v.BindPFlag(key, flag)
}

// Reload re-reads viper state, picking up bound flags.
func (cm *Manager) Reload() (*Config, error) {
	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.mu.Lock()
	cm.config = cfg
	cm.mu.Unlock()
	return cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func (cm *Manager) ConfigFileUsed() string {
	return cm.v.ConfigFileUsed()
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Source.PDFPath) == "" {
		errs = append(errs, errors.New("source.pdf_path is empty"))
	}
	if len(c.Source.Pages) == 0 {
		errs = append(errs, errors.New("source.pages is empty"))
	}
	for _, p := range c.Source.Pages {
		if p < 1 {
			errs = append(errs, fmt.Errorf("source.pages: page %d is not positive", p))
		}
	}
	if _, err := pipeline.ParseSelection(c.Source.Selection); err != nil {
		errs = append(errs, fmt.Errorf("source.selection: %w", err))
	}

	switch c.LLM.Provider {
	case providers.OpenAIName, providers.MockClientName:
	default:
		errs = append(errs, fmt.Errorf("llm.provider: unknown provider %q", c.LLM.Provider))
	}
	if c.LLM.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("llm.timeout_seconds is negative"))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, errors.New("llm.max_retries is negative"))
	}

	if strings.TrimSpace(c.Query.Question) == "" {
		errs = append(errs, errors.New("query.question is empty"))
	}
	if _, err := query.ParsePolicy(c.Query.OnError); err != nil {
		errs = append(errs, fmt.Errorf("query.on_error: %w", err))
	}
	if _, err := c.Formats(); err != nil {
		errs = append(errs, fmt.Errorf("query.formats: %w", err))
	}

	if c.Output.MaxWidth < present.MinWidth() {
		errs = append(errs, fmt.Errorf("output.max_width %d is below the minimum of %d", c.Output.MaxWidth, present.MinWidth()))
	}

	return errors.Join(errs...)
}

// Formats parses query.formats; empty means all.
func (c *Config) Formats() ([]formats.Format, error) {
	out := make([]formats.Format, 0, len(c.Query.Formats))
	for _, name := range c.Query.Formats {
		f, err := formats.Parse(name)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// ToClientConfig converts the llm section for providers.NewClient.
// It resolves all ${ENV_VAR} references in credentials.
func (c *Config) ToClientConfig() providers.ClientConfig {
	return providers.ClientConfig{
		Provider:   c.LLM.Provider,
		APIKey:     ResolveEnvVars(c.LLM.APIKey),
		OrgID:      ResolveEnvVars(c.LLM.OrgID),
		ProjectID:  ResolveEnvVars(c.LLM.ProjectID),
		Model:      c.LLM.Model,
		BaseURL:    c.LLM.BaseURL,
		Timeout:    time.Duration(c.LLM.TimeoutSeconds) * time.Second,
		MaxRetries: c.LLM.MaxRetries,
	}
}

// Redacted returns a copy safe to print: literal credentials are masked,
// ${ENV_VAR} references are kept as written.
func (c *Config) Redacted() *Config {
	out := *c
	out.LLM.APIKey = redact(c.LLM.APIKey)
	return &out
}

func redact(v string) string {
	if v == "" || envVarPattern.MatchString(v) && envVarPattern.ReplaceAllString(v, "") == "" {
		return v
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:3] + "****" + v[len(v)-4:]
}

// LogValue keeps credentials out of structured logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("pdf", c.Source.PDFPath),
		slog.Any("pages", c.Source.Pages),
		slog.String("selection", c.Source.Selection),
		slog.String("provider", c.LLM.Provider),
		slog.String("model", c.LLM.Model),
		slog.String("on_error", c.Query.OnError),
	)
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# tableqa configuration
# Credentials use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export OPENAI_API_KEY=xxx
# Any key can also be overridden with TABLEQA_<SECTION>_<KEY>, e.g. TABLEQA_LLM_MODEL

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
