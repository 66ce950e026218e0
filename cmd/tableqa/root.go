package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tableqa/internal/config"
	"github.com/jackzampolin/tableqa/internal/home"
	"github.com/jackzampolin/tableqa/internal/present"
	"github.com/jackzampolin/tableqa/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "tableqa",
	Short: "Ask an LLM about a PDF table in every serialization format",
	Long: `tableqa extracts a table from a PDF page, serializes it into ten textual
formats and asks a chat model the same question once per format, using each
serialization as context. The answers are printed side by side so the formats
can be compared.

Formats: JSON, DICT, CSV, TSV, HTML, LaTeX, Markdown, STRING, NumPy, XML`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.tableqa/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "tableqa home directory (default: ~/.tableqa)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "table", "output format: table, yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if _, err := present.ParseOutputFormat(outputFormat); err != nil {
			return err
		}
		_, err := parseLevel(logLevel)
		return err
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger writes to stderr; stdout carries only results.
func newLogger() *slog.Logger {
	level, _ := parseLevel(logLevel)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func output() present.OutputFormat {
	f, _ := present.ParseOutputFormat(outputFormat)
	return f
}

// loadConfig reads defaults, the config file and TABLEQA_* variables,
// then applies any flags of cmd listed in bindings (config key -> flag name).
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, *home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}

	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, nil, err
	}
	for key, name := range bindings {
		if err := mgr.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := mgr.Reload()
	if err != nil {
		return nil, nil, err
	}
	if used := mgr.ConfigFileUsed(); used != "" {
		newLogger().Debug("loaded config", "file", used)
	}
	return cfg, h, nil
}
