package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	yamlv3 "gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var fileSchema []byte

// ErrInvalidConfigFile is returned when a config file has unknown keys or
// values of the wrong type.
var ErrInvalidConfigFile = errors.New("invalid config file")

// validateFile checks a YAML or JSON config file against the embedded schema
// before viper merges it. Other config types are left to viper.
func validateFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var parsed map[string]any
	if err := yamlv3.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	if len(parsed) == 0 {
		return nil
	}

	// Round trip through JSON so the validator sees JSON types.
	data, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("failed to encode config for validation: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode config for validation: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", bytes.NewReader(fileSchema)); err != nil {
		return fmt.Errorf("failed to load config schema: %w", err)
	}
	schema, err := compiler.Compile("config.schema.json")
	if err != nil {
		return fmt.Errorf("failed to compile config schema: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w %s: %v", ErrInvalidConfigFile, path, err)
	}
	return nil
}
