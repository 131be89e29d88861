// Package config provides configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	Input   string            `json:"input,omitempty" yaml:"input,omitempty"`     // Input document
	Mapping string            `json:"mapping,omitempty" yaml:"mapping,omitempty"` // Transformation list
	Schema  string            `json:"schema,omitempty" yaml:"schema,omitempty"`   // Target schema
	Schemas map[string]string `json:"schemas,omitempty" yaml:"schemas,omitempty"` // Schema file per output format

	// Formats
	InputFormat  string `json:"input_format,omitempty" yaml:"input_format,omitempty" validate:"omitempty,nefield=OutputFormat"`
	OutputFormat string `json:"output_format,omitempty" yaml:"output_format,omitempty"`

	// Repair loop
	MaxIterations   int               `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty" validate:"gte=0"`
	KnownLiterals   []string          `json:"known_literals,omitempty" yaml:"known_literals,omitempty" validate:"dive,required"`
	FormatSentinels map[string]string `json:"format_sentinels,omitempty" yaml:"format_sentinels,omitempty" validate:"dive,keys,required,endkeys,required"`

	// Behavior
	Verbose     bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`                                    // Print detailed debug information
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty" validate:"omitempty,url"` // PostgreSQL connection URL
	DataDir     string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`                                  // Root for files named in API requests
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their config file names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("config error: '%s' %s", verrs[0].Field(), describeTag(verrs[0]))
		}
		return fmt.Errorf("config error: %w", err)
	}

	// Validate file paths exist (if specified)
	files := []struct{ key, path string }{
		{"input", c.Input},
		{"mapping", c.Mapping},
		{"schema", c.Schema},
	}
	for format, path := range c.Schemas {
		files = append(files, struct{ key, path string }{"schemas." + format, path})
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); os.IsNotExist(err) {
			return fmt.Errorf("config error: %s file not found: %s", f.key, f.path)
		}
	}

	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be non-negative"
	case "nefield":
		return "must differ from 'output_format'"
	case "url":
		return "must be a connection URL"
	case "required":
		return "must not contain empty values"
	default:
		return fmt.Sprintf("failed the %q check", fe.Tag())
	}
}

// SchemaFor returns the schema file for an output format: the explicit schema when
// set, otherwise the per-format entry.
func (c *Config) SchemaFor(format string) string {
	if c.Schema != "" {
		return c.Schema
	}
	return c.Schemas[format]
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Input == "" {
		result.Input = defaults.Input
	}
	if result.Mapping == "" {
		result.Mapping = defaults.Mapping
	}
	if result.Schema == "" {
		result.Schema = defaults.Schema
	}
	if result.InputFormat == "" {
		result.InputFormat = defaults.InputFormat
	}
	if result.OutputFormat == "" {
		result.OutputFormat = defaults.OutputFormat
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}

	// Int fields: use default if zero
	if result.MaxIterations == 0 {
		result.MaxIterations = defaults.MaxIterations
	}

	// Collections: use default if empty
	if len(result.KnownLiterals) == 0 {
		result.KnownLiterals = defaults.KnownLiterals
	}
	if len(result.Schemas) == 0 {
		result.Schemas = defaults.Schemas
	}
	if len(result.FormatSentinels) == 0 {
		result.FormatSentinels = defaults.FormatSentinels
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
