package main

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/jonathan/credential-mapper/internal/config"
	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/repair"
	"github.com/jonathan/credential-mapper/internal/schemas"
)

// overrideString sets *dst from a flag only when the flag was given
func overrideString(flags *pflag.FlagSet, name string, dst *string, value string) {
	if flags.Changed(name) {
		*dst = value
	}
}

// verifierOptions turns the repair settings of cfg into verifier options
func verifierOptions(cfg config.Config) []repair.Option {
	opts := []repair.Option{repair.WithLogger(logger)}
	if cfg.MaxIterations > 0 {
		opts = append(opts, repair.WithMaxIterations(cfg.MaxIterations))
	}
	if len(cfg.KnownLiterals) > 0 {
		literals := make([]any, len(cfg.KnownLiterals))
		for i, l := range cfg.KnownLiterals {
			literals[i] = l
		}
		opts = append(opts, repair.WithKnownLiterals(literals...))
	}
	for format, sentinel := range cfg.FormatSentinels {
		opts = append(opts, repair.WithFormatSentinel(format, sentinel))
	}
	return opts
}

// writeDocument saves doc to path, or prints it as indented JSON when path is empty
func writeDocument(doc *document.Document, path string, w io.Writer) error {
	if path != "" {
		return document.WriteFile(doc, path)
	}
	data, err := json.MarshalIndent(doc.Root(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// parseValue reads a command line value as JSON, falling back to a plain string
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// locateSchema finds a schema given relative to the working directory or a parent of it
func locateSchema(path string) string {
	if path == "" {
		return ""
	}
	if resolved := schemas.ResolveSchemaPath(path); resolved != "" {
		return resolved
	}
	return path
}

// requireValue reports a missing setting that may come from a flag or the config file
func requireValue(value, flag string) error {
	if value == "" {
		return fmt.Errorf("--%s must be provided (via flag or config)", flag)
	}
	return nil
}
