package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/credential-mapper/internal/config"
	"github.com/jonathan/credential-mapper/internal/pipeline"
)

var missingCommand = &cobra.Command{
	Use:   "missing",
	Short: "List the output fields a mapping leaves for the user to fill",
	Long: `Builds a mapping session: applies the mapping to the input document, then walks the
output document against the target schema and lists every location that still needs a
value, one JSON pointer per line.

The schema comes from --schema, or from the config file's schemas entry for --out-format.
With --db-url (or DATABASE_URL) the session is stored in PostgreSQL.`,
	RunE: runMissingCmd,
}

var (
	missingIn            string
	missingMapping       string
	missingSchema        string
	missingInFormat      string
	missingOutFormat     string
	missingOut           string
	missingDatabaseURL   string
	missingMaxIterations int
)

func init() {
	missingCommand.Flags().StringVarP(&missingIn, "in", "i", "", "Path to the input document (JSON or YAML)")
	missingCommand.Flags().StringVarP(&missingMapping, "mapping", "m", "", "Path to the mapping file (JSON or YAML)")
	missingCommand.Flags().StringVarP(&missingSchema, "schema", "s", "", "Path to the output format JSON schema")
	missingCommand.Flags().StringVar(&missingInFormat, "in-format", "", "Format name of the input document")
	missingCommand.Flags().StringVar(&missingOutFormat, "out-format", "", "Format name of the output document")
	missingCommand.Flags().StringVarP(&missingOut, "out", "o", "", "Also write the transformed output document here")
	missingCommand.Flags().IntVar(&missingMaxIterations, "max-iterations", 0, "Cap on decode attempts per repair pass")

	// Database URL for session persistence
	missingCommand.Flags().StringVar(&missingDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(missingCommand)
}

func runMissingCmd(cmd *cobra.Command, _ []string) error {
	cfg := fileConfig
	flags := cmd.Flags()
	overrideString(flags, "in", &cfg.Input, missingIn)
	overrideString(flags, "mapping", &cfg.Mapping, missingMapping)
	overrideString(flags, "schema", &cfg.Schema, missingSchema)
	overrideString(flags, "in-format", &cfg.InputFormat, missingInFormat)
	overrideString(flags, "out-format", &cfg.OutputFormat, missingOutFormat)
	overrideString(flags, "db-url", &cfg.DatabaseURL, missingDatabaseURL)
	if flags.Changed("max-iterations") {
		cfg.MaxIterations = missingMaxIterations
	}

	// Fall back to environment variable
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	return listMissing(cmd.Context(), cfg, missingOut, cmd.OutOrStdout())
}

func listMissing(ctx context.Context, cfg config.Config, outPath string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg.Schema = locateSchema(cfg.SchemaFor(cfg.OutputFormat))
	if err := cfg.Validate(); err != nil {
		return err
	}
	schema := cfg.Schema
	if err := requireValue(schema, "schema"); err != nil {
		return err
	}

	session, err := pipeline.Run(ctx, pipeline.RunOptions{
		Inputs: pipeline.Inputs{
			DocumentPath: cfg.Input,
			MappingPath:  cfg.Mapping,
			SchemaPath:   schema,
			InputFormat:  cfg.InputFormat,
			OutputFormat: cfg.OutputFormat,
		},
		Verifier:    verifierOptions(cfg),
		DatabaseURL: cfg.DatabaseURL,
		Verbose:     verbose,
		Out:         w,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	if outPath != "" {
		if err := writeDocument(session.Output(), outPath, w); err != nil {
			return err
		}
	}

	if verbose {
		return nil
	}
	for _, p := range session.Missing() {
		if _, err := fmt.Fprintln(w, p.String()); err != nil {
			return err
		}
	}
	return nil
}
