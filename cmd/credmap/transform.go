package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/credential-mapper/internal/config"
	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/mapping"
	"github.com/jonathan/credential-mapper/internal/observability"
	"github.com/jonathan/credential-mapper/internal/repository"
)

var transformCommand = &cobra.Command{
	Use:   "transform",
	Short: "Apply a mapping to a document and print the output format document",
	Long: `Loads the input document into the repository under --in-format, applies every
transformation of the mapping in order and prints the document held under --out-format.`,
	RunE: runTransformCmd,
}

var (
	transformIn        string
	transformMapping   string
	transformInFormat  string
	transformOutFormat string
	transformOut       string
)

func init() {
	transformCommand.Flags().StringVarP(&transformIn, "in", "i", "", "Path to the input document (JSON or YAML)")
	transformCommand.Flags().StringVarP(&transformMapping, "mapping", "m", "", "Path to the mapping file (JSON or YAML)")
	transformCommand.Flags().StringVar(&transformInFormat, "in-format", "", "Format name of the input document")
	transformCommand.Flags().StringVar(&transformOutFormat, "out-format", "", "Format name of the document to print")
	transformCommand.Flags().StringVarP(&transformOut, "out", "o", "", "Write the output document here instead of stdout")

	rootCmd.AddCommand(transformCommand)
}

func runTransformCmd(cmd *cobra.Command, _ []string) error {
	cfg := fileConfig
	flags := cmd.Flags()
	overrideString(flags, "in", &cfg.Input, transformIn)
	overrideString(flags, "mapping", &cfg.Mapping, transformMapping)
	overrideString(flags, "in-format", &cfg.InputFormat, transformInFormat)
	overrideString(flags, "out-format", &cfg.OutputFormat, transformOutFormat)

	return transform(cfg, transformOut, cmd.OutOrStdout())
}

func transform(cfg config.Config, outPath string, w io.Writer) error {
	for _, req := range []struct{ value, flag string }{
		{cfg.Input, "in"},
		{cfg.Mapping, "mapping"},
		{cfg.InputFormat, "in-format"},
		{cfg.OutputFormat, "out-format"},
	} {
		if err := requireValue(req.value, req.flag); err != nil {
			return err
		}
	}

	doc, err := document.LoadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to load input document: %w", err)
	}
	ts, err := mapping.LoadFile(cfg.Mapping)
	if err != nil {
		return fmt.Errorf("failed to load mapping: %w", err)
	}
	if verbose {
		observability.NewPrinter(w).PrintTransformations(ts)
	}

	repo := repository.New(map[string]*document.Document{cfg.InputFormat: doc}, repository.WithLogger(logger))
	if err := repo.ApplyTransformations(ts); err != nil {
		return err
	}

	out, ok := repo.Get(cfg.OutputFormat)
	if !ok {
		out = document.Empty()
	}
	return writeDocument(out, outPath, w)
}
