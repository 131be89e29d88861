package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/credential-mapper/internal/config"
	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/observability"
	"github.com/jonathan/credential-mapper/internal/repair"
	"github.com/jonathan/credential-mapper/internal/schemas"
)

var verifyCommand = &cobra.Command{
	Use:   "verify",
	Short: "Run the repair loop on a document and report the first field it needs",
	Long: `Decodes the document against the schema, making the structural patches needed to get
past recoverable failures. Prints "conforms" when the document decodes, otherwise the
location that needs a value. --out writes the patched document.`,
	RunE: runVerifyCmd,
}

var (
	verifyDoc    string
	verifySchema string
	verifyOut    string
)

// errNeedsValue marks a document that stops at a hole
var errNeedsValue = errors.New("document needs a value")

func init() {
	verifyCommand.Flags().StringVarP(&verifyDoc, "doc", "d", "", "Path to the document to verify (JSON or YAML)")
	verifyCommand.Flags().StringVarP(&verifySchema, "schema", "s", "", "Path to the JSON schema")
	verifyCommand.Flags().StringVarP(&verifyOut, "out", "o", "", "Write the patched document here")

	if err := verifyCommand.MarkFlagRequired("doc"); err != nil {
		panic(fmt.Sprintf("failed to mark doc flag as required: %v", err))
	}

	rootCmd.AddCommand(verifyCommand)
}

func runVerifyCmd(cmd *cobra.Command, _ []string) error {
	cfg := fileConfig
	overrideString(cmd.Flags(), "schema", &cfg.Schema, verifySchema)
	return verify(cfg, verifyDoc, verifyOut, cmd.OutOrStdout())
}

func verify(cfg config.Config, docPath, outPath string, w io.Writer) error {
	schemaPath := locateSchema(cfg.SchemaFor(cfg.OutputFormat))
	if err := requireValue(schemaPath, "schema"); err != nil {
		return err
	}

	schema, err := schemas.CompileFile(schemaPath)
	if err != nil {
		return err
	}
	doc, err := document.LoadFile(docPath)
	if err != nil {
		return err
	}

	outcome, err := repair.NewVerifier(schema, verifierOptions(cfg)...).Verify(doc)
	if err != nil {
		var ce *repair.ContractError
		if errors.As(err, &ce) {
			return fmt.Errorf("repair stopped at %q: %s", ce.Path.String(), ce.Description)
		}
		return err
	}

	if verbose {
		observability.NewPrinter(w).PrintOutcome(outcome)
	}
	if outPath != "" {
		if err := writeDocument(doc, outPath, w); err != nil {
			return err
		}
	}

	if outcome.Conforms() {
		_, err := fmt.Fprintln(w, "conforms")
		return err
	}
	_, _ = fmt.Fprintf(w, "needs a value at %s\n", outcome.Hole)
	return fmt.Errorf("%w at %s: %s", errNeedsValue, outcome.Hole, outcome.Defect.Description)
}
