package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/observability"
	"github.com/jonathan/credential-mapper/internal/schemas"
)

var validateCommand = &cobra.Command{
	Use:   "validate",
	Short: "List every schema violation of a document",
	Long:  "Validates a JSON or YAML document against a JSON schema and reports all violations, without patching anything.",
	RunE:  runValidateCmd,
}

var (
	validateDoc    string
	validateSchema string
)

func init() {
	validateCommand.Flags().StringVarP(&validateDoc, "doc", "d", "", "Path to the document (JSON or YAML)")
	validateCommand.Flags().StringVarP(&validateSchema, "schema", "s", "", "Path to the JSON schema")

	if err := validateCommand.MarkFlagRequired("doc"); err != nil {
		panic(fmt.Sprintf("failed to mark doc flag as required: %v", err))
	}
	if err := validateCommand.MarkFlagRequired("schema"); err != nil {
		panic(fmt.Sprintf("failed to mark schema flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCommand)
}

func runValidateCmd(cmd *cobra.Command, _ []string) error {
	return validateDocument(validateDoc, locateSchema(validateSchema), cmd.OutOrStdout())
}

func validateDocument(docPath, schemaPath string, w io.Writer) error {
	doc, err := document.LoadFile(docPath)
	if err != nil {
		return err
	}

	err = schemas.ValidateDocument(schemaPath, doc)
	var verr *schemas.ValidationError
	if err != nil && !errors.As(err, &verr) {
		return err
	}

	if verbose {
		observability.NewPrinter(w).PrintValidationErrors(verr)
	}
	if verr == nil {
		_, err := fmt.Fprintln(w, "Validation passed")
		return err
	}

	_, _ = fmt.Fprintln(w, "Validation failed:")
	for _, fe := range verr.Errors {
		_, _ = fmt.Fprintf(w, "  - %s: %s\n", fe.Location(), fe.Message)
	}
	return fmt.Errorf("validation failed with %d error(s)", len(verr.Errors))
}
