package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/credential-mapper/internal/observability"
	"github.com/jonathan/credential-mapper/internal/schemas"
)

var fieldsCommand = &cobra.Command{
	Use:   "fields",
	Short: "List every property path a JSON schema declares",
	RunE:  runFieldsCmd,
}

var fieldsSchema string

func init() {
	fieldsCommand.Flags().StringVarP(&fieldsSchema, "schema", "s", "", "Path to the JSON schema")
	if err := fieldsCommand.MarkFlagRequired("schema"); err != nil {
		panic(fmt.Sprintf("failed to mark schema flag as required: %v", err))
	}

	rootCmd.AddCommand(fieldsCommand)
}

func runFieldsCmd(cmd *cobra.Command, _ []string) error {
	return listFields(locateSchema(fieldsSchema), cmd.OutOrStdout())
}

func listFields(schemaPath string, w io.Writer) error {
	schema, err := schemas.CompileFile(schemaPath)
	if err != nil {
		return err
	}

	fields := schema.Fields()
	if verbose {
		observability.NewPrinter(w).PrintSchemaFields(schemaPath, fields)
		return nil
	}
	for _, f := range fields {
		if _, err := fmt.Fprintln(w, f); err != nil {
			return err
		}
	}
	return nil
}
