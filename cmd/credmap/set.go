package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/pointer"
)

var setCommand = &cobra.Command{
	Use:   "set",
	Short: "Merge a value into a document at a JSON pointer",
	Long: `Builds the structure the pointer describes around the value and merges it into the
document. Existing values elsewhere are kept. The value is read as JSON and falls back
to a plain string, so --value Person and --value '"Person"' are the same.`,
	RunE: runSetCmd,
}

var (
	setDoc   string
	setPath  string
	setValue string
	setOut   string
)

func init() {
	setCommand.Flags().StringVarP(&setDoc, "doc", "d", "", "Path to the document (JSON or YAML)")
	setCommand.Flags().StringVarP(&setPath, "path", "p", "", "JSON pointer of the value to set")
	setCommand.Flags().StringVar(&setValue, "value", "", "Value to set, as JSON or a plain string")
	setCommand.Flags().StringVarP(&setOut, "out", "o", "", "Write the result here instead of stdout")

	if err := setCommand.MarkFlagRequired("doc"); err != nil {
		panic(fmt.Sprintf("failed to mark doc flag as required: %v", err))
	}
	if err := setCommand.MarkFlagRequired("path"); err != nil {
		panic(fmt.Sprintf("failed to mark path flag as required: %v", err))
	}
	if err := setCommand.MarkFlagRequired("value"); err != nil {
		panic(fmt.Sprintf("failed to mark value flag as required: %v", err))
	}

	rootCmd.AddCommand(setCommand)
}

func runSetCmd(cmd *cobra.Command, _ []string) error {
	return setField(setDoc, setPath, setValue, setOut, cmd.OutOrStdout())
}

func setField(docPath, rawPath, rawValue, outPath string, w io.Writer) error {
	p, err := pointer.Parse(rawPath)
	if err != nil {
		return fmt.Errorf("invalid --path: %w", err)
	}
	doc, err := document.LoadFile(docPath)
	if err != nil {
		return err
	}

	changed, err := doc.MergeAt(p, parseValue(rawValue))
	if err != nil {
		return fmt.Errorf("invalid --path: %w", err)
	}
	if !changed {
		logger.Info("Value already present", zap.String("path", p.String()))
	}
	return writeDocument(doc, outPath, w)
}
