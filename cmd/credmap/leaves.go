package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/observability"
)

var leavesCommand = &cobra.Command{
	Use:   "leaves",
	Short: "List the leaf values of a document with their JSON pointers",
	Long:  `Prints one "pointer<TAB>value" line per leaf, ordered by pointer. Values are compact JSON.`,
	RunE:  runLeavesCmd,
}

var leavesIn string

func init() {
	leavesCommand.Flags().StringVarP(&leavesIn, "in", "i", "", "Path to the document (JSON or YAML)")
	if err := leavesCommand.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(leavesCommand)
}

func runLeavesCmd(cmd *cobra.Command, _ []string) error {
	return listLeaves(leavesIn, cmd.OutOrStdout())
}

func listLeaves(path string, w io.Writer) error {
	doc, err := document.LoadFile(path)
	if err != nil {
		return err
	}

	leaves := doc.Leaves()
	if verbose {
		observability.NewPrinter(w).PrintLeaves(leaves)
		return nil
	}
	for _, l := range leaves {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", l.Path, l.Rendered()); err != nil {
			return err
		}
	}
	return nil
}
