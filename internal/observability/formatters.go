// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/pointer"
	"github.com/jonathan/credential-mapper/internal/repair"
	"github.com/jonathan/credential-mapper/internal/schemas"
	"github.com/jonathan/credential-mapper/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 20
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// writeList appends up to maxItemsToShow bullet lines and a remainder note
func writeList(sb *strings.Builder, items []string) {
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

// PrintTransformations outputs the loaded transformation rules in apply order.
func (p *Printer) PrintTransformations(ts []types.Transformation) {
	if len(ts) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rules: %d\n\n", len(ts)))

	items := make([]string, 0, len(ts))
	for i, t := range ts {
		items = append(items, fmt.Sprintf("%d. %s", i+1, describeTransformation(t)))
	}
	writeList(&sb, items)

	p.printBox("TRANSFORMATIONS", sb.String())
}

func describeTransformation(t types.Transformation) string {
	switch v := t.(type) {
	case types.OneToOne:
		return fmt.Sprintf("%s %s -> %s", v.Op, v.Source, v.Destination)
	case types.OneToMany:
		dst := make([]string, len(v.Destinations))
		for i, d := range v.Destinations {
			dst[i] = d.String()
		}
		return fmt.Sprintf("%s %s -> [%s]", v.Op, v.Source, strings.Join(dst, ", "))
	case types.ManyToOne:
		src := make([]string, len(v.Sources))
		for i, s := range v.Sources {
			src[i] = s.String()
		}
		return fmt.Sprintf("%s [%s] -> %s", v.Op, strings.Join(src, ", "), v.Destination)
	default:
		return string(t.Cardinality())
	}
}

// PrintMissingFields outputs the locations that still need a user value.
func (p *Printer) PrintMissingFields(holes []pointer.Path) {
	var sb strings.Builder
	if len(holes) == 0 {
		sb.WriteString("✅ Output conforms, nothing missing\n")
		p.printBox("MISSING FIELDS", sb.String())
		return
	}

	sb.WriteString(fmt.Sprintf("⚠️  %d field(s) need a value:\n\n", len(holes)))
	items := make([]string, len(holes))
	for i, h := range holes {
		items[i] = h.String()
	}
	writeList(&sb, items)

	p.printBox("MISSING FIELDS", sb.String())
}

// PrintLeaves outputs the leaf values of a document with their locations.
func (p *Printer) PrintLeaves(leaves []document.Leaf) {
	if len(leaves) == 0 {
		return
	}

	var sb strings.Builder
	items := make([]string, len(leaves))
	for i, l := range leaves {
		items[i] = fmt.Sprintf("%s = %s", l.Path, l.Rendered())
	}
	writeList(&sb, items)

	p.printBox("INPUT FIELDS", sb.String())
}

// PrintSchemaFields outputs the property paths a schema declares.
func (p *Printer) PrintSchemaFields(name string, fields []string) {
	if len(fields) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Schema: %s\n", name))
	sb.WriteString(fmt.Sprintf("Fields: %d\n\n", len(fields)))
	writeList(&sb, fields)

	p.printBox("SCHEMA FIELDS", sb.String())
}

// PrintOutcome outputs the patches and final state of one repair pass.
func (p *Printer) PrintOutcome(out *repair.Outcome) {
	if out == nil {
		return
	}

	var sb strings.Builder
	if out.Conforms() {
		sb.WriteString("✅ Document conforms\n")
	} else {
		sb.WriteString(fmt.Sprintf("❌ Needs a value at %s\n", out.Hole))
		sb.WriteString(fmt.Sprintf("   %s\n", out.Defect.Description))
	}

	if len(out.Patches) > 0 {
		sb.WriteString(fmt.Sprintf("\nPatches: %d\n", len(out.Patches)))
		items := make([]string, len(out.Patches))
		for i, patch := range out.Patches {
			items[i] = fmt.Sprintf("[%s] %s", patch.Kind, patch.Path)
		}
		writeList(&sb, items)
	}

	p.printBox("CONFORMANCE", sb.String())
}

// PrintValidationErrors outputs every schema violation found in a document.
func (p *Printer) PrintValidationErrors(verr *schemas.ValidationError) {
	var sb strings.Builder
	if verr == nil || len(verr.Errors) == 0 {
		sb.WriteString("✅ No violations found\n")
		p.printBox("VALIDATION", sb.String())
		return
	}

	sb.WriteString(fmt.Sprintf("❌ Found %d violation(s):\n\n", len(verr.Errors)))
	for i, fe := range verr.Errors {
		fmt.Fprintf(&sb, "%d. %s [%s]\n   %s\n", i+1, fe.Location(), fe.Rule, fe.Message)
	}

	p.printBox("VALIDATION", sb.String())
}
