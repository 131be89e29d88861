package observability

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/pointer"
	"github.com/jonathan/credential-mapper/internal/repair"
	"github.com/jonathan/credential-mapper/internal/schemas"
	"github.com/jonathan/credential-mapper/internal/types"
)

func TestPrintTransformations(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintTransformations([]types.Transformation{
		types.OneToOne{
			Op:          types.OpCopy,
			Source:      types.DataLocation{Format: "OBv3", Path: "/id"},
			Destination: types.DataLocation{Format: "ELM", Path: "/id"},
		},
		types.ManyToOne{
			Op: types.OpConcat,
			Sources: []types.DataLocation{
				{Format: "OBv3", Path: "/a"},
				{Format: "OBv3", Path: "/b"},
			},
			Destination: types.DataLocation{Format: "ELM", Path: "/ab"},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "TRANSFORMATIONS")
	assert.Contains(t, output, "Rules: 2")
	assert.Contains(t, output, "1. copy")
	assert.Contains(t, output, "2. concat")
}

func TestPrintTransformations_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintTransformations(nil)
	assert.Empty(t, buf.String())
}

func TestPrintMissingFields(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintMissingFields([]pointer.Path{pointer.New("issuer", "type"), pointer.New("type", "0")})
	output := buf.String()

	assert.Contains(t, output, "MISSING FIELDS")
	assert.Contains(t, output, "2 field(s)")
	assert.Contains(t, output, "/issuer/type")
	assert.Contains(t, output, "/type/0")
}

func TestPrintMissingFields_None(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintMissingFields(nil)
	assert.Contains(t, buf.String(), "nothing missing")
}

func TestPrintMissingFields_Truncated(t *testing.T) {
	var buf bytes.Buffer
	holes := make([]pointer.Path, maxItemsToShow+3)
	for i := range holes {
		holes[i] = pointer.New("f", fmt.Sprint(i))
	}

	NewPrinter(&buf).PrintMissingFields(holes)
	assert.Contains(t, buf.String(), "... and 3 more")
}

func TestPrintLeaves(t *testing.T) {
	var buf bytes.Buffer
	doc := document.New(map[string]any{"name": "Ada", "tags": []any{"x"}})

	NewPrinter(&buf).PrintLeaves(doc.Leaves())
	output := buf.String()

	assert.Contains(t, output, "INPUT FIELDS")
	assert.Contains(t, output, `/name = "Ada"`)
	assert.Contains(t, output, `/tags/0 = "x"`)
}

func TestPrintSchemaFields(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSchemaFields("elm.schema.json", []string{"/id", "/issuer"})
	output := buf.String()

	assert.Contains(t, output, "Schema: elm.schema.json")
	assert.Contains(t, output, "Fields: 2")
	assert.Contains(t, output, "/issuer")
}

func TestPrintOutcome(t *testing.T) {
	t.Run("conforming", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(&buf).PrintOutcome(&repair.Outcome{Value: map[string]any{}})
		assert.Contains(t, buf.String(), "Document conforms")
	})

	t.Run("hole", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(&buf).PrintOutcome(&repair.Outcome{
			Hole: pointer.New("name"),
			Defect: &types.Defect{
				Kind:        types.DefectTypeMismatch,
				Path:        pointer.New("name"),
				Description: "Invalid type. Expected: string, given: object",
			},
			Patches: []repair.Patch{{Kind: types.DefectMissingField, Path: pointer.New("name"), Value: map[string]any{}}},
		})
		output := buf.String()

		assert.Contains(t, output, "Needs a value at /name")
		assert.Contains(t, output, "Patches: 1")
		assert.Contains(t, output, "missing_field")
	})

	t.Run("nil", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(&buf).PrintOutcome(nil)
		assert.Empty(t, buf.String())
	})
}

func TestPrintValidationErrors(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintValidationErrors(&schemas.ValidationError{Errors: []schemas.FieldError{
		{Path: pointer.Root(), Rule: "required", Message: "id is required"},
		{Path: pointer.New("issuer"), Rule: "invalid_type", Message: "Invalid type"},
	}})
	output := buf.String()

	assert.Contains(t, output, "Found 2 violation(s)")
	assert.Contains(t, output, "(root)")
	assert.Contains(t, output, "/issuer [invalid_type]")
}

func TestPrintValidationErrors_None(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintValidationErrors(nil)
	assert.Contains(t, buf.String(), "No violations found")
}
