// Package schemas compiles JSON schemas and checks credential documents against them.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/pointer"
)

// ResolveSchemaPath finds a schema given relative to the working directory or one of its
// two parents, so commands and tests can name repo files the same way. It returns the
// absolute path, or "" when nothing exists.
func ResolveSchemaPath(relativePath string) string {
	for _, candidate := range []string{
		relativePath,
		filepath.Join("..", relativePath),
		filepath.Join("..", "..", relativePath),
	} {
		absPath, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, err := os.Stat(absPath); err == nil {
			return absPath
		}
	}
	return ""
}

// ValidationError lists every schema violation of a document, ordered by location
type ValidationError struct {
	Errors []FieldError
}

// FieldError is one violation. Rule names the failed gojsonschema check, e.g. "required".
type FieldError struct {
	Path    pointer.Path
	Rule    string
	Message string
}

// Location renders the path, using "(root)" for the document itself
func (fe FieldError) Location() string {
	if fe.Path.IsRoot() {
		return rootContext
	}
	return fe.Path.String()
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, fe := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, fe.Location(), fe.Message)
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// ValidateJSON validates a JSON or YAML document file against a schema file. It returns
// a *ValidationError listing every violation, or a *SchemaLoadError when the schema
// cannot be used.
func ValidateJSON(schemaPath, docPath string) error {
	schema, err := CompileFile(schemaPath)
	if err != nil {
		return err
	}
	doc, err := document.LoadFile(docPath)
	if err != nil {
		return err
	}
	return schema.Validate(doc.Root())
}

// ValidateBytes validates JSON document content against JSON schema content
func ValidateBytes(schemaContent, docContent []byte) error {
	schema, err := CompileBytes(schemaContent)
	if err != nil {
		return err
	}
	doc, err := document.Parse(docContent)
	if err != nil {
		return err
	}
	return schema.Validate(doc.Root())
}

// ValidateDocument validates an in-memory document against a schema file
func ValidateDocument(schemaPath string, doc *document.Document) error {
	schema, err := CompileFile(schemaPath)
	if err != nil {
		return err
	}
	return schema.Validate(doc.Root())
}

func newValidationError(errs []gojsonschema.ResultError) *ValidationError {
	verr := &ValidationError{Errors: make([]FieldError, 0, len(errs))}
	for _, re := range errs {
		at := contextPath(re.Context())
		// A missing property is reported on its parent; point at the property itself.
		if re.Type() == "required" {
			if prop, ok := re.Details()["property"].(string); ok {
				at = at.Append(prop)
			}
		}
		verr.Errors = append(verr.Errors, FieldError{
			Path:    at,
			Rule:    re.Type(),
			Message: re.Description(),
		})
	}
	slices.SortStableFunc(verr.Errors, func(a, b FieldError) int {
		if c := a.Path.Compare(b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Message, b.Message)
	})
	return verr
}
