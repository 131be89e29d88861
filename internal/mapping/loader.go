// Package mapping loads and saves transformation lists (mapping files) in JSON or YAML.
package mapping

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/pointer"
	"github.com/jonathan/credential-mapper/internal/types"
)

// ValidationError lists every rule violation found in a mapping file
type ValidationError struct {
	Errors []FieldError
}

// FieldError is a single violation, located by transformation index and field
type FieldError struct {
	Index   int
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid mapping:\n")
	for _, e := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  transformation %d: %s: %s\n", e.Index, e.Field, e.Message))
	}
	return sb.String()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Location paths must be well-formed JSON pointers.
	if err := v.RegisterValidation("pointer", func(fl validator.FieldLevel) bool {
		_, err := pointer.Parse(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(fmt.Sprintf("failed to register pointer validation: %v", err))
	}
	return v
}

// LoadFile reads a mapping file, choosing JSON or YAML by extension.
func LoadFile(path string) ([]types.Transformation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}
	if document.IsYAML(path) {
		return ParseYAML(data)
	}
	return Parse(data)
}

// Parse decodes a JSON array of transformations.
func Parse(data []byte) ([]types.Transformation, error) {
	var specs []types.TransformationSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to parse mapping JSON: %w", err)
	}
	return resolve(specs)
}

// ParseYAML decodes a YAML sequence of transformations.
func ParseYAML(data []byte) ([]types.Transformation, error) {
	var specs []types.TransformationSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}
	return resolve(specs)
}

// resolve validates every spec and converts it to its concrete variant. All problems are
// collected before returning so a mapping author sees them at once.
func resolve(specs []types.TransformationSpec) ([]types.Transformation, error) {
	result := make([]types.Transformation, 0, len(specs))
	verr := &ValidationError{}

	for i, spec := range specs {
		if err := validate.Struct(spec); err != nil {
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				return nil, fmt.Errorf("failed to validate transformation %d: %w", i, err)
			}
			for _, fe := range fieldErrs {
				verr.Errors = append(verr.Errors, FieldError{
					Index:   i,
					Field:   fe.Namespace(),
					Message: fmt.Sprintf("failed %q rule (value %v)", fe.Tag(), fe.Value()),
				})
			}
			continue
		}

		tr, err := spec.Transformation()
		if err != nil {
			verr.Errors = append(verr.Errors, FieldError{Index: i, Field: "type_", Message: err.Error()})
			continue
		}
		result = append(result, tr)
	}

	if len(verr.Errors) > 0 {
		return nil, verr
	}
	return result, nil
}

// Marshal serializes transformations to their JSON wire form.
func Marshal(ts []types.Transformation) ([]byte, error) {
	specs := make([]types.TransformationSpec, len(ts))
	for i, t := range ts {
		specs[i] = t.Spec()
	}
	return json.MarshalIndent(specs, "", "  ")
}

// WriteFile writes transformations to path, as YAML when the extension says so.
func WriteFile(ts []types.Transformation, path string) error {
	var (
		data []byte
		err  error
	)
	if document.IsYAML(path) {
		specs := make([]types.TransformationSpec, len(ts))
		for i, t := range ts {
			specs[i] = t.Spec()
		}
		data, err = yaml.Marshal(specs)
	} else {
		data, err = Marshal(ts)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write mapping file %s: %w", path, err)
	}
	return nil
}
