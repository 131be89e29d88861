package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/credential-mapper/internal/pointer"
	"github.com/jonathan/credential-mapper/internal/types"
)

// contextDelimiter separates segments when rendering a gojsonschema context. Property
// names may contain dots, so the default delimiter is not usable.
const contextDelimiter = "\x1f"

// rootContext is the head gojsonschema uses for the document root
const rootContext = "(root)"

// Result types reported by gojsonschema that the decoder understands
const (
	codeRequired    = "required"
	codeAnyOf       = "number_any_of"
	codeOneOf       = "number_one_of"
	codeFormat      = "format"
	codeConst       = "const"
	codeEnum        = "enum"
	codeInvalidType = "invalid_type"
)

// summaryCodes only restate that nested errors exist
var summaryCodes = map[string]bool{
	"number_all_of":  true,
	"condition_then": true,
	"condition_else": true,
}

// Schema is a compiled JSON schema usable as a fail-fast structural decoder
type Schema struct {
	name   string
	raw    map[string]any
	schema *gojsonschema.Schema
}

// UnsupportedFailureError is reported when the first schema violation has a shape the
// decoder cannot express as a Defect.
type UnsupportedFailureError struct {
	Path        pointer.Path
	Code        string
	Description string
}

func (e *UnsupportedFailureError) Error() string {
	return fmt.Sprintf("unsupported schema failure %q at %q: %s", e.Code, e.Path.String(), e.Description)
}

// Location returns the pointer of the offending value
func (e *UnsupportedFailureError) Location() pointer.Path {
	return e.Path
}

// CompileFile loads and compiles a schema file. Relative $refs resolve against the file.
func CompileFile(path string) (*Schema, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema path: %w", err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, &SchemaLoadError{Path: absPath, Message: "failed to read schema file", Cause: err}
	}
	raw, err := parseRaw(absPath, data)
	if err != nil {
		return nil, err
	}
	return compile(absPath, raw, gojsonschema.NewReferenceLoader("file://"+absPath))
}

// CompileBytes compiles a schema held in memory.
func CompileBytes(data []byte) (*Schema, error) {
	const name = "(string schema)"
	raw, err := parseRaw(name, data)
	if err != nil {
		return nil, err
	}
	return compile(name, raw, gojsonschema.NewBytesLoader(data))
}

func parseRaw(name string, data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "schema is not a JSON object", Cause: err}
	}
	return raw, nil
}

func compile(name string, raw map[string]any, loader gojsonschema.JSONLoader) (*Schema, error) {
	sl := gojsonschema.NewSchemaLoader()
	compiled, err := sl.Compile(loader)
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "failed to compile schema", Cause: err}
	}
	return &Schema{name: name, raw: raw, schema: compiled}, nil
}

// Name returns the file path the schema was compiled from
func (s *Schema) Name() string {
	return s.name
}

// Fields lists every property path the schema declares
func (s *Schema) Fields() []string {
	return ListFields(s.raw)
}

// Decode validates root and returns it unchanged when it conforms. Otherwise it returns
// the first violation, in document order, as a *types.Defect, or an
// *UnsupportedFailureError when that violation has no Defect counterpart.
func (s *Schema) Decode(root any) (any, error) {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(root))
	if err != nil {
		return nil, fmt.Errorf("failed to load document for validation: %w", err)
	}
	if result.Valid() {
		return root, nil
	}
	return nil, firstFailure(result.Errors())
}

// Validate returns every violation of root, the way ValidateJSON does for files.
func (s *Schema) Validate(root any) error {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(root))
	if err != nil {
		return fmt.Errorf("failed to load document for validation: %w", err)
	}
	if result.Valid() {
		return nil
	}
	return newValidationError(result.Errors())
}

type failure struct {
	path     pointer.Path
	priority int
	detail   string
	err      error
}

// Candidates sharing a path are ranked so that concrete failures win over a union
// failure, which gojsonschema reports alongside the errors of its closest branch.
const (
	priorityMissing = iota
	priorityFormat
	priorityFixed
	prioritySequence
	priorityMismatch
	priorityUnion
	priorityUnsupported
)

func firstFailure(errs []gojsonschema.ResultError) error {
	var concrete, summaries []failure
	for _, re := range errs {
		f := toFailure(re)
		if summaryCodes[re.Type()] {
			summaries = append(summaries, f)
			continue
		}
		concrete = append(concrete, f)
	}
	if len(concrete) == 0 {
		concrete = summaries
	}
	if len(concrete) == 0 {
		return &UnsupportedFailureError{Path: pointer.Root(), Code: "unknown", Description: "document rejected without errors"}
	}

	sort.SliceStable(concrete, func(i, j int) bool {
		a, b := concrete[i], concrete[j]
		if c := a.path.Compare(b.path); c != 0 {
			return c < 0
		}
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.detail < b.detail
	})
	return concrete[0].err
}

func toFailure(re gojsonschema.ResultError) failure {
	path := contextPath(re.Context())
	details := re.Details()

	var d *types.Defect
	priority := priorityUnsupported
	switch re.Type() {
	case codeRequired:
		d = &types.Defect{Kind: types.DefectMissingField, Path: path, Property: fmt.Sprint(details["property"])}
		priority = priorityMissing
	case codeAnyOf, codeOneOf:
		d = &types.Defect{Kind: types.DefectUntaggedUnionMismatch, Path: path}
		priority = priorityUnion
	case codeFormat:
		d = &types.Defect{Kind: types.DefectInvalidFormattedString, Path: path, Format: fmt.Sprint(details["format"])}
		priority = priorityFormat
	case codeConst:
		d = &types.Defect{Kind: types.DefectInvalidFixedValue, Path: path, Literal: parseLiteral(details["allowed"])}
		priority = priorityFixed
	case codeEnum:
		// A single-valued enum is a fixed value; a real choice is not something to repair.
		if lit, ok := singleEnumValue(details["allowed"]); ok {
			d = &types.Defect{Kind: types.DefectInvalidFixedValue, Path: path, Literal: lit}
			priority = priorityFixed
		}
	case codeInvalidType:
		d = &types.Defect{
			Kind:     types.DefectTypeMismatch,
			Path:     path,
			Expected: parseKinds(fmt.Sprint(details["expected"])),
			Given:    fmt.Sprint(details["given"]),
		}
		priority = priorityMismatch
		if d.Given == types.KindObject && d.Expects(types.KindArray) {
			d.Shape = types.MismatchObjectForSequence
			priority = prioritySequence
		}
	}

	if d == nil {
		err := &UnsupportedFailureError{Path: path, Code: re.Type(), Description: re.Description()}
		return failure{path: path, priority: priority, detail: err.Error(), err: err}
	}
	d.Description = re.Description()
	return failure{path: path, priority: priority, detail: d.Error(), err: d}
}

// contextPath converts a gojsonschema context into a pointer, dropping the root marker
func contextPath(ctx *gojsonschema.JsonContext) pointer.Path {
	if ctx == nil {
		return pointer.Root()
	}
	parts := strings.Split(ctx.String(contextDelimiter), contextDelimiter)
	if len(parts) > 0 && parts[0] == rootContext {
		parts = parts[1:]
	}
	return pointer.New(parts...)
}

// parseKinds splits a gojsonschema type list such as "[array,null]" into kinds
func parseKinds(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune("[],/ ", r)
	})
}

// parseLiteral decodes the JSON text gojsonschema reports for a const
func parseLiteral(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	var lit any
	if err := json.Unmarshal([]byte(s), &lit); err != nil {
		return s
	}
	return lit
}

func singleEnumValue(v any) (any, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	var lit any
	if err := json.Unmarshal([]byte(s), &lit); err != nil {
		return nil, false
	}
	return lit, true
}
