package schemas

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/types"
)

func mustCompile(t *testing.T, schema string) *Schema {
	t.Helper()
	s, err := CompileBytes([]byte(schema))
	require.NoError(t, err)
	return s
}

func decodeDefect(t *testing.T, s *Schema, raw string) *types.Defect {
	t.Helper()
	doc, err := document.Parse([]byte(raw))
	require.NoError(t, err)

	_, err = s.Decode(doc.Root())
	require.Error(t, err)

	var d *types.Defect
	require.True(t, errors.As(err, &d), "error should be a Defect, got %T: %v", err, err)
	return d
}

func TestDecode_Conforming(t *testing.T) {
	s, err := CompileFile(filepath.Join("testdata", "valid_schema.json"))
	require.NoError(t, err)

	doc, err := document.LoadFile(filepath.Join("testdata", "valid_json.json"))
	require.NoError(t, err)

	value, err := s.Decode(doc.Root())
	require.NoError(t, err)
	assert.Equal(t, doc.Root(), value)
}

func TestDecode_Defects(t *testing.T) {
	s := mustCompile(t, `{
		"type": "object",
		"required": ["name", "issuer"],
		"properties": {
			"name": {"type": "string"},
			"issuer": {
				"type": "object",
				"required": ["id"],
				"properties": {"id": {"type": "string", "format": "uri"}}
			},
			"validFrom": {"type": "string", "format": "date-time"},
			"context": {"type": "array", "items": [{"const": "https://www.w3.org/ns/credentials/v2"}]},
			"kind": {"enum": ["Badge"]},
			"tags": {"type": ["array", "null"], "items": {"type": "string"}},
			"subject": {"anyOf": [{"type": "string"}, {"type": "integer"}]}
		}
	}`)

	tests := []struct {
		name     string
		doc      string
		kind     types.DefectKind
		path     string
		location string
		check    func(t *testing.T, d *types.Defect)
	}{
		{
			name:     "missing field at root",
			doc:      `{"issuer":{"id":"https://example.edu"}}`,
			kind:     types.DefectMissingField,
			path:     "",
			location: "/name",
			check: func(t *testing.T, d *types.Defect) {
				assert.Equal(t, "name", d.Property)
			},
		},
		{
			name:     "missing fields reported in name order",
			doc:      `{}`,
			kind:     types.DefectMissingField,
			path:     "",
			location: "/issuer",
		},
		{
			name:     "missing nested field",
			doc:      `{"name":"x","issuer":{}}`,
			kind:     types.DefectMissingField,
			path:     "/issuer",
			location: "/issuer/id",
		},
		{
			name:     "formatted string",
			doc:      `{"name":"x","issuer":{"id":"https://example.edu"},"validFrom":"tomorrow"}`,
			kind:     types.DefectInvalidFormattedString,
			path:     "/validFrom",
			location: "/validFrom",
			check: func(t *testing.T, d *types.Defect) {
				assert.Equal(t, "date-time", d.Format)
			},
		},
		{
			name:     "fixed value",
			doc:      `{"name":"x","issuer":{"id":"https://example.edu"},"context":["TEMP"]}`,
			kind:     types.DefectInvalidFixedValue,
			path:     "/context/0",
			location: "/context/0",
			check: func(t *testing.T, d *types.Defect) {
				assert.Equal(t, "https://www.w3.org/ns/credentials/v2", d.Literal)
			},
		},
		{
			name:     "single valued enum",
			doc:      `{"name":"x","issuer":{"id":"https://example.edu"},"kind":"Other"}`,
			kind:     types.DefectInvalidFixedValue,
			path:     "/kind",
			location: "/kind",
			check: func(t *testing.T, d *types.Defect) {
				assert.Equal(t, "Badge", d.Literal)
			},
		},
		{
			name:     "object for sequence",
			doc:      `{"name":"x","issuer":{"id":"https://example.edu"},"tags":{}}`,
			kind:     types.DefectTypeMismatch,
			path:     "/tags",
			location: "/tags",
			check: func(t *testing.T, d *types.Defect) {
				assert.Equal(t, types.MismatchObjectForSequence, d.Shape)
				assert.ElementsMatch(t, []string{"array", "null"}, d.Expected)
				assert.Equal(t, "object", d.Given)
			},
		},
		{
			name:     "other type mismatch",
			doc:      `{"name":{},"issuer":{"id":"https://example.edu"}}`,
			kind:     types.DefectTypeMismatch,
			path:     "/name",
			location: "/name",
			check: func(t *testing.T, d *types.Defect) {
				assert.Equal(t, types.MismatchOther, d.Shape)
				assert.Equal(t, []string{"string"}, d.Expected)
			},
		},
		{
			name:     "union branch error wins over the union",
			doc:      `{"name":"x","issuer":{"id":"https://example.edu"},"subject":true}`,
			kind:     types.DefectTypeMismatch,
			path:     "/subject",
			location: "/subject",
		},
		{
			name:     "first failure in pointer order",
			doc:      `{"name":1,"issuer":{"id":1}}`,
			kind:     types.DefectTypeMismatch,
			path:     "/issuer/id",
			location: "/issuer/id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decodeDefect(t, s, tt.doc)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.path, d.Path.String())
			assert.Equal(t, tt.location, d.Location().String())
			assert.NotEmpty(t, d.Description)
			if tt.check != nil {
				tt.check(t, d)
			}
		})
	}
}

func TestDecode_UnionMismatch(t *testing.T) {
	// Both branches accept the value, so oneOf fails without any branch error.
	s := mustCompile(t, `{
		"type": "object",
		"properties": {
			"issuer": {"oneOf": [{"type": "string"}, {"type": "string", "maxLength": 10}]}
		}
	}`)

	d := decodeDefect(t, s, `{"issuer":"short"}`)
	assert.Equal(t, types.DefectUntaggedUnionMismatch, d.Kind)
	assert.Equal(t, "/issuer", d.Path.String())
}

func TestDecode_Unsupported(t *testing.T) {
	s := mustCompile(t, `{
		"type": "object",
		"properties": {"name": {"type": "string", "minLength": 3}}
	}`)

	_, err := s.Decode(map[string]any{"name": "ab"})
	require.Error(t, err)

	var unsupported *UnsupportedFailureError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "/name", unsupported.Path.String())
	assert.Equal(t, "/name", unsupported.Location().String())
	assert.Equal(t, "string_gte", unsupported.Code)
	assert.Contains(t, err.Error(), "string_gte")
}

func TestDecode_KeysWithDots(t *testing.T) {
	s := mustCompile(t, `{
		"type": "object",
		"properties": {"a.b": {"type": "object", "properties": {"c": {"type": "string"}}}}
	}`)

	d := decodeDefect(t, s, `{"a.b":{"c":1}}`)
	assert.Equal(t, "/a.b/c", d.Path.String())
}

func TestCompile_Errors(t *testing.T) {
	_, err := CompileBytes([]byte(`not json`))
	require.Error(t, err)
	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))

	_, err = CompileFile(filepath.Join("testdata", "missing.schema.json"))
	require.Error(t, err)
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "failed to read schema file")
}

func TestParseKinds(t *testing.T) {
	assert.Equal(t, []string{"string"}, parseKinds("string"))
	assert.Equal(t, []string{"array", "null"}, parseKinds("[array,null]"))
	assert.Empty(t, parseKinds(""))
}
