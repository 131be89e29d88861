package schemas

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFields(t *testing.T) {
	s := mustCompile(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"issuer": {"$ref": "#/$defs/Profile"},
			"tags": {"type": "array", "items": {"type": "object", "properties": {"label": {"type": "string"}}}},
			"subject": {
				"anyOf": [
					{"type": "string"},
					{"type": "object", "properties": {"id": {"type": "string"}}}
				]
			}
		},
		"$defs": {
			"Profile": {
				"type": "object",
				"properties": {
					"id": {"type": "string"},
					"parent": {"$ref": "#/$defs/Profile"}
				}
			}
		}
	}`)

	want := []string{
		"/issuer",
		"/issuer/id",
		"/issuer/parent",
		"/name",
		"/subject",
		"/subject/anyOf/1/id",
		"/tags",
		"/tags/items/label",
	}
	if diff := cmp.Diff(want, s.Fields()); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestListFields_Definitions(t *testing.T) {
	s, err := CompileFile(filepath.Join("testdata", "valid_schema.json"))
	require.NoError(t, err)

	fields := s.Fields()
	assert.Contains(t, fields, "/issuer/id")
	assert.Contains(t, fields, "/issuer/parent")
	assert.NotContains(t, fields, "/issuer/parent/id", "recursive definitions are expanded once per branch")
}

func TestListFields_ShippedSchemas(t *testing.T) {
	for _, name := range []string{"obv3.schema.json", "elm.schema.json"} {
		t.Run(name, func(t *testing.T) {
			s, err := CompileFile(filepath.Join("..", "..", "schemas", name))
			require.NoError(t, err)

			fields := s.Fields()
			assert.Contains(t, fields, "/@context")
			assert.Contains(t, fields, "/issuer/id")
			assert.IsIncreasing(t, fields)
		})
	}
}

func TestListFields_IgnoresRemoteRefs(t *testing.T) {
	fields := ListFields(map[string]any{
		"properties": map[string]any{
			"a": map[string]any{"$ref": "https://example.org/other.json"},
		},
	})
	assert.Equal(t, []string{"/a"}, fields)
}
