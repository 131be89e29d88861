package repair

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/pointer"
	"github.com/jonathan/credential-mapper/internal/schemas"
	"github.com/jonathan/credential-mapper/internal/types"
)

func paths(ps []pointer.Path) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

func TestEnumerateDefects_SingleStringField(t *testing.T) {
	doc := parse(t, `{}`)

	holes, err := newVerifier(t, compile(t, nameSchema)).EnumerateDefects(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"/name"}, paths(holes))
	assert.JSONEq(t, `{}`, doc.String(), "caller's document must not change")
}

func TestEnumerateDefects_ConformingDocument(t *testing.T) {
	holes, err := newVerifier(t, compile(t, nameSchema)).EnumerateDefects(parse(t, `{"name":"Ada"}`))
	require.NoError(t, err)
	assert.Empty(t, holes)
}

func TestEnumerateDefects_TypedSentinels(t *testing.T) {
	schema := compile(t, `{
		"type": "object",
		"required": ["active", "count", "tags", "profile"],
		"properties": {
			"active": {"type": "boolean"},
			"count": {"type": "integer", "minimum": 0},
			"tags": {"type": "array", "items": {"type": "string"}},
			"profile": {
				"type": "object",
				"required": ["email"],
				"properties": {"email": {"type": "string", "format": "email"}}
			}
		}
	}`)

	holes, err := newVerifier(t, schema).EnumerateDefects(parse(t, `{}`))
	require.NoError(t, err)

	want := []string{"/active", "/count", "/profile/email", "/tags/0"}
	if diff := cmp.Diff(want, paths(holes)); diff != "" {
		t.Errorf("holes mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumerateDefects_Deterministic(t *testing.T) {
	schema, err := schemas.CompileFile(filepath.Join("..", "..", "schemas", "elm.schema.json"))
	require.NoError(t, err)
	v := newVerifier(t, schema)

	raw := `{"id":"urn:x","issuer":{"id":"https://example.edu","legalName":{"en":"Example"}}}`
	first, err := v.EnumerateDefects(parse(t, raw))
	require.NoError(t, err)
	second, err := v.EnumerateDefects(parse(t, raw))
	require.NoError(t, err)

	require.NotEmpty(t, first)
	assert.Equal(t, paths(first), paths(second))
}

func TestEnumerateDefects_ELMFromEmpty(t *testing.T) {
	schema, err := schemas.CompileFile(filepath.Join("..", "..", "schemas", "elm.schema.json"))
	require.NoError(t, err)

	holes, err := newVerifier(t, schema).EnumerateDefects(document.Empty())
	require.NoError(t, err)

	got := paths(holes)
	assert.Contains(t, got, "/@context/0")
	assert.Contains(t, got, "/id")
	assert.Contains(t, got, "/issuer/legalName/en")
	assert.Contains(t, got, "/credentialSubject/hasClaim/0")
	assert.Contains(t, got, "/validFrom")
}

func TestEnumerateDefects_ConformingExampleCredential(t *testing.T) {
	schema, err := schemas.CompileFile(filepath.Join("..", "..", "schemas", "obv3.schema.json"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "credentials", "obv3_example.json"))
	require.NoError(t, err)

	holes, err := newVerifier(t, schema).EnumerateDefects(parse(t, string(data)))
	require.NoError(t, err)
	assert.Empty(t, holes)
}

func TestEnumerateDefects_UnresolvableHoleStopsScan(t *testing.T) {
	dec := &scriptedDecoder{steps: []error{
		&types.Defect{Kind: types.DefectTypeMismatch, Path: pointer.New("name"), Expected: []string{types.KindString}, Given: types.KindNumber},
		&types.Defect{Kind: types.DefectTypeMismatch, Path: pointer.New("missing", "deep"), Expected: []string{types.KindString}, Given: types.KindNull},
	}}

	holes, err := newVerifier(t, dec).EnumerateDefects(parse(t, `{"name":1}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"/name"}, paths(holes))
}

func TestEnumerateDefects_RepeatedSentinelIsFatal(t *testing.T) {
	hole := &types.Defect{Kind: types.DefectTypeMismatch, Path: pointer.New("name"), Expected: []string{types.KindString}, Given: types.KindNumber}
	dec := &scriptedDecoder{steps: []error{hole, hole}}

	_, err := newVerifier(t, dec).EnumerateDefects(parse(t, `{"name":1}`))
	require.Error(t, err)

	var ce *ContractError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "/name", ce.Path.String())
}

func TestEnumerateDefects_HoleListedOnce(t *testing.T) {
	// The placeholder item is first reported as part of a sequence, then as a wrong type.
	dec := &scriptedDecoder{steps: []error{
		&types.Defect{Kind: types.DefectTypeMismatch, Path: pointer.New("items"), Expected: []string{types.KindArray}, Given: types.KindObject, Shape: types.MismatchObjectForSequence},
		&types.Defect{Kind: types.DefectTypeMismatch, Path: pointer.New("items", "0"), Expected: []string{types.KindObject}, Given: types.KindString},
	}}

	holes, err := newVerifier(t, dec).EnumerateDefects(parse(t, `{"items":{}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"/items/0"}, paths(holes))
}

func TestSentinelFor(t *testing.T) {
	mismatch := func(expected ...string) *types.Defect {
		return &types.Defect{Kind: types.DefectTypeMismatch, Expected: expected}
	}
	tests := []struct {
		name   string
		defect *types.Defect
		want   any
	}{
		{"string", mismatch(types.KindString), Placeholder},
		{"integer", mismatch(types.KindInteger), 0.0},
		{"number", mismatch(types.KindNumber), 0.0},
		{"boolean", mismatch(types.KindBoolean), false},
		{"object", mismatch(types.KindObject), map[string]any{}},
		{"array", mismatch(types.KindArray), []any{}},
		{"nullable string prefers string", mismatch(types.KindNull, types.KindString), Placeholder},
		{"null only", mismatch(types.KindNull), nil},
		{"unknown kind", mismatch("undefined"), Placeholder},
		{"sequence placeholder", &types.Defect{Kind: types.DefectTypeMismatch, Shape: types.MismatchObjectForSequence, Expected: []string{types.KindArray}}, Placeholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sentinelFor(tt.defect))
		})
	}
}
