package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/pointer"
	"github.com/jonathan/credential-mapper/internal/types"
)

func mustDoc(t *testing.T, raw string) *document.Document {
	t.Helper()
	doc, err := document.Parse([]byte(raw))
	require.NoError(t, err)
	return doc
}

func loc(format, path string) types.DataLocation {
	return types.DataLocation{Format: format, Path: path}
}

func newRepo(t *testing.T, a string) *Repository {
	t.Helper()
	return New(map[string]*document.Document{
		"A": mustDoc(t, a),
		"B": document.Empty(),
	}, WithLogger(zaptest.NewLogger(t)))
}

func TestApplyTransformations_Copy(t *testing.T) {
	repo := newRepo(t, `{"x":"Hi"}`)

	err := repo.ApplyTransformations([]types.Transformation{
		types.OneToOne{Op: types.OpCopy, Source: loc("A", "/x"), Destination: loc("B", "/y")},
	})
	require.NoError(t, err)

	b, ok := repo.Get("B")
	require.True(t, ok)
	assert.JSONEq(t, `{"y":"Hi"}`, b.String())

	a, _ := repo.Get("A")
	assert.JSONEq(t, `{"x":"Hi"}`, a.String(), "source document must not change")
}

func TestApplyTransformations_Concat(t *testing.T) {
	repo := newRepo(t, `{"first":"Jane","last":"Doe"}`)

	err := repo.ApplyTransformations([]types.Transformation{
		types.ManyToOne{
			Op:          types.OpConcat,
			Sources:     []types.DataLocation{loc("A", "/first"), loc("A", "/last")},
			Destination: loc("B", "/full"),
		},
	})
	require.NoError(t, err)

	b, _ := repo.Get("B")
	assert.JSONEq(t, `{"full":"JaneDoe"}`, b.String())
}

func TestApplyTransformations_ConcatIgnoresNonStringsAndAbsent(t *testing.T) {
	repo := newRepo(t, `{"first":"Jane","age":42,"tags":["x"]}`)

	err := repo.ApplyTransformations([]types.Transformation{
		types.ManyToOne{
			Op:          types.OpConcat,
			Sources:     []types.DataLocation{loc("A", "/first"), loc("A", "/age"), loc("A", "/missing"), loc("A", "/tags")},
			Destination: loc("B", "/full"),
		},
	})
	require.NoError(t, err)

	b, _ := repo.Get("B")
	assert.JSONEq(t, `{"full":"Jane"}`, b.String())
}

func TestApplyTransformations_CaseOperators(t *testing.T) {
	repo := newRepo(t, `{"name":"Ärzte Kammer","n":7}`)

	err := repo.ApplyTransformations([]types.Transformation{
		types.OneToOne{Op: types.OpToLowerCase, Source: loc("A", "/name"), Destination: loc("B", "/lower")},
		types.OneToOne{Op: types.OpToUpperCase, Source: loc("A", "/name"), Destination: loc("B", "/upper")},
		types.OneToOne{Op: types.OpToUpperCase, Source: loc("A", "/n"), Destination: loc("B", "/n")},
		types.OneToOne{Op: types.OpSlice, Source: loc("A", "/name"), Destination: loc("B", "/sliced")},
	})
	require.NoError(t, err)

	b, _ := repo.Get("B")
	assert.JSONEq(t, `{"lower":"ärzte kammer","upper":"ÄRZTE KAMMER","n":7,"sliced":"Ärzte Kammer"}`, b.String())
}

func TestApplyTransformations_AbsentSourceSkipped(t *testing.T) {
	repo := newRepo(t, `{"x":"Hi"}`)

	err := repo.ApplyTransformations([]types.Transformation{
		types.OneToOne{Op: types.OpCopy, Source: loc("A", "/nope"), Destination: loc("B", "/y")},
		types.OneToOne{Op: types.OpCopy, Source: loc("Z", "/x"), Destination: loc("B", "/z")},
		types.OneToOne{Op: types.OpCopy, Source: loc("A", "/x"), Destination: loc("B", "/ok")},
	})
	require.NoError(t, err)

	b, _ := repo.Get("B")
	assert.JSONEq(t, `{"ok":"Hi"}`, b.String())
}

func TestApplyTransformations_OrderMatters(t *testing.T) {
	repo := newRepo(t, `{"x":"Hi"}`)

	// The second rule reads what the first one wrote.
	err := repo.ApplyTransformations([]types.Transformation{
		types.OneToOne{Op: types.OpCopy, Source: loc("A", "/x"), Destination: loc("B", "/stage")},
		types.OneToOne{Op: types.OpToUpperCase, Source: loc("B", "/stage"), Destination: loc("B", "/final")},
	})
	require.NoError(t, err)

	b, _ := repo.Get("B")
	assert.JSONEq(t, `{"stage":"Hi","final":"HI"}`, b.String())
}

func TestApplyTransformations_NestedDestinationsMerge(t *testing.T) {
	repo := newRepo(t, `{"name":"ACME","id":"urn:acme","list":["a","b"]}`)

	err := repo.ApplyTransformations([]types.Transformation{
		types.OneToOne{Op: types.OpCopy, Source: loc("A", "/name"), Destination: loc("B", "/issuer/name")},
		types.OneToOne{Op: types.OpCopy, Source: loc("A", "/id"), Destination: loc("B", "/issuer/id")},
		types.OneToOne{Op: types.OpCopy, Source: loc("A", "/list/1"), Destination: loc("B", "/items/1/value")},
	})
	require.NoError(t, err)

	b, _ := repo.Get("B")
	assert.JSONEq(t, `{"issuer":{"name":"ACME","id":"urn:acme"},"items":[null,{"value":"b"}]}`, b.String())
}

func TestApplyTransformations_SplitIsNoop(t *testing.T) {
	repo := newRepo(t, `{"full":"Jane Doe"}`)

	err := repo.ApplyTransformations([]types.Transformation{
		types.OneToMany{Op: types.OpSplit, Source: loc("A", "/full"), Destinations: []types.DataLocation{loc("B", "/first"), loc("B", "/last")}},
	})
	require.NoError(t, err)

	b, _ := repo.Get("B")
	assert.JSONEq(t, `{}`, b.String())
}

func TestApplyTransformations_CreatesMissingDestinationFormat(t *testing.T) {
	repo := newRepo(t, `{"x":"Hi"}`)

	err := repo.ApplyTransformations([]types.Transformation{
		types.OneToOne{Op: types.OpCopy, Source: loc("A", "/x"), Destination: loc("C", "/y")},
	})
	require.NoError(t, err)

	c, ok := repo.Get("C")
	require.True(t, ok)
	assert.JSONEq(t, `{"y":"Hi"}`, c.String())
	assert.Equal(t, []string{"A", "B", "C"}, repo.Formats())
}

func TestApplyTransformations_BadPointer(t *testing.T) {
	repo := newRepo(t, `{"x":"Hi"}`)

	err := repo.ApplyTransformations([]types.Transformation{
		types.OneToOne{Op: types.OpCopy, Source: loc("A", "/x"), Destination: loc("B", "/y")},
		types.OneToOne{Op: types.OpCopy, Source: loc("A", "x"), Destination: loc("B", "/y")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply transformation 1")
	assert.Contains(t, err.Error(), "invalid pointer")
}

func TestApplyTransformations_DestinationIndexTooLarge(t *testing.T) {
	repo := newRepo(t, `{"x":"Hi"}`)

	err := repo.ApplyTransformations([]types.Transformation{
		types.OneToOne{Op: types.OpCopy, Source: loc("A", "/x"), Destination: loc("C", "/evidence/99999999999999999")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply transformation 0")

	var idxErr *pointer.IndexError
	assert.ErrorAs(t, err, &idxErr)
	_, created := repo.Get("C")
	assert.False(t, created, "a failed write should not create the destination document")
}

func TestApplyTransformations_CopyDoesNotAlias(t *testing.T) {
	repo := newRepo(t, `{"obj":{"k":"v"}}`)

	err := repo.ApplyTransformations([]types.Transformation{
		types.OneToOne{Op: types.OpCopy, Source: loc("A", "/obj"), Destination: loc("B", "/obj")},
	})
	require.NoError(t, err)

	require.NoError(t, repo.Write(loc("B", "/obj/k"), "changed"))
	a, _ := repo.Get("A")
	assert.JSONEq(t, `{"obj":{"k":"v"}}`, a.String())
}

func TestClone(t *testing.T) {
	repo := newRepo(t, `{"x":"Hi"}`)
	cp := repo.Clone()
	require.NoError(t, cp.Write(loc("B", "/y"), "changed"))

	b, _ := repo.Get("B")
	assert.JSONEq(t, `{}`, b.String())
}

func TestApplyOneToOne_NonStringPassThrough(t *testing.T) {
	assert.Equal(t, 3.0, ApplyOneToOne(types.OpToLowerCase, 3.0))
	assert.Equal(t, true, ApplyOneToOne(types.OpToUpperCase, true))
	assert.Nil(t, ApplyOneToOne(types.OpCopy, nil))
}
