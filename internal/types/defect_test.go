// Package types provides type definitions for structured data used throughout the credential-mapper system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/credential-mapper/internal/pointer"
)

func TestDefect_Location(t *testing.T) {
	missing := &Defect{Kind: DefectMissingField, Path: pointer.MustParse("/issuer"), Property: "id"}
	assert.Equal(t, "/issuer/id", missing.Location().String())

	rootMissing := &Defect{Kind: DefectMissingField, Path: pointer.Root(), Property: "name"}
	assert.Equal(t, "/name", rootMissing.Location().String())

	mismatch := &Defect{Kind: DefectTypeMismatch, Path: pointer.MustParse("/name"), Expected: []string{KindString}, Given: KindObject}
	assert.Equal(t, "/name", mismatch.Location().String())
	assert.True(t, mismatch.Expects(KindString))
	assert.False(t, mismatch.Expects(KindArray))
}

func TestDefect_Error(t *testing.T) {
	tests := []struct {
		defect   *Defect
		contains string
	}{
		{&Defect{Kind: DefectMissingField, Path: pointer.Root(), Property: "name"}, `missing field "name"`},
		{&Defect{Kind: DefectInvalidFormattedString, Path: pointer.MustParse("/validFrom"), Format: "date-time"}, "invalid date-time string"},
		{&Defect{Kind: DefectInvalidFixedValue, Path: pointer.MustParse("/@context"), Literal: "https://example.org"}, "expected fixed value https://example.org"},
		{&Defect{Kind: DefectTypeMismatch, Path: pointer.MustParse("/n"), Expected: []string{"integer"}, Given: "string"}, "expected integer, given string"},
		{&Defect{Kind: DefectUntaggedUnionMismatch, Path: pointer.MustParse("/issuer")}, "untagged_union_mismatch"},
	}
	for _, tt := range tests {
		assert.Contains(t, tt.defect.Error(), tt.contains)
	}
}

func TestDefect_AsError(t *testing.T) {
	var err error = fmt.Errorf("decode: %w", &Defect{Kind: DefectMissingField, Property: "x"})

	var defect *Defect
	require.True(t, errors.As(err, &defect))
	assert.Equal(t, "x", defect.Property)
}

func TestDefectKind_String(t *testing.T) {
	assert.Equal(t, "missing_field", DefectMissingField.String())
	assert.Equal(t, "type_mismatch", DefectTypeMismatch.String())
	assert.Equal(t, "defect_kind(42)", DefectKind(42).String())
}
