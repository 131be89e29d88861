// Package types provides type definitions for structured data used throughout the credential-mapper system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jonathan/credential-mapper/internal/pointer"
)

// DefectKind classifies why a document failed to decode against a schema
type DefectKind int

const (
	DefectMissingField DefectKind = iota
	DefectUntaggedUnionMismatch
	DefectInvalidFormattedString
	DefectInvalidFixedValue
	DefectTypeMismatch
)

// String returns the snake_case name of the kind
func (k DefectKind) String() string {
	switch k {
	case DefectMissingField:
		return "missing_field"
	case DefectUntaggedUnionMismatch:
		return "untagged_union_mismatch"
	case DefectInvalidFormattedString:
		return "invalid_formatted_string"
	case DefectInvalidFixedValue:
		return "invalid_fixed_value"
	case DefectTypeMismatch:
		return "type_mismatch"
	default:
		return fmt.Sprintf("defect_kind(%d)", int(k))
	}
}

// MismatchShape refines a type mismatch
type MismatchShape int

const (
	// MismatchOther is any type mismatch the repair loop cannot reshape.
	MismatchOther MismatchShape = iota
	// MismatchObjectForSequence is an object found where a sequence was expected.
	MismatchObjectForSequence
)

// Value kinds as reported by decoders for type mismatches
const (
	KindNull    = "null"
	KindBoolean = "boolean"
	KindInteger = "integer"
	KindNumber  = "number"
	KindString  = "string"
	KindArray   = "array"
	KindObject  = "object"
)

// Defect is a located, classified reason a document does not decode against a schema.
// Only the payload fields matching Kind are set.
type Defect struct {
	Kind DefectKind
	// Path is where decoding stopped. For a missing field it is the enclosing object.
	Path pointer.Path

	Property string        // DefectMissingField
	Format   string        // DefectInvalidFormattedString
	Literal  any           // DefectInvalidFixedValue
	Expected []string      // DefectTypeMismatch
	Given    string        // DefectTypeMismatch
	Shape    MismatchShape // DefectTypeMismatch

	// Description is the decoder's human-readable message, kept for diagnostics only.
	Description string
}

// Error implements error so decoders can return a Defect directly
func (d *Defect) Error() string {
	var detail string
	switch d.Kind {
	case DefectMissingField:
		detail = fmt.Sprintf("missing field %q", d.Property)
	case DefectInvalidFormattedString:
		detail = fmt.Sprintf("invalid %s string", d.Format)
	case DefectInvalidFixedValue:
		detail = fmt.Sprintf("expected fixed value %v", d.Literal)
	case DefectTypeMismatch:
		detail = fmt.Sprintf("expected %s, given %s", strings.Join(d.Expected, " or "), d.Given)
	default:
		detail = d.Kind.String()
	}
	return fmt.Sprintf("%s at %q", detail, d.Path.String())
}

// Location returns the pointer the defect is about: the missing field itself for
// DefectMissingField, otherwise Path.
func (d *Defect) Location() pointer.Path {
	if d.Kind == DefectMissingField {
		return d.Path.Append(d.Property)
	}
	return d.Path
}

// Expects reports whether kind is among the expected kinds of a type mismatch
func (d *Defect) Expects(kind string) bool {
	return slices.Contains(d.Expected, kind)
}
