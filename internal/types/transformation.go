// Package types provides type definitions for structured data used throughout the credential-mapper system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"slices"
)

// DataLocation addresses a value inside one of the repository's documents
type DataLocation struct {
	Format string `json:"format" yaml:"format" validate:"required"`
	Path   string `json:"path" yaml:"path" validate:"pointer"`
}

// String renders the location as format:pointer
func (l DataLocation) String() string {
	return l.Format + ":" + l.Path
}

// Cardinality names the shape of a transformation
type Cardinality string

const (
	CardinalityOneToOne  Cardinality = "one_to_one"
	CardinalityOneToMany Cardinality = "one_to_many"
	CardinalityManyToOne Cardinality = "many_to_one"
)

// OneToOneOp is an operator that maps a single value to a single value
type OneToOneOp string

const (
	OpCopy        OneToOneOp = "copy"
	OpToLowerCase OneToOneOp = "toLowerCase"
	OpToUpperCase OneToOneOp = "toUpperCase"
	OpSlice       OneToOneOp = "slice"
)

// OneToManyOp is an operator that fans a single value out to several destinations
type OneToManyOp string

const (
	OpSplit OneToManyOp = "split"
)

// ManyToOneOp is an operator that folds several values into one
type ManyToOneOp string

const (
	OpConcat ManyToOneOp = "concat"
)

var (
	oneToOneOps  = []OneToOneOp{OpCopy, OpToLowerCase, OpToUpperCase, OpSlice}
	oneToManyOps = []OneToManyOp{OpSplit}
	manyToOneOps = []ManyToOneOp{OpConcat}
)

// Transformation is a declarative rule projecting values between repository documents.
// The set of implementations is closed: OneToOne, OneToMany and ManyToOne. Each carries
// its own operator type, so an operator can only appear with its own cardinality.
type Transformation interface {
	Cardinality() Cardinality
	// Spec returns the wire representation.
	Spec() TransformationSpec
	isTransformation()
}

// OneToOne applies Op to the value at Source and writes it to Destination
type OneToOne struct {
	Op          OneToOneOp
	Source      DataLocation
	Destination DataLocation
}

// OneToMany applies Op to the value at Source and writes to each of Destinations
type OneToMany struct {
	Op           OneToManyOp
	Source       DataLocation
	Destinations []DataLocation
}

// ManyToOne folds the values at Sources with Op and writes the result to Destination
type ManyToOne struct {
	Op          ManyToOneOp
	Sources     []DataLocation
	Destination DataLocation
}

// Cardinality reports CardinalityOneToOne.
func (OneToOne) Cardinality() Cardinality { return CardinalityOneToOne }

// Cardinality reports CardinalityOneToMany.
func (OneToMany) Cardinality() Cardinality { return CardinalityOneToMany }

// Cardinality reports CardinalityManyToOne.
func (ManyToOne) Cardinality() Cardinality { return CardinalityManyToOne }

func (OneToOne) isTransformation()  {}
func (OneToMany) isTransformation() {}
func (ManyToOne) isTransformation() {}

// Spec returns the wire form of t with a source and a single destination.
func (t OneToOne) Spec() TransformationSpec {
	src, dst := t.Source, t.Destination
	return TransformationSpec{Type: string(t.Op), Source: &src, Destination: &dst}
}

// Spec returns the wire form of t with a source and a destination list.
func (t OneToMany) Spec() TransformationSpec {
	src := t.Source
	return TransformationSpec{Type: string(t.Op), Source: &src, Destinations: slices.Clone(t.Destinations)}
}

// Spec returns the wire form of t with a source list and a single destination.
func (t ManyToOne) Spec() TransformationSpec {
	dst := t.Destination
	return TransformationSpec{Type: string(t.Op), Sources: slices.Clone(t.Sources), Destination: &dst}
}

// TransformationSpec is the untagged wire form of a Transformation, as stored in mapping
// files. The variant is inferred from which location fields are present.
type TransformationSpec struct {
	Type         string         `json:"type_" yaml:"type_" validate:"required"`
	Source       *DataLocation  `json:"source,omitempty" yaml:"source,omitempty"`
	Sources      []DataLocation `json:"sources,omitempty" yaml:"sources,omitempty" validate:"dive"`
	Destination  *DataLocation  `json:"destination,omitempty" yaml:"destination,omitempty"`
	Destinations []DataLocation `json:"destinations,omitempty" yaml:"destinations,omitempty" validate:"dive"`
}

// Transformation resolves the spec into its concrete variant. Variants are tried in the
// order OneToOne, OneToMany, ManyToOne; the first whose fields and operator fit wins.
func (s TransformationSpec) Transformation() (Transformation, error) {
	if s.Source != nil && s.Destination != nil && len(s.Sources) == 0 && len(s.Destinations) == 0 {
		if op := OneToOneOp(s.Type); slices.Contains(oneToOneOps, op) {
			return OneToOne{Op: op, Source: *s.Source, Destination: *s.Destination}, nil
		}
	}
	if s.Source != nil && len(s.Destinations) > 0 && s.Destination == nil && len(s.Sources) == 0 {
		if op := OneToManyOp(s.Type); slices.Contains(oneToManyOps, op) {
			return OneToMany{Op: op, Source: *s.Source, Destinations: slices.Clone(s.Destinations)}, nil
		}
	}
	if len(s.Sources) > 0 && s.Destination != nil && s.Source == nil && len(s.Destinations) == 0 {
		if op := ManyToOneOp(s.Type); slices.Contains(manyToOneOps, op) {
			return ManyToOne{Op: op, Sources: slices.Clone(s.Sources), Destination: *s.Destination}, nil
		}
	}
	return nil, fmt.Errorf("transformation %q does not match any variant (one-to-one needs source+destination, one-to-many source+destinations, many-to-one sources+destination)", s.Type)
}
