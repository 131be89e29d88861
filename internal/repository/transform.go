package repository

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonathan/credential-mapper/internal/types"
)

// ApplyTransformations runs the transformations in list order. Later transformations see
// what earlier ones wrote. A transformation whose source is not available yet is skipped;
// only destination documents are mutated.
func (r *Repository) ApplyTransformations(transformations []types.Transformation) error {
	for i, t := range transformations {
		var err error
		switch tr := t.(type) {
		case types.OneToOne:
			err = r.applyOneToOne(tr)
		case types.OneToMany:
			r.logger.Debug("Skipping one-to-many transformation",
				zap.Int("index", i),
				zap.String("op", string(tr.Op)),
				zap.Stringer("source", tr.Source))
		case types.ManyToOne:
			err = r.applyManyToOne(tr)
		default:
			err = fmt.Errorf("unsupported transformation type %T", t)
		}
		if err != nil {
			return fmt.Errorf("failed to apply transformation %d: %w", i, err)
		}
	}
	return nil
}

func (r *Repository) applyOneToOne(t types.OneToOne) error {
	value, ok, err := r.Read(t.Source)
	if err != nil {
		return err
	}
	if !ok {
		r.logger.Debug("Source not available, skipping",
			zap.String("op", string(t.Op)),
			zap.Stringer("source", t.Source))
		return nil
	}

	result := ApplyOneToOne(t.Op, value)
	r.logger.Debug("Applied transformation",
		zap.String("op", string(t.Op)),
		zap.Stringer("source", t.Source),
		zap.Stringer("destination", t.Destination))
	return r.Write(t.Destination, result)
}

func (r *Repository) applyManyToOne(t types.ManyToOne) error {
	values := make([]any, 0, len(t.Sources))
	for _, src := range t.Sources {
		value, ok, err := r.Read(src)
		if err != nil {
			return err
		}
		if ok {
			values = append(values, value)
		}
	}

	result := ApplyManyToOne(t.Op, values)
	r.logger.Debug("Applied transformation",
		zap.String("op", string(t.Op)),
		zap.Int("sources", len(t.Sources)),
		zap.Stringer("destination", t.Destination))
	return r.Write(t.Destination, result)
}

// ApplyOneToOne applies a single-value operator. Case operators only touch strings; every
// other value, and every value under copy or slice, passes through unchanged.
func ApplyOneToOne(op types.OneToOneOp, value any) any {
	s, isString := value.(string)
	switch op {
	case types.OpToLowerCase:
		if isString {
			return cases.Lower(language.Und).String(s)
		}
	case types.OpToUpperCase:
		if isString {
			return cases.Upper(language.Und).String(s)
		}
	}
	return value
}

// ApplyManyToOne folds values with a multi-value operator. concat joins the string values
// in order and ignores everything else.
func ApplyManyToOne(op types.ManyToOneOp, values []any) any {
	switch op {
	case types.OpConcat:
		var sb strings.Builder
		for _, v := range values {
			if s, ok := v.(string); ok {
				sb.WriteString(s)
			}
		}
		return sb.String()
	default:
		return nil
	}
}
