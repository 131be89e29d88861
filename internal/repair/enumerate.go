package repair

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/pointer"
	"github.com/jonathan/credential-mapper/internal/types"
)

// EnumerateDefects lists every location in doc that needs a value from outside before
// doc can conform. It works on a private copy: each hole Verify reports is filled with a
// sentinel of the expected type so the next pass can get past it. doc is not modified.
//
// The list is in discovery order, which is deterministic for a given document and
// decoder. A hole that cannot be addressed ends the scan early with what was found.
func (v *Verifier) EnumerateDefects(doc *document.Document) ([]pointer.Path, error) {
	work := doc.Clone()
	var holes []pointer.Path
	listed := make(map[string]bool)
	written := make(map[string]bool)

	for pass := 1; ; pass++ {
		if pass > v.maxIterations {
			return nil, &ContractError{
				Path:        pointer.Root(),
				Description: fmt.Sprintf("still finding holes after %d passes", v.maxIterations),
			}
		}

		out, err := v.Verify(work)
		if err != nil {
			return nil, err
		}
		if out.Conforms() {
			return holes, nil
		}

		hole := out.Hole.String()
		sentinel := sentinelFor(out.Defect)
		key := fmt.Sprintf("%s\x00%#v", hole, sentinel)
		if written[key] {
			return nil, &ContractError{
				Path:        out.Hole,
				Description: "sentinel did not satisfy the schema",
				Cause:       out.Defect,
			}
		}
		written[key] = true

		if !work.Replace(out.Hole, sentinel) {
			v.logger.Warn("Hole does not resolve, stopping scan",
				zap.String("path", hole),
				zap.Int("found", len(holes)))
			return holes, nil
		}
		// A hole first seen as a sequence slot can come back as a type mismatch; list it once.
		if !listed[hole] {
			listed[hole] = true
			holes = append(holes, out.Hole)
		}
	}
}

// sentinelFor picks a stand-in of the type the decoder expected at the hole
func sentinelFor(d *types.Defect) any {
	if d == nil || d.Kind != types.DefectTypeMismatch || d.Shape == types.MismatchObjectForSequence {
		return Placeholder
	}
	for _, kind := range d.Expected {
		switch kind {
		case types.KindString:
			return Placeholder
		case types.KindInteger, types.KindNumber:
			return 0.0
		case types.KindBoolean:
			return false
		case types.KindObject:
			return map[string]any{}
		case types.KindArray:
			return []any{}
		}
	}
	if d.Expects(types.KindNull) {
		return nil
	}
	return Placeholder
}
