package pointer

import (
	"fmt"
	"reflect"
)

// MaxScaffoldSlots bounds the array slots a single Scaffold call may allocate, summed
// over every index segment of the path.
const MaxScaffoldSlots = 10000

// IndexError reports a path whose index segments need more array slots than
// MaxScaffoldSlots.
type IndexError struct {
	Path  Path
	Slots int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("path %s needs %d array slots, more than the limit of %d", e.Path, e.Slots, MaxScaffoldSlots)
}

// Scaffold builds the minimal tree in which leaf sits at path p. Key segments become
// single-key objects; index segments become arrays of length index+1 whose other slots
// are nil padding. The root path returns leaf itself. Paths whose indices exceed
// MaxScaffoldSlots are rejected with *IndexError before anything is allocated.
func Scaffold(p Path, leaf any) (any, error) {
	slots := 0
	for _, seg := range p.segments {
		if idx, ok := seg.Index(); ok {
			if idx >= MaxScaffoldSlots-slots {
				return nil, &IndexError{Path: p, Slots: slotsNeeded(p)}
			}
			slots += idx + 1
		}
	}

	node := leaf
	for i := len(p.segments) - 1; i >= 0; i-- {
		seg := p.segments[i]
		if idx, ok := seg.Index(); ok {
			arr := make([]any, idx+1)
			arr[idx] = node
			node = arr
			continue
		}
		node = map[string]any{string(seg): node}
	}
	return node, nil
}

// slotsNeeded sums index+1 over the index segments of p, saturating at the int range.
func slotsNeeded(p Path) int {
	const maxInt = int(^uint(0) >> 1)
	total := 0
	for _, seg := range p.segments {
		if idx, ok := seg.Index(); ok {
			if idx >= maxInt-total {
				return maxInt
			}
			total += idx + 1
		}
	}
	return total
}

// Merge deep-merges incoming into target and returns the merged node along with whether
// anything changed. Objects are unioned key by key and arrays element by element; any
// other pairing lets incoming replace target. A nil inside incoming is scaffold padding
// and never overwrites an existing target value. Keys and slots present only in target
// are always preserved.
//
// Maps in target are mutated in place; arrays may be reallocated when they grow, so
// callers must store the returned node.
func Merge(target, incoming any) (any, bool) {
	switch in := incoming.(type) {
	case nil:
		return target, false
	case map[string]any:
		if t, ok := target.(map[string]any); ok {
			changed := false
			for k, v := range in {
				existing, present := t[k]
				if !present {
					t[k] = Clone(v)
					changed = true
					continue
				}
				if merged, c := Merge(existing, v); c {
					t[k] = merged
					changed = true
				}
			}
			return t, changed
		}
	case []any:
		if t, ok := target.([]any); ok {
			changed := false
			for i, v := range in {
				if i < len(t) {
					if merged, c := Merge(t[i], v); c {
						t[i] = merged
						changed = true
					}
					continue
				}
				t = append(t, Clone(v))
				changed = true
			}
			return t, changed
		}
	}
	if reflect.DeepEqual(target, incoming) {
		return target, false
	}
	return Clone(incoming), true
}

// Clone deep-copies a document tree. Scalars are returned as is.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = Clone(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = Clone(child)
		}
		return out
	default:
		return v
	}
}
