package document

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/jonathan/credential-mapper/internal/pointer"
)

// Leaf is a scalar (or empty container) found in a document, with its location.
type Leaf struct {
	Path  pointer.Path
	Value any
}

// Rendered returns the leaf value as compact JSON text.
func (l Leaf) Rendered() string {
	data, err := json.Marshal(l.Value)
	if err != nil {
		return fmt.Sprint(l.Value)
	}
	return string(data)
}

// Leaves flattens the document into its leaf nodes, ordered by path. Empty objects and
// arrays count as leaves so that every addressable location is listed.
func (d *Document) Leaves() []Leaf {
	var leaves []Leaf
	collectLeaves(d.root, pointer.Root(), &leaves)
	sort.SliceStable(leaves, func(i, j int) bool {
		return leaves[i].Path.Compare(leaves[j].Path) < 0
	})
	return leaves
}

func collectLeaves(node any, at pointer.Path, out *[]Leaf) {
	switch t := node.(type) {
	case map[string]any:
		if len(t) == 0 {
			*out = append(*out, Leaf{Path: at, Value: t})
			return
		}
		for k, child := range t {
			collectLeaves(child, at.Append(k), out)
		}
	case []any:
		if len(t) == 0 {
			*out = append(*out, Leaf{Path: at, Value: t})
			return
		}
		for i, child := range t {
			collectLeaves(child, at.AppendIndex(i), out)
		}
	default:
		*out = append(*out, Leaf{Path: at, Value: node})
	}
}
