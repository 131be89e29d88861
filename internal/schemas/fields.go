package schemas

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/credential-mapper/internal/pointer"
)

// Local reference prefixes resolved while walking a schema
var localRefPrefixes = []string{"#/$defs/", "#/definitions/"}

// ListFields extracts every property path a JSON schema declares. Array item schemas
// contribute an "items" segment and combinator branches contribute "anyOf/<i>",
// "oneOf/<i>" or "allOf/<i>" segments. Local $refs are followed in place. A definition
// already being expanded on the current branch is not expanded again. The result is
// sorted and free of duplicates.
func ListFields(schema map[string]any) []string {
	w := &fieldWalker{root: schema, seen: make(map[string]bool)}
	w.walk(schema, pointer.Root(), nil)

	fields := make([]string, 0, len(w.seen))
	for f := range w.seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

type fieldWalker struct {
	root map[string]any
	seen map[string]bool
}

func (w *fieldWalker) walk(node any, at pointer.Path, expanding []string) {
	schema, ok := node.(map[string]any)
	if !ok {
		return
	}

	if props, ok := schema["properties"].(map[string]any); ok {
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			child := at.Append(key)
			w.seen[child.String()] = true
			w.walk(props[key], child, expanding)
		}
	}

	if items, ok := schema["items"]; ok {
		w.walk(items, at.Append("items"), expanding)
	}

	for _, keyword := range []string{"anyOf", "oneOf", "allOf"} {
		branches, ok := schema[keyword].([]any)
		if !ok {
			continue
		}
		for i, branch := range branches {
			w.walk(branch, at.Append(keyword).Append(strconv.Itoa(i)), expanding)
		}
	}

	if ref, ok := schema["$ref"].(string); ok {
		target, ok := w.resolve(ref)
		if !ok || slices.Contains(expanding, ref) {
			return
		}
		w.walk(target, at, append(expanding, ref))
	}
}

func (w *fieldWalker) resolve(ref string) (any, bool) {
	for _, prefix := range localRefPrefixes {
		if strings.HasPrefix(ref, prefix) {
			p, err := pointer.Parse(strings.TrimPrefix(ref, "#"))
			if err != nil {
				return nil, false
			}
			return pointer.Lookup(w.root, p)
		}
	}
	return nil, false
}
