package pointer

// Lookup returns the node at p, or false when any segment does not resolve.
func Lookup(root any, p Path) (any, bool) {
	node := root
	for _, seg := range p.segments {
		child, ok := step(node, seg)
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

// Replace overwrites the node at an existing location. Nothing is created: when p does
// not resolve the tree is left untouched and false is returned. The returned root differs
// from the input only when p is the root path.
func Replace(root any, p Path, v any) (any, bool) {
	if p.IsRoot() {
		return v, true
	}
	parent, ok := Lookup(root, p.Parent())
	if !ok {
		return root, false
	}
	last := p.Last()
	switch container := parent.(type) {
	case map[string]any:
		if _, present := container[string(last)]; !present {
			return root, false
		}
		container[string(last)] = v
		return root, true
	case []any:
		idx, isIndex := last.Index()
		if !isIndex || idx >= len(container) {
			return root, false
		}
		container[idx] = v
		return root, true
	default:
		return root, false
	}
}

func step(node any, seg Segment) (any, bool) {
	switch container := node.(type) {
	case map[string]any:
		child, ok := container[string(seg)]
		return child, ok
	case []any:
		idx, ok := seg.Index()
		if !ok || idx >= len(container) {
			return nil, false
		}
		return container[idx], true
	default:
		return nil, false
	}
}
