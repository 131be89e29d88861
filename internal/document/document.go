// Package document provides the owned JSON-like document tree held by a repository and
// mutated by transformations, repairs and user input.
package document

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/jonathan/credential-mapper/internal/pointer"
)

// Document owns a tree of nil, bool, number, string, map[string]any and []any nodes.
type Document struct {
	root any
}

// New wraps an existing tree. The tree is not copied; use Clone for an independent copy.
func New(root any) *Document {
	return &Document{root: root}
}

// Empty returns a document holding an empty object.
func Empty() *Document {
	return &Document{root: map[string]any{}}
}

// Parse decodes JSON bytes into a document.
func Parse(data []byte) (*Document, error) {
	var root any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to parse document JSON: %w", err)
	}
	return &Document{root: root}, nil
}

// Root returns the underlying tree.
func (d *Document) Root() any {
	return d.root
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	return &Document{root: pointer.Clone(d.root)}
}

// Lookup returns the node at p.
func (d *Document) Lookup(p pointer.Path) (any, bool) {
	return pointer.Lookup(d.root, p)
}

// Replace writes v at an existing location and reports whether p resolved.
func (d *Document) Replace(p pointer.Path, v any) bool {
	root, ok := pointer.Replace(d.root, p, v)
	if ok {
		d.root = root
	}
	return ok
}

// MergeAt scaffolds value at p and merges it into the document, creating whatever
// structure p needs while leaving unrelated data alone. It reports whether the document
// changed. A nil value is written explicitly once p resolves, since nil is otherwise
// treated as padding by the merge. A path the scaffold rejects leaves the document
// untouched.
func (d *Document) MergeAt(p pointer.Path, value any) (bool, error) {
	incoming, err := pointer.Scaffold(p, value)
	if err != nil {
		return false, err
	}
	merged, changed := pointer.Merge(d.root, incoming)
	d.root = merged
	if value == nil {
		if existing, ok := d.Lookup(p); ok && existing != nil {
			d.Replace(p, nil)
			changed = true
		}
	}
	return changed, nil
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.root)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	d.root = parsed.root
	return nil
}

// String renders the document as compact JSON.
func (d *Document) String() string {
	data, err := json.Marshal(d.root)
	if err != nil {
		return fmt.Sprintf("<unrenderable document: %v>", err)
	}
	return string(data)
}
