// Package pointer provides structural paths into JSON-like document trees and the
// scaffold/merge primitives used to make a path addressable without disturbing
// unrelated data.
package pointer

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a Path: an object key or an array index.
// Segments are kept in their unescaped form.
type Segment string

// Index reports whether the segment is a non-negative array index.
// Leading zeros are not indices ("01" is a key), matching RFC 6901.
func (s Segment) Index() (int, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(string(s))
	if err != nil {
		return 0, false
	}
	return i, true
}

// Path is an immutable sequence of segments identifying a location in a document.
// The zero value is the document root.
type Path struct {
	segments []Segment
}

// Root returns the empty path.
func Root() Path {
	return Path{}
}

// New builds a path from raw (unescaped) segments.
func New(segments ...string) Path {
	p := Path{segments: make([]Segment, len(segments))}
	for i, s := range segments {
		p.segments[i] = Segment(s)
	}
	return p
}

// Parse parses a JSON pointer ("/a/b/0"). The empty string is the root.
func Parse(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return Path{}, fmt.Errorf("invalid pointer %q: must start with '/'", s)
	}
	parts := strings.Split(s[1:], "/")
	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		seg, err := unescape(part)
		if err != nil {
			return Path{}, fmt.Errorf("invalid pointer %q: %w", s, err)
		}
		segments = append(segments, Segment(seg))
	}
	return Path{segments: segments}, nil
}

// MustParse is like Parse but panics on malformed input. Intended for literals in tests
// and package-level defaults.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func unescape(part string) (string, error) {
	if !strings.Contains(part, "~") {
		return part, nil
	}
	var b strings.Builder
	for i := 0; i < len(part); i++ {
		c := part[i]
		if c != '~' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(part) {
			return "", fmt.Errorf("dangling '~' in segment %q", part)
		}
		switch part[i+1] {
		case '0':
			b.WriteByte('~')
		case '1':
			b.WriteByte('/')
		default:
			return "", fmt.Errorf("invalid escape '~%c' in segment %q", part[i+1], part)
		}
		i++
	}
	return b.String(), nil
}

// String renders the path as a JSON pointer. The root renders as "".
func (p Path) String() string {
	if len(p.segments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteByte('/')
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(string(s), "~", "~0"), "/", "~1"))
	}
	return b.String()
}

// Segments returns a copy of the path's segments.
func (p Path) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segments)
}

// IsRoot reports whether p addresses the whole document.
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

// Append returns a new path with key appended.
func (p Path) Append(key string) Path {
	out := make([]Segment, len(p.segments), len(p.segments)+1)
	copy(out, p.segments)
	return Path{segments: append(out, Segment(key))}
}

// AppendIndex returns a new path with an array index appended.
func (p Path) AppendIndex(i int) Path {
	return p.Append(strconv.Itoa(i))
}

// Parent returns the path without its last segment. The root's parent is the root.
func (p Path) Parent() Path {
	if len(p.segments) == 0 {
		return p
	}
	out := make([]Segment, len(p.segments)-1)
	copy(out, p.segments)
	return Path{segments: out}
}

// Last returns the final segment, or "" for the root.
func (p Path) Last() Segment {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Equal reports whether two paths have identical segments.
func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i := range p.segments {
		if p.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// Compare orders paths segment by segment. Index segments compare numerically and sort
// before key segments; a prefix sorts before its extensions.
func (p Path) Compare(other Path) int {
	n := min(len(p.segments), len(other.segments))
	for i := 0; i < n; i++ {
		if c := compareSegments(p.segments[i], other.segments[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(p.segments) < len(other.segments):
		return -1
	case len(p.segments) > len(other.segments):
		return 1
	default:
		return 0
	}
}

func compareSegments(a, b Segment) int {
	ai, aIdx := a.Index()
	bi, bIdx := b.Index()
	switch {
	case aIdx && bIdx:
		return cmpInt(ai, bi)
	case aIdx:
		return -1
	case bIdx:
		return 1
	default:
		return strings.Compare(string(a), string(b))
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Path) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
