// Package repository holds the named documents of a mapping session and applies
// transformations between them.
package repository

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/pointer"
	"github.com/jonathan/credential-mapper/internal/types"
)

// Repository maps a format identifier to the document held for it
type Repository struct {
	documents map[string]*document.Document
	logger    *zap.Logger
}

// Option configures a Repository
type Option func(*Repository)

// WithLogger sets the logger used for transformation tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a repository owning the given documents.
func New(documents map[string]*document.Document, opts ...Option) *Repository {
	r := &Repository{
		documents: make(map[string]*document.Document, len(documents)),
		logger:    zap.NewNop(),
	}
	for format, doc := range documents {
		r.documents[format] = doc
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the current document for a format.
func (r *Repository) Get(format string) (*document.Document, bool) {
	doc, ok := r.documents[format]
	return doc, ok
}

// Set replaces the document held for a format.
func (r *Repository) Set(format string, doc *document.Document) {
	r.documents[format] = doc
}

// Formats lists the format identifiers in sorted order.
func (r *Repository) Formats() []string {
	formats := make([]string, 0, len(r.documents))
	for f := range r.documents {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// Read returns the value at a location, or false when the format or path is absent.
func (r *Repository) Read(loc types.DataLocation) (any, bool, error) {
	p, err := pointer.Parse(loc.Path)
	if err != nil {
		return nil, false, fmt.Errorf("location %s: %w", loc, err)
	}
	doc, ok := r.documents[loc.Format]
	if !ok {
		return nil, false, nil
	}
	v, ok := doc.Lookup(p)
	return v, ok, nil
}

// Write scaffolds value at a location and merges it into that format's document,
// creating an empty document for the format when none exists yet.
func (r *Repository) Write(loc types.DataLocation, value any) error {
	p, err := pointer.Parse(loc.Path)
	if err != nil {
		return fmt.Errorf("location %s: %w", loc, err)
	}
	doc, ok := r.documents[loc.Format]
	if !ok {
		doc = document.Empty()
	}
	if _, err := doc.MergeAt(p, pointer.Clone(value)); err != nil {
		return fmt.Errorf("location %s: %w", loc, err)
	}
	r.documents[loc.Format] = doc
	return nil
}

// Clone returns a repository with deep copies of every document.
func (r *Repository) Clone() *Repository {
	out := &Repository{
		documents: make(map[string]*document.Document, len(r.documents)),
		logger:    r.logger,
	}
	for format, doc := range r.documents {
		out.documents[format] = doc.Clone()
	}
	return out
}
