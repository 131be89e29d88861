package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/mapping"
	"github.com/jonathan/credential-mapper/internal/schemas"
	"github.com/jonathan/credential-mapper/internal/types"
)

// Inputs names the files a session is built from and the formats they play
type Inputs struct {
	DocumentPath string
	MappingPath  string
	SchemaPath   string
	InputFormat  string
	OutputFormat string
}

// Validate checks that every input is named and that the two formats differ
func (in Inputs) Validate() error {
	switch {
	case in.DocumentPath == "":
		return fmt.Errorf("input document path is required")
	case in.MappingPath == "":
		return fmt.Errorf("mapping path is required")
	case in.SchemaPath == "":
		return fmt.Errorf("schema path is required")
	case in.InputFormat == "" || in.OutputFormat == "":
		return fmt.Errorf("input and output formats are required")
	case in.InputFormat == in.OutputFormat:
		return fmt.Errorf("input and output formats must differ, both are %q", in.InputFormat)
	}
	return nil
}

// Loaded holds the parsed inputs of a session
type Loaded struct {
	Inputs          Inputs
	Document        *document.Document
	Transformations []types.Transformation
	Schema          *schemas.Schema
}

// Load reads the input document, the transformation list and the target schema
// concurrently.
func Load(ctx context.Context, in Inputs) (*Loaded, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	loaded := &Loaded{Inputs: in}
	var mu sync.Mutex // Protect result assignments

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := gCtx.Err(); err != nil {
			return err
		}
		doc, err := document.LoadFile(in.DocumentPath)
		if err != nil {
			return fmt.Errorf("failed to load input document: %w", err)
		}
		mu.Lock()
		loaded.Document = doc
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		if err := gCtx.Err(); err != nil {
			return err
		}
		ts, err := mapping.LoadFile(in.MappingPath)
		if err != nil {
			return fmt.Errorf("failed to load mapping: %w", err)
		}
		mu.Lock()
		loaded.Transformations = ts
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		if err := gCtx.Err(); err != nil {
			return err
		}
		schema, err := schemas.CompileFile(in.SchemaPath)
		if err != nil {
			return fmt.Errorf("failed to load schema: %w", err)
		}
		mu.Lock()
		loaded.Schema = schema
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return loaded, nil
}
