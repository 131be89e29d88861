// Package pipeline builds mapping sessions: it loads the inputs, projects the input
// document into the output format and tracks which output fields still need a value.
package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/credential-mapper/internal/db"
	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/pointer"
	"github.com/jonathan/credential-mapper/internal/repair"
	"github.com/jonathan/credential-mapper/internal/repository"
)

// ProgressEvent represents a progress update during a session
type ProgressEvent struct {
	Step      string `json:"step"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	Content   any    `json:"content,omitempty"`
}

// ProgressCallback is called when session progress occurs
type ProgressCallback func(event ProgressEvent)

// Options configures a Session
type Options struct {
	Logger     *zap.Logger
	Verifier   []repair.Option
	OnProgress ProgressCallback
}

// Session holds the repository built from one set of inputs and the output fields
// that are still missing. A Session is not safe for concurrent use.
type Session struct {
	ID uuid.UUID

	loaded   *Loaded
	opts     Options
	logger   *zap.Logger
	verifier *repair.Verifier
	repo     *repository.Repository
	missing  []pointer.Path
}

// NewSession applies the transformations to a fresh repository and enumerates the
// fields the output document is missing.
func NewSession(loaded *Loaded, opts Options) (*Session, error) {
	if loaded == nil || loaded.Document == nil || loaded.Schema == nil {
		return nil, fmt.Errorf("session needs a loaded document and schema")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		ID:       uuid.New(),
		loaded:   loaded,
		opts:     opts,
		verifier: repair.NewVerifier(loaded.Schema, append([]repair.Option{repair.WithLogger(logger)}, opts.Verifier...)...),
	}
	s.logger = logger.With(zap.Stringer("session_id", s.ID))

	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

// build reconstructs the repository from the loaded inputs
func (s *Session) build() error {
	in := s.loaded.Inputs
	repo := repository.New(map[string]*document.Document{
		in.InputFormat:  s.loaded.Document.Clone(),
		in.OutputFormat: document.Empty(),
	}, repository.WithLogger(s.logger))

	if err := repo.ApplyTransformations(s.loaded.Transformations); err != nil {
		return fmt.Errorf("failed to apply transformations: %w", err)
	}
	s.repo = repo
	s.emitProgress(db.StepTransform, db.CategoryMapping,
		fmt.Sprintf("Applied %d transformations from %s to %s", len(s.loaded.Transformations), in.InputFormat, in.OutputFormat), nil)

	return s.recompute()
}

// recompute refreshes the missing field list from the current output document
func (s *Session) recompute() error {
	holes, err := s.enumerate(s.Output())
	if err != nil {
		return err
	}
	s.setMissing(holes)
	return nil
}

func (s *Session) enumerate(doc *document.Document) ([]pointer.Path, error) {
	holes, err := s.verifier.EnumerateDefects(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate missing fields: %w", err)
	}
	return holes, nil
}

func (s *Session) setMissing(holes []pointer.Path) {
	s.missing = holes
	s.logger.Debug("Enumerated missing fields", zap.Int("count", len(holes)))
	s.emitProgress(db.StepMissingFields, db.CategoryConformance,
		fmt.Sprintf("%d field(s) missing", len(holes)), pathStrings(holes))
}

// Resolve merges a user supplied value into the output document at p and recomputes
// the missing fields. The value is applied to a copy first; on any error the session
// keeps its previous output and missing list.
func (s *Session) Resolve(p pointer.Path, value any) error {
	next := s.Output().Clone()
	changed, err := next.MergeAt(p, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", p, err)
	}
	holes, err := s.enumerate(next)
	if err != nil {
		return err
	}

	s.repo.Set(s.loaded.Inputs.OutputFormat, next)
	s.logger.Debug("Resolved field", zap.String("path", p.String()), zap.Bool("changed", changed))
	s.emitProgress(db.StepResolve, db.CategoryConformance, fmt.Sprintf("Set %s", p), value)
	s.setMissing(holes)
	return nil
}

// Reload discards user supplied values and rebuilds the session from its inputs.
func (s *Session) Reload() error {
	return s.build()
}

// Missing returns the output locations that still need a value, in discovery order.
func (s *Session) Missing() []pointer.Path {
	return slices.Clone(s.missing)
}

// Completed reports whether the output document needs no further user input.
func (s *Session) Completed() bool {
	return len(s.missing) == 0
}

// Inputs returns the inputs the session was built from.
func (s *Session) Inputs() Inputs {
	return s.loaded.Inputs
}

// Repository returns the session's documents.
func (s *Session) Repository() *repository.Repository {
	return s.repo
}

// Output returns the output document. Callers that mutate it should call Resolve
// instead so the missing fields stay current.
func (s *Session) Output() *document.Document {
	out, _ := s.repo.Get(s.loaded.Inputs.OutputFormat)
	return out
}

// Result runs the repair loop on a copy of the output document. The returned document
// carries the structural patches the loop made; the session's own output is unchanged.
func (s *Session) Result() (*repair.Outcome, *document.Document, error) {
	healed := s.Output().Clone()
	outcome, err := s.verifier.Verify(healed)
	if err != nil {
		return nil, nil, err
	}
	return outcome, healed, nil
}

// Store persists sessions. *db.DB implements it.
type Store interface {
	CreateSession(ctx context.Context, id uuid.UUID, inputFormat, outputFormat, schemaName string) error
	SaveDocument(ctx context.Context, sessionID uuid.UUID, format string, content any) error
	SaveMissingFields(ctx context.Context, sessionID uuid.UUID, paths []string) error
	CompleteSession(ctx context.Context, id uuid.UUID, status string) error
}

// Persist writes the session's documents and missing fields to store.
func (s *Session) Persist(ctx context.Context, store Store) error {
	in := s.loaded.Inputs
	if err := store.CreateSession(ctx, s.ID, in.InputFormat, in.OutputFormat, s.loaded.Schema.Name()); err != nil {
		return err
	}
	for _, format := range s.repo.Formats() {
		doc, _ := s.repo.Get(format)
		if err := store.SaveDocument(ctx, s.ID, format, doc.Root()); err != nil {
			return err
		}
	}
	if err := store.SaveMissingFields(ctx, s.ID, pathStrings(s.missing)); err != nil {
		return err
	}

	status := db.StatusIncomplete
	if s.Completed() {
		status = db.StatusComplete
	}
	if err := store.CompleteSession(ctx, s.ID, status); err != nil {
		return err
	}

	s.emitProgress(db.StepPersist, db.CategoryStorage, fmt.Sprintf("Stored session as %s", status), nil)
	return nil
}

// emitProgress calls the progress callback if configured
func (s *Session) emitProgress(step, category, message string, content any) {
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(ProgressEvent{
			Step:      step,
			Category:  category,
			Message:   message,
			SessionID: s.ID.String(),
			Content:   content,
		})
	}
}

func pathStrings(ps []pointer.Path) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}
