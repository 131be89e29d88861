package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/pipeline"
	"github.com/jonathan/credential-mapper/internal/pointer"
	"github.com/jonathan/credential-mapper/internal/schemas"
)

// SessionRequest names the files a session is built from, relative to the server's
// data directory. Schema may be omitted when the server has a schema configured for
// the output format.
type SessionRequest struct {
	Input        string `json:"input" validate:"required"`
	Mapping      string `json:"mapping" validate:"required"`
	Schema       string `json:"schema,omitempty"`
	InputFormat  string `json:"input_format" validate:"required"`
	OutputFormat string `json:"output_format" validate:"required,nefield=InputFormat"`
}

// FieldRequest supplies a value for one output location
type FieldRequest struct {
	Path  string          `json:"path" validate:"required"`
	Value json.RawMessage `json:"value" validate:"required"`
}

// SessionResponse describes a session and what it still needs
type SessionResponse struct {
	SessionID    string             `json:"session_id"`
	InputFormat  string             `json:"input_format"`
	OutputFormat string             `json:"output_format"`
	Schema       string             `json:"schema"`
	Missing      []string           `json:"missing"`
	Completed    bool               `json:"completed"`
	Output       *document.Document `json:"output,omitempty"`
}

// MissingResponse is the response for /sessions/{id}/missing
type MissingResponse struct {
	SessionID string   `json:"session_id"`
	Missing   []string `json:"missing"`
	Completed bool     `json:"completed"`
}

// PatchResponse is one structural write made while checking the result
type PatchResponse struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// ResultResponse is the response for /sessions/{id}/result
type ResultResponse struct {
	SessionID string             `json:"session_id"`
	Conforms  bool               `json:"conforms"`
	Hole      *string            `json:"hole,omitempty"`
	Defect    string             `json:"defect,omitempty"`
	Patches   []PatchResponse    `json:"patches"`
	Document  *document.Document `json:"document"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// decodeRequest reads a JSON body into dst and checks its validate tags
func decodeRequest(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			msg := "is required"
			if fe.Tag() == "nefield" {
				msg = "must differ from input_format"
			}
			return &ErrValidation{Field: fe.Field(), Message: msg}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

// inputs resolves the request against the data directory and the server defaults
func (s *Server) inputs(req SessionRequest) (pipeline.Inputs, error) {
	in := pipeline.Inputs{InputFormat: req.InputFormat, OutputFormat: req.OutputFormat}

	var err error
	if in.DocumentPath, err = s.dataPath("input", req.Input); err != nil {
		return pipeline.Inputs{}, err
	}
	if in.MappingPath, err = s.dataPath("mapping", req.Mapping); err != nil {
		return pipeline.Inputs{}, err
	}

	if req.Schema != "" {
		if in.SchemaPath, err = s.dataPath("schema", req.Schema); err != nil {
			return pipeline.Inputs{}, err
		}
		return in, nil
	}

	schema := s.defaults.SchemaFor(req.OutputFormat)
	if schema == "" {
		return pipeline.Inputs{}, &ErrValidation{Field: "schema", Message: "is required when no schema is configured for " + req.OutputFormat}
	}
	if resolved := schemas.ResolveSchemaPath(schema); resolved != "" {
		schema = resolved
	}
	in.SchemaPath = schema
	return in, nil
}

// dataPath joins a client supplied file name to the data directory, rejecting names
// that are absolute or climb out of it.
func (s *Server) dataPath(field, name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", &ErrValidation{Field: field, Message: "must be a relative path inside the data directory"}
	}
	return filepath.Join(s.dataDir, name), nil
}

// buildSession runs the pipeline for in, registers the session and stores it
func (s *Server) buildSession(ctx context.Context, in pipeline.Inputs, onProgress pipeline.ProgressCallback) (*pipeline.Session, error) {
	session, err := pipeline.Run(ctx, pipeline.RunOptions{
		Inputs:     in,
		Verifier:   s.verifier,
		Out:        io.Discard,
		Logger:     s.logger,
		OnProgress: onProgress,
	})
	if err != nil {
		return nil, &ErrBuildFailed{Err: err}
	}
	s.sessions.add(session)
	s.persist(ctx, session)
	return session, nil
}

// persist stores the session when a store is configured. Failures are logged only.
func (s *Server) persist(ctx context.Context, session *pipeline.Session) {
	if s.store == nil {
		return
	}
	if err := session.Persist(ctx, s.store); err != nil {
		s.logger.Warn("Failed to store session", zap.Stringer("session_id", session.ID), zap.Error(err))
	}
}

// withSession runs fn while holding the session named by the {id} path value and
// writes its result as JSON.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*pipeline.Session) (any, error)) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "id", Message: "invalid session ID format"})
		return
	}
	e, err := s.sessions.get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := func() (any, error) {
		e.mu.Lock()
		defer e.mu.Unlock()
		return fn(e.session)
	}()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func describe(session *pipeline.Session, withOutput bool) SessionResponse {
	in := session.Inputs()
	resp := SessionResponse{
		SessionID:    session.ID.String(),
		InputFormat:  in.InputFormat,
		OutputFormat: in.OutputFormat,
		Schema:       in.SchemaPath,
		Missing:      missingStrings(session),
		Completed:    session.Completed(),
	}
	if withOutput {
		resp.Output = session.Output().Clone()
	}
	return resp
}

func missingStrings(session *pipeline.Session) []string {
	missing := session.Missing()
	out := make([]string, len(missing))
	for i, p := range missing {
		out[i] = p.String()
	}
	return out
}

// handleCreateSession builds a session and returns what it still needs
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := decodeRequest(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	in, err := s.inputs(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	session, err := s.buildSession(r.Context(), in, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("Created session", zap.Stringer("session_id", session.ID))
	s.jsonResponse(w, http.StatusCreated, describe(session, true))
}

// handleCreateSessionStream builds a session and streams its progress via SSE
func (s *Server) handleCreateSessionStream(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := decodeRequest(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	in, err := s.inputs(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	session, err := s.buildSession(r.Context(), in, func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("step", event); err != nil {
			s.logger.Warn("Failed to write SSE event", zap.Error(err))
		}
	})
	if err != nil {
		sse.WriteError(err.Error())
		return
	}
	sse.WriteComplete(session.ID.String(), len(session.Missing()))
}

// handleListSessions lists every session without its documents
func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	entries := s.sessions.list()
	out := make([]SessionResponse, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, describe(e.session, false))
		e.mu.Unlock()
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"sessions": out, "count": len(out)})
}

// handleGetSession returns a session with its output document
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(session *pipeline.Session) (any, error) {
		return describe(session, true), nil
	})
}

// handleDeleteSession forgets a session
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "id", Message: "invalid session ID format"})
		return
	}
	if err := s.sessions.remove(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMissing returns the output locations that still need a value
func (s *Server) handleMissing(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(session *pipeline.Session) (any, error) {
		return MissingResponse{
			SessionID: session.ID.String(),
			Missing:   missingStrings(session),
			Completed: session.Completed(),
		}, nil
	})
}

// handleResolveField sets one output value and returns the refreshed session
func (s *Server) handleResolveField(w http.ResponseWriter, r *http.Request) {
	var req FieldRequest
	if err := decodeRequest(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	p, err := pointer.Parse(req.Path)
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "path", Message: err.Error()})
		return
	}
	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		s.writeError(w, &ErrValidation{Field: "value", Message: "invalid JSON: " + err.Error()})
		return
	}

	s.withSession(w, r, func(session *pipeline.Session) (any, error) {
		if err := session.Resolve(p, value); err != nil {
			var idxErr *pointer.IndexError
			if errors.As(err, &idxErr) {
				return nil, &ErrValidation{Field: "path", Message: idxErr.Error()}
			}
			return nil, err
		}
		s.persist(r.Context(), session)
		return describe(session, true), nil
	})
}

// handleReload discards user values and rebuilds the session from its inputs
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(session *pipeline.Session) (any, error) {
		if err := session.Reload(); err != nil {
			return nil, err
		}
		s.persist(r.Context(), session)
		return describe(session, true), nil
	})
}

// handleResult runs the repair loop on a copy of the output document
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(session *pipeline.Session) (any, error) {
		outcome, healed, err := session.Result()
		if err != nil {
			return nil, err
		}
		resp := ResultResponse{
			SessionID: session.ID.String(),
			Conforms:  outcome.Conforms(),
			Patches:   make([]PatchResponse, len(outcome.Patches)),
			Document:  healed,
		}
		for i, p := range outcome.Patches {
			resp.Patches[i] = PatchResponse{Kind: p.Kind.String(), Path: p.Path.String(), Value: p.Value}
		}
		if !outcome.Conforms() {
			hole := outcome.Hole.String()
			resp.Hole = &hole
			resp.Defect = outcome.Defect.Kind.String()
		}
		return resp, nil
	})
}

// handleDocument returns one of the session's documents by format
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	s.withSession(w, r, func(session *pipeline.Session) (any, error) {
		doc, ok := session.Repository().Get(format)
		if !ok {
			return nil, &ErrDocumentNotFound{Format: format}
		}
		return doc.Clone(), nil
	})
}
