package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/credential-mapper/internal/repair"
)

// ErrSessionNotFound indicates no session is registered under the ID
type ErrSessionNotFound struct {
	ID uuid.UUID
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

// ErrDocumentNotFound indicates the session holds no document in the format
type ErrDocumentNotFound struct {
	Format string
}

func (e *ErrDocumentNotFound) Error() string {
	return fmt.Sprintf("no document in format %q", e.Format)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrBuildFailed indicates the session inputs could not be loaded or transformed
type ErrBuildFailed struct {
	Err error
}

func (e *ErrBuildFailed) Error() string {
	return fmt.Sprintf("failed to build session: %v", e.Err)
}

func (e *ErrBuildFailed) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *ErrSessionNotFound
		noDocument *ErrDocumentNotFound
		validation *ErrValidation
		build      *ErrBuildFailed
		contract   *repair.ContractError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &noDocument):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &contract):
		return http.StatusUnprocessableEntity
	case errors.As(err, &build):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
