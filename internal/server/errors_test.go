package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/credential-mapper/internal/pointer"
	"github.com/jonathan/credential-mapper/internal/repair"
)

func TestErrSessionNotFound(t *testing.T) {
	id := uuid.New()
	err := &ErrSessionNotFound{ID: id}
	assert.Equal(t, "session not found: "+id.String(), err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestErrDocumentNotFound(t *testing.T) {
	err := &ErrDocumentNotFound{Format: "ELM"}
	assert.Equal(t, `no document in format "ELM"`, err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "path", Message: "is required"}
	assert.Equal(t, "validation error: path - is required", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestErrBuildFailed(t *testing.T) {
	cause := errors.New("mapping path is required")
	err := &ErrBuildFailed{Err: cause}
	assert.Equal(t, "failed to build session: mapping path is required", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestHTTPStatus_Wrapped(t *testing.T) {
	contract := &repair.ContractError{Path: pointer.New("issuer"), Description: "patch left the document unchanged"}
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(fmt.Errorf("result: %w", contract)))

	// A contract failure while building is still unprocessable
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(&ErrBuildFailed{Err: contract}))

	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("lookup: %w", &ErrSessionNotFound{})))
}

func TestHTTPStatus_Unknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
