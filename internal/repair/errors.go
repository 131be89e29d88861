// Package repair discovers where a document fails to conform to a schema and heals what
// it can with minimal structural patches.
package repair

import (
	"errors"
	"fmt"

	"github.com/jonathan/credential-mapper/internal/pointer"
)

// ContractError means the decoder reported something the repair loop has no rule for,
// or a rule failed to make progress. The document and schema assumptions no longer hold,
// so the current operation cannot continue.
type ContractError struct {
	Path        pointer.Path
	Description string
	Cause       error
}

func (e *ContractError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("repair contract violated at %q: %s: %v", e.Path.String(), e.Description, e.Cause)
	}
	return fmt.Sprintf("repair contract violated at %q: %s", e.Path.String(), e.Description)
}

func (e *ContractError) Unwrap() error {
	return e.Cause
}

// locator is implemented by decoder errors that know which value they are about
type locator interface {
	Location() pointer.Path
}

// decoderFault wraps a decoder error that is not a defect
func decoderFault(err error) *ContractError {
	ce := &ContractError{Path: pointer.Root(), Description: "unrecognized decode failure", Cause: err}
	var loc locator
	if errors.As(err, &loc) {
		ce.Path = loc.Location()
	}
	return ce
}
