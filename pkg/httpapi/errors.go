package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/leagueflow/pkg/validator"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

// HTTPError is an error with a status code and a stable machine-readable code.
type HTTPError struct {
	Status int
	Code   string
}

func (e HTTPError) Error() string {
	return e.Code
}

var (
	ErrBadRequest             = HTTPError{Status: http.StatusBadRequest, Code: "bad_request"}
	ErrNotFound               = HTTPError{Status: http.StatusNotFound, Code: "not_found"}
	ErrInvalidTransition      = HTTPError{Status: http.StatusConflict, Code: "invalid_transition"}
	ErrConcurrentModification = HTTPError{Status: http.StatusConflict, Code: "concurrent_modification"}
	ErrAlreadyExists          = HTTPError{Status: http.StatusConflict, Code: "already_exists"}
	ErrGuardNotSatisfied      = HTTPError{Status: http.StatusPreconditionFailed, Code: "guard_not_satisfied"}
	ErrInvalidPayload         = HTTPError{Status: http.StatusUnprocessableEntity, Code: "invalid_payload"}
	ErrRequestTooLarge        = HTTPError{Status: http.StatusRequestEntityTooLarge, Code: "request_too_large"}
	ErrInternal               = HTTPError{Status: http.StatusInternalServerError, Code: "internal_error"}

	// ErrQuorumPending accompanies a committed result whose season recheck
	// is left to the sweeper.
	ErrQuorumPending = HTTPError{Status: http.StatusAccepted, Code: "quorum_pending"}
)

// classify maps workflow errors onto HTTP errors. Anything unrecognised is
// an internal error.
func classify(err error) HTTPError {
	var httpErr HTTPError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.As(err, &tooLarge):
		return ErrRequestTooLarge
	case workflow.IsNotFound(err):
		return ErrNotFound
	case workflow.IsConcurrentModification(err):
		return ErrConcurrentModification
	case workflow.IsAlreadyExists(err):
		return ErrAlreadyExists
	case workflow.IsGuardNotSatisfied(err):
		return ErrGuardNotSatisfied
	case workflow.IsInvalidTransition(err):
		return ErrInvalidTransition
	case workflow.IsInvalidPayload(err), validator.IsValidationError(err):
		return ErrInvalidPayload
	default:
		return ErrInternal
	}
}
