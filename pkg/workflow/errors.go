package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when the event is not legal from the current state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrGuardNotSatisfied is returned when the event is legal from the current
	// state but a precondition is false.
	ErrGuardNotSatisfied = errors.New("guard not satisfied")

	// ErrInvalidPayload is returned when the transition input is malformed or incomplete.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrNotFound is returned for unknown entity ids.
	ErrNotFound = errors.New("entity not found")

	// ErrConcurrentModification is returned to the losing side of a race on the
	// same entity. Callers should refetch and reissue.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrAlreadyExists is returned when seeding an entity whose id is taken.
	ErrAlreadyExists = errors.New("entity already exists")
)

// TransitionError carries the state and event of a rejected transition.
// It unwraps to ErrInvalidTransition or ErrGuardNotSatisfied.
type TransitionError struct {
	From  string
	Event string
	Cause error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: event '%s' from state '%s'", e.Cause, e.Event, e.From)
}

func (e *TransitionError) Unwrap() error {
	return e.Cause
}

// PayloadError describes why a transition input was refused.
// It unwraps to both ErrInvalidPayload and the underlying reason.
type PayloadError struct {
	Event  string
	Reason error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("invalid payload for event '%s': %v", e.Event, e.Reason)
}

func (e *PayloadError) Unwrap() []error {
	return []error{ErrInvalidPayload, e.Reason}
}

// NewPayloadError wraps reason as an invalid payload for event.
func NewPayloadError(event string, reason error) *PayloadError {
	return &PayloadError{Event: event, Reason: reason}
}

// UnexpectedPayloadType reports a payload whose Go type does not match the event's schema.
func UnexpectedPayloadType(event string, got any) *PayloadError {
	return NewPayloadError(event, fmt.Errorf("unexpected payload type %T", got))
}

func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

func IsGuardNotSatisfied(err error) bool {
	return errors.Is(err, ErrGuardNotSatisfied)
}

func IsInvalidPayload(err error) bool {
	return errors.Is(err, ErrInvalidPayload)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConcurrentModification(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
