package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition: from and to cannot be nil")
	ErrInvalidEvent      = errors.New("invalid event: event cannot be nil")
)

// ErrNoTransitionAvailable indicates no valid transition exists for the given state/event combination.
type ErrNoTransitionAvailable struct {
	StateName string
	EventName string
}

func (e *ErrNoTransitionAvailable) Error() string {
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.StateName, e.EventName)
}

func NewErrNoTransitionAvailable(stateName, eventName string) *ErrNoTransitionAvailable {
	return &ErrNoTransitionAvailable{
		StateName: stateName,
		EventName: eventName,
	}
}

// ErrTransitionRejected indicates all possible transitions were blocked by guard functions.
type ErrTransitionRejected struct {
	StateName string
	EventName string
}

func (e *ErrTransitionRejected) Error() string {
	return fmt.Sprintf("transition from state '%s' for event '%s' was rejected by guards", e.StateName, e.EventName)
}

func NewErrTransitionRejected(stateName, eventName string) *ErrTransitionRejected {
	return &ErrTransitionRejected{
		StateName: stateName,
		EventName: eventName,
	}
}

// ErrUnknownState indicates a transition references a state missing from the configured order.
type ErrUnknownState struct {
	StateName string
}

func (e *ErrUnknownState) Error() string {
	return fmt.Sprintf("state '%s' is not part of the declared state order", e.StateName)
}

func NewErrUnknownState(stateName string) *ErrUnknownState {
	return &ErrUnknownState{StateName: stateName}
}

// ErrRankRegression indicates a transition would move a monotonic machine backwards.
type ErrRankRegression struct {
	From string
	To   string
}

func (e *ErrRankRegression) Error() string {
	return fmt.Sprintf("transition '%s' -> '%s' decreases lifecycle rank", e.From, e.To)
}

func NewErrRankRegression(from, to string) *ErrRankRegression {
	return &ErrRankRegression{From: from, To: to}
}

// ErrAutoTransitionLoop indicates auto transitions kept firing past the bound.
type ErrAutoTransitionLoop struct {
	StateName string
}

func (e *ErrAutoTransitionLoop) Error() string {
	return fmt.Sprintf("auto transitions did not settle, last state '%s'", e.StateName)
}

func NewErrAutoTransitionLoop(stateName string) *ErrAutoTransitionLoop {
	return &ErrAutoTransitionLoop{StateName: stateName}
}

func IsNoTransitionAvailableError(err error) bool {
	var e *ErrNoTransitionAvailable
	return errors.As(err, &e)
}

func IsTransitionRejectedError(err error) bool {
	var e *ErrTransitionRejected
	return errors.As(err, &e)
}

func IsRankRegressionError(err error) bool {
	var e *ErrRankRegression
	return errors.As(err, &e)
}
