package statemachine

import (
	"context"
)

// State represents a state in the state machine.
type State interface {
	Name() string
}

// Event represents an event that can trigger a state transition.
type Event interface {
	Name() string
}

// Subject is an entity driven by a Machine. The machine reads and writes the
// subject's state; everything else on the subject belongs to guards and actions.
// Implementations are expected to be pointer types so that writes are visible
// to the caller.
type Subject interface {
	Current() State
	SetCurrent(State)
}

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard[S Subject] func(ctx context.Context, subject S, event Event, data any) bool

// Action executes side effects during a transition. Returning an error prevents the transition.
type Action[S Subject] func(ctx context.Context, tx *Tx[S]) error

// Transition defines a state change triggered by an event, with optional guards and actions.
// A transition with a nil Event is an auto transition: it is taken as soon as
// the subject enters From and its guards pass.
type Transition[S Subject] struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard[S] // All must pass for transition to proceed
	Actions []Action[S]
}

// Tx is the view of a transition handed to actions.
type Tx[S Subject] struct {
	Subject S
	From    State
	To      State
	Event   Event
	Data    any

	emitted []any
	edges   int
}

// Emit records a side-effect request. The machine never interprets it.
func (tx *Tx[S]) Emit(effect any) {
	tx.emitted = append(tx.emitted, effect)
}

// EmitEdge records an edge-triggered side-effect request. It behaves like Emit
// and additionally counts towards Outcome.EdgeTriggered so that callers can
// advance a generation marker.
func (tx *Tx[S]) EmitEdge(effect any) {
	tx.emitted = append(tx.emitted, effect)
	tx.edges++
}

// Outcome describes an applied event.
type Outcome struct {
	From          State
	To            State
	Path          []State // states entered, including auto transitions
	Emitted       []any
	EdgeTriggered int
}

// Changed reports whether the state differs from the one the event was fired in.
func (o Outcome) Changed() bool {
	return o.From.Name() != o.To.Name()
}

// StringState provides a simple string-based state implementation for basic use cases.
type StringState string

func (s StringState) Name() string {
	return string(s)
}

// StringEvent provides a simple string-based event implementation for basic use cases.
type StringEvent string

func (e StringEvent) Name() string {
	return string(e)
}
