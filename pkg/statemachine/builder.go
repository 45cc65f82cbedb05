package statemachine

// Builder provides a fluent API for building state machines.
type Builder[S Subject] struct {
	opts         []Option[S]
	currentFrom  State
	currentEvent Event
	currentTo    State
	guards       []Guard[S]
	actions      []Action[S]
}

// NewBuilder creates a new state machine builder over the ordered states.
func NewBuilder[S Subject](states ...State) *Builder[S] {
	b := &Builder[S]{}
	if len(states) > 0 {
		b.opts = append(b.opts, WithStates[S](states...))
	}
	return b
}

// Monotonic makes the built machine reject rank-decreasing transitions.
func (b *Builder[S]) Monotonic() *Builder[S] {
	b.opts = append(b.opts, WithMonotonicRank[S]())
	return b
}

// From sets the starting state for a transition.
func (b *Builder[S]) From(state State) *Builder[S] {
	b.reset()
	b.currentFrom = state
	return b
}

// When sets the event that triggers a transition. Leave unset for an auto transition.
func (b *Builder[S]) When(event Event) *Builder[S] {
	b.currentEvent = event
	return b
}

// To sets the target state for a transition.
func (b *Builder[S]) To(state State) *Builder[S] {
	b.currentTo = state
	return b
}

// WithGuard adds a guard function to the current transition.
func (b *Builder[S]) WithGuard(guard Guard[S]) *Builder[S] {
	b.guards = append(b.guards, guard)
	return b
}

// WithAction adds an action function to the current transition.
func (b *Builder[S]) WithAction(action Action[S]) *Builder[S] {
	b.actions = append(b.actions, action)
	return b
}

// Add finalizes the current transition.
func (b *Builder[S]) Add() *Builder[S] {
	b.opts = append(b.opts, WithTransitions([]TransitionDef[S]{{
		From:    b.currentFrom,
		To:      b.currentTo,
		Event:   b.currentEvent,
		Guards:  b.guards,
		Actions: b.actions,
	}}))
	b.reset()
	return b
}

// Build returns the constructed state machine.
func (b *Builder[S]) Build() (*Machine[S], error) {
	return New(b.opts...)
}

// MustBuild is Build that panics on an invalid definition.
func (b *Builder[S]) MustBuild() *Machine[S] {
	return MustNew(b.opts...)
}

// reset clears the current transition configuration.
func (b *Builder[S]) reset() {
	b.currentFrom = nil
	b.currentEvent = nil
	b.currentTo = nil
	b.guards = nil
	b.actions = nil
}
