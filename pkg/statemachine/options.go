package statemachine

import (
	"fmt"
)

// Option configures a state machine during construction.
type Option[S Subject] func(*machineConfig[S])

// TransitionOption configures a single transition with guards and actions.
type TransitionOption[S Subject] func(*transitionConfig[S])

// TransitionDef defines a transition between states.
type TransitionDef[S Subject] struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard[S]
	Actions []Action[S]
}

type machineConfig[S Subject] struct {
	states      []State
	monotonic   bool
	transitions []TransitionDef[S]
}

type transitionConfig[S Subject] struct {
	guards  []Guard[S]
	actions []Action[S]
}

// New creates a new state machine from the given options.
// State order options are applied before any transition regardless of argument order.
func New[S Subject](opts ...Option[S]) (*Machine[S], error) {
	cfg := &machineConfig[S]{}
	for _, opt := range opts {
		opt(cfg)
	}

	m := newMachine[S]()
	for i, s := range cfg.states {
		if s == nil {
			return nil, fmt.Errorf("state[%d] cannot be nil", i)
		}
		if _, dup := m.ranks[s.Name()]; dup {
			return nil, fmt.Errorf("state '%s' declared twice", s.Name())
		}
		m.ranks[s.Name()] = i
	}
	m.monotonic = cfg.monotonic

	for i, t := range cfg.transitions {
		if err := m.AddTransition(t.From, t.To, t.Event, t.Guards, t.Actions); err != nil {
			return nil, fmt.Errorf("failed to add transition[%d] %s->%s on %s: %w",
				i, nameOf(t.From), nameOf(t.To), nameOf(t.Event), err)
		}
	}

	return m, nil
}

// MustNew creates a new state machine from the given options.
// Panics if any option fails to apply, following the fail-fast pattern for static definitions.
func MustNew[S Subject](opts ...Option[S]) *Machine[S] {
	m, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

func nameOf(v interface{ Name() string }) string {
	if v == nil {
		return "<nil>"
	}
	return v.Name()
}

// WithStates declares the full ordered list of states. Order defines Rank.
func WithStates[S Subject](states ...State) Option[S] {
	return func(cfg *machineConfig[S]) {
		cfg.states = append(cfg.states, states...)
	}
}

// WithMonotonicRank rejects any transition whose target ranks below its source.
// Requires WithStates.
func WithMonotonicRank[S Subject]() Option[S] {
	return func(cfg *machineConfig[S]) {
		cfg.monotonic = true
	}
}

// WithTransition adds a single transition to the state machine.
func WithTransition[S Subject](from, to State, event Event, opts ...TransitionOption[S]) Option[S] {
	return func(cfg *machineConfig[S]) {
		tc := &transitionConfig[S]{}
		for _, opt := range opts {
			opt(tc)
		}
		cfg.transitions = append(cfg.transitions, TransitionDef[S]{
			From:    from,
			To:      to,
			Event:   event,
			Guards:  tc.guards,
			Actions: tc.actions,
		})
	}
}

// WithAutoTransition adds an eventless transition taken whenever the subject
// sits in from and all guards pass.
func WithAutoTransition[S Subject](from, to State, opts ...TransitionOption[S]) Option[S] {
	return WithTransition(from, to, nil, opts...)
}

// WithTransitions adds multiple transitions to the state machine at once.
func WithTransitions[S Subject](transitions []TransitionDef[S]) Option[S] {
	return func(cfg *machineConfig[S]) {
		cfg.transitions = append(cfg.transitions, transitions...)
	}
}

// WithGuard adds a single guard to a transition.
func WithGuard[S Subject](guard Guard[S]) TransitionOption[S] {
	return func(cfg *transitionConfig[S]) {
		if guard != nil {
			cfg.guards = append(cfg.guards, guard)
		}
	}
}

// WithGuards adds multiple guards to a transition.
func WithGuards[S Subject](guards ...Guard[S]) TransitionOption[S] {
	return func(cfg *transitionConfig[S]) {
		for _, guard := range guards {
			if guard != nil {
				cfg.guards = append(cfg.guards, guard)
			}
		}
	}
}

// WithAction adds a single action to a transition.
func WithAction[S Subject](action Action[S]) TransitionOption[S] {
	return func(cfg *transitionConfig[S]) {
		if action != nil {
			cfg.actions = append(cfg.actions, action)
		}
	}
}

// WithActions adds multiple actions to a transition.
func WithActions[S Subject](actions ...Action[S]) TransitionOption[S] {
	return func(cfg *transitionConfig[S]) {
		for _, action := range actions {
			if action != nil {
				cfg.actions = append(cfg.actions, action)
			}
		}
	}
}
