package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Machine holds a transition table and applies events to subjects.
// It keeps no per-subject state, so one Machine serves every entity of a kind.
// Uses a nested map structure for O(1) transition lookups: [fromState][event][]Transition
type Machine[S Subject] struct {
	transitions map[string]map[string][]Transition[S]
	auto        map[string][]Transition[S]
	ranks       map[string]int
	monotonic   bool
	mu          sync.RWMutex
}

func newMachine[S Subject]() *Machine[S] {
	return &Machine[S]{
		transitions: make(map[string]map[string][]Transition[S]),
		auto:        make(map[string][]Transition[S]),
		ranks:       make(map[string]int),
	}
}

// AddTransition registers a transition. A nil event registers an auto transition.
func (m *Machine[S]) AddTransition(from, to State, event Event, guards []Guard[S], actions []Action[S]) error {
	if from == nil || to == nil {
		return ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkRank(from, to); err != nil {
		return err
	}

	t := Transition[S]{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	}

	if event == nil {
		m.auto[from.Name()] = append(m.auto[from.Name()], t)
		return nil
	}

	fromName := from.Name()
	if _, ok := m.transitions[fromName]; !ok {
		m.transitions[fromName] = make(map[string][]Transition[S])
	}
	// Multiple transitions allowed for same from/event to support guard-based branching
	m.transitions[fromName][event.Name()] = append(m.transitions[fromName][event.Name()], t)
	return nil
}

// checkRank must be called with m.mu held.
func (m *Machine[S]) checkRank(from, to State) error {
	if len(m.ranks) == 0 {
		return nil
	}
	fr, ok := m.ranks[from.Name()]
	if !ok {
		return NewErrUnknownState(from.Name())
	}
	tr, ok := m.ranks[to.Name()]
	if !ok {
		return NewErrUnknownState(to.Name())
	}
	if m.monotonic && tr < fr {
		return NewErrRankRegression(from.Name(), to.Name())
	}
	return nil
}

// HasTransition reports whether any transition is defined for the state/event pair,
// regardless of guards.
func (m *Machine[S]) HasTransition(from State, event Event) bool {
	if from == nil || event == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transitions[from.Name()][event.Name()]) > 0
}

// Events lists the event names defined from the given state.
func (m *Machine[S]) Events(from State) []string {
	if from == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.transitions[from.Name()]))
	for name := range m.transitions[from.Name()] {
		names = append(names, name)
	}
	return names
}

// Rank returns the position of a state in the order given to WithStates,
// or -1 when no order was configured or the state is unknown.
func (m *Machine[S]) Rank(state State) int {
	if state == nil {
		return -1
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.ranks[state.Name()]
	if !ok {
		return -1
	}
	return r
}

// Known reports whether state belongs to the declared order.
// Without a declared order every non-nil state is known.
func (m *Machine[S]) Known(state State) bool {
	if state == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.ranks) == 0 {
		return true
	}
	_, ok := m.ranks[state.Name()]
	return ok
}

// Fire applies event to subject. Guards are evaluated against the subject as
// given; actions may mutate it. After the event transition, auto transitions
// from the entered state are followed while their guards pass.
// On error the subject's state is not written, but actions that ran before the
// failure may have mutated other fields, so callers should fire on a copy.
func (m *Machine[S]) Fire(ctx context.Context, subject S, event Event, data any) (Outcome, error) {
	if event == nil {
		return Outcome{}, ErrInvalidEvent
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	current := subject.Current()
	out := Outcome{From: current, To: current}

	transitions := m.transitions[current.Name()][event.Name()]
	if len(transitions) == 0 {
		return Outcome{}, NewErrNoTransitionAvailable(current.Name(), event.Name())
	}

	// First transition with passing guards wins (enables priority ordering)
	t := firstPassing(ctx, transitions, subject, event, data)
	if t == nil {
		return Outcome{}, NewErrTransitionRejected(current.Name(), event.Name())
	}

	if err := m.step(ctx, subject, t, event, data, &out); err != nil {
		return Outcome{}, err
	}

	// Bounded by the number of states with auto transitions so a cycle cannot spin forever.
	for range len(m.auto) + 1 {
		at := firstPassing(ctx, m.auto[subject.Current().Name()], subject, nil, data)
		if at == nil {
			return out, nil
		}
		if err := m.step(ctx, subject, at, nil, data, &out); err != nil {
			return Outcome{}, err
		}
	}

	return Outcome{}, NewErrAutoTransitionLoop(subject.Current().Name())
}

func (m *Machine[S]) step(ctx context.Context, subject S, t *Transition[S], event Event, data any, out *Outcome) error {
	tx := &Tx[S]{
		Subject: subject,
		From:    subject.Current(),
		To:      t.To,
		Event:   event,
		Data:    data,
	}
	for _, action := range t.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, tx); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}

	subject.SetCurrent(t.To)
	out.To = t.To
	out.Path = append(out.Path, t.To)
	out.Emitted = append(out.Emitted, tx.emitted...)
	out.EdgeTriggered += tx.edges
	return nil
}

// CanFire reports whether Fire would find a transition whose guards pass.
func (m *Machine[S]) CanFire(ctx context.Context, subject S, event Event, data any) bool {
	if event == nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	transitions := m.transitions[subject.Current().Name()][event.Name()]
	return firstPassing(ctx, transitions, subject, event, data) != nil
}

func firstPassing[S Subject](ctx context.Context, transitions []Transition[S], subject S, event Event, data any) *Transition[S] {
	for i, t := range transitions {
		allGuardsPassed := true
		for _, guard := range t.Guards {
			if guard != nil && !guard(ctx, subject, event, data) {
				allGuardsPassed = false
				break
			}
		}
		if allGuardsPassed {
			return &transitions[i]
		}
	}
	return nil
}
