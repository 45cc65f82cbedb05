// Package statemachine provides a type-safe, table-driven finite-state-machine
// that applies events to many subjects of the same kind.
//
// A Machine holds only the transition table. The state itself lives on the
// subject (any type implementing Subject), so one Machine is shared by every
// match or registration in the system and the caller decides where subjects
// are stored and how concurrent writes are serialized.
//
// The library handles:
//  1. Transition lookup keyed by (state, event)
//  2. Guard evaluation, first transition with passing guards wins
//  3. Actions that may mutate the subject and emit opaque effect requests
//  4. Auto transitions (nil event) followed after each applied event
//  5. Optional state ordering with Rank and monotonic enforcement
//
// # Usage
//
//	type Doc struct{ state statemachine.State }
//
//	func (d *Doc) Current() statemachine.State     { return d.state }
//	func (d *Doc) SetCurrent(s statemachine.State) { d.state = s }
//
//	const (
//	    Draft    = statemachine.StringState("draft")
//	    InReview = statemachine.StringState("in_review")
//	    Submit   = statemachine.StringEvent("submit")
//	)
//
//	m := statemachine.MustNew(
//	    statemachine.WithStates[*Doc](Draft, InReview),
//	    statemachine.WithTransition[*Doc](Draft, InReview, Submit),
//	)
//
//	out, err := m.Fire(ctx, &Doc{state: Draft}, Submit, nil)
//
// # Guards and Actions
//
// Guards veto a transition based on the subject and event data. Actions run
// after guards pass and before the state is written; they receive a *Tx and
// may call Emit or EmitEdge to hand effect requests back to the caller through
// Outcome.Emitted. The machine never performs I/O on behalf of an effect.
//
// # Error Handling
//
//	if statemachine.IsNoTransitionAvailableError(err) { /* event not legal here */ }
//	if statemachine.IsTransitionRejectedError(err)   { /* guards said no */ }
//
// # Concurrency
//
// Machine guards its table with a RWMutex, so Fire can run concurrently for
// different subjects. Concurrent Fire calls on the same subject must be
// serialized by the caller.
package statemachine
