// Package workflow is the shared engine behind the match and registration
// lifecycles.
//
// An Engine drives entities of one kind through a statemachine.Machine. It
// owns nothing but the procedure; entities live in a Store and every write is
// a compare-and-swap on the record version. Apply runs these steps while
// holding the entity's lock:
//
//  1. Load the record (ErrNotFound).
//  2. Check that the event has an edge from the current state (ErrInvalidTransition).
//  3. Clone the entity and validate the payload onto the clone (ErrInvalidPayload).
//  4. Fire the machine on the clone (ErrGuardNotSatisfied).
//  5. Stamp the actor and CAS the clone back (ErrConcurrentModification).
//
// Any failure leaves the stored record untouched, because only the clone was
// mutated. Effects emitted by actions come back in Result.Effects wrapped in
// an Envelope; the engine never executes them. Effects emitted through
// Tx.EmitEdge advance Record.Generation so that stores can tell edge-triggered
// firings apart from ordinary writes.
//
// # Errors
//
//	if workflow.IsInvalidTransition(err) { /* event not legal in this state */ }
//	if workflow.IsGuardNotSatisfied(err) { /* legal, but a precondition is false */ }
//	if workflow.IsConcurrentModification(err) { /* refetch and reissue */ }
//
// The engine does not retry. Retry policy belongs to the caller.
package workflow
