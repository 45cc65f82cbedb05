// Package httpapi exposes the match lifecycle and the season registration
// workflow as a JSON API on a chi router.
//
// Transitions are requested with
//
//	POST /matches/{id}/events
//	{"event": "RecordReport", "actor": "ref-17", "payload": {"role": "referee", "body": "..."}}
//
// The payload is decoded strictly into the event's schema. Failures map to:
//
//	unknown entity            404 not_found
//	event not legal in state  409 invalid_transition
//	lost a concurrent write   409 concurrent_modification
//	precondition false        412 guard_not_satisfied
//	malformed payload         422 invalid_payload
//
// Effects of a committed transition are handed to the Dispatcher and also
// returned in the response body.
package httpapi
