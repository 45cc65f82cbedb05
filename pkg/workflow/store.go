package workflow

import (
	"context"
	"time"

	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
)

// Entity is a workflow subject the engine can copy, stamp and persist.
// S is the concrete pointer type, e.g. *match.Match.
type Entity[S any] interface {
	statemachine.Subject
	EntityID() string
	// Clone returns a deep copy; the engine only ever mutates clones.
	Clone() S
	// Stamp records who applied the last transition and when.
	Stamp(actor string, at time.Time)
}

// Record is a stored entity together with its concurrency metadata.
type Record[S any] struct {
	Entity S
	// Version increases by one on every successful write and is the CAS key.
	Version int64
	// Generation increases only when an edge-triggered effect actually fires.
	Generation int64
}

// Store persists entities of one kind. Writes must be atomic per entity:
// the status and every precondition flag are replaced as one unit.
type Store[S any] interface {
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (Record[S], error)
	// Insert returns ErrAlreadyExists when the id is taken.
	Insert(ctx context.Context, rec Record[S]) error
	// CompareAndSwap replaces the entity only if the stored version equals
	// expected; otherwise it returns ErrConcurrentModification.
	CompareAndSwap(ctx context.Context, rec Record[S], expected int64) error
}

// Locker serializes writers per key. Unlock must be safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
