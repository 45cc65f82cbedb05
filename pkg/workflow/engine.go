package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/leagueflow/pkg/locker"
	"github.com/dmitrymomot/leagueflow/pkg/logger"
	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
)

// Command is a transition request issued by an external actor.
type Command struct {
	EntityID string
	Event    statemachine.Event
	Actor    string
	Payload  any
}

// Result is what a successful Apply hands back: the stored record after the
// write and the effects the caller is expected to dispatch.
type Result[S any] struct {
	Record  Record[S]
	From    string
	To      string
	Path    []string
	Effects []Envelope
}

// PayloadFunc validates a command payload against the event's schema and may
// merge precondition fields onto the candidate before guards run. The value
// it returns is passed to guards and actions as event data.
type PayloadFunc[S any] func(ctx context.Context, candidate S, event statemachine.Event, payload any) (any, error)

// Engine applies commands to entities of one kind. It holds no entity state;
// the store is the source of truth and every write is a version CAS.
type Engine[S Entity[S]] struct {
	name    string
	machine *statemachine.Machine[S]
	store   Store[S]
	locker  Locker
	payload PayloadFunc[S]
	initial []statemachine.State
	clock   func() time.Time
	log     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption[S Entity[S]] func(*Engine[S])

// WithLocker sets the per-entity locker. Defaults to an in-process locker.
func WithLocker[S Entity[S]](l Locker) EngineOption[S] {
	return func(e *Engine[S]) {
		if l != nil {
			e.locker = l
		}
	}
}

// WithPayload sets the payload validator. Without one, payloads pass through untouched.
func WithPayload[S Entity[S]](fn PayloadFunc[S]) EngineOption[S] {
	return func(e *Engine[S]) {
		if fn != nil {
			e.payload = fn
		}
	}
}

// WithInitialStates restricts Create to entities in one of states.
// Without it any state known to the machine may be seeded.
func WithInitialStates[S Entity[S]](states ...statemachine.State) EngineOption[S] {
	return func(e *Engine[S]) {
		e.initial = append(e.initial, states...)
	}
}

// WithClock overrides the time source used for stamps and envelopes.
func WithClock[S Entity[S]](clock func() time.Time) EngineOption[S] {
	return func(e *Engine[S]) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger[S Entity[S]](l *slog.Logger) EngineOption[S] {
	return func(e *Engine[S]) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine creates an engine named after the entity kind it drives.
// The name prefixes lock keys, so two engines sharing a locker never collide.
func NewEngine[S Entity[S]](name string, machine *statemachine.Machine[S], store Store[S], opts ...EngineOption[S]) *Engine[S] {
	e := &Engine[S]{
		name:    name,
		machine: machine,
		store:   store,
		locker:  locker.NewMemory(),
		payload: func(_ context.Context, _ S, _ statemachine.Event, payload any) (any, error) { return payload, nil },
		clock:   time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(logger.Component("workflow." + name))
	return e
}

// Machine exposes the transition table, e.g. for listing legal events.
func (e *Engine[S]) Machine() *statemachine.Machine[S] {
	return e.machine
}

// Get returns the stored record for id.
func (e *Engine[S]) Get(ctx context.Context, id string) (Record[S], error) {
	return e.store.Get(ctx, id)
}

// Create stores a new entity at version 1.
func (e *Engine[S]) Create(ctx context.Context, entity S) (Record[S], error) {
	if !e.machine.Known(entity.Current()) {
		return Record[S]{}, fmt.Errorf("create %s '%s': %w", e.name, entity.EntityID(),
			statemachine.NewErrUnknownState(entity.Current().Name()))
	}
	if !e.seedable(entity.Current()) {
		return Record[S]{}, &TransitionError{From: entity.Current().Name(), Event: "create", Cause: ErrInvalidTransition}
	}
	entity.Stamp("", e.clock())
	rec := Record[S]{Entity: entity.Clone(), Version: 1}
	if err := e.store.Insert(ctx, rec); err != nil {
		return Record[S]{}, err
	}
	return rec, nil
}

// Apply runs one command under the entity's lock:
// load, check edge, validate payload, fire on a copy, then CAS the copy.
// On any error the stored entity is unchanged.
func (e *Engine[S]) Apply(ctx context.Context, cmd Command) (Result[S], error) {
	if cmd.Event == nil {
		return Result[S]{}, &TransitionError{Event: "<nil>", Cause: ErrInvalidTransition}
	}
	event := cmd.Event.Name()

	unlock, err := e.locker.Lock(ctx, e.name+":"+cmd.EntityID)
	if err != nil {
		return Result[S]{}, fmt.Errorf("lock %s '%s': %w", e.name, cmd.EntityID, err)
	}
	defer unlock()

	rec, err := e.store.Get(ctx, cmd.EntityID)
	if err != nil {
		return Result[S]{}, err
	}

	from := rec.Entity.Current()
	if !e.machine.HasTransition(from, cmd.Event) {
		e.reject(ctx, cmd, from.Name(), ErrInvalidTransition)
		return Result[S]{}, &TransitionError{From: from.Name(), Event: event, Cause: ErrInvalidTransition}
	}

	candidate := rec.Entity.Clone()
	data, err := e.payload(ctx, candidate, cmd.Event, cmd.Payload)
	if err != nil {
		e.reject(ctx, cmd, from.Name(), ErrInvalidPayload)
		var pe *PayloadError
		if errors.As(err, &pe) {
			return Result[S]{}, err
		}
		return Result[S]{}, NewPayloadError(event, err)
	}

	out, err := e.machine.Fire(ctx, candidate, cmd.Event, data)
	if err != nil {
		err = e.mapFireError(from.Name(), event, err)
		e.reject(ctx, cmd, from.Name(), err)
		return Result[S]{}, err
	}

	now := e.clock()
	effects := make([]Envelope, 0, len(out.Emitted))
	for _, v := range out.Emitted {
		eff, ok := v.(Effect)
		if !ok {
			return Result[S]{}, fmt.Errorf("%s emitted unsupported effect %T", e.name, v)
		}
		effects = append(effects, NewEnvelope(cmd.EntityID, eff, now))
	}

	candidate.Stamp(cmd.Actor, now)
	next := Record[S]{
		Entity:     candidate,
		Version:    rec.Version + 1,
		Generation: rec.Generation + int64(out.EdgeTriggered),
	}
	if err := e.store.CompareAndSwap(ctx, next, rec.Version); err != nil {
		return Result[S]{}, err
	}

	e.log.InfoContext(ctx, "transition applied",
		logger.EntityID(cmd.EntityID),
		logger.Event(event),
		logger.Actor(cmd.Actor),
		logger.Transition(out.From.Name(), out.To.Name()),
		slog.Int64("version", next.Version),
		slog.Int("effects", len(effects)),
	)

	path := make([]string, 0, len(out.Path))
	for _, s := range out.Path {
		path = append(path, s.Name())
	}

	return Result[S]{
		Record:  Record[S]{Entity: candidate.Clone(), Version: next.Version, Generation: next.Generation},
		From:    out.From.Name(),
		To:      out.To.Name(),
		Path:    path,
		Effects: effects,
	}, nil
}

func (e *Engine[S]) seedable(state statemachine.State) bool {
	if len(e.initial) == 0 {
		return true
	}
	for _, s := range e.initial {
		if s.Name() == state.Name() {
			return true
		}
	}
	return false
}

func (e *Engine[S]) mapFireError(from, event string, err error) error {
	switch {
	case statemachine.IsNoTransitionAvailableError(err):
		return &TransitionError{From: from, Event: event, Cause: ErrInvalidTransition}
	case statemachine.IsTransitionRejectedError(err):
		return &TransitionError{From: from, Event: event, Cause: ErrGuardNotSatisfied}
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrGuardNotSatisfied):
		return err
	default:
		return fmt.Errorf("%s '%s' from '%s': %w", e.name, event, from, err)
	}
}

func (e *Engine[S]) reject(ctx context.Context, cmd Command, from string, reason error) {
	e.log.DebugContext(ctx, "transition rejected",
		logger.EntityID(cmd.EntityID),
		logger.Event(cmd.Event.Name()),
		logger.Actor(cmd.Actor),
		slog.String("from", from),
		logger.Error(reason),
	)
}
