package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

type ticket struct {
	id       string
	state    statemachine.State
	approved bool
	touches  int
	actor    string
	at       time.Time
}

func (t *ticket) Current() statemachine.State     { return t.state }
func (t *ticket) SetCurrent(s statemachine.State) { t.state = s }
func (t *ticket) EntityID() string                { return t.id }

func (t *ticket) Clone() *ticket {
	c := *t
	return &c
}

func (t *ticket) Stamp(actor string, at time.Time) {
	t.actor = actor
	t.at = at
}

const (
	Open   = statemachine.StringState("open")
	Closed = statemachine.StringState("closed")

	Touch   = statemachine.StringEvent("touch")
	Approve = statemachine.StringEvent("approve")
	Close   = statemachine.StringEvent("close")
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTicketEngine(t *testing.T, store workflow.Store[*ticket], opts ...workflow.EngineOption[*ticket]) *workflow.Engine[*ticket] {
	t.Helper()

	m := statemachine.MustNew(
		statemachine.WithStates[*ticket](Open, Closed),
		statemachine.WithMonotonicRank[*ticket](),
		statemachine.WithTransition(Open, Open, Touch,
			statemachine.WithAction[*ticket](func(_ context.Context, tx *statemachine.Tx[*ticket]) error {
				tx.Subject.touches++
				tx.Emit(workflow.NotifyTeam{RegistrationID: tx.Subject.id, Channel: "email"})
				return nil
			}),
		),
		statemachine.WithTransition[*ticket](Open, Open, Approve),
		statemachine.WithTransition(Open, Closed, Close,
			statemachine.WithGuard[*ticket](func(_ context.Context, t *ticket, _ statemachine.Event, _ any) bool {
				return t.approved
			}),
			statemachine.WithAction[*ticket](func(_ context.Context, tx *statemachine.Tx[*ticket]) error {
				tx.EmitEdge(workflow.RecomputeStandings{MatchID: tx.Subject.id})
				return nil
			}),
		),
	)

	payload := func(_ context.Context, c *ticket, event statemachine.Event, p any) (any, error) {
		if event.Name() != Approve.Name() {
			return p, nil
		}
		v, ok := p.(bool)
		if !ok {
			return nil, workflow.UnexpectedPayloadType(event.Name(), p)
		}
		c.approved = v
		return p, nil
	}

	return workflow.NewEngine("ticket", m, store, append([]workflow.EngineOption[*ticket]{
		workflow.WithPayload[*ticket](payload),
		workflow.WithClock[*ticket](func() time.Time { return fixedNow }),
	}, opts...)...)
}

func seed(t *testing.T, e *workflow.Engine[*ticket], id string) {
	t.Helper()
	_, err := e.Create(context.Background(), &ticket{id: id, state: Open})
	require.NoError(t, err)
}

func TestEngine_Apply(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		e := newTicketEngine(t, workflow.NewMemoryStore[*ticket]())

		_, err := e.Apply(ctx, workflow.Command{EntityID: "missing", Event: Touch})
		assert.True(t, workflow.IsNotFound(err))
	})

	t.Run("applies and stamps", func(t *testing.T) {
		t.Parallel()
		e := newTicketEngine(t, workflow.NewMemoryStore[*ticket]())
		seed(t, e, "t1")

		res, err := e.Apply(ctx, workflow.Command{EntityID: "t1", Event: Touch, Actor: "ops"})
		require.NoError(t, err)
		assert.Equal(t, "open", res.From)
		assert.Equal(t, "open", res.To)
		assert.Equal(t, int64(2), res.Record.Version)
		assert.Equal(t, int64(0), res.Record.Generation)
		assert.Equal(t, "ops", res.Record.Entity.actor)
		assert.Equal(t, fixedNow, res.Record.Entity.at)

		require.Len(t, res.Effects, 1)
		env := res.Effects[0]
		assert.Equal(t, workflow.KindNotifyTeam, env.Kind)
		assert.Equal(t, "t1", env.EntityID)
		assert.Equal(t, fixedNow, env.EmittedAt)
		assert.NotEmpty(t, env.ID.String())
		assert.Equal(t, workflow.NotifyTeam{RegistrationID: "t1", Channel: "email"}, env.Effect)
	})

	t.Run("edge effect advances generation", func(t *testing.T) {
		t.Parallel()
		e := newTicketEngine(t, workflow.NewMemoryStore[*ticket]())
		seed(t, e, "t1")

		_, err := e.Apply(ctx, workflow.Command{EntityID: "t1", Event: Approve, Payload: true})
		require.NoError(t, err)
		res, err := e.Apply(ctx, workflow.Command{EntityID: "t1", Event: Close})
		require.NoError(t, err)

		assert.Equal(t, "closed", res.To)
		assert.Equal(t, []string{"closed"}, res.Path)
		assert.Equal(t, int64(1), res.Record.Generation)
		assert.Equal(t, []workflow.Effect{workflow.RecomputeStandings{MatchID: "t1"}}, workflow.Effects(res.Effects))
	})

	t.Run("invalid transition leaves record unchanged", func(t *testing.T) {
		t.Parallel()
		e := newTicketEngine(t, workflow.NewMemoryStore[*ticket]())
		seed(t, e, "t1")
		_, err := e.Apply(ctx, workflow.Command{EntityID: "t1", Event: Approve, Payload: true})
		require.NoError(t, err)
		_, err = e.Apply(ctx, workflow.Command{EntityID: "t1", Event: Close})
		require.NoError(t, err)

		_, err = e.Apply(ctx, workflow.Command{EntityID: "t1", Event: Close})
		require.Error(t, err)
		assert.True(t, workflow.IsInvalidTransition(err))

		var te *workflow.TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "closed", te.From)
		assert.Equal(t, "close", te.Event)

		rec, err := e.Get(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), rec.Version)
		assert.Equal(t, int64(1), rec.Generation)
	})

	t.Run("guard not satisfied", func(t *testing.T) {
		t.Parallel()
		e := newTicketEngine(t, workflow.NewMemoryStore[*ticket]())
		seed(t, e, "t1")

		_, err := e.Apply(ctx, workflow.Command{EntityID: "t1", Event: Close})
		require.Error(t, err)
		assert.True(t, workflow.IsGuardNotSatisfied(err))
		assert.False(t, workflow.IsInvalidTransition(err))

		rec, err := e.Get(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, Open, rec.Entity.Current())
		assert.Equal(t, int64(1), rec.Version)
	})

	t.Run("invalid payload", func(t *testing.T) {
		t.Parallel()
		e := newTicketEngine(t, workflow.NewMemoryStore[*ticket]())
		seed(t, e, "t1")

		_, err := e.Apply(ctx, workflow.Command{EntityID: "t1", Event: Approve, Payload: "yes"})
		require.Error(t, err)
		assert.True(t, workflow.IsInvalidPayload(err))

		var pe *workflow.PayloadError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "approve", pe.Event)

		rec, err := e.Get(ctx, "t1")
		require.NoError(t, err)
		assert.False(t, rec.Entity.approved)
		assert.Equal(t, int64(1), rec.Version)
	})

	t.Run("nil event", func(t *testing.T) {
		t.Parallel()
		e := newTicketEngine(t, workflow.NewMemoryStore[*ticket]())
		seed(t, e, "t1")

		_, err := e.Apply(ctx, workflow.Command{EntityID: "t1"})
		assert.True(t, workflow.IsInvalidTransition(err))
	})
}

// staleStore hands out a version that is already behind the stored one,
// as if another writer committed between our read and our write.
type staleStore struct {
	*workflow.MemoryStore[*ticket]
}

func (s staleStore) Get(ctx context.Context, id string) (workflow.Record[*ticket], error) {
	rec, err := s.MemoryStore.Get(ctx, id)
	rec.Version--
	return rec, err
}

func TestEngine_ConcurrentModification(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	inner := workflow.NewMemoryStore[*ticket]()
	seeder := newTicketEngine(t, inner)
	seed(t, seeder, "t1")

	e := newTicketEngine(t, staleStore{inner})
	_, err := e.Apply(ctx, workflow.Command{EntityID: "t1", Event: Touch})
	require.Error(t, err)
	assert.True(t, workflow.IsConcurrentModification(err))

	rec, err := inner.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Entity.touches)
}

func TestEngine_SerializesSameEntity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTicketEngine(t, workflow.NewMemoryStore[*ticket]())
	seed(t, e, "t1")
	seed(t, e, "t2")

	const n = 50
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := e.Apply(ctx, workflow.Command{EntityID: id, Event: Touch})
			assert.NoError(t, err)
		}([]string{"t1", "t2"}[i%2])
	}
	wg.Wait()

	for _, id := range []string{"t1", "t2"} {
		rec, err := e.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, n/2, rec.Entity.touches)
		assert.Equal(t, int64(n/2+1), rec.Version)
	}
}

func TestEngine_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTicketEngine(t, workflow.NewMemoryStore[*ticket]())

	rec, err := e.Create(ctx, &ticket{id: "t1", state: Open})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)

	_, err = e.Create(ctx, &ticket{id: "t1", state: Open})
	assert.ErrorIs(t, err, workflow.ErrAlreadyExists)

	_, err = e.Create(ctx, &ticket{id: "t2", state: statemachine.StringState("archived")})
	var unknown *statemachine.ErrUnknownState
	assert.True(t, errors.As(err, &unknown))
}

func TestEngine_CreateInitialStates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := workflow.NewMemoryStore[*ticket]()
	e := newTicketEngine(t, store, workflow.WithInitialStates[*ticket](Open))

	_, err := e.Create(ctx, &ticket{id: "t1", state: Closed})
	require.Error(t, err)
	assert.True(t, workflow.IsInvalidTransition(err))
	var te *workflow.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "closed", te.From)
	assert.Equal(t, "create", te.Event)
	assert.Zero(t, store.Len())

	rec, err := e.Create(ctx, &ticket{id: "t1", state: Open})
	require.NoError(t, err)
	assert.Equal(t, Open, rec.Entity.Current())
}

func TestMemoryStore_Isolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := workflow.NewMemoryStore[*ticket]()

	orig := &ticket{id: "t1", state: Open}
	require.NoError(t, s.Insert(ctx, workflow.Record[*ticket]{Entity: orig, Version: 1}))
	orig.touches = 99

	rec, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Entity.touches)

	rec.Entity.touches = 5
	again, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Entity.touches)

	err = s.CompareAndSwap(ctx, workflow.Record[*ticket]{Entity: rec.Entity, Version: 3}, 2)
	assert.True(t, workflow.IsConcurrentModification(err))

	err = s.CompareAndSwap(ctx, workflow.Record[*ticket]{Entity: &ticket{id: "nope", state: Open}}, 1)
	assert.True(t, workflow.IsNotFound(err))

	assert.Len(t, s.Filter(func(t *ticket) bool { return t.Current() == Open }), 1)
	assert.Equal(t, 1, s.Len())
}
