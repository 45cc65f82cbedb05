package statemachine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
)

type doc struct {
	state    statemachine.State
	approved bool
	reviews  int
}

func (d *doc) Current() statemachine.State     { return d.state }
func (d *doc) SetCurrent(s statemachine.State) { d.state = s }

const (
	Draft     = statemachine.StringState("draft")
	InReview  = statemachine.StringState("in_review")
	Approved  = statemachine.StringState("approved")
	Published = statemachine.StringState("published")

	Submit  = statemachine.StringEvent("submit")
	Review  = statemachine.StringEvent("review")
	Publish = statemachine.StringEvent("publish")
	Revert  = statemachine.StringEvent("revert")
)

func isApproved(_ context.Context, d *doc, _ statemachine.Event, _ any) bool {
	return d.approved
}

func TestMachine_Fire(t *testing.T) {
	t.Parallel()

	t.Run("basic transition", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(
			statemachine.WithTransition[*doc](Draft, InReview, Submit),
		)
		d := &doc{state: Draft}

		out, err := m.Fire(context.Background(), d, Submit, nil)
		require.NoError(t, err)
		assert.Equal(t, InReview, d.Current())
		assert.Equal(t, Draft, out.From)
		assert.Equal(t, InReview, out.To)
		assert.True(t, out.Changed())
		assert.Equal(t, []statemachine.State{InReview}, out.Path)
	})

	t.Run("no transition available", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(
			statemachine.WithTransition[*doc](Draft, InReview, Submit),
		)
		d := &doc{state: InReview}

		_, err := m.Fire(context.Background(), d, Submit, nil)
		require.Error(t, err)
		assert.True(t, statemachine.IsNoTransitionAvailableError(err))
		assert.Equal(t, InReview, d.Current())
	})

	t.Run("nil event", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew[*doc]()
		_, err := m.Fire(context.Background(), &doc{state: Draft}, nil, nil)
		assert.ErrorIs(t, err, statemachine.ErrInvalidEvent)
	})

	t.Run("guard rejects", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(
			statemachine.WithTransition(InReview, Approved, Review,
				statemachine.WithGuard[*doc](isApproved),
			),
		)
		d := &doc{state: InReview}

		assert.False(t, m.CanFire(context.Background(), d, Review, nil))
		_, err := m.Fire(context.Background(), d, Review, nil)
		assert.True(t, statemachine.IsTransitionRejectedError(err))
		assert.Equal(t, InReview, d.Current())

		d.approved = true
		assert.True(t, m.CanFire(context.Background(), d, Review, nil))
		_, err = m.Fire(context.Background(), d, Review, nil)
		require.NoError(t, err)
		assert.Equal(t, Approved, d.Current())
	})

	t.Run("first passing transition wins", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(
			statemachine.WithTransition(InReview, Approved, Review,
				statemachine.WithGuard[*doc](isApproved),
			),
			statemachine.WithTransition[*doc](InReview, InReview, Review),
		)

		d := &doc{state: InReview}
		out, err := m.Fire(context.Background(), d, Review, nil)
		require.NoError(t, err)
		assert.False(t, out.Changed())

		d.approved = true
		out, err = m.Fire(context.Background(), d, Review, nil)
		require.NoError(t, err)
		assert.Equal(t, Approved, out.To)
	})

	t.Run("actions emit effects", func(t *testing.T) {
		t.Parallel()
		count := func(_ context.Context, tx *statemachine.Tx[*doc]) error {
			tx.Subject.reviews++
			tx.Emit("reviewed")
			return nil
		}
		announce := func(_ context.Context, tx *statemachine.Tx[*doc]) error {
			tx.EmitEdge("announce:" + tx.To.Name())
			return nil
		}
		m := statemachine.MustNew(
			statemachine.WithTransition(InReview, Published, Publish,
				statemachine.WithActions[*doc](count, announce),
			),
		)

		d := &doc{state: InReview}
		out, err := m.Fire(context.Background(), d, Publish, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, d.reviews)
		assert.Equal(t, []any{"reviewed", "announce:published"}, out.Emitted)
		assert.Equal(t, 1, out.EdgeTriggered)
	})

	t.Run("failing action keeps state", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		m := statemachine.MustNew(
			statemachine.WithTransition(Draft, InReview, Submit,
				statemachine.WithAction[*doc](func(context.Context, *statemachine.Tx[*doc]) error { return boom }),
			),
		)
		d := &doc{state: Draft}

		_, err := m.Fire(context.Background(), d, Submit, nil)
		require.ErrorIs(t, err, boom)
		assert.Equal(t, Draft, d.Current())
	})
}

func TestMachine_AutoTransitions(t *testing.T) {
	t.Parallel()

	t.Run("follows passing auto edge", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(
			statemachine.WithTransition(InReview, InReview, Review,
				statemachine.WithAction[*doc](func(_ context.Context, tx *statemachine.Tx[*doc]) error {
					tx.Subject.reviews++
					return nil
				}),
			),
			statemachine.WithAutoTransition(InReview, Approved,
				statemachine.WithGuard[*doc](func(_ context.Context, d *doc, _ statemachine.Event, _ any) bool {
					return d.reviews >= 2
				}),
			),
		)

		d := &doc{state: InReview}
		out, err := m.Fire(context.Background(), d, Review, nil)
		require.NoError(t, err)
		assert.Equal(t, InReview, out.To)

		out, err = m.Fire(context.Background(), d, Review, nil)
		require.NoError(t, err)
		assert.Equal(t, Approved, out.To)
		assert.Equal(t, []statemachine.State{InReview, Approved}, out.Path)
	})

	t.Run("unbounded auto cycle fails", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(
			statemachine.WithTransition[*doc](Draft, InReview, Submit),
			statemachine.WithAutoTransition[*doc](InReview, Approved),
			statemachine.WithAutoTransition[*doc](Approved, InReview),
		)

		d := &doc{state: Draft}
		_, err := m.Fire(context.Background(), d, Submit, nil)
		var loopErr *statemachine.ErrAutoTransitionLoop
		require.ErrorAs(t, err, &loopErr)
	})
}

func TestMachine_Rank(t *testing.T) {
	t.Parallel()

	t.Run("rank follows declared order", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(
			statemachine.WithStates[*doc](Draft, InReview, Approved),
			statemachine.WithTransition[*doc](Draft, InReview, Submit),
		)
		assert.Equal(t, 0, m.Rank(Draft))
		assert.Equal(t, 2, m.Rank(Approved))
		assert.Equal(t, -1, m.Rank(Published))
	})

	t.Run("monotonic rejects regression", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.New(
			statemachine.WithTransition[*doc](InReview, Draft, Revert),
			statemachine.WithStates[*doc](Draft, InReview),
			statemachine.WithMonotonicRank[*doc](),
		)
		require.Error(t, err)
		assert.True(t, statemachine.IsRankRegressionError(err))
	})

	t.Run("unknown state", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.New(
			statemachine.WithStates[*doc](Draft),
			statemachine.WithTransition[*doc](Draft, Published, Publish),
		)
		var unknown *statemachine.ErrUnknownState
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "published", unknown.StateName)
	})

	t.Run("must new panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			statemachine.MustNew(statemachine.WithTransition[*doc](nil, Draft, Submit))
		})
	})
}

func TestMachine_Introspection(t *testing.T) {
	t.Parallel()
	m := statemachine.MustNew(
		statemachine.WithTransition[*doc](Draft, InReview, Submit),
		statemachine.WithTransition[*doc](Draft, Published, Publish),
	)

	assert.True(t, m.HasTransition(Draft, Submit))
	assert.False(t, m.HasTransition(InReview, Submit))
	assert.ElementsMatch(t, []string{"submit", "publish"}, m.Events(Draft))
	assert.Empty(t, m.Events(Approved))
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	m, err := statemachine.NewBuilder[*doc](Draft, InReview, Approved).
		Monotonic().
		From(Draft).When(Submit).To(InReview).Add().
		From(InReview).To(Approved).WithGuard(isApproved).Add().
		Build()
	require.NoError(t, err)

	d := &doc{state: Draft, approved: true}
	out, err := m.Fire(context.Background(), d, Submit, nil)
	require.NoError(t, err)
	assert.Equal(t, Approved, out.To, "auto edge added through builder")

	_, err = statemachine.NewBuilder[*doc](Draft, InReview).
		Monotonic().
		From(InReview).When(Revert).To(Draft).Add().
		Build()
	assert.True(t, statemachine.IsRankRegressionError(err))
}

func TestMachine_ConcurrentSubjects(t *testing.T) {
	t.Parallel()
	m := statemachine.MustNew(
		statemachine.WithTransition[*doc](Draft, InReview, Submit),
	)

	docs := make([]*doc, 50)
	for i := range docs {
		docs[i] = &doc{state: Draft}
	}

	var wg sync.WaitGroup
	for _, d := range docs {
		wg.Add(1)
		go func(d *doc) {
			defer wg.Done()
			_, err := m.Fire(context.Background(), d, Submit, nil)
			assert.NoError(t, err)
		}(d)
	}
	wg.Wait()

	for _, d := range docs {
		assert.Equal(t, InReview, d.Current())
	}
}
