package dispatch_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/leagueflow/pkg/broadcast"
	"github.com/dmitrymomot/leagueflow/pkg/dispatch"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

var at = time.Date(2026, 4, 4, 10, 0, 0, 0, time.UTC)

func TestDispatcher_Dispatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := broadcast.NewMemoryBroadcaster[workflow.Envelope](8)
	defer b.Close()
	sub := b.Subscribe(ctx)

	d := dispatch.New(b, nil)
	envs := []workflow.Envelope{
		workflow.NewEnvelope("r1", workflow.NotifyTeam{RegistrationID: "r1", Channel: "email"}, at),
		workflow.NewEnvelope("r1", workflow.RecheckQuorum{SeasonID: "s1"}, at),
		workflow.NewEnvelope("s1", workflow.SeasonReadyToSchedule{SeasonID: "s1"}, at),
	}
	require.NoError(t, d.Dispatch(ctx, envs))

	var kinds []string
	for range 2 {
		select {
		case msg := <-sub.Receive(ctx):
			kinds = append(kinds, msg.Data.Kind)
		case <-time.After(time.Second):
			t.Fatal("timed out")
		}
	}
	assert.Equal(t, []string{workflow.KindNotifyTeam, workflow.KindSeasonReadyToSchedule}, kinds)

	select {
	case msg := <-sub.Receive(ctx):
		t.Fatalf("unexpected envelope %s", msg.Data.Kind)
	default:
	}
}

func TestDispatcher_ClosedBroadcaster(t *testing.T) {
	t.Parallel()
	b := broadcast.NewMemoryBroadcaster[workflow.Envelope](1)
	require.NoError(t, b.Close())

	d := dispatch.New(b, nil)
	err := d.Dispatch(context.Background(), []workflow.Envelope{
		workflow.NewEnvelope("m1", workflow.RecomputeStandings{MatchID: "m1"}, at),
		workflow.NewEnvelope("m2", workflow.RecomputeStandings{MatchID: "m2"}, at),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, broadcast.ErrClosed)
	assert.Contains(t, err.Error(), workflow.KindRecomputeStandings)
}

func TestDispatcher_Empty(t *testing.T) {
	t.Parallel()
	b := broadcast.NewMemoryBroadcaster[workflow.Envelope](1)
	defer b.Close()
	assert.NoError(t, dispatch.New(b, nil).Dispatch(context.Background(), nil))
}

func TestConsume(t *testing.T) {
	t.Parallel()
	b := broadcast.NewMemoryBroadcaster[workflow.Envelope](8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu  sync.Mutex
		got []workflow.Effect
	)
	handled := make(chan struct{}, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		dispatch.Consume(ctx, b, nil, func(_ context.Context, env workflow.Envelope) error {
			mu.Lock()
			got = append(got, env.Effect)
			mu.Unlock()
			handled <- struct{}{}
			return errors.New("collaborator down")
		})
	}()
	require.Eventually(t, func() bool { return b.Len() == 1 }, time.Second, 5*time.Millisecond)

	d := dispatch.New(b, nil)
	require.NoError(t, d.Dispatch(ctx, []workflow.Envelope{
		workflow.NewEnvelope("m1", workflow.NotifyDisciplinaryCommittee{MatchID: "m1"}, at),
		workflow.NewEnvelope("m1", workflow.RecomputeStandings{MatchID: "m1"}, at),
	}))
	for range 2 {
		select {
		case <-handled:
		case <-time.After(time.Second):
			t.Fatal("handler not called")
		}
	}

	require.NoError(t, b.Close())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []workflow.Effect{
		workflow.NotifyDisciplinaryCommittee{MatchID: "m1"},
		workflow.RecomputeStandings{MatchID: "m1"},
	}, got)
}

func TestLogHandler(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	env := workflow.NewEnvelope("s1", workflow.FindReplacement{SeasonID: "s1"}, at)
	require.NoError(t, dispatch.LogHandler(log)(context.Background(), env))
	assert.Contains(t, buf.String(), `"effect":"find_replacement"`)
	assert.Contains(t, buf.String(), env.ID.String())
}
