package pgstore_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/leagueflow/pkg/match"
	"github.com/dmitrymomot/leagueflow/pkg/pg"
	"github.com/dmitrymomot/leagueflow/pkg/pgstore"
	"github.com/dmitrymomot/leagueflow/pkg/registration"
	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

var (
	poolOnce sync.Once
	pool     *pgxpool.Pool
	poolErr  error
)

// testPool connects to PG_CONN_URL and applies migrations once per run.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("PG_CONN_URL")
	if dsn == "" {
		t.Skip("PG_CONN_URL not set")
	}

	poolOnce.Do(func() {
		cfg := pg.Config{
			ConnectionString: dsn,
			MaxOpenConns:     10,
			MaxIdleConns:     1,
			RetryAttempts:    3,
			RetryInterval:    time.Second,
			MigrationsTable:  "leagueflow_migrations",
		}
		ctx := context.Background()
		pool, poolErr = pg.Connect(ctx, cfg)
		if poolErr != nil {
			return
		}
		poolErr = pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, slog.Default())
	})
	require.NoError(t, poolErr)
	return pool
}

func uid(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func TestMatchStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := pgstore.NewMatchStore(testPool(t))

	id := uid("match")
	kickoff := time.Date(2026, 10, 3, 15, 0, 0, 0, time.UTC)
	m := match.New(id, uid("season"), "home", "away", kickoff)

	require.NoError(t, store.Insert(ctx, workflow.Record[*match.Match]{Entity: m, Version: 1}))
	err := store.Insert(ctx, workflow.Record[*match.Match]{Entity: m, Version: 1})
	assert.ErrorIs(t, err, workflow.ErrAlreadyExists)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)
	assert.Equal(t, match.Scheduled, rec.Entity.Status)
	assert.True(t, kickoff.Equal(rec.Entity.ScheduledKickoff))

	next := rec.Entity.Clone()
	next.RefereeAssigned = true
	next.SupervisorAssigned = true
	next.Status = match.Preparing
	require.NoError(t, store.CompareAndSwap(ctx, workflow.Record[*match.Match]{Entity: next, Version: 2, Generation: 1}, 1))

	err = store.CompareAndSwap(ctx, workflow.Record[*match.Match]{Entity: next, Version: 3}, 1)
	assert.True(t, workflow.IsConcurrentModification(err))

	rec, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Version)
	assert.Equal(t, int64(1), rec.Generation)
	assert.Equal(t, match.Preparing, rec.Entity.Status)
	assert.True(t, rec.Entity.OfficialsAssigned())

	_, err = store.Get(ctx, uid("missing"))
	assert.True(t, workflow.IsNotFound(err))

	ghost := match.New(uid("missing"), "s", "h", "a", kickoff)
	err = store.CompareAndSwap(ctx, workflow.Record[*match.Match]{Entity: ghost, Version: 2}, 1)
	assert.True(t, workflow.IsNotFound(err))
}

func TestMatchService_OnPostgres(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, err := match.NewService(pgstore.NewMatchStore(testPool(t)))
	require.NoError(t, err)

	id := uid("match")
	_, err = svc.CreateMatch(ctx, match.New(id, uid("season"), "h", "a", time.Now()))
	require.NoError(t, err)

	steps := []struct {
		event   statemachine.Event
		payload any
	}{
		{match.AssignOfficials, match.StaffingPayload{RefereeAssigned: match.Bool(true), SupervisorAssigned: match.Bool(true)}},
		{match.ApproveRosters, match.RosterPayload{HomeRosterApproved: match.Bool(true), AwayRosterApproved: match.Bool(true)}},
		{match.StartMatch, nil},
		{match.FinishMatch, nil},
		{match.RecordReport, match.ReportPayload{Role: match.RoleSupervisor, Body: "calm"}},
		{match.RecordReport, match.ReportPayload{Role: match.RoleReferee, Body: "2-1"}},
	}
	for _, step := range steps {
		_, err := svc.ApplyMatchEvent(ctx, id, step.event, "admin", step.payload)
		require.NoError(t, err, step.event.Name())
	}

	res, err := svc.ApplyMatchEvent(ctx, id, match.ConfirmCompletion, "admin", nil)
	require.NoError(t, err)
	assert.Equal(t, match.Completed, res.State.Status)
	assert.Equal(t, []workflow.Effect{workflow.RecomputeStandings{MatchID: id}}, workflow.Effects(res.Effects))

	_, err = svc.ApplyMatchEvent(ctx, id, match.ConfirmCompletion, "admin", nil)
	assert.True(t, workflow.IsInvalidTransition(err))
}

func TestRegistrationRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := pgstore.NewRegistrationRepository(testPool(t))
	season := uid("season")
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	overdue := registration.New(uid("reg"), season, "t1")
	overdue.Status = registration.Invited
	overdue.InvitedAt = now.Add(-20 * 24 * time.Hour)
	overdue.ResponseDeadline = now.Add(-6 * 24 * time.Hour)

	pending := registration.New(uid("reg"), season, "t2")
	pending.Status = registration.Invited
	pending.ResponseDeadline = now.Add(24 * time.Hour)

	approved := registration.New(uid("reg"), season, "t3")
	approved.Status = registration.Approved
	approved.Dossier = &registration.Dossier{Roster: []string{"p1"}, Kit: "red", Venue: "park"}

	for _, r := range []*registration.Registration{overdue, pending, approved} {
		require.NoError(t, repo.Insert(ctx, workflow.Record[*registration.Registration]{Entity: r, Version: 1}))
	}

	rec, err := repo.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, approved.Dossier, rec.Entity.Dossier)

	n, err := repo.CountApproved(ctx, season)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ids, err := repo.ListOverdue(ctx, now)
	require.NoError(t, err)
	assert.Contains(t, ids, overdue.ID)
	assert.NotContains(t, ids, pending.ID)

	declined := overdue.Clone()
	declined.Status = registration.Declined
	require.NoError(t, repo.CompareAndSwap(ctx, workflow.Record[*registration.Registration]{Entity: declined, Version: 2}, 1))
	ids, err = repo.ListOverdue(ctx, now)
	require.NoError(t, err)
	assert.NotContains(t, ids, overdue.ID)

	t.Run("season sets", func(t *testing.T) {
		_, err := repo.GetSeason(ctx, season)
		assert.True(t, workflow.IsNotFound(err))

		stale, err := repo.ListStaleSeasons(ctx)
		require.NoError(t, err)
		assert.Contains(t, stale, season, "approvals without a saved set")

		set := registration.SeasonSet{SeasonID: season, ApprovedCount: 1, Quorum: 10, Version: 1}
		require.NoError(t, repo.SaveSeason(ctx, set, 0))
		assert.True(t, workflow.IsConcurrentModification(repo.SaveSeason(ctx, set, 0)))

		stale, err = repo.ListStaleSeasons(ctx)
		require.NoError(t, err)
		assert.NotContains(t, stale, season)

		set.ApprovedCount, set.Generation, set.Version = 10, 1, 2
		require.NoError(t, repo.SaveSeason(ctx, set, 1))
		assert.True(t, workflow.IsConcurrentModification(repo.SaveSeason(ctx, set, 1)))

		got, err := repo.GetSeason(ctx, season)
		require.NoError(t, err)
		assert.Equal(t, set, got)
		assert.True(t, got.ReadyToSchedule())
	})
}

func TestRegistrationService_QuorumOnPostgres(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, err := registration.NewService(pgstore.NewRegistrationRepository(testPool(t)), registration.WithQuorum(3))
	require.NoError(t, err)
	season := uid("season")

	fired := 0
	for i := range 5 {
		id := uid("reg")
		_, err := svc.CreateRegistration(ctx, registration.New(id, season, "team"))
		require.NoError(t, err)

		for _, step := range []struct {
			event   statemachine.Event
			payload any
		}{
			{registration.SendInvite, registration.InvitePayload{}},
			{registration.Accept, nil},
			{registration.SubmitDossier, registration.DossierPayload{Roster: []string{"p"}, Kit: "k", Venue: "v"}},
		} {
			_, err := svc.ApplyRegistrationEvent(ctx, id, step.event, "team", step.payload)
			require.NoError(t, err)
		}

		res, err := svc.ApplyRegistrationEvent(ctx, id, registration.Approve, "admin", nil)
		require.NoError(t, err, "approval %d", i)
		for _, eff := range workflow.Effects(res.Effects) {
			if eff.Kind() == workflow.KindSeasonReadyToSchedule {
				fired++
			}
		}
	}
	assert.Equal(t, 1, fired)

	q, err := svc.GetSeasonQuorumState(ctx, season)
	require.NoError(t, err)
	assert.Equal(t, 5, q.ApprovedCount)
	assert.True(t, q.ReadyToSchedule)
}
