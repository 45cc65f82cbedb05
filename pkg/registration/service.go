package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dmitrymomot/leagueflow/pkg/locker"
	"github.com/dmitrymomot/leagueflow/pkg/logger"
	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

// TimeoutActor is stamped on registrations declined by the deadline sweep.
const TimeoutActor = "system:deadline"

// State is a read-only snapshot of a registration.
type State struct {
	Registration
	Version       int64    `json:"version"`
	AllowedEvents []string `json:"allowed_events"`
}

// Result is returned by ApplyRegistrationEvent. Quorum is set when the
// event caused a season recheck.
type Result struct {
	State   State               `json:"state"`
	From    string              `json:"from"`
	Effects []workflow.Envelope `json:"effects"`
	Quorum  *QuorumState        `json:"quorum,omitempty"`
}

// Option configures a Service.
type Option func(*serviceConfig)

type serviceConfig struct {
	locker workflow.Locker
	log    *slog.Logger
	clock  func() time.Time
	quorum int
	window time.Duration
}

// WithLocker sets the locker used for registrations and seasons.
func WithLocker(l workflow.Locker) Option {
	return func(c *serviceConfig) {
		if l != nil {
			c.locker = l
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *serviceConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(c *serviceConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithQuorum sets the quorum for seasons first seen by this service.
func WithQuorum(n int) Option {
	return func(c *serviceConfig) {
		if n > 0 {
			c.quorum = n
		}
	}
}

// WithResponseWindow sets how long invited teams have to answer.
func WithResponseWindow(d time.Duration) Option {
	return func(c *serviceConfig) {
		if d > 0 {
			c.window = d
		}
	}
}

// Service is the season registration entry point.
type Service struct {
	engine  *workflow.Engine[*Registration]
	repo    Repository
	tracker *quorumTracker
	clock   func() time.Time
	log     *slog.Logger
}

// NewService wires the registration workflow to repo.
func NewService(repo Repository, opts ...Option) (*Service, error) {
	cfg := &serviceConfig{
		locker: locker.NewMemory(),
		log:    slog.Default(),
		clock:  time.Now,
		quorum: DefaultQuorum,
		window: DefaultResponseWindow,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	machine, err := NewMachine(cfg.clock, cfg.window)
	if err != nil {
		return nil, fmt.Errorf("build registration workflow: %w", err)
	}

	log := cfg.log.With(logger.Component("registration"))
	return &Service{
		engine: workflow.NewEngine("registration", machine, repo,
			workflow.WithPayload[*Registration](preparePayload),
			workflow.WithInitialStates[*Registration](DraftInvite),
			workflow.WithLocker[*Registration](cfg.locker),
			workflow.WithLogger[*Registration](cfg.log),
			workflow.WithClock[*Registration](cfg.clock),
		),
		repo: repo,
		tracker: &quorumTracker{
			repo:   repo,
			locker: cfg.locker,
			quorum: cfg.quorum,
			log:    log,
		},
		clock: cfg.clock,
		log:   log,
	}, nil
}

// CreateRegistration seeds a registration on behalf of the season setup collaborator.
func (s *Service) CreateRegistration(ctx context.Context, r *Registration) (State, error) {
	if r.Status == "" {
		r.Status = DraftInvite
	}
	rec, err := s.engine.Create(ctx, r)
	if err != nil {
		return State{}, err
	}
	return s.snapshot(rec), nil
}

// ApplyRegistrationEvent applies event to the registration. Quorum rechecks
// requested by an approval are handled here under the season lock; they are
// replaced in the returned effects by SeasonReadyToSchedule when the quorum
// is crossed, and dropped otherwise.
//
// When a recheck fails the transition is still committed: the returned
// Result is valid and err is a *QuorumPendingError.
func (s *Service) ApplyRegistrationEvent(ctx context.Context, registrationID string, event statemachine.Event, actor string, payload any) (Result, error) {
	res, err := s.engine.Apply(ctx, workflow.Command{
		EntityID: registrationID,
		Event:    event,
		Actor:    actor,
		Payload:  payload,
	})
	if err != nil {
		return Result{}, err
	}

	out := Result{
		State:   s.snapshot(res.Record),
		From:    res.From,
		Effects: make([]workflow.Envelope, 0, len(res.Effects)),
	}
	var pending error
	for _, env := range res.Effects {
		rq, ok := env.Effect.(workflow.RecheckQuorum)
		if !ok {
			out.Effects = append(out.Effects, env)
			continue
		}

		set, fired, err := s.tracker.recheck(ctx, rq.SeasonID)
		if err != nil {
			s.log.ErrorContext(ctx, "quorum recheck failed",
				logger.SeasonID(rq.SeasonID),
				logger.EntityID(registrationID),
				logger.Error(err),
			)
			pending = &QuorumPendingError{SeasonID: rq.SeasonID, Cause: err}
			continue
		}
		qs := set.state()
		out.Quorum = &qs
		if fired != nil {
			out.Effects = append(out.Effects, workflow.NewEnvelope(rq.SeasonID, fired, env.EmittedAt))
		}
	}
	return out, pending
}

// GetRegistration returns the current snapshot of a registration.
func (s *Service) GetRegistration(ctx context.Context, registrationID string) (State, error) {
	rec, err := s.engine.Get(ctx, registrationID)
	if err != nil {
		return State{}, err
	}
	return s.snapshot(rec), nil
}

// GetSeasonQuorumState returns the season's approved count and quorum status.
// A season that has not been rechecked yet reports its live approved count.
func (s *Service) GetSeasonQuorumState(ctx context.Context, seasonID string) (QuorumState, error) {
	set, err := s.tracker.load(ctx, seasonID)
	if err != nil {
		return QuorumState{}, err
	}
	if set.Version == 0 {
		count, err := s.repo.CountApproved(ctx, seasonID)
		if err != nil {
			return QuorumState{}, fmt.Errorf("count approved in season '%s': %w", seasonID, err)
		}
		set.ApprovedCount = count
	}
	return set.state(), nil
}

// RecheckQuorum recounts a season on demand, e.g. to reconcile after a
// failed recheck. It returns SeasonReadyToSchedule only on the crossing.
func (s *Service) RecheckQuorum(ctx context.Context, seasonID string) (QuorumState, []workflow.Envelope, error) {
	set, fired, err := s.tracker.recheck(ctx, seasonID)
	if err != nil {
		return QuorumState{}, nil, err
	}
	var effects []workflow.Envelope
	if fired != nil {
		effects = append(effects, workflow.NewEnvelope(seasonID, fired, s.clock()))
	}
	return set.state(), effects, nil
}

// ReconcileQuorums rechecks every season whose stored approved count lags
// behind its APPROVED registrations, e.g. after a failed recheck. It returns
// the SeasonReadyToSchedule effects of seasons that crossed their quorum.
func (s *Service) ReconcileQuorums(ctx context.Context) ([]workflow.Envelope, error) {
	seasons, err := s.repo.ListStaleSeasons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stale seasons: %w", err)
	}

	var (
		effects []workflow.Envelope
		errs    []error
	)
	for _, seasonID := range seasons {
		state, envs, err := s.RecheckQuorum(ctx, seasonID)
		if err != nil {
			errs = append(errs, fmt.Errorf("reconcile season '%s': %w", seasonID, err))
			continue
		}
		s.log.InfoContext(ctx, "season quorum reconciled",
			logger.SeasonID(seasonID),
			slog.Int("approved", state.ApprovedCount),
			slog.Bool("fired", len(envs) > 0),
		)
		effects = append(effects, envs...)
	}
	return effects, errors.Join(errs...)
}

// ExpireOverdue declines every invitation whose response deadline passed
// before now, through a synthetic Decline{reason: timeout}. Registrations
// that were answered in the meantime are skipped. The returned results
// carry the FindReplacement effects to dispatch.
func (s *Service) ExpireOverdue(ctx context.Context, now time.Time) ([]Result, error) {
	ids, err := s.repo.ListOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list overdue invitations: %w", err)
	}

	var (
		results []Result
		errs    []error
	)
	for _, id := range ids {
		res, err := s.ApplyRegistrationEvent(ctx, id, Decline, TimeoutActor, DeclinePayload{Reason: ReasonTimeout})
		switch {
		case err == nil:
			results = append(results, res)
		case IsQuorumPending(err):
			results = append(results, res)
			errs = append(errs, fmt.Errorf("expire '%s': %w", id, err))
		case workflow.IsInvalidTransition(err), workflow.IsGuardNotSatisfied(err):
			s.log.DebugContext(ctx, "overdue invitation already settled",
				logger.EntityID(id),
				logger.Error(err),
			)
		default:
			errs = append(errs, fmt.Errorf("expire '%s': %w", id, err))
		}
	}
	return results, errors.Join(errs...)
}

func (s *Service) snapshot(rec workflow.Record[*Registration]) State {
	events := s.engine.Machine().Events(rec.Entity.Current())
	sort.Strings(events)
	return State{
		Registration:  *rec.Entity,
		Version:       rec.Version,
		AllowedEvents: events,
	}
}
