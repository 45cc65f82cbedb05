package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/dmitrymomot/leagueflow/pkg/logger"
	"github.com/dmitrymomot/leagueflow/pkg/registration"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

// Registrations is the registration workflow as seen by the sweeper.
type Registrations interface {
	// ExpireOverdue declines invitations whose response deadline has passed.
	ExpireOverdue(ctx context.Context, now time.Time) ([]registration.Result, error)
	// ReconcileQuorums rechecks seasons left stale by a failed recheck.
	ReconcileQuorums(ctx context.Context) ([]workflow.Envelope, error)
}

// Dispatcher delivers the effects produced by a sweep.
type Dispatcher interface {
	Dispatch(ctx context.Context, envs []workflow.Envelope) error
}

// ErrInvalidInterval is returned by New for a non-positive interval.
var ErrInvalidInterval = errors.New("sweeper: interval must be positive")

// Sweeper periodically turns overdue invitations into synthetic declines
// and reconciles stale season quorums.
type Sweeper struct {
	regs       Registrations
	dispatcher Dispatcher
	interval   time.Duration
	clock      func() time.Time
	log        *slog.Logger
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithClock overrides the time source used as "now" for each sweep.
func WithClock(clock func() time.Time) Option {
	return func(s *Sweeper) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a sweeper running every interval.
func New(regs Registrations, dispatcher Dispatcher, interval time.Duration, opts ...Option) (*Sweeper, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	s := &Sweeper{
		regs:       regs,
		dispatcher: dispatcher,
		interval:   interval,
		clock:      time.Now,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("sweeper"))
	return s, nil
}

// Sweep runs one pass and returns how many invitations were declined.
// Effects of every declined invitation and every reconciled season are
// dispatched even when part of the pass failed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	results, expireErr := s.regs.ExpireOverdue(ctx, s.clock())

	var envs []workflow.Envelope
	for _, res := range results {
		envs = append(envs, res.Effects...)
	}
	reconciled, reconcileErr := s.regs.ReconcileQuorums(ctx)
	envs = append(envs, reconciled...)

	var dispatchErr error
	if len(envs) > 0 {
		dispatchErr = s.dispatcher.Dispatch(ctx, envs)
	}

	err := errors.Join(expireErr, reconcileErr, dispatchErr)
	attrs := []any{
		logger.Count(len(results)),
		slog.Int("quorum_signals", len(reconciled)),
		logger.Duration(time.Since(start)),
	}
	switch {
	case err != nil:
		s.log.ErrorContext(ctx, "sweep failed", append(attrs, logger.Error(err))...)
	case len(envs) > 0:
		s.log.InfoContext(ctx, "sweep produced effects", attrs...)
	default:
		s.log.DebugContext(ctx, "sweep found nothing", attrs...)
	}
	return len(results), err
}

// Run schedules Sweep every interval, starting immediately, and blocks until
// ctx is cancelled. Overlapping runs are skipped rather than queued.
func (s *Sweeper) Run(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			_, _ = s.Sweep(ctx)
		}),
		gocron.WithName("registration-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule registration sweep: %w", err)
	}

	sched.Start()
	s.log.InfoContext(ctx, "sweeper started", slog.Duration("interval", s.interval))

	<-ctx.Done()

	if err := sched.Shutdown(); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	s.log.InfoContext(context.WithoutCancel(ctx), "sweeper stopped")
	return nil
}
