package match

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

// Store persists matches.
type Store = workflow.Store[*Match]

// NewMemoryStore returns an in-process match store.
func NewMemoryStore() *workflow.MemoryStore[*Match] {
	return workflow.NewMemoryStore[*Match]()
}

// State is a read-only snapshot of a match for display collaborators.
type State struct {
	Match
	Version       int64    `json:"version"`
	Generation    int64    `json:"generation"`
	AllowedEvents []string `json:"allowed_events"`
}

// Result is returned by ApplyMatchEvent.
type Result struct {
	State   State               `json:"state"`
	From    string              `json:"from"`
	Effects []workflow.Envelope `json:"effects"`
}

// Option configures a Service.
type Option func(*serviceConfig)

type serviceConfig struct {
	locker workflow.Locker
	log    *slog.Logger
	clock  func() time.Time
}

// WithLocker sets the per-match locker.
func WithLocker(l workflow.Locker) Option {
	return func(c *serviceConfig) { c.locker = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *serviceConfig) { c.log = l }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(c *serviceConfig) { c.clock = clock }
}

// Service is the match lifecycle entry point.
type Service struct {
	engine *workflow.Engine[*Match]
}

// NewService wires the match machine to store.
func NewService(store Store, opts ...Option) (*Service, error) {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	machine, err := NewMachine()
	if err != nil {
		return nil, fmt.Errorf("build match lifecycle: %w", err)
	}

	engine := workflow.NewEngine("match", machine, store,
		workflow.WithPayload[*Match](preparePayload),
		workflow.WithInitialStates[*Match](Scheduled),
		workflow.WithLocker[*Match](cfg.locker),
		workflow.WithLogger[*Match](cfg.log),
		workflow.WithClock[*Match](cfg.clock),
	)
	return &Service{engine: engine}, nil
}

// CreateMatch seeds a match on behalf of the season setup collaborator.
func (s *Service) CreateMatch(ctx context.Context, m *Match) (State, error) {
	if m.Status == "" {
		m.Status = Scheduled
	}
	rec, err := s.engine.Create(ctx, m)
	if err != nil {
		return State{}, err
	}
	return s.snapshot(rec), nil
}

// ApplyMatchEvent applies event to the match and returns its new state and
// the effects the caller must dispatch.
func (s *Service) ApplyMatchEvent(ctx context.Context, matchID string, event statemachine.Event, actor string, payload any) (Result, error) {
	res, err := s.engine.Apply(ctx, workflow.Command{
		EntityID: matchID,
		Event:    event,
		Actor:    actor,
		Payload:  payload,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{
		State:   s.snapshot(res.Record),
		From:    res.From,
		Effects: res.Effects,
	}, nil
}

// GetMatchState returns the current snapshot of a match.
func (s *Service) GetMatchState(ctx context.Context, matchID string) (State, error) {
	rec, err := s.engine.Get(ctx, matchID)
	if err != nil {
		return State{}, err
	}
	return s.snapshot(rec), nil
}

func (s *Service) snapshot(rec workflow.Record[*Match]) State {
	events := s.engine.Machine().Events(rec.Entity.Current())
	sort.Strings(events)
	return State{
		Match:         *rec.Entity,
		Version:       rec.Version,
		Generation:    rec.Generation,
		AllowedEvents: events,
	}
}
