package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/leagueflow/pkg/broadcast"
	"github.com/dmitrymomot/leagueflow/pkg/logger"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

// Dispatcher hands effect envelopes to collaborators through a broadcaster.
// Delivery is at most once per subscriber; envelopes carry an id so
// collaborators can deduplicate redeliveries from retries upstream.
type Dispatcher struct {
	out broadcast.Broadcaster[workflow.Envelope]
	log *slog.Logger
}

// New creates a dispatcher publishing on out.
func New(out broadcast.Broadcaster[workflow.Envelope], log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{out: out, log: log.With(logger.Component("dispatch"))}
}

// Dispatch publishes envelopes in order. Internal effects are never
// published. A failed publish does not stop the rest; all failures are joined.
func (d *Dispatcher) Dispatch(ctx context.Context, envs []workflow.Envelope) error {
	var errs []error
	for _, env := range envs {
		if env.Kind == workflow.KindRecheckQuorum {
			continue
		}
		if err := d.out.Broadcast(ctx, broadcast.Message[workflow.Envelope]{Data: env}); err != nil {
			d.log.ErrorContext(ctx, "effect dispatch failed",
				logger.EntityID(env.EntityID),
				logger.EffectKind(env.Kind),
				logger.MessageID(env.ID.String()),
				logger.Error(err),
			)
			errs = append(errs, fmt.Errorf("dispatch %s %s: %w", env.Kind, env.ID, err))
			continue
		}
		d.log.DebugContext(ctx, "effect dispatched",
			logger.EntityID(env.EntityID),
			logger.EffectKind(env.Kind),
			logger.MessageID(env.ID.String()),
		)
	}
	return errors.Join(errs...)
}

// Handler consumes one delivered effect.
type Handler func(ctx context.Context, env workflow.Envelope) error

// Consume subscribes to in and calls h for every envelope until ctx is
// cancelled or the broadcaster closes. Handler errors are logged and
// consumption continues.
func Consume(ctx context.Context, in broadcast.Broadcaster[workflow.Envelope], log *slog.Logger, h Handler) {
	if log == nil {
		log = slog.Default()
	}
	sub := in.Subscribe(ctx)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Receive(ctx):
			if !ok {
				return
			}
			env := msg.Data
			if err := h(ctx, env); err != nil {
				log.ErrorContext(ctx, "effect handler failed",
					logger.EntityID(env.EntityID),
					logger.EffectKind(env.Kind),
					logger.MessageID(env.ID.String()),
					logger.Error(err),
				)
			}
		}
	}
}

// LogHandler records every delivered effect. It stands in for collaborators
// that are not deployed with the engine.
func LogHandler(log *slog.Logger) Handler {
	return func(ctx context.Context, env workflow.Envelope) error {
		log.InfoContext(ctx, "effect received",
			logger.EntityID(env.EntityID),
			logger.EffectKind(env.Kind),
			logger.MessageID(env.ID.String()),
			slog.Any("payload", env.Effect),
		)
		return nil
	}
}
