package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/leagueflow/pkg/broadcast"
	"github.com/dmitrymomot/leagueflow/pkg/config"
	"github.com/dmitrymomot/leagueflow/pkg/dispatch"
	"github.com/dmitrymomot/leagueflow/pkg/environment"
	"github.com/dmitrymomot/leagueflow/pkg/httpapi"
	"github.com/dmitrymomot/leagueflow/pkg/httpserver"
	"github.com/dmitrymomot/leagueflow/pkg/locker"
	"github.com/dmitrymomot/leagueflow/pkg/logger"
	"github.com/dmitrymomot/leagueflow/pkg/match"
	"github.com/dmitrymomot/leagueflow/pkg/pg"
	"github.com/dmitrymomot/leagueflow/pkg/pgstore"
	"github.com/dmitrymomot/leagueflow/pkg/redis"
	"github.com/dmitrymomot/leagueflow/pkg/registration"
	"github.com/dmitrymomot/leagueflow/pkg/requestid"
	"github.com/dmitrymomot/leagueflow/pkg/sweeper"
	"github.com/dmitrymomot/leagueflow/pkg/webhook"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

func main() {
	if err := run(); err != nil {
		slog.Error("leagued stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	env, err := environment.Parse(cfg.Env)
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(env, cfg.Name),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			environment.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	log.InfoContext(ctx, "starting",
		slog.String("storage", cfg.StorageDriver),
		slog.String("locks", cfg.LockDriver),
		slog.String("addr", cfg.HTTP.Addr),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Run(ctx, httpapi.Router(httpapi.RouterOptions{
			Matches:       app.matches,
			Registrations: app.registrations,
			Dispatcher:    app.dispatcher,
			Logger:        log,
			Environment:   env,
			Checks:        app.checks,
			ProbeTimeout:  cfg.HTTP.ProbeTimeout,
		}))
	})
	g.Go(func() error {
		return app.sweeper.Run(ctx)
	})
	g.Go(func() error {
		dispatch.Consume(ctx, app.effects, log.With(logger.Component("effects")), app.deliver)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("stopped")
	return nil
}

type app struct {
	matches       *match.Service
	registrations *registration.Service
	effects       broadcast.Broadcaster[workflow.Envelope]
	dispatcher    *dispatch.Dispatcher
	deliver       dispatch.Handler
	sweeper       *sweeper.Sweeper
	server        *httpserver.Server
	checks        []httpserver.Check
	closers       []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg appConfig, log *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	var (
		matchStore match.Store
		regRepo    registration.Repository
	)
	switch cfg.StorageDriver {
	case driverMemory:
		matchStore = match.NewMemoryStore()
		regRepo = registration.NewMemoryRepository()
	case driverPostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg.Postgres, log); err != nil {
			return nil, err
		}
		a.checks = append(a.checks, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)})
		matchStore = pgstore.NewMatchStore(pool)
		regRepo = pgstore.NewRegistrationRepository(pool)
	default:
		return nil, fmt.Errorf("unknown storage driver '%s'", cfg.StorageDriver)
	}

	var locks workflow.Locker
	switch cfg.LockDriver {
	case driverMemory:
		locks = locker.NewMemory()
		a.effects = broadcast.NewMemoryBroadcaster[workflow.Envelope](cfg.EffectsBuffer)
	case driverRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.checks = append(a.checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
		locks = locker.NewRedis(client, cfg.Locker, locker.WithLogger(log))
		a.effects = broadcast.NewRedisBroadcaster[workflow.Envelope](client, cfg.EffectsChannel, cfg.EffectsBuffer, log)
	default:
		return nil, fmt.Errorf("unknown lock driver '%s'", cfg.LockDriver)
	}
	a.closers = append(a.closers, func() { _ = a.effects.Close() })

	if a.matches, err = match.NewService(matchStore,
		match.WithLocker(locks),
		match.WithLogger(log),
	); err != nil {
		return nil, err
	}
	if a.registrations, err = registration.NewService(regRepo,
		registration.WithLocker(locks),
		registration.WithLogger(log),
		registration.WithQuorum(cfg.QuorumSize),
		registration.WithResponseWindow(cfg.ResponseWindow),
	); err != nil {
		return nil, err
	}

	a.dispatcher = dispatch.New(a.effects, log)
	if a.sweeper, err = sweeper.New(a.registrations, a.dispatcher, cfg.SweepInterval,
		sweeper.WithLogger(log),
	); err != nil {
		return nil, err
	}
	a.deliver = dispatch.LogHandler(log)
	if cfg.Webhook.URL != "" {
		sender, err := webhook.New(cfg.Webhook, webhook.WithLogger(log))
		if err != nil {
			return nil, err
		}
		a.deliver = sender.Deliver
	}

	a.server = httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return a, nil
}
