package main

import (
	"time"

	"github.com/dmitrymomot/leagueflow/pkg/httpserver"
	"github.com/dmitrymomot/leagueflow/pkg/locker"
	"github.com/dmitrymomot/leagueflow/pkg/pg"
	"github.com/dmitrymomot/leagueflow/pkg/redis"
	"github.com/dmitrymomot/leagueflow/pkg/webhook"
)

const (
	driverMemory   = "memory"
	driverPostgres = "postgres"
	driverRedis    = "redis"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Name     string `env:"APP_NAME" envDefault:"leagued"`
	LogLevel string `env:"LOG_LEVEL"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"`
	LockDriver    string `env:"LOCK_DRIVER" envDefault:"memory"`

	EffectsChannel string `env:"EFFECTS_CHANNEL" envDefault:"leagueflow:effects"`
	EffectsBuffer  int    `env:"EFFECTS_BUFFER" envDefault:"256"`

	QuorumSize     int           `env:"QUORUM_SIZE" envDefault:"10"`
	ResponseWindow time.Duration `env:"INVITE_RESPONSE_WINDOW" envDefault:"336h"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`

	Postgres pg.Config
	Redis    redis.Config
	HTTP     httpserver.Config
	Locker   locker.Config
	Webhook  webhook.Config
}
