package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/leagueflow/pkg/httpapi"
	"github.com/dmitrymomot/leagueflow/pkg/httpserver"
	"github.com/dmitrymomot/leagueflow/pkg/locker"
	"github.com/dmitrymomot/leagueflow/pkg/redis"
	"github.com/dmitrymomot/leagueflow/pkg/webhook"
)

func testConfig() appConfig {
	return appConfig{
		Name:           "leagued",
		StorageDriver:  driverMemory,
		LockDriver:     driverMemory,
		EffectsChannel: "leagueflow:effects:test",
		EffectsBuffer:  16,
		QuorumSize:     2,
		ResponseWindow: time.Hour,
		SweepInterval:  time.Minute,
		Locker:         locker.DefaultConfig(),
		HTTP:           httpserver.Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second},
	}
}

func TestNewApp_Memory(t *testing.T) {
	t.Parallel()

	a, err := newApp(context.Background(), testConfig(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(a.close)

	assert.Empty(t, a.checks)
	assert.NotNil(t, a.deliver)

	h := httpapi.Router(httpapi.RouterOptions{Matches: a.matches, Registrations: a.registrations, Dispatcher: a.dispatcher})
	req := httptest.NewRequest(http.MethodPost, "/registrations",
		strings.NewReader(`{"id":"r1","season_id":"s1","team_id":"t1"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestNewApp_Redis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.LockDriver = driverRedis
	cfg.Redis = redis.Config{ConnectionURL: "redis://" + mr.Addr() + "/0", RetryAttempts: 1}

	a, err := newApp(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(a.close)

	require.Len(t, a.checks, 1)
	assert.Equal(t, "redis", a.checks[0].Name)
	assert.NoError(t, a.checks[0].Probe(context.Background()))
}

func TestNewApp_UnknownDrivers(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.StorageDriver = "sqlite"
	_, err := newApp(context.Background(), cfg, slog.Default())
	assert.ErrorContains(t, err, "unknown storage driver")

	cfg = testConfig()
	cfg.Webhook.URL = "ftp://collaborator"
	_, err = newApp(context.Background(), cfg, slog.Default())
	assert.ErrorIs(t, err, webhook.ErrInvalidConfiguration)

	cfg = testConfig()
	cfg.LockDriver = "etcd"
	_, err = newApp(context.Background(), cfg, slog.Default())
	assert.ErrorContains(t, err, "unknown lock driver")
}
