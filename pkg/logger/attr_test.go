package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/leagueflow/pkg/logger"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	empty := logger.Errors(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestEntityID(t *testing.T) {
	attr := logger.EntityID("m-1")
	require.Equal(t, "entity_id", attr.Key)
	assert.Equal(t, "m-1", attr.Value.String())
}

func TestSeasonID(t *testing.T) {
	attr := logger.SeasonID("2026")
	require.Equal(t, "season_id", attr.Key)
	assert.Equal(t, "2026", attr.Value.String())
}

func TestActor(t *testing.T) {
	attr := logger.Actor("admin@league")
	require.Equal(t, "actor", attr.Key)
	assert.Equal(t, "admin@league", attr.Value.String())

	assert.True(t, logger.Actor("").Equal(slog.Attr{}))
}

func TestTransition(t *testing.T) {
	attr := logger.Transition("finished", "reported")
	require.Equal(t, "transition", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "from", g[0].Key)
	assert.Equal(t, "finished", g[0].Value.String())
	assert.Equal(t, "to", g[1].Key)
	assert.Equal(t, "reported", g[1].Value.String())
}

func TestRequestID(t *testing.T) {
	attr := logger.RequestID("abc")
	require.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "abc", attr.Value.Any())
}
