package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/leagueflow/pkg/environment"
	"github.com/dmitrymomot/leagueflow/pkg/httpserver"
	"github.com/dmitrymomot/leagueflow/pkg/logger"
	"github.com/dmitrymomot/leagueflow/pkg/requestid"
)

// RouterOptions configures the API. Services left nil are not mounted.
type RouterOptions struct {
	Matches       MatchService
	Registrations RegistrationService
	Dispatcher    Dispatcher
	Logger        *slog.Logger
	// Environment, when set, is stored in every request context.
	Environment environment.Environment
	// Checks back /health/ready.
	Checks       []httpserver.Check
	ProbeTimeout time.Duration
}

// Router builds the chi router exposing the workflow operations:
//
//	POST /matches
//	GET  /matches/{id}
//	POST /matches/{id}/events
//	POST /registrations
//	GET  /registrations/{id}
//	POST /registrations/{id}/events
//	GET  /seasons/{id}/quorum
//	POST /seasons/{id}/quorum/recheck
//	GET  /health/live
//	GET  /health/ready
func Router(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("httpapi"))

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	if opts.Environment != "" {
		r.Use(environment.Middleware(opts.Environment))
	}
	r.Use(middleware.Recoverer)
	r.Use(accessLog(log))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, Response{Error: &ErrorDetail{Code: ErrNotFound.Code}})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, Response{Error: &ErrorDetail{Code: "method_not_allowed"}})
	})

	r.Route("/health", func(health chi.Router) {
		health.Get("/live", httpserver.LivenessHandler())
		health.Get("/ready", httpserver.ReadinessHandler(log, opts.ProbeTimeout, opts.Checks...))
	})

	if opts.Matches != nil {
		r.Mount("/matches", NewMatchHandler(opts.Matches, opts.Dispatcher, log).Handle())
	}
	if opts.Registrations != nil {
		h := NewRegistrationHandler(opts.Registrations, opts.Dispatcher, log)
		r.Mount("/registrations", h.Handle())
		r.Mount("/seasons", h.Seasons())
	}
	return r
}

func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.DebugContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				logger.Duration(time.Since(start)),
			)
		})
	}
}
