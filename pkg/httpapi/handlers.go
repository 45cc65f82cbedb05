package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/leagueflow/pkg/logger"
	"github.com/dmitrymomot/leagueflow/pkg/match"
	"github.com/dmitrymomot/leagueflow/pkg/registration"
	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

// MatchService is the match lifecycle as seen by the API.
type MatchService interface {
	CreateMatch(ctx context.Context, m *match.Match) (match.State, error)
	ApplyMatchEvent(ctx context.Context, matchID string, event statemachine.Event, actor string, payload any) (match.Result, error)
	GetMatchState(ctx context.Context, matchID string) (match.State, error)
}

// RegistrationService is the registration workflow as seen by the API.
type RegistrationService interface {
	CreateRegistration(ctx context.Context, reg *registration.Registration) (registration.State, error)
	ApplyRegistrationEvent(ctx context.Context, registrationID string, event statemachine.Event, actor string, payload any) (registration.Result, error)
	GetRegistration(ctx context.Context, registrationID string) (registration.State, error)
	GetSeasonQuorumState(ctx context.Context, seasonID string) (registration.QuorumState, error)
	RecheckQuorum(ctx context.Context, seasonID string) (registration.QuorumState, []workflow.Envelope, error)
}

// Dispatcher delivers effects once a transition has committed.
type Dispatcher interface {
	Dispatch(ctx context.Context, envs []workflow.Envelope) error
}

type decodeFunc func(event string, raw json.RawMessage) (any, error)

// applyEvent is the shared POST handler body: decode, apply, dispatch.
// A failed dispatch is logged; the transition has already committed.
// A pending quorum recheck is answered with 202 and the committed result.
func applyEvent[R any](
	w http.ResponseWriter, r *http.Request, log *slog.Logger, d Dispatcher,
	decode decodeFunc,
	apply func(ctx context.Context, id string, event statemachine.Event, actor string, payload any) (R, error),
	effects func(R) []workflow.Envelope,
) {
	req, err := decodeRequest[EventRequest](w, r)
	if err != nil {
		respondError(w, r, log, err)
		return
	}
	payload, err := decode(req.Event, req.Payload)
	if err != nil {
		respondError(w, r, log, err)
		return
	}

	id := chi.URLParam(r, "id")
	res, err := apply(r.Context(), id, statemachine.StringEvent(req.Event), req.Actor, payload)
	if err != nil && !registration.IsQuorumPending(err) {
		respondError(w, r, log, err)
		return
	}

	if envs := effects(res); len(envs) > 0 && d != nil {
		if err := d.Dispatch(r.Context(), envs); err != nil {
			log.ErrorContext(r.Context(), "effects not dispatched",
				logger.EntityID(id),
				logger.Event(req.Event),
				logger.Error(err),
			)
		}
	}
	if err != nil {
		log.WarnContext(r.Context(), "transition committed with quorum recheck pending",
			logger.EntityID(id),
			logger.Event(req.Event),
			logger.Error(err),
		)
		writeJSON(w, ErrQuorumPending.Status, Response{
			Data:  res,
			Error: &ErrorDetail{Code: ErrQuorumPending.Code, Message: err.Error()},
		})
		return
	}
	respond(w, res)
}

// MatchHandler serves /matches.
type MatchHandler struct {
	svc      MatchService
	dispatch Dispatcher
	log      *slog.Logger
}

func NewMatchHandler(svc MatchService, d Dispatcher, log *slog.Logger) *MatchHandler {
	return &MatchHandler{svc: svc, dispatch: d, log: log}
}

func (h *MatchHandler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}/events", h.apply)
	return r
}

func (h *MatchHandler) create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest[CreateMatchRequest](w, r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	st, err := h.svc.CreateMatch(r.Context(),
		match.New(req.ID, req.SeasonID, req.HomeTeamID, req.AwayTeamID, req.ScheduledKickoff))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, Response{Data: st})
}

func (h *MatchHandler) get(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.GetMatchState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respond(w, st)
}

func (h *MatchHandler) apply(w http.ResponseWriter, r *http.Request) {
	applyEvent(w, r, h.log, h.dispatch,
		match.DecodePayload,
		h.svc.ApplyMatchEvent,
		func(res match.Result) []workflow.Envelope { return res.Effects },
	)
}

// RegistrationHandler serves /registrations and /seasons.
type RegistrationHandler struct {
	svc      RegistrationService
	dispatch Dispatcher
	log      *slog.Logger
}

func NewRegistrationHandler(svc RegistrationService, d Dispatcher, log *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, dispatch: d, log: log}
}

func (h *RegistrationHandler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}/events", h.apply)
	return r
}

// Seasons serves the season quorum read model and the manual recheck.
func (h *RegistrationHandler) Seasons() http.Handler {
	r := chi.NewRouter()
	r.Get("/{id}/quorum", h.quorum)
	r.Post("/{id}/quorum/recheck", h.recheck)
	return r
}

func (h *RegistrationHandler) create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest[CreateRegistrationRequest](w, r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	st, err := h.svc.CreateRegistration(r.Context(), registration.New(req.ID, req.SeasonID, req.TeamID))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, Response{Data: st})
}

func (h *RegistrationHandler) get(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.GetRegistration(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respond(w, st)
}

func (h *RegistrationHandler) apply(w http.ResponseWriter, r *http.Request) {
	applyEvent(w, r, h.log, h.dispatch,
		registration.DecodePayload,
		h.svc.ApplyRegistrationEvent,
		func(res registration.Result) []workflow.Envelope { return res.Effects },
	)
}

func (h *RegistrationHandler) quorum(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.GetSeasonQuorumState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respond(w, q)
}

func (h *RegistrationHandler) recheck(w http.ResponseWriter, r *http.Request) {
	q, envs, err := h.svc.RecheckQuorum(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if len(envs) > 0 && h.dispatch != nil {
		if err := h.dispatch.Dispatch(r.Context(), envs); err != nil {
			h.log.ErrorContext(r.Context(), "effects not dispatched",
				logger.SeasonID(q.SeasonID), logger.Error(err))
		}
	}
	respond(w, q)
}
