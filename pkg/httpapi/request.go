package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrymomot/leagueflow/pkg/validator"
)

const maxBodyBytes = 1 << 20

// EventRequest is the body of POST /{kind}/{id}/events.
type EventRequest struct {
	Event   string          `json:"event"`
	Actor   string          `json:"actor"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (req EventRequest) Validate() error {
	return validator.Apply(
		validator.RequiredString("event", req.Event),
		validator.RequiredString("actor", req.Actor),
		validator.MaxLenString("actor", req.Actor, 128),
	)
}

// CreateMatchRequest is the body of POST /matches.
type CreateMatchRequest struct {
	ID               string    `json:"id"`
	SeasonID         string    `json:"season_id"`
	HomeTeamID       string    `json:"home_team_id"`
	AwayTeamID       string    `json:"away_team_id"`
	ScheduledKickoff time.Time `json:"scheduled_kickoff"`
}

func (req CreateMatchRequest) Validate() error {
	return validator.Apply(
		validator.RequiredString("id", req.ID),
		validator.RequiredString("season_id", req.SeasonID),
		validator.RequiredString("home_team_id", req.HomeTeamID),
		validator.RequiredString("away_team_id", req.AwayTeamID),
		validator.Rule{
			Check: func() bool { return req.HomeTeamID == "" || req.HomeTeamID != req.AwayTeamID },
			Error: validator.ValidationError{
				Field:   "away_team_id",
				Message: "must differ from home_team_id",
			},
		},
		validator.RequiredComparable("scheduled_kickoff", req.ScheduledKickoff),
	)
}

// CreateRegistrationRequest is the body of POST /registrations.
type CreateRegistrationRequest struct {
	ID       string `json:"id"`
	SeasonID string `json:"season_id"`
	TeamID   string `json:"team_id"`
}

func (req CreateRegistrationRequest) Validate() error {
	return validator.Apply(
		validator.RequiredString("id", req.ID),
		validator.RequiredString("season_id", req.SeasonID),
		validator.RequiredString("team_id", req.TeamID),
	)
}

// decodeRequest reads the request body strictly: unknown fields and
// trailing data are rejected. Validation failures are bad requests.
func decodeRequest[T interface{ Validate() error }](w http.ResponseWriter, r *http.Request) (T, error) {
	var req T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, err
		}
		return req, errors.Join(ErrBadRequest, fmt.Errorf("decode request: %w", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return req, errors.Join(ErrBadRequest, errors.New("unexpected data after request body"))
	}
	if err := req.Validate(); err != nil {
		return req, errors.Join(ErrBadRequest, err)
	}
	return req, nil
}
