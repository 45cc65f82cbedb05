package workflow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Effect is an inert side-effect request returned to collaborators.
// The engine never executes effects.
type Effect interface {
	Kind() string
}

// Effect kinds.
const (
	KindNotifyTeam                  = "notify_team"
	KindFindReplacement             = "find_replacement"
	KindRecomputeStandings          = "recompute_standings"
	KindNotifyDisciplinaryCommittee = "notify_disciplinary_committee"
	KindSeasonReadyToSchedule       = "season_ready_to_schedule"
	KindRecheckQuorum               = "recheck_quorum"
)

// NotifyTeam asks the notification collaborator to contact a team about its registration.
type NotifyTeam struct {
	RegistrationID string `json:"registration_id"`
	Channel        string `json:"channel"`
}

func (NotifyTeam) Kind() string { return KindNotifyTeam }

// FindReplacement asks season setup to fill a slot left by a declined or rejected team.
type FindReplacement struct {
	SeasonID string `json:"season_id"`
}

func (FindReplacement) Kind() string { return KindFindReplacement }

// RecomputeStandings asks the standings engine to include a completed match.
type RecomputeStandings struct {
	MatchID string `json:"match_id"`
}

func (RecomputeStandings) Kind() string { return KindRecomputeStandings }

// NotifyDisciplinaryCommittee surfaces a match flagged by its supervisor.
type NotifyDisciplinaryCommittee struct {
	MatchID string `json:"match_id"`
}

func (NotifyDisciplinaryCommittee) Kind() string { return KindNotifyDisciplinaryCommittee }

// SeasonReadyToSchedule fires once per season when approved registrations reach quorum.
type SeasonReadyToSchedule struct {
	SeasonID string `json:"season_id"`
}

func (SeasonReadyToSchedule) Kind() string { return KindSeasonReadyToSchedule }

// RecheckQuorum is consumed inside the core by the season quorum tracker;
// it is never handed to external collaborators.
type RecheckQuorum struct {
	SeasonID string `json:"season_id"`
}

func (RecheckQuorum) Kind() string { return KindRecheckQuorum }

// Envelope wraps an effect with identity so collaborators can deduplicate deliveries.
type Envelope struct {
	ID        uuid.UUID `json:"id"`
	EntityID  string    `json:"entity_id"`
	Kind      string    `json:"kind"`
	Effect    Effect    `json:"effect"`
	EmittedAt time.Time `json:"emitted_at"`
}

// NewEnvelope wraps effect emitted for entityID at the given time.
func NewEnvelope(entityID string, effect Effect, at time.Time) Envelope {
	return Envelope{
		ID:        uuid.New(),
		EntityID:  entityID,
		Kind:      effect.Kind(),
		Effect:    effect,
		EmittedAt: at,
	}
}

// Effects returns the bare effects of envelopes, preserving order.
func Effects(envs []Envelope) []Effect {
	out := make([]Effect, 0, len(envs))
	for _, env := range envs {
		out = append(out, env.Effect)
	}
	return out
}

// DecodeEffect decodes the JSON body of an effect of the given kind.
func DecodeEffect(kind string, raw json.RawMessage) (Effect, error) {
	var eff Effect
	switch kind {
	case KindNotifyTeam:
		eff = &NotifyTeam{}
	case KindFindReplacement:
		eff = &FindReplacement{}
	case KindRecomputeStandings:
		eff = &RecomputeStandings{}
	case KindNotifyDisciplinaryCommittee:
		eff = &NotifyDisciplinaryCommittee{}
	case KindSeasonReadyToSchedule:
		eff = &SeasonReadyToSchedule{}
	case KindRecheckQuorum:
		eff = &RecheckQuorum{}
	default:
		return nil, fmt.Errorf("unknown effect kind '%s'", kind)
	}
	if err := json.Unmarshal(raw, eff); err != nil {
		return nil, fmt.Errorf("decode %s effect: %w", kind, err)
	}
	return deref(eff), nil
}

func deref(eff Effect) Effect {
	switch v := eff.(type) {
	case *NotifyTeam:
		return *v
	case *FindReplacement:
		return *v
	case *RecomputeStandings:
		return *v
	case *NotifyDisciplinaryCommittee:
		return *v
	case *SeasonReadyToSchedule:
		return *v
	case *RecheckQuorum:
		return *v
	}
	return eff
}

// UnmarshalJSON restores the concrete effect type from the envelope's kind.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	type alias Envelope
	aux := struct {
		*alias
		Effect json.RawMessage `json:"effect"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Effect) == 0 || string(aux.Effect) == "null" {
		e.Effect = nil
		return nil
	}
	eff, err := DecodeEffect(e.Kind, aux.Effect)
	if err != nil {
		return err
	}
	e.Effect = eff
	return nil
}
