package registration

import (
	"slices"
	"time"

	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
)

// Registration states. DECLINED and REJECTED are terminal.
const (
	DraftInvite     = statemachine.StringState("DRAFT_INVITE")
	Invited         = statemachine.StringState("INVITED")
	Accepted        = statemachine.StringState("ACCEPTED")
	Declined        = statemachine.StringState("DECLINED")
	Submitted       = statemachine.StringState("SUBMITTED")
	ChangeRequested = statemachine.StringState("REQUEST_CHANGE")
	Approved        = statemachine.StringState("APPROVED")
	Rejected        = statemachine.StringState("REJECTED")
)

// States lists every registration state.
var States = []statemachine.State{DraftInvite, Invited, Accepted, Declined, Submitted, ChangeRequested, Approved, Rejected}

// Dossier is the team's submission. Its content is opaque to the workflow.
type Dossier struct {
	Roster []string `json:"roster"`
	Kit    string   `json:"kit"`
	Venue  string   `json:"venue"`
}

// Registration is one team's participation in one season.
type Registration struct {
	ID       string                   `json:"id"`
	SeasonID string                   `json:"season_id"`
	TeamID   string                   `json:"team_id"`
	Status   statemachine.StringState `json:"status"`

	Channel          string    `json:"channel,omitempty"`
	InvitedAt        time.Time `json:"invited_at,omitzero"`
	ResponseDeadline time.Time `json:"response_deadline,omitzero"`

	Dossier     *Dossier `json:"submitted_dossier,omitempty"`
	Revisions   int      `json:"revisions"`
	ReviewNotes string   `json:"review_notes,omitempty"`

	DeclineReason string `json:"decline_reason,omitempty"`
	RejectReason  string `json:"reject_reason,omitempty"`

	LastActor string    `json:"last_actor,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a registration in DRAFT_INVITE.
func New(id, seasonID, teamID string) *Registration {
	return &Registration{ID: id, SeasonID: seasonID, TeamID: teamID, Status: DraftInvite}
}

func (r *Registration) Current() statemachine.State { return r.Status }

func (r *Registration) SetCurrent(s statemachine.State) {
	r.Status = statemachine.StringState(s.Name())
}

func (r *Registration) EntityID() string { return r.ID }

func (r *Registration) Clone() *Registration {
	c := *r
	if r.Dossier != nil {
		d := *r.Dossier
		d.Roster = slices.Clone(r.Dossier.Roster)
		c.Dossier = &d
	}
	return &c
}

func (r *Registration) Stamp(actor string, at time.Time) {
	r.LastActor = actor
	r.UpdatedAt = at
}

// Overdue reports whether an invitation went unanswered past its deadline.
func (r *Registration) Overdue(now time.Time) bool {
	return r.Status == Invited && !r.ResponseDeadline.IsZero() && now.After(r.ResponseDeadline)
}
