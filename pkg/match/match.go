package match

import (
	"time"

	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
)

// Lifecycle states in rank order.
const (
	Scheduled  = statemachine.StringState("SCHEDULED")
	Preparing  = statemachine.StringState("PREPARING")
	Ready      = statemachine.StringState("READY")
	InProgress = statemachine.StringState("IN_PROGRESS")
	Finished   = statemachine.StringState("FINISHED")
	Reported   = statemachine.StringState("REPORTED")
	Completed  = statemachine.StringState("COMPLETED")
)

// States lists every lifecycle state in rank order.
var States = []statemachine.State{Scheduled, Preparing, Ready, InProgress, Finished, Reported, Completed}

// Match is a single fixture driven from scheduling to completion.
// Only Status and the precondition flags are changed by transitions;
// the report bodies are opaque to the lifecycle.
type Match struct {
	ID               string                   `json:"id"`
	SeasonID         string                   `json:"season_id"`
	HomeTeamID       string                   `json:"home_team_id"`
	AwayTeamID       string                   `json:"away_team_id"`
	ScheduledKickoff time.Time                `json:"scheduled_kickoff"`
	Status           statemachine.StringState `json:"status"`

	RefereeAssigned    bool `json:"referee_assigned"`
	SupervisorAssigned bool `json:"supervisor_assigned"`
	HomeRosterApproved bool `json:"home_roster_approved"`
	AwayRosterApproved bool `json:"away_roster_approved"`

	RefereeReportSubmitted    bool   `json:"referee_report_submitted"`
	SupervisorReportSubmitted bool   `json:"supervisor_report_submitted"`
	RefereeReport             string `json:"referee_report,omitempty"`
	SupervisorReport          string `json:"supervisor_report,omitempty"`

	// DisciplinaryFlag is sticky: once raised by the supervisor it stays raised.
	DisciplinaryFlag bool `json:"disciplinary_flag"`

	LastActor string    `json:"last_actor,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a match in SCHEDULED with every precondition unset.
func New(id, seasonID, homeTeamID, awayTeamID string, kickoff time.Time) *Match {
	return &Match{
		ID:               id,
		SeasonID:         seasonID,
		HomeTeamID:       homeTeamID,
		AwayTeamID:       awayTeamID,
		ScheduledKickoff: kickoff,
		Status:           Scheduled,
	}
}

func (m *Match) Current() statemachine.State { return m.Status }

func (m *Match) SetCurrent(s statemachine.State) {
	m.Status = statemachine.StringState(s.Name())
}

func (m *Match) EntityID() string { return m.ID }

func (m *Match) Clone() *Match {
	c := *m
	return &c
}

func (m *Match) Stamp(actor string, at time.Time) {
	m.LastActor = actor
	m.UpdatedAt = at
}

// OfficialsAssigned reports whether both officials are in place.
func (m *Match) OfficialsAssigned() bool {
	return m.RefereeAssigned && m.SupervisorAssigned
}

// RostersApproved reports whether both team rosters are approved.
func (m *Match) RostersApproved() bool {
	return m.HomeRosterApproved && m.AwayRosterApproved
}

// ReportsComplete is the join barrier between FINISHED and REPORTED.
func (m *Match) ReportsComplete() bool {
	return m.RefereeReportSubmitted && m.SupervisorReportSubmitted
}
