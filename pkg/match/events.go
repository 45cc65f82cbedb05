package match

import (
	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
	"github.com/dmitrymomot/leagueflow/pkg/validator"
)

// Events accepted by the match lifecycle.
const (
	UpdateStaffing    = statemachine.StringEvent("UpdateStaffing")
	AssignOfficials   = statemachine.StringEvent("AssignOfficials")
	UpdateRosters     = statemachine.StringEvent("UpdateRosters")
	ApproveRosters    = statemachine.StringEvent("ApproveRosters")
	StartMatch        = statemachine.StringEvent("StartMatch")
	FinishMatch       = statemachine.StringEvent("FinishMatch")
	RecordReport      = statemachine.StringEvent("RecordReport")
	ConfirmCompletion = statemachine.StringEvent("ConfirmCompletion")
)

// Report roles.
const (
	RoleReferee    = "referee"
	RoleSupervisor = "supervisor"
)

// StaffingPayload sets official assignment flags. Nil fields are left as they are.
type StaffingPayload struct {
	RefereeAssigned    *bool `json:"referee_assigned,omitempty"`
	SupervisorAssigned *bool `json:"supervisor_assigned,omitempty"`
}

func (p StaffingPayload) apply(m *Match) {
	if p.RefereeAssigned != nil {
		m.RefereeAssigned = *p.RefereeAssigned
	}
	if p.SupervisorAssigned != nil {
		m.SupervisorAssigned = *p.SupervisorAssigned
	}
}

// RosterPayload sets roster approval flags. Nil fields are left as they are.
type RosterPayload struct {
	HomeRosterApproved *bool `json:"home_roster_approved,omitempty"`
	AwayRosterApproved *bool `json:"away_roster_approved,omitempty"`
}

func (p RosterPayload) apply(m *Match) {
	if p.HomeRosterApproved != nil {
		m.HomeRosterApproved = *p.HomeRosterApproved
	}
	if p.AwayRosterApproved != nil {
		m.AwayRosterApproved = *p.AwayRosterApproved
	}
}

// ReportPayload is a post-match report from one official.
type ReportPayload struct {
	Role             string `json:"role"`
	Body             string `json:"body"`
	DisciplinaryFlag bool   `json:"disciplinary_flag,omitempty"`
}

func (p ReportPayload) Validate() error {
	return validator.Apply(
		validator.InListString("role", p.Role, []string{RoleReferee, RoleSupervisor}),
		validator.RequiredString("body", p.Body),
		validator.Rule{
			Check: func() bool { return !p.DisciplinaryFlag || p.Role == RoleSupervisor },
			Error: validator.ValidationError{
				Field:          "disciplinary_flag",
				Message:        "only the supervisor may raise the disciplinary flag",
				TranslationKey: "validation.disciplinary_flag",
			},
		},
	)
}

// Bool is a helper for building payloads with optional flags.
func Bool(v bool) *bool { return &v }
