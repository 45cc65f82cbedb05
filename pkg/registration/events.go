package registration

import (
	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
	"github.com/dmitrymomot/leagueflow/pkg/validator"
)

// Events accepted by the registration workflow.
const (
	SendInvite    = statemachine.StringEvent("SendInvite")
	Accept        = statemachine.StringEvent("Accept")
	Decline       = statemachine.StringEvent("Decline")
	SubmitDossier = statemachine.StringEvent("SubmitDossier")
	RequestChange = statemachine.StringEvent("RequestChange")
	Approve       = statemachine.StringEvent("Approve")
	Reject        = statemachine.StringEvent("Reject")
)

// Notification channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Decline reasons.
const (
	ReasonDeclined = "declined"
	ReasonTimeout  = "timeout"
)

// InvitePayload selects how the team is notified. Empty means email.
type InvitePayload struct {
	Channel string `json:"channel,omitempty"`
}

func (p InvitePayload) Validate() error {
	if p.Channel == "" {
		return nil
	}
	return validator.Apply(
		validator.InListString("channel", p.Channel, []string{ChannelEmail, ChannelSMS}),
	)
}

func (p InvitePayload) channel() string {
	if p.Channel == "" {
		return ChannelEmail
	}
	return p.Channel
}

// DeclinePayload records why an invitation ended. A timeout is a decline.
type DeclinePayload struct {
	Reason string `json:"reason,omitempty"`
}

func (p DeclinePayload) Validate() error {
	return validator.Apply(
		validator.InListString("reason", p.Reason, []string{"", ReasonDeclined, ReasonTimeout}),
	)
}

func (p DeclinePayload) reason() string {
	if p.Reason == "" {
		return ReasonDeclined
	}
	return p.Reason
}

// DossierPayload is a (re)submission of the team's dossier.
type DossierPayload struct {
	Roster []string `json:"roster"`
	Kit    string   `json:"kit"`
	Venue  string   `json:"venue"`
}

func (p DossierPayload) Validate() error {
	return validator.Apply(
		validator.RequiredSlice("roster", p.Roster),
		validator.NoBlankStrings("roster", p.Roster),
		validator.RequiredString("kit", p.Kit),
		validator.RequiredString("venue", p.Venue),
	)
}

func (p DossierPayload) dossier() *Dossier {
	return &Dossier{
		Roster: append([]string(nil), p.Roster...),
		Kit:    p.Kit,
		Venue:  p.Venue,
	}
}

// ChangeRequestPayload carries the reviewer's notes.
type ChangeRequestPayload struct {
	Notes string `json:"notes"`
}

func (p ChangeRequestPayload) Validate() error {
	return validator.Apply(validator.RequiredString("notes", p.Notes))
}

// RejectPayload optionally explains a rejection.
type RejectPayload struct {
	Reason string `json:"reason,omitempty"`
}
