package registration

import (
	"context"
	"time"

	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

// DefaultResponseWindow is how long an invited team has to answer.
const DefaultResponseWindow = 14 * 24 * time.Hour

// NewMachine builds the registration workflow. clock drives invitation
// timestamps and the response deadline guard.
func NewMachine(clock func() time.Time, window time.Duration) (*statemachine.Machine[*Registration], error) {
	if clock == nil {
		clock = time.Now
	}
	if window <= 0 {
		window = DefaultResponseWindow
	}
	f := flow{now: clock, window: window}

	return statemachine.NewBuilder[*Registration](States...).
		From(DraftInvite).When(SendInvite).To(Invited).WithAction(f.invite).Add().
		From(Invited).When(Accept).To(Accepted).WithGuard(f.beforeDeadline).Add().
		From(Invited).When(Decline).To(Declined).WithGuard(f.timeoutDue).WithAction(f.decline).Add().
		From(Accepted).When(SubmitDossier).To(Submitted).WithAction(f.storeDossier).Add().
		From(ChangeRequested).When(SubmitDossier).To(Submitted).WithAction(f.storeDossier).Add().
		From(Submitted).When(RequestChange).To(ChangeRequested).WithAction(f.requestChange).Add().
		From(Submitted).When(Approve).To(Approved).WithAction(f.approve).Add().
		From(Submitted).When(Reject).To(Rejected).WithAction(f.reject).Add().
		Build()
}

type flow struct {
	now    func() time.Time
	window time.Duration
}

func (f flow) invite(_ context.Context, tx *statemachine.Tx[*Registration]) error {
	p, _ := tx.Data.(InvitePayload)
	r := tx.Subject
	r.Channel = p.channel()
	r.InvitedAt = f.now()
	r.ResponseDeadline = r.InvitedAt.Add(f.window)
	tx.Emit(workflow.NotifyTeam{RegistrationID: r.ID, Channel: r.Channel})
	return nil
}

// beforeDeadline evaluates the response deadline lazily: once it has passed,
// the only way out of INVITED is a decline.
func (f flow) beforeDeadline(_ context.Context, r *Registration, _ statemachine.Event, _ any) bool {
	return !r.Overdue(f.now())
}

// timeoutDue keeps a synthetic timeout decline from firing early.
func (f flow) timeoutDue(_ context.Context, r *Registration, _ statemachine.Event, data any) bool {
	p, _ := data.(DeclinePayload)
	return p.reason() != ReasonTimeout || r.Overdue(f.now())
}

func (f flow) decline(_ context.Context, tx *statemachine.Tx[*Registration]) error {
	p, _ := tx.Data.(DeclinePayload)
	tx.Subject.DeclineReason = p.reason()
	tx.Emit(workflow.FindReplacement{SeasonID: tx.Subject.SeasonID})
	return nil
}

func (f flow) storeDossier(_ context.Context, tx *statemachine.Tx[*Registration]) error {
	p, ok := tx.Data.(DossierPayload)
	if !ok {
		return workflow.UnexpectedPayloadType(tx.Event.Name(), tx.Data)
	}
	tx.Subject.Dossier = p.dossier()
	tx.Subject.Revisions++
	return nil
}

func (f flow) requestChange(_ context.Context, tx *statemachine.Tx[*Registration]) error {
	p, ok := tx.Data.(ChangeRequestPayload)
	if !ok {
		return workflow.UnexpectedPayloadType(tx.Event.Name(), tx.Data)
	}
	tx.Subject.ReviewNotes = p.Notes
	return nil
}

func (f flow) approve(_ context.Context, tx *statemachine.Tx[*Registration]) error {
	tx.Emit(workflow.RecheckQuorum{SeasonID: tx.Subject.SeasonID})
	return nil
}

func (f flow) reject(_ context.Context, tx *statemachine.Tx[*Registration]) error {
	p, _ := tx.Data.(RejectPayload)
	tx.Subject.RejectReason = p.Reason
	tx.Emit(workflow.FindReplacement{SeasonID: tx.Subject.SeasonID})
	return nil
}
