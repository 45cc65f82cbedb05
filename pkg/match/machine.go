package match

import (
	"context"
	"errors"

	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

// ErrFlagAfterReport is returned when a report amendment tries to raise the
// disciplinary flag after the match has already been reported.
var ErrFlagAfterReport = errors.New("disciplinary flag can only be raised before the match is reported")

// NewMachine builds the match lifecycle. The table is rank monotonic:
// construction fails if any edge would move a match backwards.
func NewMachine() (*statemachine.Machine[*Match], error) {
	return statemachine.NewBuilder[*Match](States...).
		Monotonic().
		// precondition writes
		From(Scheduled).When(UpdateStaffing).To(Scheduled).Add().
		From(Scheduled).When(UpdateRosters).To(Scheduled).Add().
		From(Preparing).When(UpdateRosters).To(Preparing).Add().
		// lifecycle
		From(Scheduled).When(AssignOfficials).To(Preparing).WithGuard(officialsAssigned).Add().
		From(Preparing).When(ApproveRosters).To(Ready).WithGuard(rostersApproved).Add().
		From(Ready).When(StartMatch).To(InProgress).Add().
		From(InProgress).When(FinishMatch).To(Finished).Add().
		From(Finished).When(RecordReport).To(Finished).WithAction(recordReport).Add().
		From(Finished).To(Reported).WithGuard(reportsComplete).Add().
		From(Reported).When(RecordReport).To(Reported).WithAction(amendReport).Add().
		From(Reported).When(ConfirmCompletion).To(Completed).WithAction(requestStandings).Add().
		Build()
}

func officialsAssigned(_ context.Context, m *Match, _ statemachine.Event, _ any) bool {
	return m.OfficialsAssigned()
}

func rostersApproved(_ context.Context, m *Match, _ statemachine.Event, _ any) bool {
	return m.RostersApproved()
}

func reportsComplete(_ context.Context, m *Match, _ statemachine.Event, _ any) bool {
	return m.ReportsComplete()
}

func reportFrom(tx *statemachine.Tx[*Match]) (ReportPayload, error) {
	p, ok := tx.Data.(ReportPayload)
	if !ok {
		return p, workflow.UnexpectedPayloadType(tx.Event.Name(), tx.Data)
	}
	return p, nil
}

func writeReport(m *Match, p ReportPayload) {
	switch p.Role {
	case RoleReferee:
		m.RefereeReport = p.Body
		m.RefereeReportSubmitted = true
	case RoleSupervisor:
		m.SupervisorReport = p.Body
		m.SupervisorReportSubmitted = true
	}
}

// recordReport stores one official's report. Raising the disciplinary flag
// is an orthogonal signal: it emits once, on the false to true edge.
func recordReport(_ context.Context, tx *statemachine.Tx[*Match]) error {
	p, err := reportFrom(tx)
	if err != nil {
		return err
	}
	m := tx.Subject
	writeReport(m, p)
	if p.DisciplinaryFlag && !m.DisciplinaryFlag {
		m.DisciplinaryFlag = true
		tx.EmitEdge(workflow.NotifyDisciplinaryCommittee{MatchID: m.ID})
	}
	return nil
}

// amendReport overwrites report content after the join. It never emits.
func amendReport(_ context.Context, tx *statemachine.Tx[*Match]) error {
	p, err := reportFrom(tx)
	if err != nil {
		return err
	}
	if p.DisciplinaryFlag && !tx.Subject.DisciplinaryFlag {
		return workflow.NewPayloadError(tx.Event.Name(), ErrFlagAfterReport)
	}
	writeReport(tx.Subject, p)
	return nil
}

func requestStandings(_ context.Context, tx *statemachine.Tx[*Match]) error {
	tx.EmitEdge(workflow.RecomputeStandings{MatchID: tx.Subject.ID})
	return nil
}
