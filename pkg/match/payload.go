package match

import (
	"context"
	"encoding/json"

	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

// preparePayload narrows the command payload to the event's schema and merges
// precondition writes onto the candidate before guards are evaluated.
func preparePayload(_ context.Context, m *Match, event statemachine.Event, payload any) (any, error) {
	name := event.Name()
	switch name {
	case UpdateStaffing.Name(), AssignOfficials.Name():
		p, err := workflow.PayloadAs[StaffingPayload](name, payload)
		if err != nil {
			return nil, err
		}
		p.apply(m)
		return p, nil

	case UpdateRosters.Name(), ApproveRosters.Name():
		p, err := workflow.PayloadAs[RosterPayload](name, payload)
		if err != nil {
			return nil, err
		}
		p.apply(m)
		return p, nil

	case RecordReport.Name():
		return workflow.PayloadAs[ReportPayload](name, payload)

	default:
		return nil, workflow.NoPayload(name, payload)
	}
}

// DecodePayload turns a wire payload into the typed payload for event.
// Unknown events decode to nil and are rejected later as invalid transitions.
func DecodePayload(event string, raw json.RawMessage) (any, error) {
	switch event {
	case UpdateStaffing.Name(), AssignOfficials.Name():
		return workflow.DecodeJSON[StaffingPayload](event, raw)
	case UpdateRosters.Name(), ApproveRosters.Name():
		return workflow.DecodeJSON[RosterPayload](event, raw)
	case RecordReport.Name():
		return workflow.DecodeJSON[ReportPayload](event, raw)
	case StartMatch.Name(), FinishMatch.Name(), ConfirmCompletion.Name():
		return workflow.DecodeNone(event, raw)
	default:
		return nil, nil
	}
}
