package registration

import (
	"context"
	"encoding/json"

	"github.com/dmitrymomot/leagueflow/pkg/statemachine"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

// preparePayload narrows the command payload to the event's closed schema.
// A malformed dossier fails here, before any transition is attempted.
func preparePayload(_ context.Context, _ *Registration, event statemachine.Event, payload any) (any, error) {
	name := event.Name()
	switch name {
	case SendInvite.Name():
		return workflow.PayloadAs[InvitePayload](name, payload)
	case Decline.Name():
		return workflow.PayloadAs[DeclinePayload](name, payload)
	case SubmitDossier.Name():
		return workflow.PayloadAs[DossierPayload](name, payload)
	case RequestChange.Name():
		return workflow.PayloadAs[ChangeRequestPayload](name, payload)
	case Reject.Name():
		return workflow.PayloadAs[RejectPayload](name, payload)
	default:
		return nil, workflow.NoPayload(name, payload)
	}
}

// DecodePayload turns a wire payload into the typed payload for event.
func DecodePayload(event string, raw json.RawMessage) (any, error) {
	switch event {
	case SendInvite.Name():
		return workflow.DecodeJSON[InvitePayload](event, raw)
	case Decline.Name():
		return workflow.DecodeJSON[DeclinePayload](event, raw)
	case SubmitDossier.Name():
		return workflow.DecodeJSON[DossierPayload](event, raw)
	case RequestChange.Name():
		return workflow.DecodeJSON[ChangeRequestPayload](event, raw)
	case Reject.Name():
		return workflow.DecodeJSON[RejectPayload](event, raw)
	case Accept.Name(), Approve.Name():
		return workflow.DecodeNone(event, raw)
	default:
		return nil, nil
	}
}
