// Package match drives a single match from scheduling to completion.
//
//	SCHEDULED --AssignOfficials--> PREPARING --ApproveRosters--> READY
//	READY --StartMatch--> IN_PROGRESS --FinishMatch--> FINISHED
//	FINISHED --RecordReport--> FINISHED (until both reports are in)
//	FINISHED --(auto: both reports)--> REPORTED --ConfirmCompletion--> COMPLETED
//
// AssignOfficials and ApproveRosters are guarded by two flags each. The flags
// are written through UpdateStaffing and UpdateRosters, or carried on the
// guarded event itself; a payload whose flags do not satisfy the guard is
// discarded together with the rejected transition.
//
// The two post-match reports form a join barrier. Either order reaches
// REPORTED with the same state, and the auto edge is evaluated on every
// RecordReport, so whichever report completes the pair advances the match.
// Reports may be amended after REPORTED without emitting anything.
//
// Effects:
//   - RecomputeStandings on ConfirmCompletion. COMPLETED is terminal, so a
//     repeated confirmation is an invalid transition and cannot re-emit.
//   - NotifyDisciplinaryCommittee when the supervisor first raises the
//     disciplinary flag.
package match
