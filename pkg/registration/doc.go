// Package registration drives a team's registration into a season.
//
//	DRAFT_INVITE --SendInvite--> INVITED
//	INVITED --Accept--> ACCEPTED --SubmitDossier--> SUBMITTED
//	INVITED --Decline--> DECLINED                  (also on deadline timeout)
//	SUBMITTED --RequestChange--> REQUEST_CHANGE --SubmitDossier--> SUBMITTED
//	SUBMITTED --Approve--> APPROVED
//	SUBMITTED --Reject--> REJECTED
//
// DECLINED and REJECTED are terminal and emit FindReplacement for the
// season; a registration is never resurrected. The change request loop has
// no iteration limit.
//
// An invitation carries a response deadline. Accept after the deadline is
// refused with a guard failure, and Service.ExpireOverdue turns every
// overdue invitation into a Decline with reason "timeout". Running the
// sweep twice is harmless: the second run finds nothing in INVITED.
//
// # Quorum
//
// Approve emits an internal RecheckQuorum that the Service handles under the
// season lock. The tracker recounts approved registrations and emits
// SeasonReadyToSchedule only when previous < quorum <= current, so the
// signal fires exactly once per season no matter how many approvals race.
// A recheck that fails after the approval committed surfaces as a
// *QuorumPendingError alongside the result; ReconcileQuorums picks the
// season up again.
package registration
