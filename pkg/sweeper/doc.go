// Package sweeper expires unanswered season invitations.
//
// Response deadlines are checked lazily when a team answers; invitations
// nobody answers are closed by this sweep, which issues a synthetic
// Decline{reason: timeout} for each overdue registration on a gocron
// schedule and dispatches the resulting FindReplacement effects.
//
// The same pass reconciles seasons whose stored approved count lags behind
// their approvals, so a quorum crossing lost to a failed recheck still
// produces its SeasonReadyToSchedule signal.
//
//	sw, err := sweeper.New(registrations, dispatcher, time.Minute, sweeper.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	go sw.Run(ctx)
package sweeper
