package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/leagueflow/pkg/logger"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

// DefaultQuorum is the number of approved registrations a season needs
// before scheduling may begin.
const DefaultQuorum = 10

// ErrQuorumPending is returned together with a committed result when the
// season recheck requested by that transition did not complete.
var ErrQuorumPending = errors.New("quorum recheck pending")

// QuorumPendingError names the season left with a stale approved count.
// The sweeper reconciles it; RecheckQuorum does so on demand.
type QuorumPendingError struct {
	SeasonID string
	Cause    error
}

func (e *QuorumPendingError) Error() string {
	return fmt.Sprintf("%s: season '%s': %v", ErrQuorumPending, e.SeasonID, e.Cause)
}

func (e *QuorumPendingError) Unwrap() []error {
	return []error{ErrQuorumPending, e.Cause}
}

// IsQuorumPending reports whether err carries a committed transition whose
// quorum recheck is still outstanding.
func IsQuorumPending(err error) bool {
	return errors.Is(err, ErrQuorumPending)
}

// SeasonSet is the season level aggregate over registrations.
type SeasonSet struct {
	SeasonID      string `json:"season_id"`
	ApprovedCount int    `json:"approved_count"`
	Quorum        int    `json:"quorum"`
	// Generation counts SeasonReadyToSchedule firings. It only ever moves
	// from 0 to 1 because the approved count never decreases.
	Generation int64 `json:"generation"`
	// Version is the CAS key; 0 means the set has never been stored.
	Version int64 `json:"version"`
}

// ReadyToSchedule reports whether the quorum signal has fired.
func (s SeasonSet) ReadyToSchedule() bool {
	return s.Generation > 0
}

// QuorumState is the read model handed to display collaborators.
type QuorumState struct {
	SeasonID        string `json:"season_id"`
	ApprovedCount   int    `json:"approved_count"`
	Quorum          int    `json:"quorum"`
	ReadyToSchedule bool   `json:"ready_to_schedule"`
}

func (s SeasonSet) state() QuorumState {
	return QuorumState{
		SeasonID:        s.SeasonID,
		ApprovedCount:   s.ApprovedCount,
		Quorum:          s.Quorum,
		ReadyToSchedule: s.ReadyToSchedule(),
	}
}

// quorumTracker recomputes a season's approved count and detects the
// crossing of the quorum. Rechecks are serialized per season.
type quorumTracker struct {
	repo   Repository
	locker workflow.Locker
	quorum int
	log    *slog.Logger
}

// recheck recounts approvals and fires when prev < quorum <= count.
// Recounting from the store instead of incrementing makes a lost recheck
// harmless: the next one still sees the crossing.
func (q *quorumTracker) recheck(ctx context.Context, seasonID string) (SeasonSet, workflow.Effect, error) {
	unlock, err := q.locker.Lock(ctx, "season:"+seasonID)
	if err != nil {
		return SeasonSet{}, nil, fmt.Errorf("lock season '%s': %w", seasonID, err)
	}
	defer unlock()

	set, err := q.load(ctx, seasonID)
	if err != nil {
		return SeasonSet{}, nil, err
	}

	count, err := q.repo.CountApproved(ctx, seasonID)
	if err != nil {
		return SeasonSet{}, nil, fmt.Errorf("count approved in season '%s': %w", seasonID, err)
	}

	prev := set.ApprovedCount
	var fired workflow.Effect
	if prev < set.Quorum && set.Quorum <= count {
		fired = workflow.SeasonReadyToSchedule{SeasonID: seasonID}
		set.Generation++
	}
	if count == prev && fired == nil && set.Version > 0 {
		return set, nil, nil
	}

	expected := set.Version
	set.ApprovedCount = count
	set.Version++
	if err := q.repo.SaveSeason(ctx, set, expected); err != nil {
		return SeasonSet{}, nil, err
	}

	q.log.InfoContext(ctx, "season quorum rechecked",
		logger.SeasonID(seasonID),
		slog.Int("previous", prev),
		slog.Int("approved", count),
		slog.Int("quorum", set.Quorum),
		slog.Bool("fired", fired != nil),
	)
	return set, fired, nil
}

func (q *quorumTracker) load(ctx context.Context, seasonID string) (SeasonSet, error) {
	set, err := q.repo.GetSeason(ctx, seasonID)
	if err != nil && !workflow.IsNotFound(err) {
		return SeasonSet{}, fmt.Errorf("load season '%s': %w", seasonID, err)
	}
	if err != nil {
		set = SeasonSet{SeasonID: seasonID, Quorum: q.quorum}
	}
	return set, nil
}
