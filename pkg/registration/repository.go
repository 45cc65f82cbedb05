package registration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

// Repository persists registrations and their season aggregates.
type Repository interface {
	workflow.Store[*Registration]
	// CountApproved returns the number of APPROVED registrations in a season.
	CountApproved(ctx context.Context, seasonID string) (int, error)
	// ListOverdue returns ids of INVITED registrations whose deadline passed before now.
	ListOverdue(ctx context.Context, now time.Time) ([]string, error)
	// GetSeason returns ErrNotFound for a season that was never saved.
	GetSeason(ctx context.Context, seasonID string) (SeasonSet, error)
	// SaveSeason stores set if the stored version equals expected (0 inserts).
	SaveSeason(ctx context.Context, set SeasonSet, expected int64) error
	// ListStaleSeasons returns ids of seasons whose stored approved count
	// differs from their APPROVED registrations, including seasons with
	// approvals that were never saved.
	ListStaleSeasons(ctx context.Context) ([]string, error)
}

// MemoryRepository is an in-process Repository.
type MemoryRepository struct {
	*workflow.MemoryStore[*Registration]

	mu      sync.Mutex
	seasons map[string]SeasonSet
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		MemoryStore: workflow.NewMemoryStore[*Registration](),
		seasons:     make(map[string]SeasonSet),
	}
}

func (r *MemoryRepository) CountApproved(_ context.Context, seasonID string) (int, error) {
	recs := r.Filter(func(reg *Registration) bool {
		return reg.SeasonID == seasonID && reg.Status == Approved
	})
	return len(recs), nil
}

func (r *MemoryRepository) ListOverdue(_ context.Context, now time.Time) ([]string, error) {
	recs := r.Filter(func(reg *Registration) bool { return reg.Overdue(now) })
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.Entity.ID)
	}
	return ids, nil
}

func (r *MemoryRepository) GetSeason(_ context.Context, seasonID string) (SeasonSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.seasons[seasonID]
	if !ok {
		return SeasonSet{}, fmt.Errorf("%w: season '%s'", workflow.ErrNotFound, seasonID)
	}
	return set, nil
}

func (r *MemoryRepository) SaveSeason(_ context.Context, set SeasonSet, expected int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.seasons[set.SeasonID]
	if cur.Version != expected {
		return fmt.Errorf("%w: season '%s' at version %d, expected %d",
			workflow.ErrConcurrentModification, set.SeasonID, cur.Version, expected)
	}
	r.seasons[set.SeasonID] = set
	return nil
}

func (r *MemoryRepository) ListStaleSeasons(_ context.Context) ([]string, error) {
	live := make(map[string]int)
	for _, rec := range r.Filter(func(reg *Registration) bool { return reg.Status == Approved }) {
		live[rec.Entity.SeasonID]++
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for seasonID, n := range live {
		if set, ok := r.seasons[seasonID]; !ok || set.ApprovedCount != n {
			ids = append(ids, seasonID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
