package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/leagueflow/pkg/pg"
	"github.com/dmitrymomot/leagueflow/pkg/registration"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

const registrationsTable = "registrations"

// RegistrationRepository persists registrations and season quorum aggregates.
type RegistrationRepository struct {
	*table[*registration.Registration]
}

var _ registration.Repository = (*RegistrationRepository)(nil)

// NewRegistrationRepository returns a repository over db.
func NewRegistrationRepository(db DB) *RegistrationRepository {
	return &RegistrationRepository{newTable(db, registrationsTable, true,
		func() *registration.Registration { return new(registration.Registration) },
		func(r *registration.Registration) columns {
			cols := columns{seasonID: r.SeasonID, status: r.Status.Name()}
			if !r.ResponseDeadline.IsZero() {
				d := r.ResponseDeadline
				cols.deadline = &d
			}
			return cols
		},
	)}
}

func (r *RegistrationRepository) CountApproved(ctx context.Context, seasonID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM registrations WHERE season_id = $1 AND status = $2`,
		seasonID, registration.Approved.Name(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count approved registrations: %w", err)
	}
	return n, nil
}

func (r *RegistrationRepository) ListOverdue(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM registrations WHERE status = $1 AND response_deadline < $2 ORDER BY id`,
		registration.Invited.Name(), now,
	)
	if err != nil {
		return nil, fmt.Errorf("list overdue registrations: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list overdue registrations: %w", err)
	}
	return ids, nil
}

func (r *RegistrationRepository) GetSeason(ctx context.Context, seasonID string) (registration.SeasonSet, error) {
	set := registration.SeasonSet{SeasonID: seasonID}
	err := r.db.QueryRow(ctx,
		`SELECT approved_count, quorum, generation, version FROM season_quorums WHERE season_id = $1`,
		seasonID,
	).Scan(&set.ApprovedCount, &set.Quorum, &set.Generation, &set.Version)
	if pg.IsNotFoundError(err) {
		return registration.SeasonSet{}, fmt.Errorf("%w: season '%s'", workflow.ErrNotFound, seasonID)
	}
	if err != nil {
		return registration.SeasonSet{}, fmt.Errorf("select season '%s': %w", seasonID, err)
	}
	return set, nil
}

func (r *RegistrationRepository) SaveSeason(ctx context.Context, set registration.SeasonSet, expected int64) error {
	var (
		sql  string
		args = []any{set.SeasonID, set.ApprovedCount, set.Quorum, set.Generation, set.Version}
	)
	if expected == 0 {
		sql = `INSERT INTO season_quorums (season_id, approved_count, quorum, generation, version)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT (season_id) DO NOTHING`
	} else {
		sql = `UPDATE season_quorums SET approved_count = $2, quorum = $3, generation = $4, version = $5
			WHERE season_id = $1 AND version = $6`
		args = append(args, expected)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("save season '%s': %w", set.SeasonID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: season '%s' is no longer at version %d",
			workflow.ErrConcurrentModification, set.SeasonID, expected)
	}
	return nil
}

func (r *RegistrationRepository) ListStaleSeasons(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.season_id FROM registrations r
			LEFT JOIN season_quorums q ON q.season_id = r.season_id
			WHERE r.status = $1
			GROUP BY r.season_id, q.approved_count
			HAVING count(*) <> coalesce(q.approved_count, -1)
			ORDER BY r.season_id`,
		registration.Approved.Name(),
	)
	if err != nil {
		return nil, fmt.Errorf("list stale seasons: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list stale seasons: %w", err)
	}
	return ids, nil
}
