// Package pgstore keeps matches, registrations and season quorum aggregates
// in PostgreSQL through pgx/v5.
//
// Each entity is stored as a JSONB document next to the columns needed for
// lookups (season, status, response deadline) and a version counter. Every
// write is a compare-and-swap on that version, so the status and its
// precondition flags change together or not at all, and a losing writer gets
// workflow.ErrConcurrentModification.
//
// The schema ships as goose migrations in Migrations:
//
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, log); err != nil {
//		return err
//	}
//	matches := pgstore.NewMatchStore(pool)
//	registrations := pgstore.NewRegistrationRepository(pool)
package pgstore
