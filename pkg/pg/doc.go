// Package pg connects to PostgreSQL through pgx/v5 and applies goose
// migrations from an embedded filesystem.
//
// Config is populated from environment variables via github.com/caarlos0/env.
// Connect opens a *pgxpool.Pool and pings it, retrying with linear back-off.
// Migrate bridges the pool to database/sql and runs goose against it.
// Healthcheck returns a probe suitable for readiness endpoints.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, log); err != nil {
//		return err
//	}
//
// IsNotFoundError and IsDuplicateKeyError classify pgx errors so stores can
// map them onto their own sentinels.
package pg
