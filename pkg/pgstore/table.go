package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/leagueflow/pkg/pg"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

// DB is the subset of *pgxpool.Pool the stores use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// columns are the indexed values a table keeps beside the JSON document.
type columns struct {
	seasonID string
	status   string
	deadline *time.Time
}

// table is a versioned JSONB document table. The whole entity is written as
// one document so status and precondition flags change atomically.
type table[S workflow.Entity[S]] struct {
	db      DB
	name    string
	alloc   func() S
	columns func(S) columns

	// deadline is set for tables carrying a response_deadline column.
	deadline bool

	selectSQL string
	insertSQL string
	updateSQL string
	existsSQL string
}

func newTable[S workflow.Entity[S]](db DB, name string, deadline bool, alloc func() S, cols func(S) columns) *table[S] {
	t := &table[S]{db: db, name: name, alloc: alloc, columns: cols, deadline: deadline}

	insertCols := "id, season_id, status, data, version, generation"
	insertVals := "$1, $2, $3, $4, $5, $6"
	update := "season_id = $2, status = $3, data = $4, version = $5, generation = $6"
	expectedArg := "$7"
	if deadline {
		insertCols += ", response_deadline"
		insertVals += ", $7"
		update += ", response_deadline = $7"
		expectedArg = "$8"
	}

	t.selectSQL = fmt.Sprintf(`SELECT data, version, generation FROM %s WHERE id = $1`, name)
	t.insertSQL = fmt.Sprintf(`INSERT INTO %s (%s, updated_at) VALUES (%s, now())`, name, insertCols, insertVals)
	t.updateSQL = fmt.Sprintf(`UPDATE %s SET %s, updated_at = now() WHERE id = $1 AND version = %s`, name, update, expectedArg)
	t.existsSQL = fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, name)
	return t
}

func (t *table[S]) Get(ctx context.Context, id string) (workflow.Record[S], error) {
	var (
		data []byte
		rec  workflow.Record[S]
	)
	err := t.db.QueryRow(ctx, t.selectSQL, id).Scan(&data, &rec.Version, &rec.Generation)
	if pg.IsNotFoundError(err) {
		return workflow.Record[S]{}, fmt.Errorf("%w: '%s'", workflow.ErrNotFound, id)
	}
	if err != nil {
		return workflow.Record[S]{}, fmt.Errorf("select %s '%s': %w", t.name, id, err)
	}

	rec.Entity = t.alloc()
	if err := json.Unmarshal(data, rec.Entity); err != nil {
		return workflow.Record[S]{}, fmt.Errorf("decode %s '%s': %w", t.name, id, err)
	}
	return rec, nil
}

func (t *table[S]) Insert(ctx context.Context, rec workflow.Record[S]) error {
	id := rec.Entity.EntityID()
	args, err := t.args(rec)
	if err != nil {
		return err
	}

	_, err = t.db.Exec(ctx, t.insertSQL, args...)
	if pg.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: '%s'", workflow.ErrAlreadyExists, id)
	}
	if err != nil {
		return fmt.Errorf("insert %s '%s': %w", t.name, id, err)
	}
	return nil
}

func (t *table[S]) CompareAndSwap(ctx context.Context, rec workflow.Record[S], expected int64) error {
	id := rec.Entity.EntityID()
	args, err := t.args(rec)
	if err != nil {
		return err
	}

	tag, err := t.db.Exec(ctx, t.updateSQL, append(args, expected)...)
	if err != nil {
		return fmt.Errorf("update %s '%s': %w", t.name, id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := t.db.QueryRow(ctx, t.existsSQL, id).Scan(&exists); err != nil {
		return fmt.Errorf("check %s '%s': %w", t.name, id, err)
	}
	if !exists {
		return fmt.Errorf("%w: '%s'", workflow.ErrNotFound, id)
	}
	return fmt.Errorf("%w: '%s' is no longer at version %d", workflow.ErrConcurrentModification, id, expected)
}

// args returns the row values in placeholder order: $1..$6, then $7 for
// the deadline when the table has one.
func (t *table[S]) args(rec workflow.Record[S]) ([]any, error) {
	data, err := json.Marshal(rec.Entity)
	if err != nil {
		return nil, fmt.Errorf("encode %s '%s': %w", t.name, rec.Entity.EntityID(), err)
	}
	cols := t.columns(rec.Entity)

	args := []any{rec.Entity.EntityID(), cols.seasonID, cols.status, data, rec.Version, rec.Generation}
	if t.deadline {
		args = append(args, cols.deadline)
	}
	return args, nil
}
