// Package sqlite provides the durable refresh registry driver. Rotation runs
// inside a transaction: sqlite's single-writer lock makes the retire-and-
// reissue step linearizable, so concurrent refreshes of the same token id
// produce exactly one winner.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sentinelhq/gatekeep/internal/auth/registry"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS refresh_registry (
	token_id   TEXT PRIMARY KEY,
	identity   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_refresh_registry_identity ON refresh_registry(identity);
`

type Registry struct {
	db *sql.DB
}

// New opens (or creates) the registry database at dsn. Pass a file DSN with
// _busy_timeout for production, or ":memory:" for tests.
func New(dsn string) (*Registry, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("registry sqlite: open: %w", err)
	}

	// One writer connection: sqlite serialises writers anyway, and a single
	// connection turns would-be SQLITE_BUSY errors into queueing.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("registry sqlite: bootstrap schema: %w", err)
	}

	return &Registry{db: db}, nil
}

func (r *Registry) Register(ctx context.Context, e registry.Entry) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return insertEntry(ctx, tx, e)
	})
}

func (r *Registry) Lookup(ctx context.Context, tokenID string) (registry.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT token_id, identity, created_at FROM refresh_registry WHERE token_id = ?`,
		tokenID,
	)

	var e registry.Entry
	if err := row.Scan(&e.TokenID, &e.Identity, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return registry.Entry{}, registry.ErrNotFound
		}
		return registry.Entry{}, err
	}
	return e, nil
}

func (r *Registry) Revoke(ctx context.Context, tokenID string) error {
	// Deleting an absent row affects nothing, which is exactly the
	// idempotency we want.
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_registry WHERE token_id = ?`, tokenID)
	return err
}

func (r *Registry) Rotate(ctx context.Context, oldID, identity string, next registry.Entry) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM refresh_registry WHERE token_id = ? AND identity = ?`,
			oldID, identity,
		)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			// Already rotated, revoked, or owned by someone else. The
			// caller cannot tell which, and must not be able to.
			return registry.ErrNotFound
		}

		return insertEntry(ctx, tx, next)
	})
}

func (r *Registry) RevokeAll(ctx context.Context, identity string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_registry WHERE identity = ?`, identity)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Registry) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_registry WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Registry) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *Registry) Close() error { return r.db.Close() }

func insertEntry(ctx context.Context, tx *sql.Tx, e registry.Entry) error {
	var exists int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM refresh_registry WHERE token_id = ?`, e.TokenID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return registry.ErrDuplicateID
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO refresh_registry (token_id, identity, created_at) VALUES (?, ?, ?)`,
		e.TokenID, e.Identity, e.CreatedAt,
	)
	return err
}

func (r *Registry) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Rollback is safe to call after commit.
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
