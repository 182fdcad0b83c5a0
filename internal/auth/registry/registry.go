// Package registry tracks which refresh token ids are currently live. A
// refresh token's signature proves who minted it; only registry membership
// proves it has not already been spent or revoked.
package registry

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Lookup when the token id is not live, and
	// by Rotate when the losing side of a concurrent rotation finds the old
	// id already retired (or owned by a different principal).
	ErrNotFound = errors.New("registry: not found")

	// ErrDuplicateID is returned by Register when the token id already
	// exists. With 256-bit random ids this effectively never happens; the
	// lifecycle manager retries with a fresh id and never surfaces it.
	ErrDuplicateID = errors.New("registry: duplicate token id")
)

// Entry records one live refresh token id and who owns it. Entries are
// created on issuance and deleted on rotation or revocation, never updated
// in place.
type Entry struct {
	TokenID   string
	Identity  string
	CreatedAt time.Time
}

// Registry is the store of live refresh token ids. Implementations must make
// Register/Revoke/Rotate linearizable per token id: when several refresh
// attempts race on the same id, exactly one Rotate succeeds and the rest see
// ErrNotFound. Drivers: memory (single process), sqlite (durable), redis
// (shared across instances).
type Registry interface {
	// Register inserts a new entry. Fails with ErrDuplicateID if the token
	// id already exists.
	Register(ctx context.Context, e Entry) error

	// Lookup returns the entry for a token id, or ErrNotFound.
	Lookup(ctx context.Context, tokenID string) (Entry, error)

	// Revoke removes a token id. Revoking an absent id is a no-op, not an
	// error, so logout can race with rotation.
	Revoke(ctx context.Context, tokenID string) error

	// Rotate atomically retires oldID (which must exist and belong to
	// identity) and registers next. Returns ErrNotFound when the old id is
	// gone or owned by someone else; the caller treats that as an invalid
	// refresh.
	Rotate(ctx context.Context, oldID, identity string, next Entry) error

	// RevokeAll removes every entry owned by identity and reports how many
	// were removed ("log out everywhere").
	RevokeAll(ctx context.Context, identity string) (int64, error)

	// DeleteCreatedBefore removes entries created before the cutoff.
	// Housekeeping only: verification independently checks token expiry, so
	// stale entries are harmless, just dead weight.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
