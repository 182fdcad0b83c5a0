// Package redis provides a refresh registry driver shared across service
// instances. Every mutation that must be atomic runs as a Lua script, which
// redis executes single-threaded: the rotate script is a compare-and-swap,
// so concurrent refreshes of one token id still produce exactly one winner.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sentinelhq/gatekeep/internal/auth/registry"
)

const (
	tidPrefix   = "gatekeep:registry:tid:"
	identPrefix = "gatekeep:registry:ident:"
)

const (
	rotateStatusNotFound int64 = 0
	rotateStatusRotated  int64 = 1
	rotateStatusDupID    int64 = 2
)

const registerScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "identity", ARGV[1], "created_at", ARGV[2])
redis.call("SADD", KEYS[2], ARGV[3])
local ttl = tonumber(ARGV[4])
if ttl > 0 then
  redis.call("PEXPIRE", KEYS[1], ttl)
end
return 1
`

const rotateScript = `
local owner = redis.call("HGET", KEYS[1], "identity")
if not owner or owner ~= ARGV[1] then
  return 0
end
if redis.call("EXISTS", KEYS[2]) == 1 then
  return 2
end
redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[3], ARGV[3])
redis.call("HSET", KEYS[2], "identity", ARGV[1], "created_at", ARGV[2])
redis.call("SADD", KEYS[3], ARGV[4])
local ttl = tonumber(ARGV[5])
if ttl > 0 then
  redis.call("PEXPIRE", KEYS[2], ttl)
end
return 1
`

const revokeScript = `
local identity = redis.call("HGET", KEYS[1], "identity")
if identity then
  redis.call("SREM", ARGV[2] .. identity, ARGV[1])
  redis.call("DEL", KEYS[1])
end
return 1
`

const revokeAllScript = `
local tids = redis.call("SMEMBERS", KEYS[1])
for _, tid in ipairs(tids) do
  redis.call("DEL", ARGV[1] .. tid)
end
redis.call("DEL", KEYS[1])
return #tids
`

var (
	registerLua  = redis.NewScript(registerScript)
	rotateLua    = redis.NewScript(rotateScript)
	revokeLua    = redis.NewScript(revokeScript)
	revokeAllLua = redis.NewScript(revokeAllScript)
)

type Registry struct {
	client *redis.Client

	// entryTTL bounds how long an abandoned entry lingers. Zero disables
	// expiry and leaves cleanup entirely to the housekeeping sweep.
	entryTTL time.Duration
}

// New wraps an existing go-redis client. entryTTL should match the refresh
// token lifetime so redis expires entries on its own.
func New(client *redis.Client, entryTTL time.Duration) *Registry {
	return &Registry{client: client, entryTTL: entryTTL}
}

func (r *Registry) Register(ctx context.Context, e registry.Entry) error {
	status, err := registerLua.Run(ctx, r.client,
		[]string{tidKey(e.TokenID), identKey(e.Identity)},
		e.Identity,
		e.CreatedAt.UnixMilli(),
		e.TokenID,
		r.entryTTL.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("registry redis: register: %w", err)
	}
	if status == 0 {
		return registry.ErrDuplicateID
	}
	return nil
}

func (r *Registry) Lookup(ctx context.Context, tokenID string) (registry.Entry, error) {
	fields, err := r.client.HGetAll(ctx, tidKey(tokenID)).Result()
	if err != nil {
		return registry.Entry{}, fmt.Errorf("registry redis: lookup: %w", err)
	}
	if len(fields) == 0 {
		return registry.Entry{}, registry.ErrNotFound
	}

	createdMs, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return registry.Entry{}, fmt.Errorf("registry redis: corrupt created_at for %s", tokenID)
	}

	return registry.Entry{
		TokenID:   tokenID,
		Identity:  fields["identity"],
		CreatedAt: time.UnixMilli(createdMs).UTC(),
	}, nil
}

func (r *Registry) Revoke(ctx context.Context, tokenID string) error {
	_, err := revokeLua.Run(ctx, r.client,
		[]string{tidKey(tokenID)},
		tokenID, identPrefix,
	).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("registry redis: revoke: %w", err)
	}
	return nil
}

func (r *Registry) Rotate(ctx context.Context, oldID, identity string, next registry.Entry) error {
	status, err := rotateLua.Run(ctx, r.client,
		[]string{tidKey(oldID), tidKey(next.TokenID), identKey(identity)},
		identity,
		next.CreatedAt.UnixMilli(),
		oldID,
		next.TokenID,
		r.entryTTL.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("registry redis: rotate: %w", err)
	}

	switch status {
	case rotateStatusRotated:
		return nil
	case rotateStatusDupID:
		return registry.ErrDuplicateID
	case rotateStatusNotFound:
		return registry.ErrNotFound
	default:
		return fmt.Errorf("registry redis: unexpected rotate status %d", status)
	}
}

func (r *Registry) RevokeAll(ctx context.Context, identity string) (int64, error) {
	n, err := revokeAllLua.Run(ctx, r.client,
		[]string{identKey(identity)},
		tidPrefix,
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("registry redis: revoke all: %w", err)
	}
	return n, nil
}

func (r *Registry) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var (
		deleted int64
		cursor  uint64
	)
	cutoffMs := cutoff.UnixMilli()

	for {
		keys, next, err := r.client.Scan(ctx, cursor, tidPrefix+"*", 256).Result()
		if err != nil {
			return deleted, fmt.Errorf("registry redis: scan: %w", err)
		}

		for _, key := range keys {
			createdStr, err := r.client.HGet(ctx, key, "created_at").Result()
			if errors.Is(err, redis.Nil) {
				continue // expired between scan and read
			}
			if err != nil {
				return deleted, fmt.Errorf("registry redis: sweep read: %w", err)
			}

			createdMs, err := strconv.ParseInt(createdStr, 10, 64)
			if err != nil || createdMs >= cutoffMs {
				continue
			}

			if err := r.Revoke(ctx, key[len(tidPrefix):]); err != nil {
				return deleted, err
			}
			deleted++
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func (r *Registry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Registry) Close() error { return r.client.Close() }

func tidKey(tokenID string) string    { return tidPrefix + tokenID }
func identKey(identity string) string { return identPrefix + identity }
