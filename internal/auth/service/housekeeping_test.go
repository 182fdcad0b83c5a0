package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/sentinelhq/gatekeep/internal/auth/registry"
	"github.com/sentinelhq/gatekeep/internal/auth/registry/drivers/memory"

	"github.com/stretchr/testify/require"
)

func TestHousekeeping_SweepsExpiredEntries(t *testing.T) {
	t.Parallel()

	reg := memory.New()
	t.Cleanup(func() { _ = reg.Close() })
	ctx := context.Background()

	ttl := 7 * 24 * time.Hour
	now := time.Now()

	require.NoError(t, reg.Register(ctx, registry.Entry{
		TokenID:   "stale",
		Identity:  "alice",
		CreatedAt: now.Add(-ttl - time.Hour),
	}))
	require.NoError(t, reg.Register(ctx, registry.Entry{
		TokenID:   "live",
		Identity:  "alice",
		CreatedAt: now,
	}))

	hk := NewHousekeepingService(reg, slog.Default(), time.Hour, ttl)
	hk.sweep()

	_, err := reg.Lookup(ctx, "stale")
	require.ErrorIs(t, err, registry.ErrNotFound)

	_, err = reg.Lookup(ctx, "live")
	require.NoError(t, err)
}

func TestHousekeeping_StartStop(t *testing.T) {
	t.Parallel()

	reg := memory.New()
	t.Cleanup(func() { _ = reg.Close() })

	hk := NewHousekeepingService(reg, slog.Default(), time.Hour, time.Hour)
	hk.Start()
	hk.Stop()
}
