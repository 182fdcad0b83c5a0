package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sentinelhq/gatekeep/internal/auth/registry"
)

// HousekeepingService periodically sweeps the refresh registry so that
// entries whose tokens expired without ever being rotated or revoked do not
// accumulate forever. Token verification independently checks expiry, so a
// stale entry is never a security problem, only dead weight.
type HousekeepingService struct {
	Registry   registry.Registry
	Logger     *slog.Logger
	Interval   time.Duration
	RefreshTTL time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given
// sweep interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(reg registry.Registry, logger *slog.Logger, interval, refreshTTL time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Registry:   reg,
		Logger:     logger,
		Interval:   interval,
		RefreshTTL: refreshTTL,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs the sweep.
// This is non-blocking. Call Stop() to gracefully shut the worker down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run a sweep immediately on startup
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep deletes registry entries old enough that their refresh tokens must
// have expired. Any entry created more than RefreshTTL ago backs a token
// that can no longer pass verification.
func (s *HousekeepingService) sweep() {
	ctx := context.Background()
	cutoff := time.Now().Add(-s.RefreshTTL)

	n, err := s.Registry.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		s.Logger.Error("registry sweep failed", "error", err)
		return
	}
	s.Logger.Info("registry sweep completed", "deleted", n)
}
