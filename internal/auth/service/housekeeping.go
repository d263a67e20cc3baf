package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sprintdeck/sprintdeck/internal/auth/store"
)

// HousekeepingService periodically removes expired token slots and
// invitations. This is purely cosmetic for the database: expiry is
// always enforced at consumption time, so the service can run at any
// cadence (or not at all) without affecting correctness.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A zero
// interval defaults to one hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background cleanup loop. One cleanup runs
// immediately; subsequent runs follow the configured interval.
func (s *HousekeepingService) Start() {
	go s.run()
}

// Stop signals the loop to exit and waits for the in-flight cleanup to
// finish.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	s.cleanup()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Store.Users().DeleteExpiredTokenSlots(ctx); err != nil {
		s.Logger.Warn("failed to delete expired token slots", slog.Any("error", err))
	}
	if err := s.Store.Invitations().DeleteExpiredInvitations(ctx); err != nil {
		s.Logger.Warn("failed to delete expired invitations", slog.Any("error", err))
	}
}
