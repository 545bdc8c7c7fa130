package service

import (
	"context"
	"errors"
	"log"
	"time"

	"rental/internal/domain"
	"rental/internal/repository"
)

// SweepService drives deadline automation. It holds no timers of its own:
// an external scheduler ticks Sweep, which drains every entry due at that
// moment. Each entry is processed in its own transaction, so one poisoned
// trip never blocks the rest of the batch.
type SweepService struct {
	store repository.Store
	trips *TripService
}

// NewSweepService creates a new SweepService.
func NewSweepService(store repository.Store, trips *TripService) *SweepService {
	return &SweepService{store: store, trips: trips}
}

// SweepReport summarizes one tick.
type SweepReport struct {
	Due        int `json:"due"`
	Canceled   int `json:"canceled"`
	CheckedIn  int `json:"checked_in"`
	CheckedOut int `json:"checked_out"`
	Stale      int `json:"stale"`
	Failed     int `json:"failed"`
}

// Sweep processes every automation entry due at now. Entries whose trip
// already advanced are stale and dropped; ticking twice with no new
// deadlines is a no-op.
func (s *SweepService) Sweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	due, err := s.store.Repos().Automation.ListDue(ctx, now)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Due: len(due)}
	for _, entry := range due {
		if err := s.process(ctx, entry, now, report); err != nil {
			report.Failed++
			log.Printf("[SWEEP] trip=%d action=%s failed: %v", entry.TripID, entry.Action, err)
		}
	}
	return report, nil
}

func (s *SweepService) process(ctx context.Context, entry *domain.AutomationEntry, now time.Time, report *SweepReport) error {
	err := s.store.Atomically(ctx, func(r repository.Repos) error {
		switch entry.Action {
		case domain.AutomationCancelUnapproved:
			return s.trips.forceCancel(ctx, r, entry.TripID, now)
		case domain.AutomationForceGuestCheckin:
			return s.trips.forceGuestCheckin(ctx, r, entry.TripID, now)
		case domain.AutomationForceGuestCheckout:
			return s.trips.forceGuestCheckout(ctx, r, entry.TripID, now)
		default:
			return &ValidationError{Field: "action", Reason: "unknown: " + string(entry.Action)}
		}
	})
	if err != nil {
		var conflict *StateConflictError
		if errors.As(err, &conflict) || errors.Is(err, repository.ErrNotFound) {
			// The trip advanced between listing and processing; the entry
			// is stale and must not fire again.
			report.Stale++
			return s.store.Repos().Automation.Delete(ctx, entry.TripID, entry.Action)
		}
		return err
	}

	switch entry.Action {
	case domain.AutomationCancelUnapproved:
		report.Canceled++
	case domain.AutomationForceGuestCheckin:
		report.CheckedIn++
	case domain.AutomationForceGuestCheckout:
		report.CheckedOut++
	}
	return nil
}
