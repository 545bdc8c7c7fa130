package repository

import (
	"context"
	"time"

	"rental/internal/domain"
)

// AutomationRepository defines the persistence operations for the sweeper's
// work queue.
type AutomationRepository interface {
	// Create schedules a forced transition.
	Create(ctx context.Context, entry *domain.AutomationEntry) error

	// Delete removes the entry for a trip and action. Deleting a missing
	// entry is not an error.
	Delete(ctx context.Context, tripID int64, action domain.AutomationAction) error

	// DeleteAllForTrip removes every entry bound to a trip.
	DeleteAllForTrip(ctx context.Context, tripID int64) error

	// ListDue retrieves all entries whose activation time has passed, oldest
	// first.
	ListDue(ctx context.Context, now time.Time) ([]*domain.AutomationEntry, error)
}
