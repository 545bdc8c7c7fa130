package repository

import (
	"context"
	"time"

	"rental/internal/domain"
)

// TripFilter narrows admin trip listings. Zero values mean "no constraint".
type TripFilter struct {
	Status   domain.TripStatus
	Location string
	From     time.Time
	To       time.Time
	Settled  *bool

	// Party restricts to trips where the account is guest or host.
	Party string

	Limit int
}

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip and assigns its monotonically increasing id.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by id.
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// List retrieves trips matching the filter, newest first.
	List(ctx context.Context, filter TripFilter) ([]*domain.Trip, error)

	// ListActiveByCar retrieves non-terminal trips for a car, for overlap
	// detection.
	ListActiveByCar(ctx context.Context, carID string) ([]*domain.Trip, error)
}
