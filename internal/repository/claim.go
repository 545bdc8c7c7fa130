package repository

import (
	"context"

	"rental/internal/domain"
)

// ClaimFilter narrows claim listings. Zero values mean "no constraint".
type ClaimFilter struct {
	TripID int64
	Status domain.ClaimStatus
	Limit  int
}

// ClaimRepository defines the persistence operations for claims.
type ClaimRepository interface {
	// Create persists a new claim.
	Create(ctx context.Context, claim *domain.Claim) error

	// GetByID retrieves a claim by id.
	GetByID(ctx context.Context, id string) (*domain.Claim, error)

	// Update updates an existing claim.
	Update(ctx context.Context, claim *domain.Claim) error

	// List retrieves claims matching the filter, newest first.
	List(ctx context.Context, filter ClaimFilter) ([]*domain.Claim, error)
}
