package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"rental/internal/domain"
	"rental/internal/repository"
)

// CatalogRepository reads vehicle snapshots from the catalog tables. The
// catalog itself is owned by another system; the engine only ever takes
// point-in-time reads at booking.
type CatalogRepository struct {
	q Querier
}

// NewCatalogRepository creates a new PostgreSQL catalog repository.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{q: db}
}

// Car retrieves the current snapshot of a vehicle.
func (r *CatalogRepository) Car(ctx context.Context, carID string) (*domain.CarSnapshot, error) {
	query := `
		SELECT id, owner_id, location, day_price_cents, deposit_cents,
			engine_type, engine_params, miles_included_per_day, buffer_seconds, is_listed
		FROM cars WHERE id = $1
	`

	var (
		car    domain.CarSnapshot
		params pq.Int64Array
	)

	err := r.q.QueryRowContext(ctx, query, carID).Scan(
		&car.ID,
		&car.OwnerID,
		&car.Location,
		&car.DayPriceCents,
		&car.DepositCents,
		&car.EngineType,
		&params,
		&car.MilesIncludedPerDay,
		&car.BufferSeconds,
		&car.IsListed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	car.EngineParams = []int64(params)
	return &car, nil
}
