package postgres

import (
	"context"
	"database/sql"
	"time"

	"rental/internal/domain"
	"rental/internal/repository"
)

// AutomationRepository is a PostgreSQL implementation of
// repository.AutomationRepository.
type AutomationRepository struct {
	q Querier
}

// NewAutomationRepository creates a new PostgreSQL automation repository.
func NewAutomationRepository(db *sql.DB) *AutomationRepository {
	return &AutomationRepository{q: db}
}

// NewAutomationRepositoryWithTx creates an automation repository using a transaction.
func NewAutomationRepositoryWithTx(tx *sql.Tx) *AutomationRepository {
	return &AutomationRepository{q: tx}
}

// Create schedules a forced transition.
func (r *AutomationRepository) Create(ctx context.Context, entry *domain.AutomationEntry) error {
	query := `
		INSERT INTO automation_entries (trip_id, action, activate_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (trip_id, action) DO UPDATE SET activate_at = EXCLUDED.activate_at
	`

	_, err := r.q.ExecContext(ctx, query, entry.TripID, entry.Action, entry.ActivateAt)
	return err
}

// Delete removes the entry for a trip and action.
func (r *AutomationRepository) Delete(ctx context.Context, tripID int64, action domain.AutomationAction) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM automation_entries WHERE trip_id = $1 AND action = $2`,
		tripID, action,
	)
	return err
}

// DeleteAllForTrip removes every entry bound to a trip.
func (r *AutomationRepository) DeleteAllForTrip(ctx context.Context, tripID int64) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM automation_entries WHERE trip_id = $1`, tripID)
	return err
}

// ListDue retrieves all entries whose activation time has passed, oldest first.
func (r *AutomationRepository) ListDue(ctx context.Context, now time.Time) ([]*domain.AutomationEntry, error) {
	query := `
		SELECT trip_id, action, activate_at FROM automation_entries
		WHERE activate_at <= $1 ORDER BY activate_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.AutomationEntry
	for rows.Next() {
		var e domain.AutomationEntry
		if err := rows.Scan(&e.TripID, &e.Action, &e.ActivateAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// Ensure AutomationRepository implements repository.AutomationRepository.
var _ repository.AutomationRepository = (*AutomationRepository)(nil)
