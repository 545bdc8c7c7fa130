package postgres

import (
	"context"
	"database/sql"

	"rental/internal/domain"
	"rental/internal/repository"
)

// EscrowRepository is a PostgreSQL implementation of repository.EscrowRepository.
type EscrowRepository struct {
	q Querier
}

// NewEscrowRepository creates a new PostgreSQL escrow repository.
func NewEscrowRepository(db *sql.DB) *EscrowRepository {
	return &EscrowRepository{q: db}
}

// NewEscrowRepositoryWithTx creates an escrow repository using a transaction.
func NewEscrowRepositoryWithTx(tx *sql.Tx) *EscrowRepository {
	return &EscrowRepository{q: tx}
}

// Append persists a ledger entry.
func (r *EscrowRepository) Append(ctx context.Context, entry *domain.EscrowEntry) error {
	query := `
		INSERT INTO escrow_entries (id, trip_id, account, direction, currency, amount, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		entry.ID, entry.TripID, entry.Account, entry.Direction,
		entry.Currency, entry.Amount, entry.Reason, entry.CreatedAt,
	)

	return err
}

// ListByTrip retrieves all entries for a trip, oldest first.
func (r *EscrowRepository) ListByTrip(ctx context.Context, tripID int64) ([]*domain.EscrowEntry, error) {
	query := `
		SELECT id, trip_id, account, direction, currency, amount, reason, created_at
		FROM escrow_entries WHERE trip_id = $1 ORDER BY created_at ASC, id ASC
	`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.EscrowEntry
	for rows.Next() {
		var e domain.EscrowEntry
		if err := rows.Scan(
			&e.ID, &e.TripID, &e.Account, &e.Direction,
			&e.Currency, &e.Amount, &e.Reason, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// Balance returns the custody balance of an account in a currency.
func (r *EscrowRepository) Balance(ctx context.Context, account, currency string) (int64, error) {
	query := `
		SELECT COALESCE(
			(SELECT balance FROM custody_balances WHERE account = $1 AND currency = $2), 0)
	`

	var balance int64
	if err := r.q.QueryRowContext(ctx, query, account, currency).Scan(&balance); err != nil {
		return 0, err
	}

	return balance, nil
}

// AdjustBalance applies a signed delta to an account balance, creating the
// row if absent. Returns the resulting balance.
func (r *EscrowRepository) AdjustBalance(ctx context.Context, account, currency string, delta int64) (int64, error) {
	query := `
		INSERT INTO custody_balances (account, currency, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (account, currency) DO UPDATE SET balance = custody_balances.balance + $3
		RETURNING balance
	`

	var balance int64
	if err := r.q.QueryRowContext(ctx, query, account, currency, delta).Scan(&balance); err != nil {
		return 0, err
	}

	return balance, nil
}

// Ensure EscrowRepository implements repository.EscrowRepository.
var _ repository.EscrowRepository = (*EscrowRepository)(nil)
