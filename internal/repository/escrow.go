package repository

import (
	"context"

	"rental/internal/domain"
)

// EscrowRepository defines the persistence operations for the fund-movement
// ledger and custody balances.
type EscrowRepository interface {
	// Append persists a ledger entry.
	Append(ctx context.Context, entry *domain.EscrowEntry) error

	// ListByTrip retrieves all entries for a trip, oldest first.
	ListByTrip(ctx context.Context, tripID int64) ([]*domain.EscrowEntry, error)

	// Balance returns the custody balance of an account in a currency.
	Balance(ctx context.Context, account, currency string) (int64, error)

	// AdjustBalance applies a signed delta to an account balance, creating
	// the row if absent. Returns the resulting balance.
	AdjustBalance(ctx context.Context, account, currency string, delta int64) (int64, error)
}
