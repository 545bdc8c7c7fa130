package repository

import (
	"context"

	"rental/internal/domain"
)

// ReferralRepository defines the persistence operations for referral accounts.
type ReferralRepository interface {
	// Create persists a new referral account.
	Create(ctx context.Context, acct *domain.ReferralAccount) error

	// GetByAccount retrieves the referral record for an account.
	GetByAccount(ctx context.Context, accountID string) (*domain.ReferralAccount, error)

	// GetByHash retrieves the referral record owning a hash.
	GetByHash(ctx context.Context, hash string) (*domain.ReferralAccount, error)

	// AddPending accrues points to the hash owner's pending balance.
	AddPending(ctx context.Context, hash string, points int64) error

	// SettlePending moves the full pending balance to settled and returns the
	// amount moved.
	SettlePending(ctx context.Context, accountID string) (int64, error)
}
