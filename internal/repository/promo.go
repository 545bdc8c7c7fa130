package repository

import (
	"context"

	"rental/internal/domain"
)

// PromoRepository defines the persistence operations for promo codes and
// their per-account redemption ledger.
type PromoRepository interface {
	// CreateBatch persists a batch of freshly generated codes.
	CreateBatch(ctx context.Context, codes []*domain.PromoCode) error

	// GetByCode retrieves a promo code.
	GetByCode(ctx context.Context, code string) (*domain.PromoCode, error)

	// ConsumeSingleUse atomically decrements a single-use code's remaining
	// uses. Returns false if the code was already exhausted.
	ConsumeSingleUse(ctx context.Context, code string) (bool, error)

	// RecordRedemption inserts an (account, code) redemption row. Returns
	// false if the account already redeemed the code.
	RecordRedemption(ctx context.Context, code, accountID string, tripID int64) (bool, error)

	// HasRedeemed reports whether the account already redeemed the code.
	HasRedeemed(ctx context.Context, code, accountID string) (bool, error)

	// Deactivate turns a code off.
	Deactivate(ctx context.Context, code string) error
}
