package service

import (
	"context"

	"rental/internal/domain"
)

// IdentityService is the boundary to the external identity/role system. The
// engine consults it before booking, approval, claim filing, and admin-gated
// operations; it never calls back into the engine.
type IdentityService interface {
	RoleOf(ctx context.Context, accountID string) (domain.Role, error)
	HasValidKYC(ctx context.Context, accountID string) (bool, error)
}

// CarCatalog is the boundary to the external vehicle catalog. Reads are
// point-in-time snapshots: catalog updates after booking never change an
// in-flight trip's economics.
type CarCatalog interface {
	Car(ctx context.Context, carID string) (*domain.CarSnapshot, error)
}

// RateOracle supplies (rate, decimals) for converting USD cents into a
// settlement currency. Consulted exactly twice per trip lifetime: at creation
// and, for disputes, at claim payment.
type RateOracle interface {
	RateOf(ctx context.Context, currency string) (domain.RateSnapshot, error)
}

// FundCustody moves funds between accounts. Both operations must be atomic
// with the state transition that calls them; a failure aborts the whole
// transition.
type FundCustody interface {
	Debit(ctx context.Context, account, currency string, amount int64) error
	Credit(ctx context.Context, account, currency string, amount int64) error
}
