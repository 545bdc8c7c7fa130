package repository

import "context"

// Repos groups every repository behind a single consistency scope.
type Repos struct {
	Trips      TripRepository
	Claims     ClaimRepository
	Promos     PromoRepository
	Referrals  ReferralRepository
	Automation AutomationRepository
	Escrow     EscrowRepository
}

// Store hands out repositories and runs multi-repository work atomically.
// Every state transition that moves funds goes through Atomically so the
// status change, the ledger rows, and the custody balances commit or roll
// back as one unit.
type Store interface {
	// Repos returns repositories bound to the base connection.
	Repos() Repos

	// Atomically runs fn against repositories bound to one transaction. Any
	// error from fn discards the whole scope.
	Atomically(ctx context.Context, fn func(r Repos) error) error
}
