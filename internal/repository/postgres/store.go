package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rental/internal/repository"
)

// Store is the PostgreSQL implementation of repository.Store.
type Store struct {
	db *sql.DB
}

// NewStore creates a new PostgreSQL store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Repos returns repositories bound to the connection pool.
func (s *Store) Repos() repository.Repos {
	return repository.Repos{
		Trips:      NewTripRepository(s.db),
		Claims:     NewClaimRepository(s.db),
		Promos:     NewPromoRepository(s.db),
		Referrals:  NewReferralRepository(s.db),
		Automation: NewAutomationRepository(s.db),
		Escrow:     NewEscrowRepository(s.db),
	}
}

// Atomically runs fn against repositories bound to one transaction.
func (s *Store) Atomically(ctx context.Context, fn func(r repository.Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	repos := repository.Repos{
		Trips:      NewTripRepositoryWithTx(tx),
		Claims:     NewClaimRepositoryWithTx(tx),
		Promos:     NewPromoRepositoryWithTx(tx),
		Referrals:  NewReferralRepositoryWithTx(tx),
		Automation: NewAutomationRepositoryWithTx(tx),
		Escrow:     NewEscrowRepositoryWithTx(tx),
	}

	if err := fn(repos); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// Ensure Store implements repository.Store.
var _ repository.Store = (*Store)(nil)
