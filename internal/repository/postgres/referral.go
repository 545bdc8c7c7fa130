package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rental/internal/domain"
	"rental/internal/repository"
)

// ReferralRepository is a PostgreSQL implementation of repository.ReferralRepository.
type ReferralRepository struct {
	q Querier
}

// NewReferralRepository creates a new PostgreSQL referral repository.
func NewReferralRepository(db *sql.DB) *ReferralRepository {
	return &ReferralRepository{q: db}
}

// NewReferralRepositoryWithTx creates a referral repository using a transaction.
func NewReferralRepositoryWithTx(tx *sql.Tx) *ReferralRepository {
	return &ReferralRepository{q: tx}
}

// Create persists a new referral account.
func (r *ReferralRepository) Create(ctx context.Context, acct *domain.ReferralAccount) error {
	query := `
		INSERT INTO referral_accounts (account_id, hash, referrer_hash,
			pending_points, settled_points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		acct.AccountID, acct.Hash, acct.ReferrerHash,
		acct.PendingPoints, acct.SettledPoints, acct.CreatedAt,
	)

	return err
}

// GetByAccount retrieves the referral record for an account.
func (r *ReferralRepository) GetByAccount(ctx context.Context, accountID string) (*domain.ReferralAccount, error) {
	return r.get(ctx, `WHERE account_id = $1`, accountID)
}

// GetByHash retrieves the referral record owning a hash.
func (r *ReferralRepository) GetByHash(ctx context.Context, hash string) (*domain.ReferralAccount, error) {
	return r.get(ctx, `WHERE hash = $1`, hash)
}

func (r *ReferralRepository) get(ctx context.Context, where, arg string) (*domain.ReferralAccount, error) {
	query := `
		SELECT account_id, hash, referrer_hash, pending_points, settled_points, created_at
		FROM referral_accounts ` + where

	var acct domain.ReferralAccount
	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&acct.AccountID, &acct.Hash, &acct.ReferrerHash,
		&acct.PendingPoints, &acct.SettledPoints, &acct.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &acct, nil
}

// AddPending accrues points to the hash owner's pending balance.
func (r *ReferralRepository) AddPending(ctx context.Context, hash string, points int64) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE referral_accounts SET pending_points = pending_points + $1 WHERE hash = $2`,
		points, hash,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SettlePending moves the full pending balance to settled and returns the
// amount moved. Claiming with nothing pending moves zero.
func (r *ReferralRepository) SettlePending(ctx context.Context, accountID string) (int64, error) {
	query := `
		WITH before AS (
			SELECT pending_points FROM referral_accounts
			WHERE account_id = $1 FOR UPDATE
		)
		UPDATE referral_accounts a
		SET settled_points = a.settled_points + b.pending_points, pending_points = 0
		FROM before b
		WHERE a.account_id = $1
		RETURNING b.pending_points
	`

	var moved int64
	if err := r.q.QueryRowContext(ctx, query, accountID).Scan(&moved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}

	return moved, nil
}

// Ensure ReferralRepository implements repository.ReferralRepository.
var _ repository.ReferralRepository = (*ReferralRepository)(nil)
