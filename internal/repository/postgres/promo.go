package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"rental/internal/domain"
	"rental/internal/repository"
)

// PromoRepository is a PostgreSQL implementation of repository.PromoRepository.
type PromoRepository struct {
	q Querier
}

// NewPromoRepository creates a new PostgreSQL promo repository.
func NewPromoRepository(db *sql.DB) *PromoRepository {
	return &PromoRepository{q: db}
}

// NewPromoRepositoryWithTx creates a promo repository using a transaction.
func NewPromoRepositoryWithTx(tx *sql.Tx) *PromoRepository {
	return &PromoRepository{q: tx}
}

// CreateBatch persists a batch of freshly generated codes.
func (r *PromoRepository) CreateBatch(ctx context.Context, codes []*domain.PromoCode) error {
	query := `
		INSERT INTO promo_codes (code, batch_id, kind, percent_off, waiver,
			valid_from, valid_until, active, remaining_uses, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, c := range codes {
		if _, err := r.q.ExecContext(ctx, query,
			c.Code, c.BatchID, c.Kind, c.PercentOff, c.Waiver,
			c.ValidFrom, c.ValidUntil, c.Active, c.RemainingUses, c.CreatedAt,
		); err != nil {
			return err
		}
	}

	return nil
}

// GetByCode retrieves a promo code.
func (r *PromoRepository) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	query := `
		SELECT code, batch_id, kind, percent_off, waiver,
			valid_from, valid_until, active, remaining_uses, created_at
		FROM promo_codes WHERE code = $1
	`

	var c domain.PromoCode
	err := r.q.QueryRowContext(ctx, query, code).Scan(
		&c.Code, &c.BatchID, &c.Kind, &c.PercentOff, &c.Waiver,
		&c.ValidFrom, &c.ValidUntil, &c.Active, &c.RemainingUses, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &c, nil
}

// ConsumeSingleUse atomically decrements a single-use code's remaining uses.
// The WHERE guard makes the check-and-set a single statement, so concurrent
// bookings cannot both consume the last use.
func (r *PromoRepository) ConsumeSingleUse(ctx context.Context, code string) (bool, error) {
	query := `
		UPDATE promo_codes SET remaining_uses = remaining_uses - 1
		WHERE code = $1 AND remaining_uses > 0
	`

	result, err := r.q.ExecContext(ctx, query, code)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// RecordRedemption inserts an (account, code) redemption row. The unique
// constraint on (code, account_id) enforces one redemption per account.
func (r *PromoRepository) RecordRedemption(ctx context.Context, code, accountID string, tripID int64) (bool, error) {
	query := `
		INSERT INTO promo_redemptions (code, account_id, trip_id, redeemed_at)
		VALUES ($1, $2, $3, NOW())
	`

	_, err := r.q.ExecContext(ctx, query, code, accountID, tripID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// HasRedeemed reports whether the account already redeemed the code.
func (r *PromoRepository) HasRedeemed(ctx context.Context, code, accountID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM promo_redemptions WHERE code = $1 AND account_id = $2)`

	var exists bool
	if err := r.q.QueryRowContext(ctx, query, code, accountID).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// Deactivate turns a code off.
func (r *PromoRepository) Deactivate(ctx context.Context, code string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE promo_codes SET active = FALSE WHERE code = $1`, code)
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

// Ensure PromoRepository implements repository.PromoRepository.
var _ repository.PromoRepository = (*PromoRepository)(nil)
