package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rental/internal/domain"
)

// IdentityRepository resolves roles and KYC status from the accounts table.
// Account management itself belongs to the external identity system; the
// engine only reads.
type IdentityRepository struct {
	q Querier
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{q: db}
}

// RoleOf returns the account's marketplace role, or RoleNone for unknown
// accounts.
func (r *IdentityRepository) RoleOf(ctx context.Context, accountID string) (domain.Role, error) {
	var role string
	err := r.q.QueryRowContext(ctx,
		`SELECT role FROM accounts WHERE id = $1`, accountID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RoleNone, nil
		}
		return domain.RoleNone, err
	}

	return domain.Role(role), nil
}

// HasValidKYC reports whether the account passed KYC.
func (r *IdentityRepository) HasValidKYC(ctx context.Context, accountID string) (bool, error) {
	var ok bool
	err := r.q.QueryRowContext(ctx,
		`SELECT kyc_valid FROM accounts WHERE id = $1`, accountID).Scan(&ok)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return ok, nil
}
