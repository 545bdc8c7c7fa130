package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"rental/internal/domain"
	"rental/internal/repository"
)

// ClaimRepository is a PostgreSQL implementation of repository.ClaimRepository.
type ClaimRepository struct {
	q Querier
}

// NewClaimRepository creates a new PostgreSQL claim repository.
func NewClaimRepository(db *sql.DB) *ClaimRepository {
	return &ClaimRepository{q: db}
}

// NewClaimRepositoryWithTx creates a claim repository using a transaction.
func NewClaimRepositoryWithTx(tx *sql.Tx) *ClaimRepository {
	return &ClaimRepository{q: tx}
}

const claimColumns = `id, trip_id, filer_id, type, amount_cents, deadline, status,
	insurance_backed, paid_currency, paid_rate, paid_rate_decimals,
	paid_cents, unresolved_cents, created_at, closed_at`

// Create persists a new claim.
func (r *ClaimRepository) Create(ctx context.Context, claim *domain.Claim) error {
	query := `
		INSERT INTO claims (id, trip_id, filer_id, type, amount_cents, deadline, status,
			insurance_backed, paid_currency, paid_rate, paid_rate_decimals,
			paid_cents, unresolved_cents, created_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.q.ExecContext(ctx, query,
		claim.ID,
		claim.TripID,
		claim.FilerID,
		claim.Type,
		claim.AmountCents,
		claim.Deadline,
		claim.Status,
		claim.InsuranceBacked,
		claim.PaidRate.Currency,
		claim.PaidRate.Rate,
		claim.PaidRate.Decimals,
		claim.PaidCents,
		claim.UnresolvedCents,
		claim.CreatedAt,
		nullTime(claim.ClosedAt),
	)

	return err
}

// GetByID retrieves a claim by id.
func (r *ClaimRepository) GetByID(ctx context.Context, id string) (*domain.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = $1`

	claim, err := scanClaim(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return claim, nil
}

// Update updates an existing claim.
func (r *ClaimRepository) Update(ctx context.Context, claim *domain.Claim) error {
	query := `
		UPDATE claims SET
			status = $1, paid_currency = $2, paid_rate = $3, paid_rate_decimals = $4,
			paid_cents = $5, unresolved_cents = $6, closed_at = $7
		WHERE id = $8
	`

	result, err := r.q.ExecContext(ctx, query,
		claim.Status,
		claim.PaidRate.Currency,
		claim.PaidRate.Rate,
		claim.PaidRate.Decimals,
		claim.PaidCents,
		claim.UnresolvedCents,
		nullTime(claim.ClosedAt),
		claim.ID,
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

// List retrieves claims matching the filter, newest first.
func (r *ClaimRepository) List(ctx context.Context, filter repository.ClaimFilter) ([]*domain.Claim, error) {
	var (
		conds []string
		args  []any
	)

	if filter.TripID != 0 {
		args = append(args, filter.TripID)
		conds = append(conds, "trip_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + claimColumns + ` FROM claims`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += " LIMIT $" + strconv.Itoa(len(args))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []*domain.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}

	return claims, rows.Err()
}

func scanClaim(row rowScanner) (*domain.Claim, error) {
	var (
		claim    domain.Claim
		closedAt sql.NullTime
	)

	err := row.Scan(
		&claim.ID,
		&claim.TripID,
		&claim.FilerID,
		&claim.Type,
		&claim.AmountCents,
		&claim.Deadline,
		&claim.Status,
		&claim.InsuranceBacked,
		&claim.PaidRate.Currency,
		&claim.PaidRate.Rate,
		&claim.PaidRate.Decimals,
		&claim.PaidCents,
		&claim.UnresolvedCents,
		&claim.CreatedAt,
		&closedAt,
	)
	if err != nil {
		return nil, err
	}

	if closedAt.Valid {
		claim.ClosedAt = closedAt.Time
	}

	return &claim, nil
}

// Ensure ClaimRepository implements repository.ClaimRepository.
var _ repository.ClaimRepository = (*ClaimRepository)(nil)
