package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"rental/internal/domain"
	"rental/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `id, car_id, host_id, guest_id, status, location,
	scheduled_start, scheduled_end,
	created_at, approved_at, rejected_at, canceled_at,
	host_checkin_at, guest_checkin_at, guest_checkout_at, host_checkout_at, finished_at,
	closed_by, pending_confirm,
	engine_type, engine_params, miles_included_per_day,
	start_fuel_percent, start_odometer, end_fuel_percent, end_odometer, end_recorded,
	currency, rate, rate_decimals,
	day_price_cents, days, tax_cents, deposit_cents, delivery_cents, insurance_cents,
	discount_cents, platform_fee_ppm, escrow_cents, escrow_settled,
	host_earnings_settled, platform_fee_settled, promo_code`

// Create persists a new trip. The trip id comes from the trips sequence so
// ids are assigned monotonically.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (car_id, host_id, guest_id, status, location,
			scheduled_start, scheduled_end, created_at,
			closed_by, pending_confirm,
			engine_type, engine_params, miles_included_per_day,
			start_fuel_percent, start_odometer, end_fuel_percent, end_odometer, end_recorded,
			currency, rate, rate_decimals,
			day_price_cents, days, tax_cents, deposit_cents, delivery_cents, insurance_cents,
			discount_cents, platform_fee_ppm, escrow_cents, escrow_settled,
			host_earnings_settled, platform_fee_settled, promo_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29,
			$30, $31, $32, $33, $34)
		RETURNING id
	`

	p := &trip.Payment
	return r.q.QueryRowContext(ctx, query,
		trip.CarID,
		trip.HostID,
		trip.GuestID,
		trip.Status,
		trip.Location,
		trip.ScheduledStart,
		trip.ScheduledEnd,
		trip.CreatedAt,
		string(trip.ClosedBy),
		trip.PendingConfirm,
		string(trip.EngineType),
		pq.Int64Array(trip.EngineParams),
		trip.MilesIncludedPerDay,
		trip.Usage.StartFuelPercent,
		trip.Usage.StartOdometer,
		trip.Usage.EndFuelPercent,
		trip.Usage.EndOdometer,
		trip.Usage.EndRecorded,
		p.Rate.Currency,
		p.Rate.Rate,
		p.Rate.Decimals,
		p.DayPriceCents,
		p.Days,
		p.TaxCents,
		p.DepositCents,
		p.DeliveryCents,
		p.InsuranceCents,
		p.DiscountCents,
		p.PlatformFeePPM,
		p.EscrowCents,
		p.EscrowSettled,
		p.HostEarningsSettled,
		p.PlatformFeeSettled,
		trip.PromoCode,
	).Scan(&trip.ID)
}

// GetByID retrieves a trip by id.
func (r *TripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips SET
			status = $1,
			approved_at = $2, rejected_at = $3, canceled_at = $4,
			host_checkin_at = $5, guest_checkin_at = $6,
			guest_checkout_at = $7, host_checkout_at = $8, finished_at = $9,
			closed_by = $10, pending_confirm = $11,
			start_fuel_percent = $12, start_odometer = $13,
			end_fuel_percent = $14, end_odometer = $15, end_recorded = $16,
			host_earnings_settled = $17, platform_fee_settled = $18
		WHERE id = $19
	`

	result, err := r.q.ExecContext(ctx, query,
		trip.Status,
		nullTime(trip.ApprovedAt),
		nullTime(trip.RejectedAt),
		nullTime(trip.CanceledAt),
		nullTime(trip.HostCheckinAt),
		nullTime(trip.GuestCheckinAt),
		nullTime(trip.GuestCheckoutAt),
		nullTime(trip.HostCheckoutAt),
		nullTime(trip.FinishedAt),
		string(trip.ClosedBy),
		trip.PendingConfirm,
		trip.Usage.StartFuelPercent,
		trip.Usage.StartOdometer,
		trip.Usage.EndFuelPercent,
		trip.Usage.EndOdometer,
		trip.Usage.EndRecorded,
		trip.Payment.HostEarningsSettled,
		trip.Payment.PlatformFeeSettled,
		trip.ID,
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

// List retrieves trips matching the filter, newest first.
func (r *TripRepository) List(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, cond+"$"+strconv.Itoa(len(args)))
	}

	if filter.Status != "" {
		add("status = ", string(filter.Status))
	}
	if filter.Location != "" {
		add("location = ", filter.Location)
	}
	if !filter.From.IsZero() {
		add("scheduled_start >= ", filter.From)
	}
	if !filter.To.IsZero() {
		add("scheduled_end <= ", filter.To)
	}
	if filter.Party != "" {
		args = append(args, filter.Party)
		n := strconv.Itoa(len(args))
		conds = append(conds, "(guest_id = $"+n+" OR host_id = $"+n+")")
	}
	if filter.Settled != nil {
		if *filter.Settled {
			conds = append(conds, "host_earnings_settled > 0")
		} else {
			conds = append(conds, "host_earnings_settled = 0")
		}
	}

	query := `SELECT ` + tripColumns + ` FROM trips`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id DESC"

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

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// ListActiveByCar retrieves non-terminal trips for a car.
func (r *TripRepository) ListActiveByCar(ctx context.Context, carID string) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips
		WHERE car_id = $1 AND status NOT IN ($2, $3, $4)
		ORDER BY id ASC`

	rows, err := r.q.QueryContext(ctx, query, carID,
		domain.TripStatusFinished, domain.TripStatusRejected, domain.TripStatusCanceled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var (
		trip         domain.Trip
		closedBy     string
		engineParams pq.Int64Array

		approvedAt, rejectedAt, canceledAt sql.NullTime
		hostCheckinAt, guestCheckinAt      sql.NullTime
		guestCheckoutAt, hostCheckoutAt    sql.NullTime
		finishedAt                         sql.NullTime
	)

	p := &trip.Payment
	err := row.Scan(
		&trip.ID,
		&trip.CarID,
		&trip.HostID,
		&trip.GuestID,
		&trip.Status,
		&trip.Location,
		&trip.ScheduledStart,
		&trip.ScheduledEnd,
		&trip.CreatedAt,
		&approvedAt,
		&rejectedAt,
		&canceledAt,
		&hostCheckinAt,
		&guestCheckinAt,
		&guestCheckoutAt,
		&hostCheckoutAt,
		&finishedAt,
		&closedBy,
		&trip.PendingConfirm,
		&trip.EngineType,
		&engineParams,
		&trip.MilesIncludedPerDay,
		&trip.Usage.StartFuelPercent,
		&trip.Usage.StartOdometer,
		&trip.Usage.EndFuelPercent,
		&trip.Usage.EndOdometer,
		&trip.Usage.EndRecorded,
		&p.Rate.Currency,
		&p.Rate.Rate,
		&p.Rate.Decimals,
		&p.DayPriceCents,
		&p.Days,
		&p.TaxCents,
		&p.DepositCents,
		&p.DeliveryCents,
		&p.InsuranceCents,
		&p.DiscountCents,
		&p.PlatformFeePPM,
		&p.EscrowCents,
		&p.EscrowSettled,
		&p.HostEarningsSettled,
		&p.PlatformFeeSettled,
		&trip.PromoCode,
	)
	if err != nil {
		return nil, err
	}

	trip.ClosedBy = domain.Role(closedBy)
	trip.EngineParams = []int64(engineParams)
	if approvedAt.Valid {
		trip.ApprovedAt = approvedAt.Time
	}
	if rejectedAt.Valid {
		trip.RejectedAt = rejectedAt.Time
	}
	if canceledAt.Valid {
		trip.CanceledAt = canceledAt.Time
	}
	if hostCheckinAt.Valid {
		trip.HostCheckinAt = hostCheckinAt.Time
	}
	if guestCheckinAt.Valid {
		trip.GuestCheckinAt = guestCheckinAt.Time
	}
	if guestCheckoutAt.Valid {
		trip.GuestCheckoutAt = guestCheckoutAt.Time
	}
	if hostCheckoutAt.Valid {
		trip.HostCheckoutAt = hostCheckoutAt.Time
	}
	if finishedAt.Valid {
		trip.FinishedAt = finishedAt.Time
	}

	return &trip, nil
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
