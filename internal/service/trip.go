package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rental/internal/domain"
	"rental/internal/redis"
	"rental/internal/repository"
)

// carLockTTL bounds how long a booking may hold a car's lock.
const carLockTTL = 10 * time.Second

// TripConfig carries the lifecycle deadlines and the flat insurance premium.
type TripConfig struct {
	// ApprovalWindow is how long a booking may sit unapproved before the
	// sweeper cancels it with a full refund.
	ApprovalWindow time.Duration

	// GuestCheckinWindow is how long after host check-in the guest has to
	// check in before the sweeper forces the transition.
	GuestCheckinWindow time.Duration

	// CheckinLead is how early before the scheduled start the host may
	// check the car in.
	CheckinLead time.Duration

	// ClaimWindow is how long after checkout either party may file a claim.
	ClaimWindow time.Duration

	InsurancePremiumCents int64
}

// DefaultTripConfig returns the platform's standard deadlines.
func DefaultTripConfig() TripConfig {
	return TripConfig{
		ApprovalWindow:        24 * time.Hour,
		GuestCheckinWindow:    6 * time.Hour,
		CheckinLead:           time.Hour,
		ClaimWindow:           72 * time.Hour,
		InsurancePremiumCents: 1500,
	}
}

// TripService is the authoritative lifecycle controller. Every transition is
// validated against the caller's role and the trip's current state, and every
// fund movement commits atomically with the status change that caused it.
type TripService struct {
	store     repository.Store
	identity  IdentityService
	catalog   CarCatalog
	oracle    RateOracle
	pricing   *PricingEngine
	insurance *InsuranceTable
	notifier  *NotificationService
	locks     redis.LockStoreInterface
	points    PointTable
	cfg       TripConfig

	now func() time.Time
}

// NewTripService creates a new TripService.
func NewTripService(
	store repository.Store,
	identity IdentityService,
	catalog CarCatalog,
	oracle RateOracle,
	pricing *PricingEngine,
	insurance *InsuranceTable,
	notifier *NotificationService,
	locks redis.LockStoreInterface,
	cfg TripConfig,
) *TripService {
	return &TripService{
		store:     store,
		identity:  identity,
		catalog:   catalog,
		oracle:    oracle,
		pricing:   pricing,
		insurance: insurance,
		notifier:  notifier,
		locks:     locks,
		points:    DefaultPointTable(),
		cfg:       cfg,
		now:       time.Now,
	}
}

// BookTripRequest contains the parameters for creating a booking.
type BookTripRequest struct {
	GuestID string
	CarID   string

	Start time.Time
	End   time.Time

	// Currency is the settlement currency; its rate snapshot is frozen here
	// for the trip's whole lifetime.
	Currency string

	DeliveryCents int64

	// SkipInsurance is set when the guest carries equivalent coverage of
	// their own.
	SkipInsurance bool

	PromoCode string
}

// Book creates a trip in CREATED, debits the full quote from the guest into
// escrow, and schedules the approval deadline. The promo code, if any, is
// consumed in the same transaction: a failed booking never burns a code.
func (s *TripService) Book(ctx context.Context, req BookTripRequest) (*domain.Trip, error) {
	now := s.now()

	if !req.End.After(req.Start) {
		return nil, &ValidationError{Field: "scheduledEnd", Reason: "must be after scheduledStart"}
	}
	if req.Start.Before(now) {
		return nil, &ValidationError{Field: "scheduledStart", Reason: "must not be in the past"}
	}
	if req.DeliveryCents < 0 {
		return nil, &ValidationError{Field: "deliveryCents", Reason: "must not be negative"}
	}

	kyc, err := s.identity.HasValidKYC(ctx, req.GuestID)
	if err != nil {
		return nil, err
	}
	if !kyc {
		return nil, &AuthorizationError{Op: "book", Account: req.GuestID, Role: domain.RoleGuest}
	}

	car, err := s.catalog.Car(ctx, req.CarID)
	if err != nil {
		return nil, err
	}
	if !car.IsListed {
		return nil, &ValidationError{Field: "carID", Reason: "car is not listed"}
	}
	if car.OwnerID == req.GuestID {
		return nil, &ValidationError{Field: "carID", Reason: "cannot book own car"}
	}

	rate, err := s.oracle.RateOf(ctx, req.Currency)
	if err != nil {
		return nil, err
	}

	days := tripDays(req.Start, req.End)

	// The car lock narrows the race between two guests booking the same
	// window; the overlap check inside the transaction stays authoritative.
	if s.locks != nil {
		locked, err := s.locks.AcquireCarLock(ctx, req.CarID, carLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, &ScheduleConflictError{CarID: req.CarID}
		}
		defer func() { _ = s.locks.ReleaseCarLock(ctx, req.CarID) }()
	}

	var trip *domain.Trip
	err = s.store.Atomically(ctx, func(r repository.Repos) error {
		siblings, err := r.Trips.ListActiveByCar(ctx, req.CarID)
		if err != nil {
			return err
		}
		for _, sib := range siblings {
			if sib.Status != domain.TripStatusCreated && sib.Overlaps(req.Start, req.End, car.Buffer()) {
				return &ScheduleConflictError{CarID: req.CarID, ConflictingTripID: sib.ID}
			}
		}

		promos := NewPromoService(r.Promos)
		var promo *domain.PromoCode
		if req.PromoCode != "" {
			promo, err = promos.Validate(ctx, req.PromoCode, req.GuestID, now)
			if err != nil {
				return err
			}
		}

		quote, err := s.pricing.Quote(QuoteInput{
			Car:            car,
			Days:           days,
			DeliveryCents:  req.DeliveryCents,
			SkipInsurance:  req.SkipInsurance,
			InsuranceCents: s.cfg.InsurancePremiumCents,
			Promo:          promo,
			Jurisdiction:   car.Location,
		})
		if err != nil {
			return err
		}

		trip = &domain.Trip{
			CarID:   req.CarID,
			HostID:  car.OwnerID,
			GuestID: req.GuestID,
			Status:  domain.TripStatusCreated,

			Location:       car.Location,
			ScheduledStart: req.Start,
			ScheduledEnd:   req.End,
			CreatedAt:      now,
			ClosedBy:       domain.RoleNone,

			EngineType:          car.EngineType,
			EngineParams:        car.EngineParams,
			MilesIncludedPerDay: car.MilesIncludedPerDay,

			Payment: domain.PaymentInfo{
				Rate:           rate,
				DayPriceCents:  car.DayPriceCents,
				Days:           days,
				TaxCents:       quote.TaxCents,
				DepositCents:   quote.DepositCents,
				DeliveryCents:  quote.DeliveryCents,
				InsuranceCents: quote.InsuranceCents,
				DiscountCents:  quote.DiscountCents,
				PlatformFeePPM: s.pricing.PlatformFeePPM(),
				EscrowCents:    quote.TotalCents,
				EscrowSettled:  rate.Convert(quote.TotalCents),
			},
			PromoCode: req.PromoCode,
		}

		if err := r.Trips.Create(ctx, trip); err != nil {
			return err
		}

		if promo != nil {
			if _, err := promos.Redeem(ctx, req.PromoCode, req.GuestID, trip.ID, now); err != nil {
				return err
			}
		}

		custody := NewLedgerCustody(r.Escrow)
		settled := trip.Payment.EscrowSettled
		if err := custody.Debit(ctx, req.GuestID, rate.Currency, settled); err != nil {
			return err
		}
		if err := custody.Credit(ctx, domain.AccountEscrow, rate.Currency, settled); err != nil {
			return err
		}
		if err := appendEntry(ctx, r.Escrow, trip.ID, req.GuestID,
			domain.EscrowDirectionDebit, rate.Currency, settled, "escrow funding", now); err != nil {
			return err
		}

		return r.Automation.Create(ctx, &domain.AutomationEntry{
			TripID:     trip.ID,
			Action:     domain.AutomationCancelUnapproved,
			ActivateAt: now.Add(s.cfg.ApprovalWindow),
		})
	})
	if err != nil {
		return nil, err
	}

	_ = s.notifier.NotifyBookingRequested(ctx, trip)
	return trip, nil
}

// QuoteTrip prices a booking without creating it. The promo code is checked
// but not consumed; the quote is only honored at booking if the code is
// still redeemable then.
func (s *TripService) QuoteTrip(ctx context.Context, req BookTripRequest) (*Quote, error) {
	if !req.End.After(req.Start) {
		return nil, &ValidationError{Field: "scheduledEnd", Reason: "must be after scheduledStart"}
	}
	if req.DeliveryCents < 0 {
		return nil, &ValidationError{Field: "deliveryCents", Reason: "must not be negative"}
	}

	car, err := s.catalog.Car(ctx, req.CarID)
	if err != nil {
		return nil, err
	}

	if _, err := s.oracle.RateOf(ctx, req.Currency); err != nil {
		return nil, err
	}

	var promo *domain.PromoCode
	if req.PromoCode != "" {
		promos := NewPromoService(s.store.Repos().Promos)
		promo, err = promos.Validate(ctx, req.PromoCode, req.GuestID, s.now())
		if err != nil {
			return nil, err
		}
	}

	return s.pricing.Quote(QuoteInput{
		Car:            car,
		Days:           tripDays(req.Start, req.End),
		DeliveryCents:  req.DeliveryCents,
		SkipInsurance:  req.SkipInsurance,
		InsuranceCents: s.cfg.InsurancePremiumCents,
		Promo:          promo,
		Jurisdiction:   car.Location,
	})
}

// Approve moves a trip to APPROVED. Unapproved requests whose windows would
// now conflict are canceled with a full refund in the same transaction; a
// conflict with another approved trip blocks the approval instead.
func (s *TripService) Approve(ctx context.Context, tripID int64, actorID string) (*domain.Trip, error) {
	now := s.now()

	var trip *domain.Trip
	err := s.store.Atomically(ctx, func(r repository.Repos) error {
		var err error
		trip, err = r.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		if err := s.authorizeParty(ctx, "approve", actorID, trip.HostID); err != nil {
			return err
		}
		if trip.Status != domain.TripStatusCreated {
			return &StateConflictError{Op: "approve", Current: string(trip.Status), Required: string(domain.TripStatusCreated)}
		}

		car, err := s.catalog.Car(ctx, trip.CarID)
		if err != nil {
			return err
		}

		siblings, err := r.Trips.ListActiveByCar(ctx, trip.CarID)
		if err != nil {
			return err
		}
		for _, sib := range siblings {
			if sib.ID == trip.ID || !sib.Overlaps(trip.ScheduledStart, trip.ScheduledEnd, car.Buffer()) {
				continue
			}
			if sib.Status != domain.TripStatusCreated {
				return &ScheduleConflictError{CarID: trip.CarID, ConflictingTripID: sib.ID}
			}
			if err := s.refundAndClose(ctx, r, sib, domain.TripStatusCanceled, domain.RoleSystem, now); err != nil {
				return err
			}
		}

		trip.Status = domain.TripStatusApproved
		trip.ApprovedAt = now
		if err := r.Automation.Delete(ctx, trip.ID, domain.AutomationCancelUnapproved); err != nil {
			return err
		}
		return r.Trips.Update(ctx, trip)
	})
	if err != nil {
		return nil, err
	}

	_ = s.notifier.NotifyTripApproved(ctx, trip)
	return trip, nil
}

// Reject declines a booking request. Host only, CREATED only; the guest's
// escrow is returned in full.
func (s *TripService) Reject(ctx context.Context, tripID int64, actorID string) (*domain.Trip, error) {
	return s.close(ctx, "reject", tripID, actorID, domain.TripStatusRejected)
}

// Cancel closes a trip before pickup. Either party may cancel from CREATED
// or APPROVED; the guest's escrow is returned in full.
func (s *TripService) Cancel(ctx context.Context, tripID int64, actorID string) (*domain.Trip, error) {
	return s.close(ctx, "cancel", tripID, actorID, domain.TripStatusCanceled)
}

func (s *TripService) close(ctx context.Context, op string, tripID int64, actorID string, target domain.TripStatus) (*domain.Trip, error) {
	now := s.now()

	var trip *domain.Trip
	err := s.store.Atomically(ctx, func(r repository.Repos) error {
		var err error
		trip, err = r.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}

		closer := domain.RoleNone
		switch actorID {
		case trip.HostID:
			closer = domain.RoleHost
		case trip.GuestID:
			if target == domain.TripStatusRejected {
				// Rejection is the host declining; guests cancel.
				return &AuthorizationError{Op: op, Account: actorID, Role: domain.RoleGuest}
			}
			closer = domain.RoleGuest
		default:
			role, err := s.identity.RoleOf(ctx, actorID)
			if err != nil {
				return err
			}
			if role != domain.RoleAdmin {
				return &AuthorizationError{Op: op, Account: actorID, Role: role}
			}
			closer = domain.RoleAdmin
		}

		switch trip.Status {
		case domain.TripStatusCreated:
		case domain.TripStatusApproved:
			if target == domain.TripStatusRejected {
				return &StateConflictError{Op: op, Current: string(trip.Status), Required: string(domain.TripStatusCreated)}
			}
		default:
			return &StateConflictError{Op: op, Current: string(trip.Status),
				Required: string(domain.TripStatusCreated) + " or " + string(domain.TripStatusApproved)}
		}

		return s.refundAndClose(ctx, r, trip, target, closer, now)
	})
	if err != nil {
		return nil, err
	}

	_ = s.notifier.NotifyTripClosed(ctx, trip)
	return trip, nil
}

// CheckinHost records the host handing the car over, with the pickup
// readings, and starts the guest's check-in deadline.
func (s *TripService) CheckinHost(ctx context.Context, tripID int64, actorID string, start Reading) (*domain.Trip, error) {
	now := s.now()

	var trip *domain.Trip
	err := s.store.Atomically(ctx, func(r repository.Repos) error {
		var err error
		trip, err = r.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		if err := s.authorizeParty(ctx, "checkin_host", actorID, trip.HostID); err != nil {
			return err
		}
		if trip.Status != domain.TripStatusApproved {
			return &StateConflictError{Op: "checkin_host", Current: string(trip.Status), Required: string(domain.TripStatusApproved)}
		}
		if now.Before(trip.ScheduledStart.Add(-s.cfg.CheckinLead)) {
			return &ValidationError{Field: "checkinTime", Reason: "before pickup window"}
		}
		if now.After(trip.ScheduledEnd) {
			return &ValidationError{Field: "checkinTime", Reason: "after scheduled end"}
		}
		if err := verifyTripReading(trip, "start", start); err != nil {
			return err
		}

		trip.Status = domain.TripStatusCheckedInByHost
		trip.HostCheckinAt = now
		trip.Usage.StartFuelPercent = start.FuelPercent
		trip.Usage.StartOdometer = start.Odometer

		if err := r.Automation.Create(ctx, &domain.AutomationEntry{
			TripID:     trip.ID,
			Action:     domain.AutomationForceGuestCheckin,
			ActivateAt: now.Add(s.cfg.GuestCheckinWindow),
		}); err != nil {
			return err
		}
		return r.Trips.Update(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// CheckinGuest records the guest taking the car. The guest's readings
// override the host's and become the settlement baseline.
func (s *TripService) CheckinGuest(ctx context.Context, tripID int64, actorID string, start Reading) (*domain.Trip, error) {
	now := s.now()

	var trip *domain.Trip
	err := s.store.Atomically(ctx, func(r repository.Repos) error {
		var err error
		trip, err = r.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		if err := s.authorizeParty(ctx, "checkin_guest", actorID, trip.GuestID); err != nil {
			return err
		}
		if trip.Status != domain.TripStatusCheckedInByHost {
			return &StateConflictError{Op: "checkin_guest", Current: string(trip.Status), Required: string(domain.TripStatusCheckedInByHost)}
		}
		if err := verifyTripReading(trip, "start", start); err != nil {
			return err
		}

		trip.Status = domain.TripStatusCheckedInByGuest
		trip.GuestCheckinAt = now
		trip.Usage.StartFuelPercent = start.FuelPercent
		trip.Usage.StartOdometer = start.Odometer

		if err := r.Automation.Delete(ctx, trip.ID, domain.AutomationForceGuestCheckin); err != nil {
			return err
		}
		if err := r.Automation.Create(ctx, &domain.AutomationEntry{
			TripID:     trip.ID,
			Action:     domain.AutomationForceGuestCheckout,
			ActivateAt: trip.ScheduledEnd,
		}); err != nil {
			return err
		}
		return r.Trips.Update(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// CheckoutGuest records the guest returning the car with the end readings
// that drive the usage adjustment at settlement.
func (s *TripService) CheckoutGuest(ctx context.Context, tripID int64, actorID string, end Reading) (*domain.Trip, error) {
	now := s.now()

	var trip *domain.Trip
	err := s.store.Atomically(ctx, func(r repository.Repos) error {
		var err error
		trip, err = r.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		if err := s.authorizeParty(ctx, "checkout_guest", actorID, trip.GuestID); err != nil {
			return err
		}
		if trip.Status != domain.TripStatusCheckedInByGuest {
			return &StateConflictError{Op: "checkout_guest", Current: string(trip.Status), Required: string(domain.TripStatusCheckedInByGuest)}
		}
		if err := verifyTripReading(trip, "end", end); err != nil {
			return err
		}
		if end.Odometer < trip.Usage.StartOdometer {
			return &ValidationError{Field: "endOdometer", Reason: "below check-in reading"}
		}

		trip.Status = domain.TripStatusCheckedOutByGuest
		trip.GuestCheckoutAt = now
		trip.Usage.EndFuelPercent = end.FuelPercent
		trip.Usage.EndOdometer = end.Odometer
		trip.Usage.EndRecorded = true

		if err := r.Automation.Delete(ctx, trip.ID, domain.AutomationForceGuestCheckout); err != nil {
			return err
		}
		return r.Trips.Update(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// CheckoutHost records the host receiving the car back. Taken directly from
// CHECKED_IN_BY_HOST it is the no-show shortcut: the trip is flagged for
// guest or admin confirmation and the usage adjustment defaults to zero.
func (s *TripService) CheckoutHost(ctx context.Context, tripID int64, actorID string) (*domain.Trip, error) {
	now := s.now()

	var trip *domain.Trip
	err := s.store.Atomically(ctx, func(r repository.Repos) error {
		var err error
		trip, err = r.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		if err := s.authorizeParty(ctx, "checkout_host", actorID, trip.HostID); err != nil {
			return err
		}

		switch trip.Status {
		case domain.TripStatusCheckedOutByGuest:
		case domain.TripStatusCheckedInByHost:
			trip.PendingConfirm = true
		default:
			return &StateConflictError{Op: "checkout_host", Current: string(trip.Status),
				Required: string(domain.TripStatusCheckedOutByGuest) + " or " + string(domain.TripStatusCheckedInByHost)}
		}

		trip.Status = domain.TripStatusCheckedOutByHost
		trip.HostCheckoutAt = now

		if err := r.Automation.DeleteAllForTrip(ctx, trip.ID); err != nil {
			return err
		}
		return r.Trips.Update(ctx, trip)
	})
	if err != nil {
		return nil, err
	}

	if trip.PendingConfirm {
		_ = s.notifier.NotifyConfirmRequired(ctx, trip)
	}
	return trip, nil
}

// ConfirmCheckout is the guest's (or an admin's) acknowledgement of a
// host-side checkout, unblocking settlement.
func (s *TripService) ConfirmCheckout(ctx context.Context, tripID int64, actorID string) (*domain.Trip, error) {
	var trip *domain.Trip
	err := s.store.Atomically(ctx, func(r repository.Repos) error {
		var err error
		trip, err = r.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		if err := s.authorizeParty(ctx, "confirm_checkout", actorID, trip.GuestID); err != nil {
			return err
		}
		if trip.Status != domain.TripStatusCheckedOutByHost || !trip.PendingConfirm {
			return &StateConflictError{Op: "confirm_checkout", Current: string(trip.Status),
				Required: string(domain.TripStatusCheckedOutByHost) + " awaiting confirmation"}
		}

		trip.PendingConfirm = false
		return r.Trips.Update(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// Finish settles the trip: the escrow is split between guest refund, host
// earnings, insurance pool contribution, and platform revenue, all in one
// transaction with the FINISHED transition.
func (s *TripService) Finish(ctx context.Context, tripID int64, actorID string) (*domain.Trip, error) {
	now := s.now()

	var trip *domain.Trip
	err := s.store.Atomically(ctx, func(r repository.Repos) error {
		var err error
		trip, err = r.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		if err := s.authorizeParty(ctx, "finish", actorID, trip.HostID); err != nil {
			return err
		}
		if trip.Status != domain.TripStatusCheckedOutByHost {
			return &StateConflictError{Op: "finish", Current: string(trip.Status), Required: string(domain.TripStatusCheckedOutByHost)}
		}
		if trip.PendingConfirm {
			return &StateConflictError{Op: "finish", Current: "awaiting checkout confirmation",
				Required: "confirmed checkout"}
		}

		settle, err := ComputeSettlement(trip, s.insurance.PPMFor(trip.HostID))
		if err != nil {
			return err
		}

		currency := trip.Payment.Rate.Currency
		custody := NewLedgerCustody(r.Escrow)
		if err := custody.Debit(ctx, domain.AccountEscrow, currency, trip.Payment.EscrowSettled); err != nil {
			return err
		}

		credits := []struct {
			account string
			amount  int64
			reason  string
		}{
			{trip.GuestID, settle.GuestSettled, "deposit refund"},
			{trip.HostID, settle.HostSettled, "host earnings"},
			{PoolAccount(trip.HostID), settle.PoolSettled, "insurance pool contribution"},
			{domain.AccountPlatform, settle.PlatformSettled, "platform fee"},
		}
		for _, c := range credits {
			if err := custody.Credit(ctx, c.account, currency, c.amount); err != nil {
				return err
			}
			if err := appendEntry(ctx, r.Escrow, trip.ID, c.account,
				domain.EscrowDirectionCredit, currency, c.amount, c.reason, now); err != nil {
				return err
			}
		}

		trip.Status = domain.TripStatusFinished
		trip.FinishedAt = now
		trip.Payment.HostEarningsSettled = settle.HostSettled
		trip.Payment.PlatformFeeSettled = settle.PlatformSettled

		if err := r.Automation.DeleteAllForTrip(ctx, trip.ID); err != nil {
			return err
		}
		if err := r.Trips.Update(ctx, trip); err != nil {
			return err
		}

		referrals := NewReferralService(r.Referrals, s.points)
		return referrals.RecordAction(ctx, trip.GuestID, domain.ReferralActionTripCompleted)
	})
	if err != nil {
		return nil, err
	}

	_ = s.notifier.NotifyTripFinished(ctx, trip)
	return trip, nil
}

// Get retrieves a trip, visible only to its parties and admins.
func (s *TripService) Get(ctx context.Context, tripID int64, actorID string) (*domain.Trip, error) {
	trip, err := s.store.Repos().Trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if actorID != trip.GuestID {
		if err := s.authorizeParty(ctx, "get_trip", actorID, trip.HostID); err != nil {
			return nil, err
		}
	}
	return trip, nil
}

// List retrieves trips matching the filter. Non-admin callers are pinned to
// trips they are party to; the admin filter surface is unrestricted.
func (s *TripService) List(ctx context.Context, actorID string, filter repository.TripFilter) ([]*domain.Trip, error) {
	role, err := s.identity.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin {
		filter.Party = actorID
	}
	return s.store.Repos().Trips.List(ctx, filter)
}

// forceCancel is the sweeper's approval-deadline action.
func (s *TripService) forceCancel(ctx context.Context, r repository.Repos, tripID int64, now time.Time) error {
	trip, err := r.Trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.Status != domain.TripStatusCreated {
		return &StateConflictError{Op: "force_cancel", Current: string(trip.Status), Required: string(domain.TripStatusCreated)}
	}
	return s.refundAndClose(ctx, r, trip, domain.TripStatusCanceled, domain.RoleSystem, now)
}

// forceGuestCheckin is the sweeper's no-show action: the host's pickup
// readings stand in for the guest's.
func (s *TripService) forceGuestCheckin(ctx context.Context, r repository.Repos, tripID int64, now time.Time) error {
	trip, err := r.Trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.Status != domain.TripStatusCheckedInByHost {
		return &StateConflictError{Op: "force_guest_checkin", Current: string(trip.Status), Required: string(domain.TripStatusCheckedInByHost)}
	}

	trip.Status = domain.TripStatusCheckedInByGuest
	trip.GuestCheckinAt = now

	if err := r.Automation.Delete(ctx, trip.ID, domain.AutomationForceGuestCheckin); err != nil {
		return err
	}
	if err := r.Automation.Create(ctx, &domain.AutomationEntry{
		TripID:     trip.ID,
		Action:     domain.AutomationForceGuestCheckout,
		ActivateAt: trip.ScheduledEnd,
	}); err != nil {
		return err
	}
	return r.Trips.Update(ctx, trip)
}

// forceGuestCheckout is the sweeper's overdue-return action: end usage
// defaults to the check-in readings, so settlement applies no adjustment.
func (s *TripService) forceGuestCheckout(ctx context.Context, r repository.Repos, tripID int64, now time.Time) error {
	trip, err := r.Trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.Status != domain.TripStatusCheckedInByGuest {
		return &StateConflictError{Op: "force_guest_checkout", Current: string(trip.Status), Required: string(domain.TripStatusCheckedInByGuest)}
	}

	trip.Status = domain.TripStatusCheckedOutByGuest
	trip.GuestCheckoutAt = now

	if err := r.Automation.Delete(ctx, trip.ID, domain.AutomationForceGuestCheckout); err != nil {
		return err
	}
	return r.Trips.Update(ctx, trip)
}

// refundAndClose returns the full escrow to the guest and closes the trip.
func (s *TripService) refundAndClose(ctx context.Context, r repository.Repos, trip *domain.Trip,
	target domain.TripStatus, closer domain.Role, now time.Time) error {

	currency := trip.Payment.Rate.Currency
	settled := trip.Payment.EscrowSettled

	custody := NewLedgerCustody(r.Escrow)
	if err := custody.Debit(ctx, domain.AccountEscrow, currency, settled); err != nil {
		return err
	}
	if err := custody.Credit(ctx, trip.GuestID, currency, settled); err != nil {
		return err
	}
	if err := appendEntry(ctx, r.Escrow, trip.ID, trip.GuestID,
		domain.EscrowDirectionCredit, currency, settled, "escrow refund", now); err != nil {
		return err
	}

	trip.Status = target
	trip.ClosedBy = closer
	if target == domain.TripStatusRejected {
		trip.RejectedAt = now
	} else {
		trip.CanceledAt = now
	}

	if err := r.Automation.DeleteAllForTrip(ctx, trip.ID); err != nil {
		return err
	}
	return r.Trips.Update(ctx, trip)
}

// authorizeParty passes when the actor is the named party or an admin.
func (s *TripService) authorizeParty(ctx context.Context, op, actorID, partyID string) error {
	if actorID == partyID {
		return nil
	}
	role, err := s.identity.RoleOf(ctx, actorID)
	if err != nil {
		return err
	}
	if role == domain.RoleAdmin {
		return nil
	}
	return &AuthorizationError{Op: op, Account: actorID, Role: role}
}

// verifyTripReading validates a reading against the trip's engine variant.
func verifyTripReading(trip *domain.Trip, field string, r Reading) error {
	variant, ok := engineVariants[trip.EngineType]
	if !ok {
		return &ValidationError{Field: "engineType", Reason: "unknown: " + string(trip.EngineType)}
	}
	if err := variant.verifyParams(trip.EngineParams); err != nil {
		return err
	}
	return verifyReading(field, r)
}

// appendEntry writes one ledger row; zero amounts leave no row.
func appendEntry(ctx context.Context, repo repository.EscrowRepository, tripID int64,
	account string, direction domain.EscrowDirection, currency string, amount int64,
	reason string, now time.Time) error {

	if amount == 0 {
		return nil
	}
	return repo.Append(ctx, &domain.EscrowEntry{
		ID:        uuid.New().String(),
		TripID:    tripID,
		Account:   account,
		Direction: direction,
		Currency:  currency,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: now,
	})
}

// tripDays converts a scheduled window into billable days, rounding partial
// days up.
func tripDays(start, end time.Time) int64 {
	d := end.Sub(start)
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}
