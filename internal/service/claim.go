package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rental/internal/domain"
	"rental/internal/repository"
)

// ClaimService handles post-approval disputes. Host-filed claims against
// enrolled hosts are insurance-backed: the host's pool pays first and any
// shortfall is recorded as unresolved rather than pulled from anyone's funds.
type ClaimService struct {
	store     repository.Store
	identity  IdentityService
	oracle    RateOracle
	insurance *InsuranceTable
	notifier  *NotificationService

	claimWindow time.Duration
	now         func() time.Time
}

// NewClaimService creates a new ClaimService.
func NewClaimService(
	store repository.Store,
	identity IdentityService,
	oracle RateOracle,
	insurance *InsuranceTable,
	notifier *NotificationService,
	claimWindow time.Duration,
) *ClaimService {
	return &ClaimService{
		store:       store,
		identity:    identity,
		oracle:      oracle,
		insurance:   insurance,
		notifier:    notifier,
		claimWindow: claimWindow,
		now:         time.Now,
	}
}

// FileClaimRequest contains the parameters for opening a claim.
type FileClaimRequest struct {
	TripID      int64
	FilerID     string
	Type        domain.ClaimType
	AmountCents int64
}

// File opens a claim against a trip. Only the trip's parties may file, each
// restricted to their own category set, once the trip has passed approval.
// After checkout the claim window starts counting down from the checkout
// timestamp.
func (s *ClaimService) File(ctx context.Context, req FileClaimRequest) (*domain.Claim, error) {
	now := s.now()

	if req.AmountCents <= 0 {
		return nil, &ValidationError{Field: "amountCents", Reason: "must be positive"}
	}
	if !req.Type.HostFiled() && !req.Type.GuestFiled() {
		return nil, &ValidationError{Field: "type", Reason: "unknown claim type"}
	}

	var (
		claim *domain.Claim
		trip  *domain.Trip
	)
	err := s.store.Atomically(ctx, func(r repository.Repos) error {
		var err error
		trip, err = r.Trips.GetByID(ctx, req.TripID)
		if err != nil {
			return err
		}

		switch req.FilerID {
		case trip.HostID:
			if !req.Type.HostFiled() {
				return &ValidationError{Field: "type", Reason: "not a host-filed category"}
			}
		case trip.GuestID:
			if !req.Type.GuestFiled() {
				return &ValidationError{Field: "type", Reason: "not a guest-filed category"}
			}
		default:
			role, err := s.identity.RoleOf(ctx, req.FilerID)
			if err != nil {
				return err
			}
			return &AuthorizationError{Op: "file_claim", Account: req.FilerID, Role: role}
		}

		if trip.ApprovedAt.IsZero() {
			return &StateConflictError{Op: "file_claim", Current: string(trip.Status),
				Required: "approved trip"}
		}

		// Pre-checkout claims anchor their window on the filing time; once a
		// checkout timestamp exists the window counts from there.
		anchor := trip.GuestCheckoutAt
		if anchor.IsZero() {
			anchor = trip.HostCheckoutAt
		}
		if anchor.IsZero() {
			anchor = now
		}

		deadline := anchor.Add(s.claimWindow)
		if now.After(deadline) {
			return &ValidationError{Field: "deadline", Reason: "claim window has closed"}
		}

		claim = &domain.Claim{
			ID:          uuid.New().String(),
			TripID:      trip.ID,
			FilerID:     req.FilerID,
			Type:        req.Type,
			AmountCents: req.AmountCents,
			Deadline:    deadline,
			Status:      domain.ClaimStatusOpen,

			InsuranceBacked: req.Type.HostFiled() && s.insurance.Enrolled(trip.HostID),

			CreatedAt: now,
		}
		return r.Claims.Create(ctx, claim)
	})
	if err != nil {
		return nil, err
	}

	_ = s.notifier.NotifyClaimFiled(ctx, trip, claim)
	return claim, nil
}

// Pay settles an open claim, converted with a fresh rate snapshot taken now,
// never the trip's booking snapshot. The trip's counterparty pays; an admin
// may arbitrate only when the claim is insurance-backed. Insurance-backed
// claims draw the host's pool, in the trip's settlement currency, as far as
// it goes; the rest stays unresolved. Other claims are paid in full from the
// counterparty's balance and fail when it cannot cover them.
func (s *ClaimService) Pay(ctx context.Context, claimID, actorID, currency string) (*domain.Claim, error) {
	now := s.now()

	var claim *domain.Claim
	err := s.store.Atomically(ctx, func(r repository.Repos) error {
		var err error
		claim, err = r.Claims.GetByID(ctx, claimID)
		if err != nil {
			return err
		}
		if claim.Status != domain.ClaimStatusOpen {
			return &StateConflictError{Op: "pay_claim", Current: string(claim.Status), Required: string(domain.ClaimStatusOpen)}
		}

		trip, err := r.Trips.GetByID(ctx, claim.TripID)
		if err != nil {
			return err
		}

		counterparty := trip.GuestID
		if claim.Type.GuestFiled() {
			counterparty = trip.HostID
		}
		if actorID != counterparty {
			role, err := s.identity.RoleOf(ctx, actorID)
			if err != nil {
				return err
			}
			if role != domain.RoleAdmin || !claim.InsuranceBacked {
				return &AuthorizationError{Op: "pay_claim", Account: actorID, Role: role}
			}
		}

		// The pool was funded in the trip's settlement currency at finish;
		// reading it in any other currency would find nothing there.
		payCurrency := currency
		if claim.InsuranceBacked {
			payCurrency = trip.Payment.Rate.Currency
		}
		rate, err := s.oracle.RateOf(ctx, payCurrency)
		if err != nil {
			return err
		}

		target := rate.Convert(claim.AmountCents)
		custody := NewLedgerCustody(r.Escrow)

		paySettled := target
		paidCents := claim.AmountCents
		payer := counterparty

		if claim.InsuranceBacked {
			payer = PoolAccount(trip.HostID)
			available, err := r.Escrow.Balance(ctx, payer, payCurrency)
			if err != nil {
				return err
			}
			if available < paySettled {
				paySettled = available
				paidCents = rate.Cents(paySettled)
			}
		}

		if err := custody.Debit(ctx, payer, payCurrency, paySettled); err != nil {
			return err
		}
		if err := custody.Credit(ctx, claim.FilerID, payCurrency, paySettled); err != nil {
			return err
		}
		if err := appendEntry(ctx, r.Escrow, claim.TripID, claim.FilerID,
			domain.EscrowDirectionCredit, payCurrency, paySettled,
			"claim payment "+string(claim.Type), now); err != nil {
			return err
		}

		claim.Status = domain.ClaimStatusPaid
		claim.PaidRate = rate
		claim.PaidCents = paidCents
		claim.UnresolvedCents = claim.AmountCents - paidCents
		claim.ClosedAt = now
		return r.Claims.Update(ctx, claim)
	})
	if err != nil {
		return nil, err
	}

	_ = s.notifier.NotifyClaimClosed(ctx, claim)
	return claim, nil
}

// Reject closes an open claim without payment. Either trip party or an
// admin may reject; rejection is terminal.
func (s *ClaimService) Reject(ctx context.Context, claimID, actorID string) (*domain.Claim, error) {
	now := s.now()

	var claim *domain.Claim
	err := s.store.Atomically(ctx, func(r repository.Repos) error {
		var err error
		claim, err = r.Claims.GetByID(ctx, claimID)
		if err != nil {
			return err
		}
		if claim.Status != domain.ClaimStatusOpen {
			return &StateConflictError{Op: "reject_claim", Current: string(claim.Status), Required: string(domain.ClaimStatusOpen)}
		}

		trip, err := r.Trips.GetByID(ctx, claim.TripID)
		if err != nil {
			return err
		}
		if actorID != trip.HostID && actorID != trip.GuestID {
			if err := s.requireAdmin(ctx, "reject_claim", actorID); err != nil {
				return err
			}
		}

		claim.Status = domain.ClaimStatusRejected
		claim.ClosedAt = now
		return r.Claims.Update(ctx, claim)
	})
	if err != nil {
		return nil, err
	}

	_ = s.notifier.NotifyClaimClosed(ctx, claim)
	return claim, nil
}

// Get retrieves a claim, visible to the trip's parties and admins.
func (s *ClaimService) Get(ctx context.Context, claimID, actorID string) (*domain.Claim, error) {
	repos := s.store.Repos()

	claim, err := repos.Claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}

	trip, err := repos.Trips.GetByID(ctx, claim.TripID)
	if err != nil {
		return nil, err
	}
	if actorID != trip.HostID && actorID != trip.GuestID {
		if err := s.requireAdmin(ctx, "get_claim", actorID); err != nil {
			return nil, err
		}
	}
	return claim, nil
}

// List retrieves claims matching the filter. Non-admin callers must scope to
// a trip they are party to.
func (s *ClaimService) List(ctx context.Context, actorID string, filter repository.ClaimFilter) ([]*domain.Claim, error) {
	role, err := s.identity.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	if role != domain.RoleAdmin {
		if filter.TripID == 0 {
			return nil, &AuthorizationError{Op: "list_claims", Account: actorID, Role: role}
		}
		trip, err := repos.Trips.GetByID(ctx, filter.TripID)
		if err != nil {
			return nil, err
		}
		if actorID != trip.HostID && actorID != trip.GuestID {
			return nil, &AuthorizationError{Op: "list_claims", Account: actorID, Role: role}
		}
	}

	return repos.Claims.List(ctx, filter)
}

func (s *ClaimService) requireAdmin(ctx context.Context, op, actorID string) error {
	role, err := s.identity.RoleOf(ctx, actorID)
	if err != nil {
		return err
	}
	if role != domain.RoleAdmin {
		return &AuthorizationError{Op: op, Account: actorID, Role: role}
	}
	return nil
}
