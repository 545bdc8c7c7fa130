package tests

import (
	"context"
	"errors"
	"testing"

	"rental/internal/domain"
	"rental/internal/repository"
	"rental/internal/service"
)

func fileClaim(t *testing.T, f *engineFixture, tripID int64, filerID string, kind domain.ClaimType, amount int64) *domain.Claim {
	t.Helper()
	claim, err := f.claims.File(context.Background(), service.FileClaimRequest{
		TripID:      tripID,
		FilerID:     filerID,
		Type:        kind,
		AmountCents: amount,
	})
	if err != nil {
		t.Fatalf("file claim failed: %v", err)
	}
	return claim
}

func TestClaim_CategoryGating(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	f.identity.AddAccount("bystander", domain.RoleGuest, true)
	trip := f.book(t)
	f.advanceToCheckedOut(t, trip.ID)

	var valErr *service.ValidationError

	// Hosts cannot file guest categories and vice versa.
	_, err := f.claims.File(context.Background(), service.FileClaimRequest{
		TripID: trip.ID, FilerID: hostID, Type: domain.ClaimTypeOvercharge, AmountCents: 1000,
	})
	if !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for host filing OVERCHARGE, got %v", err)
	}

	_, err = f.claims.File(context.Background(), service.FileClaimRequest{
		TripID: trip.ID, FilerID: guestID, Type: domain.ClaimTypeDamage, AmountCents: 1000,
	})
	if !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for guest filing DAMAGE, got %v", err)
	}

	// Outsiders cannot file at all.
	_, err = f.claims.File(context.Background(), service.FileClaimRequest{
		TripID: trip.ID, FilerID: "bystander", Type: domain.ClaimTypeDamage, AmountCents: 1000,
	})
	var authErr *service.AuthorizationError
	if !errors.As(err, &authErr) {
		t.Errorf("expected AuthorizationError for outsider, got %v", err)
	}
}

func TestClaim_FilingRequiresApproval(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	trip := f.book(t)

	_, err := f.claims.File(context.Background(), service.FileClaimRequest{
		TripID: trip.ID, FilerID: hostID, Type: domain.ClaimTypeDamage, AmountCents: 1000,
	})
	var conflict *service.StateConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StateConflictError before approval, got %v", err)
	}

	// From approval onward claims are open, checkout or not.
	if _, err := f.trip.Approve(context.Background(), trip.ID, hostID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	claim := fileClaim(t, f, trip.ID, hostID, domain.ClaimTypeDamage, 1000)
	if claim.Status != domain.ClaimStatusOpen {
		t.Errorf("expected OPEN claim on approved trip, got %s", claim.Status)
	}
}

func TestClaim_WindowClosed(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	trip := f.book(t)
	f.advanceToCheckedOut(t, trip.ID)

	// A zero window closes the moment checkout lands.
	closed := service.NewClaimService(f.store, f.identity, f.oracle, f.insurance,
		service.NewNotificationService(), 0)

	_, err := closed.File(context.Background(), service.FileClaimRequest{
		TripID: trip.ID, FilerID: hostID, Type: domain.ClaimTypeDamage, AmountCents: 1000,
	})
	var valErr *service.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestClaim_InsuranceBackedOnlyForEnrolledHosts(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	trip := f.book(t)
	f.advanceToCheckedOut(t, trip.ID)

	plain := fileClaim(t, f, trip.ID, hostID, domain.ClaimTypeCleaning, 2000)
	if plain.InsuranceBacked {
		t.Error("expected no insurance backing for unenrolled host")
	}

	f.insurance.SetPPM(hostID, 100_000)
	backed := fileClaim(t, f, trip.ID, hostID, domain.ClaimTypeDamage, 2000)
	if !backed.InsuranceBacked {
		t.Error("expected insurance backing for enrolled host")
	}

	// Guest-filed claims are never pool-backed.
	guestClaim := fileClaim(t, f, trip.ID, guestID, domain.ClaimTypeSafetyDefect, 2000)
	if guestClaim.InsuranceBacked {
		t.Error("expected guest claim without insurance backing")
	}
}

func TestClaim_PoolPaysFirstShortfallStaysUnresolved(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	f.insurance.SetPPM(hostID, 100_000)
	trip := f.book(t)
	f.advanceToCheckedOut(t, trip.ID)

	f.escrow.SetBalance(service.PoolAccount(hostID), "USD", 4000)

	claim := fileClaim(t, f, trip.ID, hostID, domain.ClaimTypeDamage, 10_000)
	paid, err := f.claims.Pay(context.Background(), claim.ID, adminID, "USD")
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}

	if paid.Status != domain.ClaimStatusPaid {
		t.Errorf("expected PAID, got %s", paid.Status)
	}
	if paid.PaidCents != 4000 {
		t.Errorf("expected 4000 paid, got %d", paid.PaidCents)
	}
	if paid.UnresolvedCents != 6000 {
		t.Errorf("expected 6000 unresolved, got %d", paid.UnresolvedCents)
	}
	if got := f.escrow.BalanceOf(service.PoolAccount(hostID), "USD"); got != 0 {
		t.Errorf("expected drained pool, balance %d", got)
	}
	// The shortfall is never pulled from the host's own funds.
	if got := f.escrow.BalanceOf(hostID, "USD"); got != 0 {
		t.Errorf("expected untouched host balance, got %d", got)
	}
}

func TestClaim_HostFiledPaidByGuestCounterparty(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	trip := f.book(t)
	f.advanceToCheckedOut(t, trip.ID)

	before := f.escrow.BalanceOf(guestID, "USD")

	claim := fileClaim(t, f, trip.ID, hostID, domain.ClaimTypeCleaning, 3000)
	paid, err := f.claims.Pay(context.Background(), claim.ID, guestID, "USD")
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}

	if paid.PaidCents != 3000 || paid.UnresolvedCents != 0 {
		t.Errorf("expected full payment, got paid=%d unresolved=%d", paid.PaidCents, paid.UnresolvedCents)
	}
	if got := f.escrow.BalanceOf(guestID, "USD"); got != before-3000 {
		t.Errorf("expected guest debited 3000, balance %d", got)
	}
	if got := f.escrow.BalanceOf(hostID, "USD"); got != 3000 {
		t.Errorf("expected host credited 3000, got %d", got)
	}
}

func TestClaim_GuestFiledPaidByHostCounterparty(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	trip := f.book(t)
	f.advanceToCheckedOut(t, trip.ID)

	f.escrow.SetBalance(hostID, "USD", 10_000)
	before := f.escrow.BalanceOf(guestID, "USD")

	claim := fileClaim(t, f, trip.ID, guestID, domain.ClaimTypeOvercharge, 5000)
	paid, err := f.claims.Pay(context.Background(), claim.ID, hostID, "USD")
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}

	if paid.PaidCents != 5000 || paid.UnresolvedCents != 0 {
		t.Errorf("expected full payment, got paid=%d unresolved=%d", paid.PaidCents, paid.UnresolvedCents)
	}
	if got := f.escrow.BalanceOf(hostID, "USD"); got != 5000 {
		t.Errorf("expected host balance 5000, got %d", got)
	}
	if got := f.escrow.BalanceOf(guestID, "USD"); got != before+5000 {
		t.Errorf("expected guest credited 5000, got %d", got-before)
	}
}

func TestClaim_CounterpartyShortfallFailsPayment(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	trip := f.book(t)
	f.advanceToCheckedOut(t, trip.ID)

	f.escrow.SetBalance(hostID, "USD", 100)

	claim := fileClaim(t, f, trip.ID, guestID, domain.ClaimTypeOvercharge, 5000)
	_, err := f.claims.Pay(context.Background(), claim.ID, hostID, "USD")

	var custErr *service.CustodyError
	if !errors.As(err, &custErr) {
		t.Fatalf("expected CustodyError, got %v", err)
	}
	if got := f.store.Claims().GetClaim(claim.ID).Status; got != domain.ClaimStatusOpen {
		t.Errorf("expected claim still OPEN, got %s", got)
	}
	if got := f.escrow.BalanceOf(hostID, "USD"); got != 100 {
		t.Errorf("expected host balance untouched at 100, got %d", got)
	}
}

func TestClaim_PaymentUsesFreshRateSnapshot(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	trip := f.book(t) // booked against the USD snapshot
	f.advanceToCheckedOut(t, trip.ID)

	// The EUR rate appears only after checkout; payment converts with it.
	if err := f.oracle.SetRate("EUR", 200, 2); err != nil {
		t.Fatalf("set rate failed: %v", err)
	}
	f.escrow.SetBalance(hostID, "EUR", 100_000)

	claim := fileClaim(t, f, trip.ID, guestID, domain.ClaimTypeMislistedCar, 10_000)
	paid, err := f.claims.Pay(context.Background(), claim.ID, hostID, "EUR")
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}

	if paid.PaidRate.Currency != "EUR" || paid.PaidRate.Rate != 200 {
		t.Errorf("expected fresh EUR snapshot, got %+v", paid.PaidRate)
	}
	// 10000 USD cents at 200 cents/EUR is 5000 EUR cents.
	if got := f.escrow.BalanceOf(guestID, "EUR"); got != 5000 {
		t.Errorf("expected 5000 EUR cents paid, got %d", got)
	}
}

func TestClaim_OnlyCounterpartyOrInsuranceArbiterPays(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	f.identity.AddAccount("bystander", domain.RoleGuest, true)
	trip := f.book(t)
	f.advanceToCheckedOut(t, trip.ID)

	claim := fileClaim(t, f, trip.ID, hostID, domain.ClaimTypeLateReturn, 3000)

	var authErr *service.AuthorizationError
	if _, err := f.claims.Pay(context.Background(), claim.ID, hostID, "USD"); !errors.As(err, &authErr) {
		t.Errorf("expected AuthorizationError on filer paying own claim, got %v", err)
	}
	if _, err := f.claims.Pay(context.Background(), claim.ID, "bystander", "USD"); !errors.As(err, &authErr) {
		t.Errorf("expected AuthorizationError on outsider pay, got %v", err)
	}
	// Without insurance backing there is nothing to arbitrate.
	if _, err := f.claims.Pay(context.Background(), claim.ID, adminID, "USD"); !errors.As(err, &authErr) {
		t.Errorf("expected AuthorizationError on admin paying plain claim, got %v", err)
	}
}

func TestClaim_PartiesCanReject(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	f.identity.AddAccount("bystander", domain.RoleGuest, true)
	trip := f.book(t)
	f.advanceToCheckedOut(t, trip.ID)

	claim := fileClaim(t, f, trip.ID, hostID, domain.ClaimTypeLateReturn, 3000)

	var authErr *service.AuthorizationError
	if _, err := f.claims.Reject(context.Background(), claim.ID, "bystander"); !errors.As(err, &authErr) {
		t.Errorf("expected AuthorizationError on outsider reject, got %v", err)
	}

	rejected, err := f.claims.Reject(context.Background(), claim.ID, guestID)
	if err != nil {
		t.Fatalf("guest reject failed: %v", err)
	}
	if rejected.Status != domain.ClaimStatusRejected {
		t.Errorf("expected REJECTED, got %s", rejected.Status)
	}

	// Closed claims cannot be paid.
	var conflict *service.StateConflictError
	if _, err := f.claims.Pay(context.Background(), claim.ID, guestID, "USD"); !errors.As(err, &conflict) {
		t.Errorf("expected StateConflictError on paying closed claim, got %v", err)
	}

	// Admin rejection works too.
	second := fileClaim(t, f, trip.ID, hostID, domain.ClaimTypeCleaning, 1000)
	if _, err := f.claims.Reject(context.Background(), second.ID, adminID); err != nil {
		t.Fatalf("admin reject failed: %v", err)
	}
}

func TestClaim_InsurancePaymentPinnedToSettlementCurrency(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	f.insurance.SetPPM(hostID, 100_000)
	trip := f.book(t) // USD settlement
	f.advanceToCheckedOut(t, trip.ID)

	if err := f.oracle.SetRate("EUR", 200, 2); err != nil {
		t.Fatalf("set rate failed: %v", err)
	}
	f.escrow.SetBalance(service.PoolAccount(hostID), "USD", 10_000)

	// The caller asks for EUR, but the pool holds USD; the payment sticks to
	// the trip's settlement currency instead of settling at zero.
	claim := fileClaim(t, f, trip.ID, hostID, domain.ClaimTypeDamage, 4000)
	paid, err := f.claims.Pay(context.Background(), claim.ID, adminID, "EUR")
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}

	if paid.PaidRate.Currency != "USD" {
		t.Errorf("expected USD snapshot, got %s", paid.PaidRate.Currency)
	}
	if paid.PaidCents != 4000 || paid.UnresolvedCents != 0 {
		t.Errorf("expected full payment, got paid=%d unresolved=%d", paid.PaidCents, paid.UnresolvedCents)
	}
	if got := f.escrow.BalanceOf(service.PoolAccount(hostID), "USD"); got != 6000 {
		t.Errorf("expected pool drawn to 6000, got %d", got)
	}
	if got := f.escrow.BalanceOf(hostID, "USD"); got != 4000 {
		t.Errorf("expected host credited 4000, got %d", got)
	}
}

func TestClaim_ListScopedToParties(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	f.identity.AddAccount("bystander", domain.RoleGuest, true)
	trip := f.book(t)
	f.advanceToCheckedOut(t, trip.ID)
	fileClaim(t, f, trip.ID, hostID, domain.ClaimTypeDamage, 1000)

	var authErr *service.AuthorizationError

	// Non-admins must scope to a trip they are party to.
	if _, err := f.claims.List(context.Background(), hostID, repository.ClaimFilter{}); !errors.As(err, &authErr) {
		t.Errorf("expected AuthorizationError without trip scope, got %v", err)
	}
	if _, err := f.claims.List(context.Background(), "bystander", repository.ClaimFilter{TripID: trip.ID}); !errors.As(err, &authErr) {
		t.Errorf("expected AuthorizationError for outsider, got %v", err)
	}

	claims, err := f.claims.List(context.Background(), guestID, repository.ClaimFilter{TripID: trip.ID})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(claims) != 1 {
		t.Errorf("expected 1 claim, got %d", len(claims))
	}

	claims, err = f.claims.List(context.Background(), adminID, repository.ClaimFilter{Status: domain.ClaimStatusOpen})
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if len(claims) != 1 {
		t.Errorf("expected 1 open claim for admin, got %d", len(claims))
	}
}
