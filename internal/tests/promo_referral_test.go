package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"rental/internal/domain"
	"rental/internal/service"
)

func addPromo(f *engineFixture, code string, kind domain.PromoKind, percent int64, uses int64) {
	f.store.Promos().AddCode(&domain.PromoCode{
		Code:          code,
		Kind:          kind,
		PercentOff:    percent,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(48 * time.Hour),
		Active:        true,
		RemainingUses: uses,
	})
}

func bookWithPromo(f *engineFixture, guest, code string, offset time.Duration) (*domain.Trip, error) {
	start := time.Now().Add(30*time.Minute + offset)
	return f.trip.Book(context.Background(), service.BookTripRequest{
		GuestID:   guest,
		CarID:     carID,
		Start:     start,
		End:       start.Add(24 * time.Hour),
		Currency:  "USD",
		PromoCode: code,
	})
}

func TestPromo_SingleUseConsumedGlobally(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	f.identity.AddAccount("guest-2", domain.RoleGuest, true)
	f.escrow.SetBalance("guest-2", "USD", 1_000_000)
	addPromo(f, "LAUNCH-1", domain.PromoKindSingleUse, 10, 1)

	trip, err := bookWithPromo(f, guestID, "LAUNCH-1", 0)
	if err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if trip.Payment.DiscountCents != 1000 {
		t.Errorf("expected discount 1000, got %d", trip.Payment.DiscountCents)
	}
	if trip.Payment.EscrowCents != 30_500 {
		t.Errorf("expected escrow 30500, got %d", trip.Payment.EscrowCents)
	}

	// Non-overlapping window, different guest: the code is still spent.
	_, err = bookWithPromo(f, "guest-2", "LAUNCH-1", 72*time.Hour)
	var valErr *service.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestPromo_GeneralLimitedPerAccount(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	f.identity.AddAccount("guest-2", domain.RoleGuest, true)
	f.escrow.SetBalance("guest-2", "USD", 1_000_000)
	addPromo(f, "SPRING", domain.PromoKindGeneral, 15, 0)

	if _, err := bookWithPromo(f, guestID, "SPRING", 0); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// The same account cannot redeem twice.
	_, err := bookWithPromo(f, guestID, "SPRING", 72*time.Hour)
	var valErr *service.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// A different account still can.
	if _, err := bookWithPromo(f, "guest-2", "SPRING", 144*time.Hour); err != nil {
		t.Fatalf("other account booking failed: %v", err)
	}
}

func TestPromo_FailedBookingDoesNotBurnCode(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	f.identity.AddAccount("guest-2", domain.RoleGuest, true)
	f.escrow.SetBalance("guest-2", "USD", 1_000_000)
	addPromo(f, "KEEPER", domain.PromoKindSingleUse, 10, 1)

	first := f.book(t)
	if _, err := f.trip.Approve(context.Background(), first.ID, hostID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// Overlaps the approved trip; the booking dies before redemption.
	_, err := bookWithPromo(f, "guest-2", "KEEPER", 0)
	var conflict *service.ScheduleConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ScheduleConflictError, got %v", err)
	}

	if got := f.store.Promos().GetCode("KEEPER").RemainingUses; got != 1 {
		t.Errorf("expected code untouched, remaining uses %d", got)
	}
	if _, err := bookWithPromo(f, "guest-2", "KEEPER", 72*time.Hour); err != nil {
		t.Errorf("expected code still redeemable: %v", err)
	}
}

func TestPromo_GenerateBatchAndDeactivate(t *testing.T) {
	t.Parallel()

	repo := NewMockPromoRepository()
	promos := service.NewPromoService(repo)
	ctx := context.Background()

	codes, err := promos.GenerateBatch(ctx, service.GenerateBatchRequest{
		Prefix:     "WINTER",
		Count:      5,
		Kind:       domain.PromoKindSingleUse,
		PercentOff: 20,
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(codes) != 5 {
		t.Fatalf("expected 5 codes, got %d", len(codes))
	}
	seen := make(map[string]bool)
	for _, c := range codes {
		if seen[c.Code] {
			t.Errorf("duplicate code %s", c.Code)
		}
		seen[c.Code] = true
		if _, err := promos.Validate(ctx, c.Code, guestID, time.Now()); err != nil {
			t.Errorf("fresh code %s not redeemable: %v", c.Code, err)
		}
	}

	if err := promos.Deactivate(ctx, codes[0].Code); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	var valErr *service.ValidationError
	if _, err := promos.Validate(ctx, codes[0].Code, guestID, time.Now()); !errors.As(err, &valErr) {
		t.Errorf("expected deactivated code rejected, got %v", err)
	}

	// Malformed batch requests.
	if _, err := promos.GenerateBatch(ctx, service.GenerateBatchRequest{
		Prefix: "", Count: 1, Kind: domain.PromoKindGeneral, PercentOff: 10,
		ValidFrom: time.Now(), ValidUntil: time.Now().Add(time.Hour),
	}); !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for empty prefix, got %v", err)
	}
	if _, err := promos.GenerateBatch(ctx, service.GenerateBatchRequest{
		Prefix: "X", Count: 1, Kind: domain.PromoKindGeneral, PercentOff: 120,
		ValidFrom: time.Now(), ValidUntil: time.Now().Add(time.Hour),
	}); !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for percent over 100, got %v", err)
	}
}

func TestReferral_RegistrationAccruesToReferrer(t *testing.T) {
	t.Parallel()

	repo := NewMockReferralRepository()
	referrals := service.NewReferralService(repo, service.DefaultPointTable())
	ctx := context.Background()

	alice, err := referrals.Register(ctx, "alice", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if alice.Hash == "" {
		t.Fatal("expected a durable hash")
	}

	if _, err := referrals.Register(ctx, "bob", alice.Hash); err != nil {
		t.Fatalf("referred register failed: %v", err)
	}
	if got := repo.GetAccount("alice").PendingPoints; got != 100 {
		t.Errorf("expected 100 pending points, got %d", got)
	}

	// Registering twice returns the existing record without re-accrual.
	if _, err := referrals.Register(ctx, "bob", alice.Hash); err != nil {
		t.Fatalf("repeat register failed: %v", err)
	}
	if got := repo.GetAccount("alice").PendingPoints; got != 100 {
		t.Errorf("expected no double accrual, got %d", got)
	}

	var valErr *service.ValidationError
	if _, err := referrals.Register(ctx, "carol", "no-such-hash"); !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for unknown hash, got %v", err)
	}
}

func TestReferral_TripCompletionAccruesToReferrer(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()

	referrals := service.NewReferralService(f.store.Referrals(), service.DefaultPointTable())
	ctx := context.Background()

	referrer, err := referrals.Register(ctx, "referrer", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := referrals.Register(ctx, guestID, referrer.Hash); err != nil {
		t.Fatalf("referred register failed: %v", err)
	}

	trip := f.book(t)
	f.advanceToCheckedOut(t, trip.ID)
	if _, err := f.trip.Finish(ctx, trip.ID, hostID); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	// 100 for the registration, 50 for the completed trip.
	if got := f.store.Referrals().GetAccount("referrer").PendingPoints; got != 150 {
		t.Errorf("expected 150 pending points, got %d", got)
	}

	moved, err := referrals.ClaimPoints(ctx, "referrer")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if moved != 150 {
		t.Errorf("expected 150 moved, got %d", moved)
	}

	// Claiming again with no new activity moves nothing.
	moved, err = referrals.ClaimPoints(ctx, "referrer")
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if moved != 0 {
		t.Errorf("expected 0 moved, got %d", moved)
	}
	acct := f.store.Referrals().GetAccount("referrer")
	if acct.SettledPoints != 150 || acct.PendingPoints != 0 {
		t.Errorf("expected settled=150 pending=0, got %+v", acct)
	}
}

func TestReferral_NoReferrerAccruesNothing(t *testing.T) {
	t.Parallel()

	repo := NewMockReferralRepository()
	referrals := service.NewReferralService(repo, service.DefaultPointTable())
	ctx := context.Background()

	if _, err := referrals.Register(ctx, "solo", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := referrals.RecordAction(ctx, "solo", domain.ReferralActionTripCompleted); err != nil {
		t.Fatalf("record action failed: %v", err)
	}
	if got := repo.GetAccount("solo").PendingPoints; got != 0 {
		t.Errorf("expected no points, got %d", got)
	}

	// Accounts that never registered are silently skipped.
	if err := referrals.RecordAction(ctx, "stranger", domain.ReferralActionFirstListing); err != nil {
		t.Fatalf("expected nil for unregistered account, got %v", err)
	}
}
