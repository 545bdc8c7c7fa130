package tests

import (
	"context"
	"testing"
	"time"

	"rental/internal/domain"
	"rental/internal/service"
)

func TestSweep_CancelsUnapprovedAfterDeadline(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	trip := f.book(t)

	report, err := f.sweeper.Sweep(context.Background(), time.Now().Add(25*time.Hour))
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if report.Due != 1 || report.Canceled != 1 {
		t.Errorf("expected due=1 canceled=1, got %+v", report)
	}

	stored := f.trips.GetTrip(trip.ID)
	if stored.Status != domain.TripStatusCanceled {
		t.Errorf("expected CANCELED, got %s", stored.Status)
	}
	if stored.ClosedBy != domain.RoleSystem {
		t.Errorf("expected SYSTEM closure, got %s", stored.ClosedBy)
	}
	if got := f.escrow.BalanceOf(guestID, "USD"); got != 1_000_000 {
		t.Errorf("expected full refund, balance %d", got)
	}
}

func TestSweep_IdempotentTick(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	f.book(t)

	deadline := time.Now().Add(25 * time.Hour)
	if _, err := f.sweeper.Sweep(context.Background(), deadline); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	report, err := f.sweeper.Sweep(context.Background(), deadline)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if report.Due != 0 {
		t.Errorf("expected no due entries on second tick, got %d", report.Due)
	}
}

func TestSweep_ForcesNoShowGuestThroughCheckout(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	trip := f.book(t)
	ctx := context.Background()

	if _, err := f.trip.Approve(ctx, trip.ID, hostID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := f.trip.CheckinHost(ctx, trip.ID, hostID, service.Reading{FuelPercent: 80, Odometer: 1000}); err != nil {
		t.Fatalf("host checkin failed: %v", err)
	}

	// Guest misses the check-in window.
	report, err := f.sweeper.Sweep(ctx, time.Now().Add(7*time.Hour))
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if report.CheckedIn != 1 {
		t.Errorf("expected checked_in=1, got %+v", report)
	}
	stored := f.trips.GetTrip(trip.ID)
	if stored.Status != domain.TripStatusCheckedInByGuest {
		t.Errorf("expected CHECKED_IN_BY_GUEST, got %s", stored.Status)
	}
	// The host's pickup readings stand in for the guest's.
	if stored.Usage.StartFuelPercent != 80 || stored.Usage.StartOdometer != 1000 {
		t.Errorf("expected host readings kept, got %+v", stored.Usage)
	}

	// The car never comes back on time.
	report, err = f.sweeper.Sweep(ctx, time.Now().Add(26*time.Hour))
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if report.CheckedOut != 1 {
		t.Errorf("expected checked_out=1, got %+v", report)
	}
	stored = f.trips.GetTrip(trip.ID)
	if stored.Status != domain.TripStatusCheckedOutByGuest {
		t.Errorf("expected CHECKED_OUT_BY_GUEST, got %s", stored.Status)
	}
	if stored.Usage.EndRecorded {
		t.Error("expected no end readings on a forced checkout")
	}

	// Settlement applies no usage adjustment without end readings.
	if _, err := f.trip.CheckoutHost(ctx, trip.ID, hostID); err != nil {
		t.Fatalf("host checkout failed: %v", err)
	}
	if _, err := f.trip.Finish(ctx, trip.ID, hostID); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if got := f.escrow.BalanceOf(guestID, "USD"); got != 1_000_000-31_500+20_000 {
		t.Errorf("expected full deposit back, guest balance %d", got)
	}
}

func TestSweep_StaleEntriesDropped(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	trip := f.book(t)
	ctx := context.Background()

	if _, err := f.trip.Approve(ctx, trip.ID, hostID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// A leftover deadline for a trip that already advanced.
	err := f.automation.Create(ctx, &domain.AutomationEntry{
		TripID:     trip.ID,
		Action:     domain.AutomationCancelUnapproved,
		ActivateAt: time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("create entry failed: %v", err)
	}

	report, err := f.sweeper.Sweep(ctx, time.Now())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if report.Stale != 1 || report.Failed != 0 {
		t.Errorf("expected stale=1 failed=0, got %+v", report)
	}
	if f.automation.GetEntry(trip.ID, domain.AutomationCancelUnapproved) != nil {
		t.Error("expected stale entry removed")
	}
	if f.trips.GetTrip(trip.ID).Status != domain.TripStatusApproved {
		t.Error("expected trip untouched by stale entry")
	}
}
