package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"rental/internal/domain"
	"rental/internal/service"
)

func newPricingEngine(taxRules []service.TaxRule, fallback domain.DiscountRule) *service.PricingEngine {
	taxes := service.NewTaxTable(taxRules)
	discounts := service.NewDiscountTable(fallback)
	return service.NewPricingEngine(taxes, discounts, 200_000)
}

func testCar(dayPrice, deposit int64) *domain.CarSnapshot {
	return &domain.CarSnapshot{
		ID:            "car-q",
		OwnerID:       "host-q",
		Location:      "NYC",
		DayPriceCents: dayPrice,
		DepositCents:  deposit,
		EngineType:    domain.EngineTypeFuel,
		EngineParams:  []int64{15, 300},
		IsListed:      true,
	}
}

func TestQuote_TaxBreakdown(t *testing.T) {
	t.Parallel()

	// 7% of the subtotal plus a 200-cent nightly charge.
	engine := newPricingEngine([]service.TaxRule{
		{Kind: service.TaxPercentSubtotal, RatePPM: 70_000},
		{Kind: service.TaxFlatPerDay, CentsPerDay: 200},
	}, domain.DiscountRule{})

	quote, err := engine.Quote(service.QuoteInput{
		Car:  testCar(1000, 0),
		Days: 1,
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}

	if quote.SubtotalCents != 1000 {
		t.Errorf("expected subtotal 1000, got %d", quote.SubtotalCents)
	}
	if quote.TaxCents != 270 {
		t.Errorf("expected tax 270, got %d", quote.TaxCents)
	}
	if quote.TotalCents != 1270 {
		t.Errorf("expected total 1270, got %d", quote.TotalCents)
	}
}

func TestQuote_PercentTotalCoversFlatComponents(t *testing.T) {
	t.Parallel()

	// 10% levied on subtotal plus the flat nightly charges.
	engine := newPricingEngine([]service.TaxRule{
		{Kind: service.TaxFlatPerDay, CentsPerDay: 500},
		{Kind: service.TaxPercentTotal, RatePPM: 100_000},
	}, domain.DiscountRule{})

	quote, err := engine.Quote(service.QuoteInput{
		Car:  testCar(10_000, 0),
		Days: 2,
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}

	// flat = 1000; percent = 10% of (20000 + 1000) = 2100.
	if quote.TaxCents != 3100 {
		t.Errorf("expected tax 3100, got %d", quote.TaxCents)
	}
}

func TestQuote_DurationDiscountPicksHighestTier(t *testing.T) {
	t.Parallel()

	engine := newPricingEngine(nil, domain.DiscountRule{
		Tiers: []domain.DiscountTier{
			{MinDays: 3, PercentOff: 5},
			{MinDays: 7, PercentOff: 10},
			{MinDays: 30, PercentOff: 20},
		},
	})

	cases := []struct {
		days     int64
		discount int64
	}{
		{1, 0},
		{3, 1500},  // 5% of 30000
		{7, 7000},  // 10% of 70000
		{30, 60_000}, // 20% of 300000
	}
	for _, tc := range cases {
		quote, err := engine.Quote(service.QuoteInput{
			Car:  testCar(10_000, 0),
			Days: tc.days,
		})
		if err != nil {
			t.Fatalf("quote for %d days failed: %v", tc.days, err)
		}
		if quote.DiscountCents != tc.discount {
			t.Errorf("%d days: expected discount %d, got %d", tc.days, tc.discount, quote.DiscountCents)
		}
	}
}

func TestQuote_PromoSubstitutesForDurationDiscount(t *testing.T) {
	t.Parallel()

	// A 30-day stay would earn 20% on its own; the 5% promo replaces it.
	engine := newPricingEngine(nil, domain.DiscountRule{
		Tiers: []domain.DiscountTier{{MinDays: 30, PercentOff: 20}},
	})

	promo := &domain.PromoCode{
		Code:       "SPRING-ABC",
		Kind:       domain.PromoKindGeneral,
		PercentOff: 5,
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
		Active:     true,
	}

	quote, err := engine.Quote(service.QuoteInput{
		Car:   testCar(10_000, 0),
		Days:  30,
		Promo: promo,
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}

	if !quote.PromoApplied {
		t.Error("expected promo applied")
	}
	if quote.DiscountCents != 15_000 {
		t.Errorf("expected promo discount 15000, got %d", quote.DiscountCents)
	}
}

func TestQuote_WaiverLeavesOnlyDeposit(t *testing.T) {
	t.Parallel()

	engine := newPricingEngine([]service.TaxRule{
		{Kind: service.TaxPercentSubtotal, RatePPM: 70_000},
	}, domain.DiscountRule{})

	promo := &domain.PromoCode{
		Code:       "FREE-RIDE",
		Kind:       domain.PromoKindSingleUse,
		Waiver:     true,
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
		Active:     true,
		RemainingUses: 1,
	}

	quote, err := engine.Quote(service.QuoteInput{
		Car:            testCar(10_000, 25_000),
		Days:           3,
		DeliveryCents:  1500,
		InsuranceCents: 1500,
		Promo:          promo,
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}

	if !quote.Waived {
		t.Error("expected waiver applied")
	}
	if quote.TotalCents != 25_000 {
		t.Errorf("expected total to equal deposit 25000, got %d", quote.TotalCents)
	}
	if quote.TaxCents != 0 || quote.InsuranceCents != 0 {
		t.Errorf("expected waived tax and insurance, got tax=%d insurance=%d", quote.TaxCents, quote.InsuranceCents)
	}
}

func TestQuote_SkipInsuranceOmitsPremium(t *testing.T) {
	t.Parallel()

	engine := newPricingEngine(nil, domain.DiscountRule{})

	with, err := engine.Quote(service.QuoteInput{
		Car:            testCar(10_000, 0),
		Days:           1,
		InsuranceCents: 1500,
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	without, err := engine.Quote(service.QuoteInput{
		Car:            testCar(10_000, 0),
		Days:           1,
		InsuranceCents: 1500,
		SkipInsurance:  true,
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}

	if with.TotalCents-without.TotalCents != 1500 {
		t.Errorf("expected premium delta 1500, got %d", with.TotalCents-without.TotalCents)
	}
	if without.InsuranceCents != 0 {
		t.Errorf("expected no premium, got %d", without.InsuranceCents)
	}
}

func TestQuote_RejectsMalformedInput(t *testing.T) {
	t.Parallel()

	engine := newPricingEngine(nil, domain.DiscountRule{})

	var valErr *service.ValidationError
	if _, err := engine.Quote(service.QuoteInput{Car: testCar(1000, 0), Days: 0}); !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for zero days, got %v", err)
	}
	if _, err := engine.Quote(service.QuoteInput{Days: 1}); !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for missing car, got %v", err)
	}
	if _, err := engine.Quote(service.QuoteInput{Car: testCar(1000, 0), Days: 1, DeliveryCents: -1}); !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for negative delivery, got %v", err)
	}
}

func TestQuoteTrip_ValidatesWithoutConsumingPromo(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	f.store.Promos().AddCode(&domain.PromoCode{
		Code:          "ONCE-1",
		Kind:          domain.PromoKindSingleUse,
		PercentOff:    10,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(24 * time.Hour),
		Active:        true,
		RemainingUses: 1,
	})

	start := time.Now().Add(time.Hour)
	req := service.BookTripRequest{
		GuestID:   guestID,
		CarID:     carID,
		Start:     start,
		End:       start.Add(24 * time.Hour),
		Currency:  "USD",
		PromoCode: "ONCE-1",
	}

	quote, err := f.trip.QuoteTrip(context.Background(), req)
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.DiscountCents != 1000 {
		t.Errorf("expected discount 1000, got %d", quote.DiscountCents)
	}

	// Quoting must not burn the code.
	if got := f.store.Promos().GetCode("ONCE-1").RemainingUses; got != 1 {
		t.Errorf("expected 1 remaining use after quote, got %d", got)
	}
}
