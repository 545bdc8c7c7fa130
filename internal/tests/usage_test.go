package tests

import (
	"errors"
	"testing"

	"rental/internal/domain"
	"rental/internal/service"
)

func fuelInput(startFuel, endFuel, startOdo, endOdo int64) service.UsageInput {
	return service.UsageInput{
		Engine: domain.EngineTypeFuel,
		Params: []int64{15, 300}, // 15-gallon tank at 300 cents per gallon
		Start:  service.Reading{FuelPercent: startFuel, Odometer: startOdo},
		End:    service.Reading{FuelPercent: endFuel, Odometer: endOdo},
		Days:   1,
	}
}

func TestUsageDelta_FuelConsumptionCharged(t *testing.T) {
	t.Parallel()

	// 30% of a 15-gallon tank at 300 cents/gallon.
	delta, err := service.ComputeUsageDelta(fuelInput(50, 20, 1000, 1050))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta != 1350 {
		t.Errorf("expected charge 1350, got %d", delta)
	}
}

func TestUsageDelta_FuelReturnedFullerRefunds(t *testing.T) {
	t.Parallel()

	delta, err := service.ComputeUsageDelta(fuelInput(40, 80, 1000, 1050))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta != -1800 {
		t.Errorf("expected refund -1800, got %d", delta)
	}
}

func TestUsageDelta_HybridMetersLikeFuel(t *testing.T) {
	t.Parallel()

	in := fuelInput(100, 50, 0, 10)
	in.Engine = domain.EngineTypeHybrid

	delta, err := service.ComputeUsageDelta(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta != 2250 {
		t.Errorf("expected charge 2250, got %d", delta)
	}
}

func electricInput(startCharge, endCharge int64) service.UsageInput {
	return service.UsageInput{
		Engine: domain.EngineTypeElectric,
		Params: []int64{1000, 1200, 1400, 1600}, // band prices, lowest band first
		Start:  service.Reading{FuelPercent: startCharge, Odometer: 500},
		End:    service.Reading{FuelPercent: endCharge, Odometer: 520},
		Days:   1,
	}
}

func TestUsageDelta_ElectricBandsCrossedDown(t *testing.T) {
	t.Parallel()

	// 80% is band 3, 30% is band 1: bands 1 and 2 were drained.
	delta, err := service.ComputeUsageDelta(electricInput(80, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta != 1200+1400 {
		t.Errorf("expected charge 2600, got %d", delta)
	}
}

func TestUsageDelta_ElectricChargedUpRefunds(t *testing.T) {
	t.Parallel()

	// Returned two bands above pickup.
	delta, err := service.ComputeUsageDelta(electricInput(10, 60))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta != -(1000 + 1200) {
		t.Errorf("expected refund -2200, got %d", delta)
	}
}

func TestUsageDelta_SameBandNoCharge(t *testing.T) {
	t.Parallel()

	delta, err := service.ComputeUsageDelta(electricInput(70, 55))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta != 0 {
		t.Errorf("expected no charge within a band, got %d", delta)
	}
}

func TestUsageDelta_MileageOverage(t *testing.T) {
	t.Parallel()

	in := service.UsageInput{
		Engine: domain.EngineTypeFuel,
		Params: []int64{15, 300},
		Start:  service.Reading{FuelPercent: 50, Odometer: 1000},
		End:    service.Reading{FuelPercent: 50, Odometer: 1250},

		DayPriceCents:       6000,
		MilesIncludedPerDay: 100,
		Days:                2,
	}

	// 250 driven, 200 included: 50 miles over at 6000/100 cents per mile.
	delta, err := service.ComputeUsageDelta(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta != 3000 {
		t.Errorf("expected overage 3000, got %d", delta)
	}
}

func TestUsageDelta_WithinAllowanceNoOverage(t *testing.T) {
	t.Parallel()

	in := service.UsageInput{
		Engine: domain.EngineTypeFuel,
		Params: []int64{15, 300},
		Start:  service.Reading{FuelPercent: 50, Odometer: 1000},
		End:    service.Reading{FuelPercent: 50, Odometer: 1150},

		DayPriceCents:       6000,
		MilesIncludedPerDay: 100,
		Days:                2,
	}

	delta, err := service.ComputeUsageDelta(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta != 0 {
		t.Errorf("expected no charge, got %d", delta)
	}
}

func TestUsageDelta_RejectsMalformedInput(t *testing.T) {
	t.Parallel()

	var valErr *service.ValidationError

	in := fuelInput(50, 20, 1000, 1050)
	in.Engine = "STEAM"
	if _, err := service.ComputeUsageDelta(in); !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for unknown engine, got %v", err)
	}

	in = fuelInput(120, 20, 1000, 1050)
	if _, err := service.ComputeUsageDelta(in); !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for fuel over 100%%, got %v", err)
	}

	in = fuelInput(50, 20, 1050, 1000)
	if _, err := service.ComputeUsageDelta(in); !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for shrinking odometer, got %v", err)
	}

	in = fuelInput(50, 20, 1000, 1050)
	in.Params = []int64{15}
	if _, err := service.ComputeUsageDelta(in); !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for malformed params, got %v", err)
	}

	in = electricInput(80, 30)
	in.Params = []int64{1000, 1200}
	if _, err := service.ComputeUsageDelta(in); !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for missing bands, got %v", err)
	}
}
