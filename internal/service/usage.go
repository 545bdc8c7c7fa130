package service

import (
	"rental/internal/domain"
)

// Reading is one usage observation taken at check-in or checkout. FuelPercent
// doubles as charge percent for electric vehicles.
type Reading struct {
	FuelPercent int64
	Odometer    int64
}

// UsageInput carries everything the calculator needs for one trip.
type UsageInput struct {
	Engine domain.EngineType
	Params []int64

	Start Reading
	End   Reading

	DayPriceCents       int64
	MilesIncludedPerDay int64
	Days                int64
}

// engineVariant is the per-engine capability: parameter verification plus the
// fuel/charge component of the usage delta. Validation stays centralized in
// ComputeUsageDelta; variants only see verified input.
type engineVariant interface {
	verifyParams(params []int64) error
	usageDelta(params []int64, start, end Reading) int64
}

var engineVariants = map[domain.EngineType]engineVariant{
	domain.EngineTypeFuel:     fuelVariant{},
	domain.EngineTypeHybrid:   fuelVariant{}, // hybrid meters like a fuel tank
	domain.EngineTypeElectric: electricVariant{},
}

// ComputeUsageDelta maps start/end readings to a signed USD-cent adjustment:
// positive means the guest owes (fuel consumed, miles over the allowance),
// negative means a refund to the guest (vehicle returned fuller than taken).
// Malformed readings or variant parameters are rejected before any charge is
// computed.
func ComputeUsageDelta(in UsageInput) (int64, error) {
	variant, ok := engineVariants[in.Engine]
	if !ok {
		return 0, &ValidationError{Field: "engineType", Reason: "unknown: " + string(in.Engine)}
	}

	if err := variant.verifyParams(in.Params); err != nil {
		return 0, err
	}
	if err := verifyReading("start", in.Start); err != nil {
		return 0, err
	}
	if err := verifyReading("end", in.End); err != nil {
		return 0, err
	}
	if in.End.Odometer < in.Start.Odometer {
		return 0, &ValidationError{Field: "odometer", Reason: "end reading below start reading"}
	}
	if in.Days <= 0 {
		return 0, &ValidationError{Field: "days", Reason: "must be at least 1"}
	}

	delta := variant.usageDelta(in.Params, in.Start, in.End)

	// Mileage overage: distance beyond the included allowance is charged at
	// the day price spread over the daily allowance.
	if in.MilesIncludedPerDay > 0 {
		included := in.MilesIncludedPerDay * in.Days
		driven := in.End.Odometer - in.Start.Odometer
		if driven > included {
			delta += (driven - included) * in.DayPriceCents / in.MilesIncludedPerDay
		}
	}

	return delta, nil
}

func verifyReading(field string, r Reading) error {
	if r.FuelPercent < 0 || r.FuelPercent > 100 {
		return &ValidationError{Field: field + "FuelPercent", Reason: "must be within [0,100]"}
	}
	if r.Odometer < 0 {
		return &ValidationError{Field: field + "Odometer", Reason: "must not be negative"}
	}
	return nil
}

// fuelVariant covers fuel-tank and hybrid engines. Params:
// [tankCapacityGallons, centsPerGallon].
type fuelVariant struct{}

func (fuelVariant) verifyParams(params []int64) error {
	if len(params) != 2 {
		return &ValidationError{Field: "engineParams", Reason: "fuel engine expects [tankGallons, centsPerGallon]"}
	}
	if params[0] <= 0 || params[1] <= 0 {
		return &ValidationError{Field: "engineParams", Reason: "capacity and price must be positive"}
	}
	return nil
}

// usageDelta charges the consumed fraction of the tank at the per-gallon
// price; a tank returned fuller than taken yields a negative (refund) value.
func (fuelVariant) usageDelta(params []int64, start, end Reading) int64 {
	tankGallons, centsPerGallon := params[0], params[1]
	return (start.FuelPercent - end.FuelPercent) * tankGallons * centsPerGallon / 100
}

// electricVariant covers electric engines with four charge bands
// (0-25, 26-50, 51-75, 76-100). Params: the four band prices in cents.
type electricVariant struct{}

func (electricVariant) verifyParams(params []int64) error {
	if len(params) != 4 {
		return &ValidationError{Field: "engineParams", Reason: "electric engine expects four band prices"}
	}
	for _, p := range params {
		if p < 0 {
			return &ValidationError{Field: "engineParams", Reason: "band prices must not be negative"}
		}
	}
	return nil
}

// usageDelta sums the prices of the bands crossed between end and start
// charge; charging the car above its pickup band refunds the crossed bands.
func (electricVariant) usageDelta(params []int64, start, end Reading) int64 {
	startBand := chargeBand(start.FuelPercent)
	endBand := chargeBand(end.FuelPercent)

	var delta int64
	switch {
	case endBand < startBand:
		for b := endBand; b < startBand; b++ {
			delta += params[b]
		}
	case endBand > startBand:
		for b := startBand; b < endBand; b++ {
			delta -= params[b]
		}
	}
	return delta
}

// chargeBand maps a percent to its band index 0..3.
func chargeBand(percent int64) int {
	band := int(percent / 25)
	if band > 3 {
		band = 3
	}
	return band
}
