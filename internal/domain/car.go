package domain

import "time"

// EngineType distinguishes the vehicle's usage-metering model.
type EngineType string

const (
	EngineTypeFuel     EngineType = "FUEL"
	EngineTypeHybrid   EngineType = "HYBRID"
	EngineTypeElectric EngineType = "ELECTRIC"
)

// CarSnapshot is the point-in-time view of a vehicle read from the catalog at
// booking time. Catalog updates after booking never change an in-flight trip's
// economics.
type CarSnapshot struct {
	ID       string
	OwnerID  string
	Location string

	DayPriceCents int64
	DepositCents  int64

	EngineType EngineType
	// EngineParams is variant-specific: fuel/hybrid carry
	// [tankCapacityGallons, centsPerGallon]; electric carries the four
	// charge-band prices in cents.
	EngineParams []int64

	MilesIncludedPerDay int64
	BufferSeconds       int64
	IsListed            bool
}

// Buffer returns the car's reservation buffer as a duration.
func (c *CarSnapshot) Buffer() time.Duration {
	return time.Duration(c.BufferSeconds) * time.Second
}
