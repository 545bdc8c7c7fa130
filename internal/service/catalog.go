package service

import (
	"context"

	"rental/internal/domain"
	"rental/internal/redis"
)

// CachedCatalog decorates a CarCatalog with a Redis snapshot cache. A cache
// failure falls through to the inner catalog; the cache is never load-bearing.
type CachedCatalog struct {
	inner CarCatalog
	cache redis.CacheStoreInterface
}

// NewCachedCatalog creates a new CachedCatalog.
func NewCachedCatalog(inner CarCatalog, cache redis.CacheStoreInterface) *CachedCatalog {
	return &CachedCatalog{inner: inner, cache: cache}
}

// Car retrieves a vehicle snapshot, preferring the cache.
func (c *CachedCatalog) Car(ctx context.Context, carID string) (*domain.CarSnapshot, error) {
	if cached, err := c.cache.GetCar(ctx, carID); err == nil && cached != nil {
		return &domain.CarSnapshot{
			ID:                  cached.ID,
			OwnerID:             cached.OwnerID,
			Location:            cached.Location,
			DayPriceCents:       cached.DayPriceCents,
			DepositCents:        cached.DepositCents,
			EngineType:          domain.EngineType(cached.EngineType),
			EngineParams:        cached.EngineParams,
			MilesIncludedPerDay: cached.MilesIncludedPerDay,
			BufferSeconds:       cached.BufferSeconds,
			IsListed:            cached.IsListed,
		}, nil
	}

	car, err := c.inner.Car(ctx, carID)
	if err != nil {
		return nil, err
	}

	_ = c.cache.SetCar(ctx, &redis.CachedCar{
		ID:                  car.ID,
		OwnerID:             car.OwnerID,
		Location:            car.Location,
		DayPriceCents:       car.DayPriceCents,
		DepositCents:        car.DepositCents,
		EngineType:          string(car.EngineType),
		EngineParams:        car.EngineParams,
		MilesIncludedPerDay: car.MilesIncludedPerDay,
		BufferSeconds:       car.BufferSeconds,
		IsListed:            car.IsListed,
	})

	return car, nil
}

// CachedOracle decorates a RateOracle with a Redis rate cache. Trips still
// freeze their own snapshots; the cache only saves oracle round-trips.
type CachedOracle struct {
	inner RateOracle
	cache redis.CacheStoreInterface
}

// NewCachedOracle creates a new CachedOracle.
func NewCachedOracle(inner RateOracle, cache redis.CacheStoreInterface) *CachedOracle {
	return &CachedOracle{inner: inner, cache: cache}
}

// RateOf retrieves a currency's rate snapshot, preferring the cache.
func (o *CachedOracle) RateOf(ctx context.Context, currency string) (domain.RateSnapshot, error) {
	if cached, err := o.cache.GetRate(ctx, currency); err == nil && cached != nil {
		return domain.RateSnapshot{
			Currency: cached.Currency,
			Rate:     cached.Rate,
			Decimals: cached.Decimals,
		}, nil
	}

	snap, err := o.inner.RateOf(ctx, currency)
	if err != nil {
		return domain.RateSnapshot{}, err
	}

	_ = o.cache.SetRate(ctx, &redis.CachedRate{
		Currency: snap.Currency,
		Rate:     snap.Rate,
		Decimals: snap.Decimals,
	})

	return snap, nil
}

// Ensure the decorators implement their boundaries.
var (
	_ CarCatalog = (*CachedCatalog)(nil)
	_ RateOracle = (*CachedOracle)(nil)
)
