package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	CarCacheTTL  = 60 * time.Second // Listings change rarely during a booking flow
	RateCacheTTL = 30 * time.Second // Rates move; snapshots are taken from the oracle anyway
)

// Key prefixes
const (
	carCachePrefix  = "cache:car:"
	rateCachePrefix = "cache:rate:"
)

// CachedCar represents a cached vehicle snapshot.
type CachedCar struct {
	ID                  string  `json:"id"`
	OwnerID             string  `json:"owner_id"`
	Location            string  `json:"location"`
	DayPriceCents       int64   `json:"day_price_cents"`
	DepositCents        int64   `json:"deposit_cents"`
	EngineType          string  `json:"engine_type"`
	EngineParams        []int64 `json:"engine_params"`
	MilesIncludedPerDay int64   `json:"miles_included_per_day"`
	BufferSeconds       int64   `json:"buffer_seconds"`
	IsListed            bool    `json:"is_listed"`
}

// CachedRate represents a cached currency rate.
type CachedRate struct {
	Currency string `json:"currency"`
	Rate     int64  `json:"rate"`
	Decimals int32  `json:"decimals"`
}

// GetCar retrieves a car snapshot from cache.
func (s *CacheStore) GetCar(ctx context.Context, carID string) (*CachedCar, error) {
	key := carCachePrefix + carID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var car CachedCar
	if err := json.Unmarshal(data, &car); err != nil {
		return nil, err
	}
	return &car, nil
}

// SetCar stores a car snapshot in cache.
func (s *CacheStore) SetCar(ctx context.Context, car *CachedCar) error {
	key := carCachePrefix + car.ID
	data, err := json.Marshal(car)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, CarCacheTTL).Err()
}

// InvalidateCar removes a car snapshot from cache.
func (s *CacheStore) InvalidateCar(ctx context.Context, carID string) error {
	key := carCachePrefix + carID
	return s.client.Del(ctx, key).Err()
}

// GetRate retrieves a currency rate from cache.
func (s *CacheStore) GetRate(ctx context.Context, currency string) (*CachedRate, error) {
	key := rateCachePrefix + currency
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var rate CachedRate
	if err := json.Unmarshal(data, &rate); err != nil {
		return nil, err
	}
	return &rate, nil
}

// SetRate stores a currency rate in cache.
func (s *CacheStore) SetRate(ctx context.Context, rate *CachedRate) error {
	key := rateCachePrefix + rate.Currency
	data, err := json.Marshal(rate)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, RateCacheTTL).Err()
}

// InvalidateRate removes a currency rate from cache.
func (s *CacheStore) InvalidateRate(ctx context.Context, currency string) error {
	key := rateCachePrefix + currency
	return s.client.Del(ctx, key).Err()
}
