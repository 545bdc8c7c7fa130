package service

import (
	"context"
	"sync"

	"rental/internal/domain"
)

// TableOracle is a RateOracle backed by an admin-maintained rate table. Rates
// are USD cents per whole currency unit. The zero-decimals USD entry is always
// present so cent-denominated settlement works out of the box.
type TableOracle struct {
	mu    sync.RWMutex
	rates map[string]domain.RateSnapshot
}

// NewTableOracle creates a TableOracle seeded with the USD identity rate.
func NewTableOracle() *TableOracle {
	return &TableOracle{
		rates: map[string]domain.RateSnapshot{
			"USD": {Currency: "USD", Rate: 100, Decimals: 2},
		},
	}
}

// RateOf returns the snapshot for a currency.
func (o *TableOracle) RateOf(ctx context.Context, currency string) (domain.RateSnapshot, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	snap, ok := o.rates[currency]
	if !ok {
		return domain.RateSnapshot{}, &ValidationError{Field: "currency", Reason: "unsupported: " + currency}
	}

	return snap, nil
}

// SetRate installs or replaces a currency's rate. Admin-gated at the handler
// layer.
func (o *TableOracle) SetRate(currency string, rate int64, decimals int32) error {
	if rate <= 0 {
		return &ValidationError{Field: "rate", Reason: "must be positive"}
	}
	if decimals < 0 || decimals > 18 {
		return &ValidationError{Field: "decimals", Reason: "out of range"}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.rates[currency] = domain.RateSnapshot{Currency: currency, Rate: rate, Decimals: decimals}
	return nil
}

// Ensure TableOracle implements RateOracle.
var _ RateOracle = (*TableOracle)(nil)
