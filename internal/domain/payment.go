package domain

// RateSnapshot fixes a USD-cent to settlement-currency conversion for the
// lifetime of a trip or claim. Rate is USD cents per whole currency unit;
// Decimals is the currency's fractional precision.
type RateSnapshot struct {
	Currency string
	Rate     int64
	Decimals int32
}

// Convert converts a USD-cent amount into settlement units, rounding down.
// The caller is responsible for assigning the rounding remainder.
func (r RateSnapshot) Convert(cents int64) int64 {
	if r.Rate <= 0 {
		return 0
	}
	neg := cents < 0
	if neg {
		cents = -cents
	}
	out := cents * pow10(r.Decimals) / r.Rate
	if neg {
		return -out
	}
	return out
}

// Cents converts settlement units back into USD cents, rounding down. Used
// when a payout is capped below its target and the paid fraction must be
// reported in cents.
func (r RateSnapshot) Cents(units int64) int64 {
	d := pow10(r.Decimals)
	if d == 0 {
		return 0
	}
	neg := units < 0
	if neg {
		units = -units
	}
	out := units * r.Rate / d
	if neg {
		return -out
	}
	return out
}

func pow10(n int32) int64 {
	out := int64(1)
	for i := int32(0); i < n; i++ {
		out *= 10
	}
	return out
}

// PaymentInfo holds the economics of a single trip. The rate snapshot is
// captured once at trip creation and reused for every later computation, so
// refunds and earnings stay reproducible regardless of market movement.
type PaymentInfo struct {
	Rate RateSnapshot

	DayPriceCents  int64
	Days           int64
	TaxCents       int64
	DepositCents   int64
	DeliveryCents  int64
	InsuranceCents int64
	DiscountCents  int64

	// PlatformFeePPM is the platform's cut in parts-per-million of the
	// discounted subtotal.
	PlatformFeePPM int64

	// EscrowCents is the full amount debited from the guest at creation:
	// base + taxes + deposit + delivery + insurance - discount.
	EscrowCents int64

	// EscrowSettled is EscrowCents converted once at creation. All later
	// disbursements must sum to exactly this value.
	EscrowSettled int64

	// Filled at settlement.
	HostEarningsSettled int64
	PlatformFeeSettled  int64
}

// SubtotalCents returns the raw subtotal before discount and tax.
func (p *PaymentInfo) SubtotalCents() int64 {
	return p.DayPriceCents*p.Days + p.DeliveryCents
}

// DiscountedSubtotalCents returns the subtotal after the discount is applied.
func (p *PaymentInfo) DiscountedSubtotalCents() int64 {
	s := p.SubtotalCents() - p.DiscountCents
	if s < 0 {
		return 0
	}
	return s
}
