package domain

import "time"

// DiscountTier maps a minimum trip length to a percentage off the subtotal.
type DiscountTier struct {
	MinDays    int64
	PercentOff int64
}

// DiscountRule is the ordered tier set for one host. Hosts without a rule of
// their own fall back to the platform default.
type DiscountRule struct {
	HostID string
	Tiers  []DiscountTier
}

// PercentFor returns the highest-tier discount applicable to the day count.
func (r *DiscountRule) PercentFor(days int64) int64 {
	best := int64(0)
	for _, t := range r.Tiers {
		if days >= t.MinDays && t.PercentOff > best {
			best = t.PercentOff
		}
	}
	return best
}

// PromoKind distinguishes the two redemption models.
type PromoKind string

const (
	// PromoKindSingleUse codes carry a remaining-uses counter consumed
	// globally.
	PromoKindSingleUse PromoKind = "SINGLE_USE"
	// PromoKindGeneral codes are unlimited but allow one redemption per
	// account.
	PromoKindGeneral PromoKind = "GENERAL"
)

// PromoCode represents a redeemable discount code. A promo substitutes for the
// duration discount, never stacks with it; a 100%-waiver zeroes the whole
// computed total except the deposit.
type PromoCode struct {
	Code       string
	BatchID    string
	Kind       PromoKind
	PercentOff int64
	Waiver     bool

	ValidFrom     time.Time
	ValidUntil    time.Time
	Active        bool
	RemainingUses int64

	CreatedAt time.Time
}

// Valid reports whether the code can be redeemed at the given time. Per-account
// general-code redemption is checked separately against the redemption ledger.
func (p *PromoCode) Valid(now time.Time) bool {
	if !p.Active {
		return false
	}
	if now.Before(p.ValidFrom) || now.After(p.ValidUntil) {
		return false
	}
	if p.Kind == PromoKindSingleUse && p.RemainingUses <= 0 {
		return false
	}
	return true
}

// DiscountOn returns the discount the promo yields on a subtotal.
func (p *PromoCode) DiscountOn(subtotalCents int64) int64 {
	if p.Waiver {
		return subtotalCents
	}
	return subtotalCents * p.PercentOff / 100
}
