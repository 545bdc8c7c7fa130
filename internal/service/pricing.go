package service

import (
	"sync"

	"rental/internal/domain"
)

// ppmDenominator is the parts-per-million base used for percentage rates.
const ppmDenominator = 1_000_000

// TaxRuleKind selects how a tax component is computed.
type TaxRuleKind string

const (
	// TaxFlatPerDay charges a fixed cent amount per trip day.
	TaxFlatPerDay TaxRuleKind = "FLAT_PER_DAY"
	// TaxPercentSubtotal charges a PPM rate of the discounted subtotal.
	TaxPercentSubtotal TaxRuleKind = "PERCENT_SUBTOTAL"
	// TaxPercentTotal charges a PPM rate of the discounted subtotal plus the
	// flat components.
	TaxPercentTotal TaxRuleKind = "PERCENT_TOTAL"
)

// TaxRule is one composable tax component.
type TaxRule struct {
	Kind        TaxRuleKind
	CentsPerDay int64
	RatePPM     int64
}

// TaxTable is the jurisdiction-keyed tax registry. It is an owned, versioned
// configuration struct: mutation goes only through admin update operations,
// never ambient globals.
type TaxTable struct {
	mu       sync.RWMutex
	version  int64
	rules    map[string][]TaxRule
	fallback []TaxRule
}

// NewTaxTable creates a TaxTable with the given default rule set.
func NewTaxTable(fallback []TaxRule) *TaxTable {
	return &TaxTable{
		rules:    make(map[string][]TaxRule),
		fallback: fallback,
	}
}

// RulesFor returns the rule set for a jurisdiction, falling back to the
// platform default.
func (t *TaxTable) RulesFor(jurisdiction string) []TaxRule {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if rules, ok := t.rules[jurisdiction]; ok {
		return rules
	}
	return t.fallback
}

// SetRules installs the rule set for a jurisdiction and bumps the version.
func (t *TaxTable) SetRules(jurisdiction string, rules []TaxRule) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules[jurisdiction] = rules
	t.version++
}

// Version returns the current configuration version.
func (t *TaxTable) Version() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// DiscountTable holds per-host duration discount rules with a platform
// default fallback. Versioned and admin-mutated like TaxTable.
type DiscountTable struct {
	mu       sync.RWMutex
	version  int64
	rules    map[string]*domain.DiscountRule
	fallback domain.DiscountRule
}

// NewDiscountTable creates a DiscountTable with the given platform default.
func NewDiscountTable(fallback domain.DiscountRule) *DiscountTable {
	return &DiscountTable{
		rules:    make(map[string]*domain.DiscountRule),
		fallback: fallback,
	}
}

// RuleFor returns the host's rule, or the platform default.
func (t *DiscountTable) RuleFor(hostID string) *domain.DiscountRule {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if rule, ok := t.rules[hostID]; ok {
		return rule
	}
	fb := t.fallback
	return &fb
}

// SetRule installs a host's rule and bumps the version.
func (t *DiscountTable) SetRule(rule *domain.DiscountRule) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules[rule.HostID] = rule
	t.version++
}

// PricingEngine computes trip economics. All arithmetic is in USD cents; the
// single conversion to the settlement currency happens once, against the
// trip's creation snapshot.
type PricingEngine struct {
	taxes          *TaxTable
	discounts      *DiscountTable
	platformFeePPM int64
}

// NewPricingEngine creates a new PricingEngine.
func NewPricingEngine(taxes *TaxTable, discounts *DiscountTable, platformFeePPM int64) *PricingEngine {
	return &PricingEngine{
		taxes:          taxes,
		discounts:      discounts,
		platformFeePPM: platformFeePPM,
	}
}

// PlatformFeePPM returns the configured platform fee rate.
func (e *PricingEngine) PlatformFeePPM() int64 {
	return e.platformFeePPM
}

// QuoteInput carries everything pricing needs for one trip.
type QuoteInput struct {
	Car           *domain.CarSnapshot
	Days          int64
	DeliveryCents int64

	// SkipInsurance is set when the guest carries equivalent coverage of
	// their own; the premium is then omitted entirely.
	SkipInsurance  bool
	InsuranceCents int64

	// Promo is an optional, already-validated code. A promo substitutes for
	// the duration discount; it never stacks with it.
	Promo *domain.PromoCode

	Jurisdiction string
}

// Quote is the computed price breakdown in USD cents.
type Quote struct {
	SubtotalCents  int64
	DiscountCents  int64
	TaxCents       int64
	DepositCents   int64
	DeliveryCents  int64
	InsuranceCents int64

	// TotalCents is the escrow debit taken from the guest at creation.
	TotalCents int64

	PromoApplied bool
	Waived       bool
}

// Quote computes the canonical discount-then-tax breakdown:
//
//	subtotal = dayPrice*days + delivery
//	discount = duration tier OR promo (substitution)
//	taxes    = jurisdiction rules on the discounted subtotal
//	total    = discounted subtotal + taxes + deposit + insurance
//
// A waiver promo zeroes everything except the deposit.
func (e *PricingEngine) Quote(in QuoteInput) (*Quote, error) {
	if in.Days <= 0 {
		return nil, &ValidationError{Field: "days", Reason: "must be at least 1"}
	}
	if in.Car == nil {
		return nil, &ValidationError{Field: "car", Reason: "missing snapshot"}
	}
	if in.DeliveryCents < 0 {
		return nil, &ValidationError{Field: "deliveryCents", Reason: "must not be negative"}
	}

	q := &Quote{
		DepositCents:  in.Car.DepositCents,
		DeliveryCents: in.DeliveryCents,
	}
	q.SubtotalCents = in.Car.DayPriceCents*in.Days + in.DeliveryCents

	if in.Promo != nil && in.Promo.Waiver {
		// Full waiver: only the deposit survives.
		q.DiscountCents = q.SubtotalCents
		q.TotalCents = q.DepositCents
		q.PromoApplied = true
		q.Waived = true
		return q, nil
	}

	if in.Promo != nil {
		q.DiscountCents = in.Promo.DiscountOn(q.SubtotalCents)
		q.PromoApplied = true
	} else {
		rule := e.discounts.RuleFor(in.Car.OwnerID)
		q.DiscountCents = q.SubtotalCents * rule.PercentFor(in.Days) / 100
	}

	discounted := q.SubtotalCents - q.DiscountCents
	q.TaxCents = computeTaxes(e.taxes.RulesFor(in.Jurisdiction), discounted, in.Days)

	if !in.SkipInsurance {
		q.InsuranceCents = in.InsuranceCents
	}

	q.TotalCents = discounted + q.TaxCents + q.DepositCents + q.InsuranceCents
	return q, nil
}

// computeTaxes applies the jurisdiction's components to the discounted
// subtotal. Flat components are multiplied by day count; percentage
// components apply to the discounted subtotal (PERCENT_TOTAL additionally
// covers the flat components).
func computeTaxes(rules []TaxRule, discountedSubtotal, days int64) int64 {
	var flat, percent int64
	for _, r := range rules {
		switch r.Kind {
		case TaxFlatPerDay:
			flat += r.CentsPerDay * days
		case TaxPercentSubtotal:
			percent += discountedSubtotal * r.RatePPM / ppmDenominator
		}
	}
	for _, r := range rules {
		if r.Kind == TaxPercentTotal {
			percent += (discountedSubtotal + flat) * r.RatePPM / ppmDenominator
		}
	}
	return flat + percent
}
