package domain

import "time"

// ClaimType categorizes a dispute. Host-filed and guest-filed type sets are
// disjoint; filing with a type outside the filer's set is rejected.
type ClaimType string

const (
	// Host-filed categories.
	ClaimTypeDamage      ClaimType = "DAMAGE"
	ClaimTypeLateReturn  ClaimType = "LATE_RETURN"
	ClaimTypeCleaning    ClaimType = "CLEANING"
	ClaimTypeMissingFuel ClaimType = "MISSING_FUEL"

	// Guest-filed categories.
	ClaimTypeOvercharge   ClaimType = "OVERCHARGE"
	ClaimTypeMislistedCar ClaimType = "MISLISTED_CAR"
	ClaimTypeSafetyDefect ClaimType = "SAFETY_DEFECT"
)

// HostFiled reports whether the claim type belongs to the host-filed set.
func (t ClaimType) HostFiled() bool {
	switch t {
	case ClaimTypeDamage, ClaimTypeLateReturn, ClaimTypeCleaning, ClaimTypeMissingFuel:
		return true
	}
	return false
}

// GuestFiled reports whether the claim type belongs to the guest-filed set.
func (t ClaimType) GuestFiled() bool {
	switch t {
	case ClaimTypeOvercharge, ClaimTypeMislistedCar, ClaimTypeSafetyDefect:
		return true
	}
	return false
}

// ClaimStatus represents the current status of a claim.
type ClaimStatus string

const (
	ClaimStatusOpen     ClaimStatus = "OPEN"
	ClaimStatusPaid     ClaimStatus = "PAID"
	ClaimStatusRejected ClaimStatus = "REJECTED"
)

// Claim represents a post-checkout dispute attached to a trip. The amount is
// denominated in USD cents; conversion happens at payment time with a fresh
// rate snapshot, independent of the trip's original snapshot.
type Claim struct {
	ID          string
	TripID      int64
	FilerID     string
	Type        ClaimType
	AmountCents int64
	Deadline    time.Time
	Status      ClaimStatus

	// InsuranceBacked claims draw the host's insurance pool first and may be
	// paid by an admin arbiter.
	InsuranceBacked bool

	// Filled at payment: the snapshot used, the cents actually settled, and
	// any pool shortfall left explicitly unresolved (never pulled from the
	// host's own funds).
	PaidRate        RateSnapshot
	PaidCents       int64
	UnresolvedCents int64

	CreatedAt time.Time
	ClosedAt  time.Time
}
