package domain

import "time"

// ReferralAction is a point-earning activity performed by a referred account.
type ReferralAction string

const (
	ReferralActionRegistration  ReferralAction = "REGISTRATION"
	ReferralActionFirstListing  ReferralAction = "FIRST_LISTING"
	ReferralActionTripCompleted ReferralAction = "TRIP_COMPLETED"
)

// ReferralAccount tracks one account's durable referral hash and point
// balances. Points accrue as pending and move to settled only on an explicit
// claim.
type ReferralAccount struct {
	AccountID     string
	Hash          string
	ReferrerHash  string
	PendingPoints int64
	SettledPoints int64
	CreatedAt     time.Time
}
