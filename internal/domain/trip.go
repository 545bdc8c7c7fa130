package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusCreated           TripStatus = "CREATED"
	TripStatusApproved          TripStatus = "APPROVED"
	TripStatusCheckedInByHost   TripStatus = "CHECKED_IN_BY_HOST"
	TripStatusCheckedInByGuest  TripStatus = "CHECKED_IN_BY_GUEST"
	TripStatusCheckedOutByGuest TripStatus = "CHECKED_OUT_BY_GUEST"
	TripStatusCheckedOutByHost  TripStatus = "CHECKED_OUT_BY_HOST"
	TripStatusFinished          TripStatus = "FINISHED"
	TripStatusRejected          TripStatus = "REJECTED"
	TripStatusCanceled          TripStatus = "CANCELED"
)

// Terminal reports whether no further transition is possible from the status.
func (s TripStatus) Terminal() bool {
	return s == TripStatusFinished || s == TripStatusRejected || s == TripStatusCanceled
}

// UsageSnapshot holds the vehicle readings taken at guest check-in and checkout.
// Percentages are whole percent in [0,100]; odometer values are miles.
type UsageSnapshot struct {
	StartFuelPercent int64
	StartOdometer    int64
	EndFuelPercent   int64
	EndOdometer      int64
	EndRecorded      bool
}

// Trip represents a booking moving through the rental lifecycle.
// Trips are append-only: status and timestamps advance, records are never deleted.
type Trip struct {
	ID      int64
	CarID   string
	HostID  string
	GuestID string
	Status  TripStatus

	// Location is the jurisdiction key used for tax lookup and admin filtering.
	Location string

	ScheduledStart time.Time
	ScheduledEnd   time.Time

	// Transition timestamps. Zero until the transition is reached; once set,
	// never cleared.
	CreatedAt       time.Time
	ApprovedAt      time.Time
	RejectedAt      time.Time
	CanceledAt      time.Time
	HostCheckinAt   time.Time
	GuestCheckinAt  time.Time
	GuestCheckoutAt time.Time
	HostCheckoutAt  time.Time
	FinishedAt      time.Time

	// ClosedBy records which party rejected or canceled the trip.
	ClosedBy Role

	// PendingConfirm is set when the host checks the car back in without the
	// guest's participation; Finish is blocked until the guest or an admin
	// confirms the checkout.
	PendingConfirm bool

	// Booking-time vehicle snapshot needed for settlement. Catalog updates
	// after booking never reach an in-flight trip.
	EngineType          EngineType
	EngineParams        []int64
	MilesIncludedPerDay int64

	Usage     UsageSnapshot
	Payment   PaymentInfo
	PromoCode string
}

// Active reports whether the trip still holds escrowed funds.
func (t *Trip) Active() bool {
	return !t.Status.Terminal()
}

// Overlaps reports whether the trip's scheduled window, padded by the car's
// buffer, collides with the [start, end) window.
func (t *Trip) Overlaps(start, end time.Time, buffer time.Duration) bool {
	bufStart := t.ScheduledStart.Add(-buffer)
	bufEnd := t.ScheduledEnd.Add(buffer)
	return start.Before(bufEnd) && bufStart.Before(end)
}
