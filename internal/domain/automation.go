package domain

import "time"

// AutomationAction is the forced transition a due entry triggers.
type AutomationAction string

const (
	// AutomationCancelUnapproved cancels a trip whose approval deadline
	// passed, with a full guest refund.
	AutomationCancelUnapproved AutomationAction = "CANCEL_UNAPPROVED"
	// AutomationForceGuestCheckin advances a host-checked-in trip whose guest
	// never showed, defaulting end usage to start usage.
	AutomationForceGuestCheckin AutomationAction = "FORCE_GUEST_CHECKIN"
	// AutomationForceGuestCheckout closes out a guest-checked-in trip past its
	// scheduled end.
	AutomationForceGuestCheckout AutomationAction = "FORCE_GUEST_CHECKOUT"
)

// AutomationEntry schedules a forced transition for a stale trip. Entries are
// ephemeral: created on entering a deadline state, removed when the trip
// advances normally, consumed by the sweeper otherwise.
type AutomationEntry struct {
	TripID     int64
	Action     AutomationAction
	ActivateAt time.Time
}
