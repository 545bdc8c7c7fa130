package service

import (
	"fmt"

	"rental/internal/domain"
)

// AuthorizationError is returned when the caller's role does not match the
// operation's permitted actor set. Never retried.
type AuthorizationError struct {
	Op      string
	Account string
	Role    domain.Role
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: account %s (role %s) is not permitted", e.Op, e.Account, e.Role)
}

// StateConflictError is returned when a trip or claim is not in the required
// source state. The caller must re-query current state before retrying.
type StateConflictError struct {
	Op       string
	Current  string
	Required string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s: requires state %s, currently %s", e.Op, e.Required, e.Current)
}

// ValidationError is returned for malformed input: bad usage readings,
// expired or exhausted promo codes, unsupported currencies.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ScheduleConflictError is returned when a booking window overlaps an
// approved trip for the same vehicle.
type ScheduleConflictError struct {
	CarID             string
	ConflictingTripID int64
}

func (e *ScheduleConflictError) Error() string {
	if e.ConflictingTripID == 0 {
		return fmt.Sprintf("car %s: concurrent booking in progress", e.CarID)
	}
	return fmt.Sprintf("car %s: window overlaps approved trip %d", e.CarID, e.ConflictingTripID)
}

// CustodyError is returned when an external fund movement fails. Always fatal
// to the transition; the enclosing transaction rolls back fully.
type CustodyError struct {
	Op       string
	Account  string
	Currency string
	Amount   int64
	Err      error
}

func (e *CustodyError) Error() string {
	return fmt.Sprintf("custody %s of %d %s for %s failed: %v", e.Op, e.Amount, e.Currency, e.Account, e.Err)
}

func (e *CustodyError) Unwrap() error { return e.Err }

// InvariantError signals a state the engine must never reach, such as two
// approved trips overlapping on the same vehicle. Not recoverable by the
// caller.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Detail
}
