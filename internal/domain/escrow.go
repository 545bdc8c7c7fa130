package domain

import "time"

// EscrowDirection marks which way funds moved relative to the escrow account.
type EscrowDirection string

const (
	EscrowDirectionDebit  EscrowDirection = "DEBIT"  // taken from a party into escrow
	EscrowDirectionCredit EscrowDirection = "CREDIT" // released from escrow to a party
)

// EscrowEntry is one append-only row of the fund-movement ledger. The sum of
// credits for a completed trip must equal its creation debit in every
// currency — the conservation property is audited against these rows.
type EscrowEntry struct {
	ID        string
	TripID    int64
	Account   string
	Direction EscrowDirection
	Currency  string
	Amount    int64
	Reason    string
	CreatedAt time.Time
}
