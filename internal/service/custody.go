package service

import (
	"context"
	"errors"

	"rental/internal/repository"
)

// LedgerCustody is a FundCustody implementation over the custody balance
// table. Debits that would push an account negative fail hard; the caller's
// transaction rolls back, so no partial movement is ever observable.
type LedgerCustody struct {
	escrowRepo repository.EscrowRepository
}

// NewLedgerCustody creates a new LedgerCustody.
func NewLedgerCustody(escrowRepo repository.EscrowRepository) *LedgerCustody {
	return &LedgerCustody{escrowRepo: escrowRepo}
}

var errInsufficientBalance = errors.New("insufficient balance")

// Debit removes funds from an account.
func (c *LedgerCustody) Debit(ctx context.Context, account, currency string, amount int64) error {
	if amount < 0 {
		return &CustodyError{Op: "debit", Account: account, Currency: currency, Amount: amount,
			Err: errors.New("negative amount")}
	}
	if amount == 0 {
		return nil
	}

	balance, err := c.escrowRepo.AdjustBalance(ctx, account, currency, -amount)
	if err != nil {
		return &CustodyError{Op: "debit", Account: account, Currency: currency, Amount: amount, Err: err}
	}

	if balance < 0 {
		// Roll the adjustment back before failing; the surrounding SQL
		// transaction would also discard it, but custody must hold on its own.
		_, _ = c.escrowRepo.AdjustBalance(ctx, account, currency, amount)
		return &CustodyError{Op: "debit", Account: account, Currency: currency, Amount: amount,
			Err: errInsufficientBalance}
	}

	return nil
}

// Credit adds funds to an account.
func (c *LedgerCustody) Credit(ctx context.Context, account, currency string, amount int64) error {
	if amount < 0 {
		return &CustodyError{Op: "credit", Account: account, Currency: currency, Amount: amount,
			Err: errors.New("negative amount")}
	}
	if amount == 0 {
		return nil
	}

	if _, err := c.escrowRepo.AdjustBalance(ctx, account, currency, amount); err != nil {
		return &CustodyError{Op: "credit", Account: account, Currency: currency, Amount: amount, Err: err}
	}

	return nil
}

// Ensure LedgerCustody implements FundCustody.
var _ FundCustody = (*LedgerCustody)(nil)
