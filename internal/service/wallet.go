package service

import (
	"context"

	"rental/internal/repository"
)

// WalletService funds and reads custody accounts. Deposits arrive from the
// payment processor's webhook; withdrawals push settled funds back out. The
// engine itself only keeps custody.
type WalletService struct {
	store  repository.Store
	oracle RateOracle
}

// NewWalletService creates a new WalletService.
func NewWalletService(store repository.Store, oracle RateOracle) *WalletService {
	return &WalletService{store: store, oracle: oracle}
}

// Deposit credits an account and returns the resulting balance.
func (s *WalletService) Deposit(ctx context.Context, accountID, currency string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if _, err := s.oracle.RateOf(ctx, currency); err != nil {
		return 0, err
	}

	var balance int64
	err := s.store.Atomically(ctx, func(r repository.Repos) error {
		custody := NewLedgerCustody(r.Escrow)
		if err := custody.Credit(ctx, accountID, currency, amount); err != nil {
			return err
		}
		var err error
		balance, err = r.Escrow.Balance(ctx, accountID, currency)
		return err
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Withdraw debits an account and returns the resulting balance. Fails when
// the balance cannot cover the amount.
func (s *WalletService) Withdraw(ctx context.Context, accountID, currency string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	var balance int64
	err := s.store.Atomically(ctx, func(r repository.Repos) error {
		custody := NewLedgerCustody(r.Escrow)
		if err := custody.Debit(ctx, accountID, currency, amount); err != nil {
			return err
		}
		var err error
		balance, err = r.Escrow.Balance(ctx, accountID, currency)
		return err
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Balance returns an account's balance in a currency.
func (s *WalletService) Balance(ctx context.Context, accountID, currency string) (int64, error) {
	return s.store.Repos().Escrow.Balance(ctx, accountID, currency)
}
