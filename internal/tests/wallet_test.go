package tests

import (
	"context"
	"errors"
	"testing"

	"rental/internal/service"
)

func TestWallet_DepositAndWithdraw(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	wallet := service.NewWalletService(f.store, f.oracle)
	ctx := context.Background()

	balance, err := wallet.Deposit(ctx, "acct-1", "USD", 5000)
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if balance != 5000 {
		t.Errorf("expected balance 5000, got %d", balance)
	}

	balance, err = wallet.Withdraw(ctx, "acct-1", "USD", 2000)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if balance != 3000 {
		t.Errorf("expected balance 3000, got %d", balance)
	}

	balance, err = wallet.Balance(ctx, "acct-1", "USD")
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 3000 {
		t.Errorf("expected balance 3000, got %d", balance)
	}
}

func TestWallet_OverdraftRejected(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	wallet := service.NewWalletService(f.store, f.oracle)
	ctx := context.Background()

	if _, err := wallet.Deposit(ctx, "acct-1", "USD", 1000); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	_, err := wallet.Withdraw(ctx, "acct-1", "USD", 1001)
	var custErr *service.CustodyError
	if !errors.As(err, &custErr) {
		t.Fatalf("expected CustodyError, got %v", err)
	}
	if got := f.escrow.BalanceOf("acct-1", "USD"); got != 1000 {
		t.Errorf("expected balance untouched at 1000, got %d", got)
	}
}

func TestWallet_UnsupportedCurrencyRejected(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	wallet := service.NewWalletService(f.store, f.oracle)

	_, err := wallet.Deposit(context.Background(), "acct-1", "XYZ", 1000)
	var valErr *service.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestWallet_NonPositiveAmountsRejected(t *testing.T) {
	t.Parallel()
	f := newEngineFixture()
	wallet := service.NewWalletService(f.store, f.oracle)

	var valErr *service.ValidationError
	if _, err := wallet.Deposit(context.Background(), "acct-1", "USD", 0); !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for zero deposit, got %v", err)
	}
	if _, err := wallet.Withdraw(context.Background(), "acct-1", "USD", -5); !errors.As(err, &valErr) {
		t.Errorf("expected ValidationError for negative withdrawal, got %v", err)
	}
}
