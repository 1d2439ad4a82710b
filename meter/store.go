package meter

import (
	"context"
	"errors"

	"github.com/xraph/mintage/types"
)

// ErrInsufficientBalance is returned by Debit when an account holds less
// than the requested amount.
var ErrInsufficientBalance = errors.New("meter: insufficient balance")

// Accounts is the storage-accounting surface of the base ledger: the
// storage-unit counter plus native balances and the refund-transfer
// primitive.
type Accounts interface {
	// StorageUsage returns the total metered bytes currently persisted.
	StorageUsage(ctx context.Context) (uint64, error)

	// Balance returns the balance of account, zero when unknown.
	Balance(ctx context.Context, account types.AccountID) (types.Amount, error)

	// Credit adds amount to account.
	Credit(ctx context.Context, account types.AccountID, amount types.Amount) error

	// Debit removes amount from account or fails with ErrInsufficientBalance.
	Debit(ctx context.Context, account types.AccountID, amount types.Amount) error
}
