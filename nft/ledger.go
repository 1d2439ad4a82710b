// Package nft is the base non-fungible token ledger: ownership, approvals,
// enumeration and native balances.
//
// The registry depends only on the Ledger interface. Core is the default
// implementation over a Store and follows NEP-171 (core), NEP-178
// (approvals) and NEP-181 (enumeration).
package nft

import (
	"context"
	"errors"

	"github.com/xraph/mintage/id"
	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
)

var (
	// ErrNotApproved is returned when a non-owner sender holds no approval.
	ErrNotApproved = errors.New("nft: sender not approved")
	// ErrApprovalMismatch is returned when the given approval id differs
	// from the one on record.
	ErrApprovalMismatch = errors.New("nft: approval id mismatch")
	// ErrSameOwner is returned when a token is transferred to its owner.
	ErrSameOwner = errors.New("nft: current and next owner must differ")
	// ErrNotOwner is returned when a non-owner manages approvals.
	ErrNotOwner = errors.New("nft: caller is not the token owner")
)

// Store is the persistence the Core needs: token records plus storage
// accounting.
type Store interface {
	token.Store
	meter.Accounts
}

// TransferRequest moves a token from its owner to Receiver on behalf of
// Sender, who must be the owner or hold an approval.
type TransferRequest struct {
	Sender     types.AccountID
	Receiver   types.AccountID
	TokenID    string
	ApprovalID *uint64
	Memo       *string
}

// TransferResult describes a completed transfer.
type TransferResult struct {
	ID                id.TransferID              `json:"id"`
	TokenID           string                     `json:"token_id"`
	PreviousOwner     types.AccountID            `json:"old_owner_id"`
	NewOwner          types.AccountID            `json:"new_owner_id"`
	AuthorizedID      *types.AccountID           `json:"authorized_id,omitempty"`
	PreviousApprovals map[types.AccountID]uint64 `json:"previous_approvals,omitempty"`
	Memo              *string                    `json:"memo,omitempty"`
}

// Ledger is the capability set the registry consumes from the base ledger.
type Ledger interface {
	// Create records a new token. It fails with token.ErrAlreadyExists
	// when the id is taken.
	Create(ctx context.Context, tokenID string, owner types.AccountID, metadata *token.Metadata) (*token.Token, error)

	// Remove deletes a token. It is used only to undo an aborted mint.
	Remove(ctx context.Context, tokenID string) error

	// Transfer moves a token and clears its approvals.
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)

	// ResolveTransfer settles a transfer-call. When returned is true and
	// receiver still owns the token, it goes back to previousOwner with
	// approvals restored. It reports whether the token stayed with the
	// receiver; a non-nil result describes the transfer back.
	ResolveTransfer(ctx context.Context, previousOwner, receiver types.AccountID, tokenID string,
		approvals map[types.AccountID]uint64, returned bool) (bool, *TransferResult, error)

	Token(ctx context.Context, tokenID string) (*token.Token, error)
	Owner(ctx context.Context, tokenID string) (types.AccountID, error)

	Enumerate(ctx context.Context) ([]token.Entry, error)
	EnumerateByOwner(ctx context.Context, owner types.AccountID) ([]token.Entry, error)
	Supply(ctx context.Context) (uint64, error)
	SupplyForOwner(ctx context.Context, owner types.AccountID) (uint64, error)

	Approve(ctx context.Context, tokenID string, caller, account types.AccountID) (uint64, error)
	Revoke(ctx context.Context, tokenID string, caller, account types.AccountID) error
	RevokeAll(ctx context.Context, tokenID string, caller types.AccountID) error
	IsApproved(ctx context.Context, tokenID string, account types.AccountID, approvalID *uint64) (bool, error)

	meter.Accounts
}

// Receiver is notified after a transfer-call. Returning true asks for the
// token to be sent back to its previous owner.
type Receiver interface {
	OnTransfer(ctx context.Context, sender, previousOwner types.AccountID, tokenID, msg string) (bool, error)
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(ctx context.Context, sender, previousOwner types.AccountID, tokenID, msg string) (bool, error)

// OnTransfer implements Receiver.
func (f ReceiverFunc) OnTransfer(ctx context.Context, sender, previousOwner types.AccountID, tokenID, msg string) (bool, error) {
	return f(ctx, sender, previousOwner, tokenID, msg)
}
