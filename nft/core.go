package nft

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/mintage/id"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
)

// compile-time interface check
var _ Ledger = (*Core)(nil)

// Core is the default Ledger over a Store.
type Core struct {
	store Store
	clock func() time.Time
}

// CoreOption configures a Core.
type CoreOption func(*Core)

// WithClock sets the time source for record timestamps.
func WithClock(clock func() time.Time) CoreOption {
	return func(c *Core) { c.clock = clock }
}

// NewCore creates a Core over store.
func NewCore(store Store, opts ...CoreOption) *Core {
	c := &Core{store: store, clock: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create records a new token owned by owner.
func (c *Core) Create(ctx context.Context, tokenID string, owner types.AccountID, metadata *token.Metadata) (*token.Token, error) {
	t := &token.Token{
		Entity:    types.NewEntityAt(c.clock()),
		ID:        tokenID,
		OwnerID:   owner,
		Metadata:  metadata.Clone(),
		Approvals: map[types.AccountID]uint64{},
	}
	if err := c.store.CreateToken(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Remove deletes a token.
func (c *Core) Remove(ctx context.Context, tokenID string) error {
	return c.store.DeleteToken(ctx, tokenID)
}

// Transfer moves a token to req.Receiver.
func (c *Core) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	t, err := c.store.GetToken(ctx, req.TokenID)
	if err != nil {
		return nil, err
	}

	var authorized *types.AccountID
	if req.Sender != t.OwnerID {
		actual, ok := t.Approvals[req.Sender]
		if !ok {
			return nil, fmt.Errorf("%w: %s on %s", ErrNotApproved, req.Sender, req.TokenID)
		}
		if req.ApprovalID != nil && *req.ApprovalID != actual {
			return nil, fmt.Errorf("%w: actual %d, given %d", ErrApprovalMismatch, actual, *req.ApprovalID)
		}
		sender := req.Sender
		authorized = &sender
	}
	if req.Receiver == t.OwnerID {
		return nil, ErrSameOwner
	}

	res := &TransferResult{
		ID:                id.NewTransferID(),
		TokenID:           t.ID,
		PreviousOwner:     t.OwnerID,
		NewOwner:          req.Receiver,
		AuthorizedID:      authorized,
		PreviousApprovals: t.CloneApprovals(),
		Memo:              req.Memo,
	}

	t.OwnerID = req.Receiver
	t.Approvals = map[types.AccountID]uint64{}
	t.TouchAt(c.clock())
	if err := c.store.UpdateToken(ctx, t); err != nil {
		return nil, fmt.Errorf("nft: transfer %s: %w", req.TokenID, err)
	}
	return res, nil
}

// ResolveTransfer implements Ledger.
func (c *Core) ResolveTransfer(ctx context.Context, previousOwner, receiver types.AccountID, tokenID string,
	approvals map[types.AccountID]uint64, returned bool,
) (bool, *TransferResult, error) {
	if !returned {
		return true, nil, nil
	}

	t, err := c.store.GetToken(ctx, tokenID)
	if err != nil {
		return false, nil, err
	}
	if t.OwnerID != receiver {
		// The receiver already passed the token on; nothing to return.
		return true, nil, nil
	}

	res := &TransferResult{
		ID:            id.NewTransferID(),
		TokenID:       tokenID,
		PreviousOwner: receiver,
		NewOwner:      previousOwner,
	}

	t.OwnerID = previousOwner
	t.Approvals = make(map[types.AccountID]uint64, len(approvals))
	for a, n := range approvals {
		t.Approvals[a] = n
	}
	t.TouchAt(c.clock())
	if err := c.store.UpdateToken(ctx, t); err != nil {
		return false, nil, fmt.Errorf("nft: resolve %s: %w", tokenID, err)
	}
	return false, res, nil
}

// Token returns the token record.
func (c *Core) Token(ctx context.Context, tokenID string) (*token.Token, error) {
	return c.store.GetToken(ctx, tokenID)
}

// Owner returns the token's current owner.
func (c *Core) Owner(ctx context.Context, tokenID string) (types.AccountID, error) {
	t, err := c.store.GetToken(ctx, tokenID)
	if err != nil {
		return "", err
	}
	return t.OwnerID, nil
}

// Enumerate lists all tokens in mint order.
func (c *Core) Enumerate(ctx context.Context) ([]token.Entry, error) {
	return c.store.ListTokens(ctx)
}

// EnumerateByOwner lists an owner's tokens in arrival order.
func (c *Core) EnumerateByOwner(ctx context.Context, owner types.AccountID) ([]token.Entry, error) {
	return c.store.ListTokensByOwner(ctx, owner)
}

// Supply returns the number of tokens, expired ones included.
func (c *Core) Supply(ctx context.Context) (uint64, error) {
	return c.store.CountTokens(ctx)
}

// SupplyForOwner returns the number of tokens held by owner.
func (c *Core) SupplyForOwner(ctx context.Context, owner types.AccountID) (uint64, error) {
	return c.store.CountTokensByOwner(ctx, owner)
}

// Approve grants account the right to transfer the token and returns the
// approval id. Re-approving an account issues a fresh id.
func (c *Core) Approve(ctx context.Context, tokenID string, caller, account types.AccountID) (uint64, error) {
	t, err := c.ownedBy(ctx, tokenID, caller)
	if err != nil {
		return 0, err
	}

	approvalID := t.NextApprovalID
	if t.Approvals == nil {
		t.Approvals = map[types.AccountID]uint64{}
	}
	t.Approvals[account] = approvalID
	t.NextApprovalID++
	t.TouchAt(c.clock())

	if err := c.store.UpdateToken(ctx, t); err != nil {
		return 0, fmt.Errorf("nft: approve %s: %w", tokenID, err)
	}
	return approvalID, nil
}

// Revoke withdraws account's approval. Revoking an absent approval is a
// no-op.
func (c *Core) Revoke(ctx context.Context, tokenID string, caller, account types.AccountID) error {
	t, err := c.ownedBy(ctx, tokenID, caller)
	if err != nil {
		return err
	}
	if _, ok := t.Approvals[account]; !ok {
		return nil
	}
	delete(t.Approvals, account)
	t.TouchAt(c.clock())
	return c.store.UpdateToken(ctx, t)
}

// RevokeAll withdraws every approval on the token.
func (c *Core) RevokeAll(ctx context.Context, tokenID string, caller types.AccountID) error {
	t, err := c.ownedBy(ctx, tokenID, caller)
	if err != nil {
		return err
	}
	if len(t.Approvals) == 0 {
		return nil
	}
	t.Approvals = map[types.AccountID]uint64{}
	t.TouchAt(c.clock())
	return c.store.UpdateToken(ctx, t)
}

// IsApproved reports whether account may transfer the token. When
// approvalID is given it must also match.
func (c *Core) IsApproved(ctx context.Context, tokenID string, account types.AccountID, approvalID *uint64) (bool, error) {
	t, err := c.store.GetToken(ctx, tokenID)
	if err != nil {
		return false, err
	}
	actual, ok := t.Approvals[account]
	if !ok {
		return false, nil
	}
	if approvalID != nil {
		return *approvalID == actual, nil
	}
	return true, nil
}

// StorageUsage implements meter.Accounts.
func (c *Core) StorageUsage(ctx context.Context) (uint64, error) {
	return c.store.StorageUsage(ctx)
}

// Balance implements meter.Accounts.
func (c *Core) Balance(ctx context.Context, account types.AccountID) (types.Amount, error) {
	return c.store.Balance(ctx, account)
}

// Credit implements meter.Accounts.
func (c *Core) Credit(ctx context.Context, account types.AccountID, amount types.Amount) error {
	return c.store.Credit(ctx, account, amount)
}

// Debit implements meter.Accounts.
func (c *Core) Debit(ctx context.Context, account types.AccountID, amount types.Amount) error {
	return c.store.Debit(ctx, account, amount)
}

func (c *Core) ownedBy(ctx context.Context, tokenID string, caller types.AccountID) (*token.Token, error) {
	t, err := c.store.GetToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != caller {
		return nil, fmt.Errorf("%w: %s does not own %s", ErrNotOwner, caller, tokenID)
	}
	return t, nil
}
