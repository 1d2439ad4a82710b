package mintage

import (
	"context"
	"fmt"

	"github.com/xraph/mintage/payout"
	"github.com/xraph/mintage/types"
)

// TransferPayoutRequest is a sale: the token moves to Receiver and the
// sale Balance is split by the token's royalty table.
type TransferPayoutRequest struct {
	TransferRequest
	Balance      types.Amount `json:"balance"`
	MaxLenPayout uint32       `json:"max_len_payout"`
}

// ──────────────────────────────────────────────────
// Payouts
// ──────────────────────────────────────────────────

// Payout splits amount between the token's royalty beneficiaries and its
// current owner. It changes nothing. A token without a royalty table is
// ErrRoyaltyNotFound; a table with more than maxLen entries is
// ErrTooManyRecipients.
func (r *Registry) Payout(ctx context.Context, tokenID string, amount types.Amount, maxLen uint32) (b payout.Breakdown, err error) {
	ctx, span := r.startSpan(ctx, "Payout", tokenID)
	defer func() { endSpan(span, err) }()

	c, err := r.payout(ctx, tokenID, amount, maxLen)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("mintage: payout computed",
		"token_id", tokenID,
		"payout_id", c.ID.String(),
		"recipients", len(c.Breakdown),
	)
	r.plugins.EmitPayoutComputed(ctx, c)
	return c.Breakdown, nil
}

// TransferWithPayout computes the payout for a sale and then transfers
// the token. The call must carry exactly one yocto. When the payout
// cannot be computed the token does not move.
func (r *Registry) TransferWithPayout(ctx context.Context, call Call, req TransferPayoutRequest) (b payout.Breakdown, err error) {
	ctx, span := r.startSpan(ctx, "TransferWithPayout", req.TokenID)
	defer func() { endSpan(span, err) }()

	if err := call.requireOneYocto(); err != nil {
		return nil, err
	}

	var out outbox
	defer out.flush()

	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.payout(ctx, req.TokenID, req.Balance, req.MaxLenPayout)
	if err != nil {
		return nil, err
	}

	res, err := r.transfer(ctx, &out, call, req.TransferRequest)
	if err != nil {
		return nil, err
	}
	c.TransferID = &res.ID

	r.logger.Info("mintage: sale settled",
		"token_id", req.TokenID,
		"transfer_id", res.ID.String(),
		"payout_id", c.ID.String(),
		"balance", req.Balance.String(),
		"recipients", len(c.Breakdown),
	)
	out.add(func() { r.plugins.EmitPayoutComputed(ctx, c) })
	return c.Breakdown, nil
}

func (r *Registry) payout(ctx context.Context, tokenID string, amount types.Amount, maxLen uint32) (*payout.Computation, error) {
	owner, err := r.ledger.Owner(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	table, err := r.royalties.GetRoyalty(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	b, err := payout.Calculate(owner, table, amount, maxLen)
	if err != nil {
		return nil, fmt.Errorf("mintage: payout %s: %w", tokenID, err)
	}
	return payout.NewComputation(tokenID, owner, amount, b, r.clock()), nil
}
