package mintage

import (
	"context"
	"fmt"

	"github.com/xraph/mintage/event"
	"github.com/xraph/mintage/nft"
	"github.com/xraph/mintage/types"
)

// TransferRequest moves a token to Receiver. The caller must own the
// token or hold an approval; ApprovalID, when given, must match it.
type TransferRequest struct {
	Receiver   types.AccountID `json:"receiver_id"`
	TokenID    string          `json:"token_id"`
	ApprovalID *uint64         `json:"approval_id,omitempty"`
	Memo       *string         `json:"memo,omitempty"`
}

// TransferCallRequest is a transfer followed by a notification to the
// receiver, which may send the token back.
type TransferCallRequest struct {
	TransferRequest
	Msg string `json:"msg"`
}

// TransferCallResult reports the outcome of a transfer-call.
type TransferCallResult struct {
	Transfer *nft.TransferResult `json:"transfer"`
	// Kept is true when the token stayed with the receiver.
	Kept bool `json:"kept"`
	// Returned describes the transfer back, when there was one.
	Returned *nft.TransferResult `json:"returned,omitempty"`
}

// ──────────────────────────────────────────────────
// Transfers
// ──────────────────────────────────────────────────

// Transfer moves a token. The call must carry exactly one yocto.
func (r *Registry) Transfer(ctx context.Context, call Call, req TransferRequest) (res *nft.TransferResult, err error) {
	ctx, span := r.startSpan(ctx, "Transfer", req.TokenID)
	defer func() { endSpan(span, err) }()

	if err := call.requireOneYocto(); err != nil {
		return nil, err
	}

	var out outbox
	defer out.flush()

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.transfer(ctx, &out, call, req)
}

// TransferCall moves a token and then asks the configured receiver
// whether to keep it. If the receiver asks for it back, fails or times
// out, the token returns to its previous owner with its approvals
// restored, provided the receiver has not passed it on in the meantime.
// Without a configured receiver the token is kept.
func (r *Registry) TransferCall(ctx context.Context, call Call, req TransferCallRequest) (out *TransferCallResult, err error) {
	ctx, span := r.startSpan(ctx, "TransferCall", req.TokenID)
	defer func() { endSpan(span, err) }()

	if err := call.requireOneYocto(); err != nil {
		return nil, err
	}

	var notes outbox
	defer notes.flush()

	r.mu.Lock()
	res, err := r.transfer(ctx, &notes, call, req.TransferRequest)
	r.mu.Unlock()
	notes.flush()
	if err != nil {
		return nil, err
	}

	out = &TransferCallResult{Transfer: res, Kept: true}
	if r.receiver == nil {
		return out, nil
	}

	giveBack, rerr := r.notifyReceiver(ctx, call.Predecessor, res, req.Msg)
	if rerr != nil {
		r.logger.Warn("mintage: transfer receiver failed",
			"token_id", res.TokenID,
			"receiver_id", res.NewOwner,
			"error", rerr,
		)
		giveBack = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept, back, err := r.ledger.ResolveTransfer(ctx, res.PreviousOwner, res.NewOwner, res.TokenID,
		res.PreviousApprovals, giveBack)
	if err != nil {
		return nil, fmt.Errorf("mintage: resolve transfer %s: %w", res.TokenID, err)
	}
	out.Kept = kept
	out.Returned = back

	if back != nil {
		r.logger.Info("mintage: token returned",
			"token_id", back.TokenID,
			"owner_id", back.NewOwner,
		)
		r.publish(ctx, &notes, event.NewTransfer(r.clock(), event.Transfer{
			OldOwnerID: back.PreviousOwner,
			NewOwnerID: back.NewOwner,
			TokenIDs:   []string{back.TokenID},
		}))
		notes.add(func() { r.plugins.EmitTokenTransferred(ctx, back) })
	}
	return out, nil
}

// transfer performs a transfer with the lock held. Notifications go to out.
func (r *Registry) transfer(ctx context.Context, out *outbox, call Call, req TransferRequest) (*nft.TransferResult, error) {
	if err := call.Validate(); err != nil {
		return nil, fmt.Errorf("predecessor: %w", err)
	}
	if err := req.Receiver.Validate(); err != nil {
		return nil, fmt.Errorf("receiver: %w", err)
	}

	res, err := r.ledger.Transfer(ctx, nft.TransferRequest{
		Sender:     call.Predecessor,
		Receiver:   req.Receiver,
		TokenID:    req.TokenID,
		ApprovalID: req.ApprovalID,
		Memo:       req.Memo,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("mintage: token transferred",
		"token_id", res.TokenID,
		"old_owner_id", res.PreviousOwner,
		"new_owner_id", res.NewOwner,
		"transfer_id", res.ID.String(),
	)
	r.publish(ctx, out, event.NewTransfer(r.clock(), event.Transfer{
		AuthorizedID: res.AuthorizedID,
		OldOwnerID:   res.PreviousOwner,
		NewOwnerID:   res.NewOwner,
		TokenIDs:     []string{res.TokenID},
		Memo:         res.Memo,
	}))
	out.add(func() { r.plugins.EmitTokenTransferred(ctx, res) })
	return res, nil
}

// notifyReceiver asks the receiver whether to give the token back. It is
// bounded by the receiver timeout.
func (r *Registry) notifyReceiver(ctx context.Context, sender types.AccountID, res *nft.TransferResult, msg string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.receiverTimeout)
	defer cancel()

	type reply struct {
		giveBack bool
		err      error
	}
	done := make(chan reply, 1)
	go func() {
		giveBack, err := r.receiver.OnTransfer(ctx, sender, res.PreviousOwner, res.TokenID, msg)
		done <- reply{giveBack, err}
	}()

	select {
	case rep := <-done:
		if rep.err == nil && ctx.Err() != nil {
			return true, fmt.Errorf("mintage: receiver timed out: %w", ctx.Err())
		}
		return rep.giveBack, rep.err
	case <-ctx.Done():
		return true, fmt.Errorf("mintage: receiver timed out: %w", ctx.Err())
	}
}

// ──────────────────────────────────────────────────
// Approvals
// ──────────────────────────────────────────────────

// Approve lets account transfer the token on the owner's behalf and
// returns the approval id. The deposit must cover the storage the
// approval adds; the excess is refunded.
func (r *Registry) Approve(ctx context.Context, call Call, tokenID string, account types.AccountID) (approvalID uint64, err error) {
	ctx, span := r.startSpan(ctx, "Approve", tokenID)
	defer func() { endSpan(span, err) }()

	if err := call.Validate(); err != nil {
		return 0, fmt.Errorf("predecessor: %w", err)
	}
	if err := account.Validate(); err != nil {
		return 0, fmt.Errorf("account: %w", err)
	}
	if call.Deposit.IsZero() {
		return 0, fmt.Errorf("%w: approval requires an attached deposit", ErrUnderpayment)
	}

	var out outbox
	defer out.flush()

	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.meter.Begin(ctx, call.Predecessor)
	if err != nil {
		return 0, err
	}

	already, err := r.ledger.IsApproved(ctx, tokenID, account, nil)
	if err != nil {
		return 0, err
	}

	approvalID, err = r.ledger.Approve(ctx, tokenID, call.Predecessor, account)
	if err != nil {
		return 0, err
	}

	rcpt, err := r.meter.Settle(ctx, snap, call.Deposit)
	if err != nil {
		// A re-approval keeps the account approved under the new id.
		if !already {
			if rerr := r.ledger.Revoke(context.WithoutCancel(ctx), tokenID, call.Predecessor, account); rerr != nil {
				r.logger.Error("mintage: approve rollback failed", "token_id", tokenID, "error", rerr)
			}
		}
		return 0, err
	}

	r.logger.Info("mintage: approval granted",
		"token_id", tokenID,
		"account_id", account,
		"approval_id", approvalID,
	)
	out.add(func() { r.plugins.EmitStorageSettled(ctx, rcpt) })
	return approvalID, nil
}

// Revoke withdraws account's approval and refunds the released storage
// to the owner. The call must carry exactly one yocto.
func (r *Registry) Revoke(ctx context.Context, call Call, tokenID string, account types.AccountID) (err error) {
	ctx, span := r.startSpan(ctx, "Revoke", tokenID)
	defer func() { endSpan(span, err) }()

	return r.release(ctx, call, tokenID, func(ctx context.Context) error {
		return r.ledger.Revoke(ctx, tokenID, call.Predecessor, account)
	})
}

// RevokeAll withdraws every approval on the token and refunds the
// released storage to the owner. The call must carry exactly one yocto.
func (r *Registry) RevokeAll(ctx context.Context, call Call, tokenID string) (err error) {
	ctx, span := r.startSpan(ctx, "RevokeAll", tokenID)
	defer func() { endSpan(span, err) }()

	return r.release(ctx, call, tokenID, func(ctx context.Context) error {
		return r.ledger.RevokeAll(ctx, tokenID, call.Predecessor)
	})
}

// IsApproved reports whether account may transfer the token, optionally
// under a specific approval id.
func (r *Registry) IsApproved(ctx context.Context, tokenID string, account types.AccountID, approvalID *uint64) (bool, error) {
	return r.ledger.IsApproved(ctx, tokenID, account, approvalID)
}

func (r *Registry) release(ctx context.Context, call Call, tokenID string, mutate func(context.Context) error) error {
	if err := call.requireOneYocto(); err != nil {
		return err
	}

	var out outbox
	defer out.flush()

	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.meter.Begin(ctx, call.Predecessor)
	if err != nil {
		return err
	}
	if err := mutate(ctx); err != nil {
		return err
	}
	rcpt, err := r.meter.Settle(ctx, snap, types.Zero)
	if err != nil {
		// The approvals are gone either way; only the refund is lost.
		r.logger.Warn("mintage: storage refund failed",
			"token_id", tokenID,
			"account_id", call.Predecessor,
			"error", err,
		)
		return nil
	}
	if rcpt.BytesReleased > 0 {
		r.logger.Info("mintage: approvals revoked",
			"token_id", tokenID,
			"bytes_released", rcpt.BytesReleased,
			"refund", rcpt.Refund.String(),
		)
		out.add(func() { r.plugins.EmitStorageSettled(ctx, rcpt) })
	}
	return nil
}
