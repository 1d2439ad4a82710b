package mintage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/mintage/event"
	"github.com/xraph/mintage/expiry"
	"github.com/xraph/mintage/royalty"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
)

// MintRequest describes a token to create.
type MintRequest struct {
	TokenID  string          `json:"token_id"`
	Receiver types.AccountID `json:"receiver_id"`
	Metadata *token.Metadata `json:"token_metadata"`

	// Expiration is an optional validity period such as "30d", counted
	// from the moment of minting.
	Expiration *string `json:"expiration_period,omitempty"`

	// Royalty is an optional perpetual royalty table. It is stored as
	// given, even when empty, and can never be changed afterwards.
	Royalty royalty.Table `json:"perpetual_royalties,omitempty"`

	Memo *string `json:"memo,omitempty"`
}

// ──────────────────────────────────────────────────
// Minting
// ──────────────────────────────────────────────────

// Mint creates a token together with its optional royalty table and
// expiration, then charges call.Predecessor for the storage they occupy.
//
// Either every record is written and the deposit settled, or nothing is:
// inputs are validated before the first write and every write is undone
// if a later step fails, including an attached deposit that does not
// cover the storage cost. Whatever the deposit exceeds the cost by is
// refunded to the caller.
func (r *Registry) Mint(ctx context.Context, call Call, req MintRequest) (view *token.View, err error) {
	ctx, span := r.startSpan(ctx, "Mint", req.TokenID)
	defer func() { endSpan(span, err) }()

	var out outbox
	defer out.flush()

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	expiresAt, err := r.validateMint(ctx, call, req, now)
	if err != nil {
		r.rejectMint(ctx, &out, req.TokenID, err)
		return nil, err
	}

	snap, err := r.meter.Begin(ctx, call.Predecessor)
	if err != nil {
		r.rejectMint(ctx, &out, req.TokenID, err)
		return nil, err
	}

	var undo undoLog

	t, err := r.ledger.Create(ctx, req.TokenID, req.Receiver, req.Metadata)
	if err != nil {
		return nil, r.abortMint(ctx, &out, &undo, req.TokenID, err)
	}
	undo.push("token", func(ctx context.Context) error {
		return r.ledger.Remove(ctx, req.TokenID)
	})

	if req.Royalty != nil {
		if err := r.royalties.SetRoyalty(ctx, req.TokenID, req.Royalty); err != nil {
			return nil, r.abortMint(ctx, &out, &undo, req.TokenID, err)
		}
		undo.push("royalty", func(ctx context.Context) error {
			return r.royalties.DeleteRoyalty(ctx, req.TokenID)
		})
	}

	var exp *expiry.Entry
	if expiresAt != nil {
		exp = &expiry.Entry{TokenID: req.TokenID, ExpiresAt: *expiresAt}
		if err := r.expirations.SetExpiration(ctx, exp); err != nil {
			return nil, r.abortMint(ctx, &out, &undo, req.TokenID, err)
		}
		undo.push("expiration", func(ctx context.Context) error {
			return r.expirations.DeleteExpiration(ctx, req.TokenID)
		})
	}

	rcpt, err := r.meter.Settle(ctx, snap, call.Deposit)
	if err != nil {
		return nil, r.abortMint(ctx, &out, &undo, req.TokenID, err)
	}

	view = buildView(t, req.Royalty.Clone(), exp)

	r.logger.Info("mintage: token minted",
		"token_id", t.ID,
		"owner_id", t.OwnerID,
		"predecessor_id", call.Predecessor,
		"bytes_added", rcpt.BytesAdded,
		"cost", rcpt.Cost.String(),
		"refund", rcpt.Refund.String(),
	)

	r.publish(ctx, &out, event.NewMint(now, event.Mint{
		OwnerID:  t.OwnerID,
		TokenIDs: []string{t.ID},
		Memo:     req.Memo,
	}))
	out.add(func() {
		r.plugins.EmitStorageSettled(ctx, rcpt)
		r.plugins.EmitTokenMinted(ctx, view)
	})

	return view, nil
}

// validateMint checks every mint input before anything is written and
// returns the absolute expiry, if any.
func (r *Registry) validateMint(ctx context.Context, call Call, req MintRequest, now time.Time) (*uint64, error) {
	if err := call.Validate(); err != nil {
		return nil, fmt.Errorf("predecessor: %w", err)
	}
	if r.restrictMint && call.Predecessor != r.self {
		return nil, fmt.Errorf("%w: called by %s", ErrMintForbidden, call.Predecessor)
	}
	if err := token.ValidateID(req.TokenID); err != nil {
		return nil, err
	}
	if err := req.Receiver.Validate(); err != nil {
		return nil, fmt.Errorf("receiver: %w", err)
	}
	if req.Metadata == nil {
		return nil, token.ErrMetadataRequired
	}

	_, err := r.ledger.Token(ctx, req.TokenID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", token.ErrAlreadyExists, req.TokenID)
	case !errors.Is(err, token.ErrNotFound):
		return nil, err
	}

	if req.Royalty != nil {
		if err := req.Royalty.Validate(); err != nil {
			return nil, err
		}
	}

	if req.Expiration == nil {
		return nil, nil //nolint:nilnil // no expiration requested
	}
	offset, err := expiry.ParseDuration(*req.Expiration)
	if err != nil {
		return nil, err
	}
	at, err := expiry.Deadline(expiry.Nanos(now), offset)
	if err != nil {
		return nil, err
	}
	return &at, nil
}

// abortMint undoes the writes recorded so far and reports cause. A failed
// undo is logged; cause is still what the caller sees.
func (r *Registry) abortMint(ctx context.Context, out *outbox, undo *undoLog, tokenID string, cause error) error {
	if err := undo.rollback(context.WithoutCancel(ctx)); err != nil {
		r.logger.Error("mintage: mint rollback incomplete",
			"token_id", tokenID,
			"cause", cause,
			"error", err,
		)
	}
	r.logger.Warn("mintage: mint aborted",
		"token_id", tokenID,
		"kind", KindOf(cause).String(),
		"error", cause,
	)
	r.rejectMint(ctx, out, tokenID, cause)
	return cause
}

func (r *Registry) rejectMint(ctx context.Context, out *outbox, tokenID string, cause error) {
	out.add(func() { r.plugins.EmitMintRejected(ctx, tokenID, cause) })
}

// publish logs e in the NEP-171 log format and queues it for plugins.
func (r *Registry) publish(ctx context.Context, out *outbox, e *event.Event) {
	r.logger.Info(e.LogLine(), "event_id", e.ID.String())
	out.add(func() { r.plugins.EmitEvent(ctx, e) })
}
