// Package audithook bridges Mintage lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// an audit library directly. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/nft"
	"github.com/xraph/mintage/payout"
	"github.com/xraph/mintage/plugin"
	"github.com/xraph/mintage/token"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnTokenMinted      = (*Extension)(nil)
	_ plugin.OnMintRejected     = (*Extension)(nil)
	_ plugin.OnTokenTransferred = (*Extension)(nil)
	_ plugin.OnPayoutComputed   = (*Extension)(nil)
	_ plugin.OnStorageSettled   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Mintage lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Token hooks
// ──────────────────────────────────────────────────

// OnTokenMinted implements plugin.OnTokenMinted.
func (e *Extension) OnTokenMinted(ctx context.Context, v *token.View) error {
	kv := []any{"owner_id", string(v.OwnerID)}
	if v.ExpirationDate != nil {
		kv = append(kv, "expiration_date", *v.ExpirationDate)
	}
	if v.Royalty != nil {
		kv = append(kv, "royalty_beneficiaries", len(v.Royalty))
	}
	return e.record(ctx, ActionTokenMinted, SeverityInfo, OutcomeSuccess,
		ResourceToken, v.TokenID, CategoryRegistry, nil,
		kv...,
	)
}

// OnMintRejected implements plugin.OnMintRejected.
func (e *Extension) OnMintRejected(ctx context.Context, tokenID string, reason error) error {
	return e.record(ctx, ActionMintRejected, SeverityWarning, OutcomeFailure,
		ResourceToken, tokenID, CategoryRegistry, reason,
	)
}

// OnTokenTransferred implements plugin.OnTokenTransferred.
func (e *Extension) OnTokenTransferred(ctx context.Context, res *nft.TransferResult) error {
	kv := []any{
		"transfer_id", res.ID.String(),
		"old_owner_id", string(res.PreviousOwner),
		"new_owner_id", string(res.NewOwner),
	}
	if res.AuthorizedID != nil {
		kv = append(kv, "authorized_id", string(*res.AuthorizedID))
	}
	return e.record(ctx, ActionTokenTransferred, SeverityInfo, OutcomeSuccess,
		ResourceToken, res.TokenID, CategoryTransfer, nil,
		kv...,
	)
}

// ──────────────────────────────────────────────────
// Accounting hooks
// ──────────────────────────────────────────────────

// OnPayoutComputed implements plugin.OnPayoutComputed.
func (e *Extension) OnPayoutComputed(ctx context.Context, c *payout.Computation) error {
	shares := make(map[string]string, len(c.Breakdown))
	for account, amount := range c.Breakdown {
		shares[string(account)] = amount.String()
	}
	kv := []any{
		"token_id", c.TokenID,
		"owner_id", string(c.OwnerID),
		"balance", c.Balance.String(),
		"recipients", len(c.Breakdown),
		"payout", shares,
	}
	if c.TransferID != nil {
		kv = append(kv, "transfer_id", c.TransferID.String())
	}
	return e.record(ctx, ActionPayoutComputed, SeverityInfo, OutcomeSuccess,
		ResourcePayout, c.ID.String(), CategoryPayment, nil, kv...)
}

// OnStorageSettled implements plugin.OnStorageSettled.
func (e *Extension) OnStorageSettled(ctx context.Context, r *meter.Receipt) error {
	return e.record(ctx, ActionStorageSettled, SeverityInfo, OutcomeSuccess,
		ResourceStorage, r.ID.String(), CategoryPayment, nil,
		"actor", string(r.Actor),
		"bytes_added", r.BytesAdded,
		"bytes_released", r.BytesReleased,
		"cost", r.Cost.String(),
		"refund", r.Refund.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
