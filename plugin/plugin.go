// Package plugin provides an extensible plugin system for Mintage.
// Plugins hook into registry lifecycle events: mints, transfers, payouts,
// storage settlement and the NEP-171 event stream.
package plugin

import (
	"context"

	"github.com/xraph/mintage/event"
	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/nft"
	"github.com/xraph/mintage/payout"
	"github.com/xraph/mintage/token"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the registry starts. r is the *mintage.Registry.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, r interface{}) error
}

// OnShutdown is called when the registry stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Token hooks
// ──────────────────────────────────────────────────

// OnTokenMinted is called after a mint commits.
type OnTokenMinted interface {
	Plugin
	OnTokenMinted(ctx context.Context, view *token.View) error
}

// OnMintRejected is called when a mint aborts. Nothing was persisted.
type OnMintRejected interface {
	Plugin
	OnMintRejected(ctx context.Context, tokenID string, reason error) error
}

// OnTokenTransferred is called after a transfer commits, including the
// transfer back when a transfer-call is resolved.
type OnTokenTransferred interface {
	Plugin
	OnTokenTransferred(ctx context.Context, result *nft.TransferResult) error
}

// ──────────────────────────────────────────────────
// Accounting hooks
// ──────────────────────────────────────────────────

// OnPayoutComputed is called whenever a payout breakdown is produced.
type OnPayoutComputed interface {
	Plugin
	OnPayoutComputed(ctx context.Context, c *payout.Computation) error
}

// OnStorageSettled is called after a metered mutation settles.
type OnStorageSettled interface {
	Plugin
	OnStorageSettled(ctx context.Context, receipt *meter.Receipt) error
}

// ──────────────────────────────────────────────────
// Event stream
// ──────────────────────────────────────────────────

// OnEvent receives every NEP-171 event the registry emits.
type OnEvent interface {
	Plugin
	OnEvent(ctx context.Context, e *event.Event) error
}
