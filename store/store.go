// Package store defines the unified persistence interface for Mintage.
//
// Every backend keeps the base-ledger records (tokens, per-owner index,
// approvals, balances) alongside the expiration and royalty maps, each
// keyed by token id. StorageUsage reports the metered size of all of them
// so that the storage meter can charge for what a mutation adds.
package store

import (
	"context"

	"github.com/xraph/mintage/expiry"
	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/royalty"
	"github.com/xraph/mintage/token"
)

// Store is the unified storage interface for all Mintage records.
type Store interface {
	token.Store
	expiry.Store
	royalty.Store
	meter.Accounts

	// Migrate creates or upgrades the backing schema.
	Migrate(ctx context.Context) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}
