// Package observability provides a metrics extension for Mintage that records
// lifecycle event counts through a pluggable MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/mintage/event"
	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/nft"
	"github.com/xraph/mintage/payout"
	"github.com/xraph/mintage/plugin"
	"github.com/xraph/mintage/token"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnTokenMinted      = (*MetricsExtension)(nil)
	_ plugin.OnMintRejected     = (*MetricsExtension)(nil)
	_ plugin.OnTokenTransferred = (*MetricsExtension)(nil)
	_ plugin.OnPayoutComputed   = (*MetricsExtension)(nil)
	_ plugin.OnStorageSettled   = (*MetricsExtension)(nil)
	_ plugin.OnEvent            = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records registry-wide lifecycle metrics.
// Register it as a Mintage plugin to track mint, transfer and storage activity.
type MetricsExtension struct {
	factory MetricFactory

	// Token metrics
	TokensMinted      Counter
	TokensWithRoyalty Counter
	TokensExpiring    Counter
	MintsRejected     Counter
	TokensTransferred Counter

	// Payout metrics
	PayoutsComputed  Counter
	PayoutRecipients Histogram

	// Storage metrics
	StorageSettlements   Counter
	StorageBytesAdded    Counter
	StorageBytesReleased Counter
	StorageBytesPerWrite Histogram

	// Event metrics
	EventsEmitted Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Token metrics
		TokensMinted:      factory.Counter("mintage.token.minted"),
		TokensWithRoyalty: factory.Counter("mintage.token.royalty"),
		TokensExpiring:    factory.Counter("mintage.token.expiring"),
		MintsRejected:     factory.Counter("mintage.mint.rejected"),
		TokensTransferred: factory.Counter("mintage.token.transferred"),

		// Payout metrics
		PayoutsComputed:  factory.Counter("mintage.payout.computed"),
		PayoutRecipients: factory.Histogram("mintage.payout.recipients"),

		// Storage metrics
		StorageSettlements:   factory.Counter("mintage.storage.settlements"),
		StorageBytesAdded:    factory.Counter("mintage.storage.bytes.added"),
		StorageBytesReleased: factory.Counter("mintage.storage.bytes.released"),
		StorageBytesPerWrite: factory.Histogram("mintage.storage.bytes.per_write"),

		// Event metrics
		EventsEmitted: factory.Counter("mintage.events.emitted"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Token hooks
// ──────────────────────────────────────────────────

// OnTokenMinted implements plugin.OnTokenMinted.
func (m *MetricsExtension) OnTokenMinted(_ context.Context, v *token.View) error {
	m.TokensMinted.Inc()
	if v.Royalty != nil {
		m.TokensWithRoyalty.Inc()
	}
	if v.ExpirationDate != nil {
		m.TokensExpiring.Inc()
	}
	return nil
}

// OnMintRejected implements plugin.OnMintRejected.
func (m *MetricsExtension) OnMintRejected(_ context.Context, _ string, _ error) error {
	m.MintsRejected.Inc()
	return nil
}

// OnTokenTransferred implements plugin.OnTokenTransferred.
func (m *MetricsExtension) OnTokenTransferred(_ context.Context, _ *nft.TransferResult) error {
	m.TokensTransferred.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Accounting hooks
// ──────────────────────────────────────────────────

// OnPayoutComputed implements plugin.OnPayoutComputed.
func (m *MetricsExtension) OnPayoutComputed(_ context.Context, c *payout.Computation) error {
	m.PayoutsComputed.Inc()
	m.PayoutRecipients.Observe(float64(len(c.Breakdown)))
	return nil
}

// OnStorageSettled implements plugin.OnStorageSettled.
func (m *MetricsExtension) OnStorageSettled(_ context.Context, r *meter.Receipt) error {
	m.StorageSettlements.Inc()
	if r.BytesAdded > 0 {
		m.StorageBytesAdded.Add(float64(r.BytesAdded))
		m.StorageBytesPerWrite.Observe(float64(r.BytesAdded))
	}
	if r.BytesReleased > 0 {
		m.StorageBytesReleased.Add(float64(r.BytesReleased))
	}
	return nil
}

// ──────────────────────────────────────────────────
// Event stream
// ──────────────────────────────────────────────────

// OnEvent implements plugin.OnEvent.
func (m *MetricsExtension) OnEvent(_ context.Context, _ *event.Event) error {
	m.EventsEmitted.Inc()
	return nil
}
