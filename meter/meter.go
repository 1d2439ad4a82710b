// Package meter implements storage-cost metering.
//
// A Meter brackets a mutation. Begin records the actor and the storage
// counter, and Settle compares the counter afterwards. Bytes added are
// charged against the attached deposit at a fixed byte price and the
// excess is refunded to the actor. Bytes released are refunded to the
// actor. The actor never pays for more bytes than were actually added.
package meter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/mintage/id"
	"github.com/xraph/mintage/types"
)

// ErrUnderpayment is returned by Settle when the attached deposit does
// not cover the storage added by the mutation.
var ErrUnderpayment = errors.New("meter: attached deposit does not cover storage cost")

// Meter settles storage costs against an Accounts implementation.
type Meter struct {
	accounts  Accounts
	bytePrice types.Amount
	treasury  types.AccountID
	clock     func() time.Time
}

// Option configures a Meter.
type Option func(*Meter)

// WithBytePrice sets the cost of one storage byte.
func WithBytePrice(price types.Amount) Option {
	return func(m *Meter) { m.bytePrice = price }
}

// WithTreasury sets the account that collects storage costs and funds
// storage refunds. With no treasury, costs are burned and refunds minted.
func WithTreasury(account types.AccountID) Option {
	return func(m *Meter) { m.treasury = account }
}

// WithClock sets the time source used to stamp receipts.
func WithClock(clock func() time.Time) Option {
	return func(m *Meter) { m.clock = clock }
}

// New creates a Meter over accounts.
func New(accounts Accounts, opts ...Option) *Meter {
	m := &Meter{
		accounts:  accounts,
		bytePrice: DefaultBytePrice,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BytePrice returns the configured cost of one storage byte.
func (m *Meter) BytePrice() types.Amount { return m.bytePrice }

// Cost returns the price of n bytes. The boolean is false on overflow.
func (m *Meter) Cost(n uint64) (types.Amount, bool) {
	return m.bytePrice.MulUint64(n)
}

// Begin opens a metered section for actor.
func (m *Meter) Begin(ctx context.Context, actor types.AccountID) (*Snapshot, error) {
	usage, err := m.accounts.StorageUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("meter: read storage usage: %w", err)
	}
	return &Snapshot{Actor: actor, UsageAtOpen: usage}, nil
}

// Settle closes the metered section opened by snap.
//
// When bytes were added and deposit is below their cost, Settle returns
// ErrUnderpayment without moving any funds; the caller must undo the
// mutation. Otherwise deposit-cost is credited to the actor. When bytes
// were released, their cost plus deposit is credited to the actor. The
// treasury never pays itself: when it is the actor, only the deposit
// side moves.
func (m *Meter) Settle(ctx context.Context, snap *Snapshot, deposit types.Amount) (*Receipt, error) {
	usage, err := m.accounts.StorageUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("meter: read storage usage: %w", err)
	}

	rcpt := &Receipt{
		ID:        id.NewReceiptID(),
		Actor:     snap.Actor,
		Deposit:   deposit,
		SettledAt: m.clock().UTC(),
	}

	if usage >= snap.UsageAtOpen {
		rcpt.BytesAdded = usage - snap.UsageAtOpen
		cost, ok := m.Cost(rcpt.BytesAdded)
		if !ok || deposit.Less(cost) {
			return nil, fmt.Errorf("%w: must attach %s for %d bytes, got %s",
				ErrUnderpayment, cost, rcpt.BytesAdded, deposit)
		}
		rcpt.Cost = cost
		rcpt.Refund, _ = deposit.Sub(cost)

		if err := m.transfer(ctx, snap.Actor, rcpt.Refund, m.treasury, cost); err != nil {
			return nil, err
		}
		return rcpt, nil
	}

	rcpt.BytesReleased = snap.UsageAtOpen - usage
	reclaimed, ok := m.Cost(rcpt.BytesReleased)
	if !ok {
		return nil, fmt.Errorf("meter: refund for %d bytes overflows", rcpt.BytesReleased)
	}
	refund, ok := reclaimed.Add(deposit)
	if !ok {
		return nil, fmt.Errorf("meter: refund overflows")
	}
	rcpt.Refund = refund

	credit := refund
	funded := m.treasury != "" && !reclaimed.IsZero()
	if funded && snap.Actor == m.treasury {
		credit, funded = deposit, false
	}
	if funded {
		if err := m.accounts.Debit(ctx, m.treasury, reclaimed); err != nil {
			return nil, fmt.Errorf("meter: fund refund from %s: %w", m.treasury, err)
		}
	}
	if !credit.IsZero() {
		if err := m.accounts.Credit(ctx, snap.Actor, credit); err != nil {
			if funded {
				_ = m.accounts.Credit(ctx, m.treasury, reclaimed) //nolint:errcheck // best-effort reversal
			}
			return nil, fmt.Errorf("meter: refund %s: %w", snap.Actor, err)
		}
	}
	return rcpt, nil
}

// transfer credits refund to actor and cost to treasury, reversing the
// first credit if the second fails.
func (m *Meter) transfer(ctx context.Context, actor types.AccountID, refund types.Amount, treasury types.AccountID, cost types.Amount) error {
	if !refund.IsZero() {
		if err := m.accounts.Credit(ctx, actor, refund); err != nil {
			return fmt.Errorf("meter: refund %s: %w", actor, err)
		}
	}
	if treasury == "" || treasury == actor || cost.IsZero() {
		return nil
	}
	if err := m.accounts.Credit(ctx, treasury, cost); err != nil {
		if !refund.IsZero() {
			_ = m.accounts.Debit(ctx, actor, refund) //nolint:errcheck // best-effort reversal
		}
		return fmt.Errorf("meter: collect cost into %s: %w", treasury, err)
	}
	return nil
}
