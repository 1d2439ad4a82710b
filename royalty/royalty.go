// Package royalty holds perpetual royalty tables: per-token maps from
// beneficiary account to a share of every sale in basis points.
//
// A table is written once at mint and never edited.
package royalty

import (
	"errors"
	"fmt"
	"sort"

	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/types"
)

const (
	// MaxBeneficiaries is the largest number of accounts a table may name.
	MaxBeneficiaries = 6

	// TotalBasisPoints is the whole of a sale, 100%.
	TotalBasisPoints uint32 = 10_000
)

var (
	// ErrTooManyBeneficiaries is returned for tables naming more than
	// MaxBeneficiaries accounts.
	ErrTooManyBeneficiaries = errors.New("royalty: too many beneficiaries")

	// ErrInvalidShare is returned for tables whose shares are out of range
	// or name an invalid account.
	ErrInvalidShare = errors.New("royalty: invalid share")
)

// Table maps each beneficiary to its share in basis points.
type Table map[types.AccountID]uint32

// Validate checks cardinality, per-entry bounds and the total.
func (t Table) Validate() error {
	if len(t) > MaxBeneficiaries {
		return fmt.Errorf("%w: %d given, at most %d allowed", ErrTooManyBeneficiaries, len(t), MaxBeneficiaries)
	}

	var total uint32
	for _, account := range t.Beneficiaries() {
		bp := t[account]
		if err := account.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidShare, err)
		}
		if bp > TotalBasisPoints {
			return fmt.Errorf("%w: %s holds %d basis points", ErrInvalidShare, account, bp)
		}
		total += bp
		if total > TotalBasisPoints {
			return fmt.Errorf("%w: shares exceed %d basis points", ErrInvalidShare, TotalBasisPoints)
		}
	}
	return nil
}

// Beneficiaries returns the accounts in the table in lexical order.
func (t Table) Beneficiaries() []types.AccountID {
	out := make([]types.AccountID, 0, len(t))
	for a := range t {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Total returns the sum of all shares.
func (t Table) Total() uint32 {
	var total uint32
	for _, bp := range t {
		total += bp
	}
	return total
}

// Clone returns a copy of the table.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for a, bp := range t {
		out[a] = bp
	}
	return out
}

// Key is the storage key of a token's royalty table.
func Key(tokenID string) string { return "r:" + tokenID }

// Footprint returns the number of storage bytes the table occupies.
func (t Table) Footprint(tokenID string) uint64 {
	return meter.RecordBytes(Key(tokenID), t)
}
