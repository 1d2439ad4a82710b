// Package payout computes how the proceeds of a sale are split between a
// token's royalty beneficiaries and its owner.
//
// Calculate is pure: it moves no funds and touches no storage. Callers use
// the breakdown to coordinate settlement elsewhere.
package payout

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/mintage/id"
	"github.com/xraph/mintage/royalty"
	"github.com/xraph/mintage/types"
)

// ErrTooManyRecipients is returned when a royalty table names more
// beneficiaries than the caller is prepared to process.
var ErrTooManyRecipients = errors.New("payout: too many recipients")

// Breakdown maps each recipient to the amount it receives.
type Breakdown map[types.AccountID]types.Amount

// MarshalJSON wraps the map in the standard {"payout": {...}} envelope.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Payout map[types.AccountID]types.Amount `json:"payout"`
	}{Payout: b})
}

// UnmarshalJSON reads the {"payout": {...}} envelope.
func (b *Breakdown) UnmarshalJSON(data []byte) error {
	var env struct {
		Payout map[types.AccountID]types.Amount `json:"payout"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*b = env.Payout
	return nil
}

// Computation records one payout calculation, either a read-only quote
// or the split of a completed sale.
type Computation struct {
	ID         id.PayoutID
	TokenID    string
	OwnerID    types.AccountID
	Balance    types.Amount
	Breakdown  Breakdown
	ComputedAt time.Time

	// TransferID is set when the payout settled a sale.
	TransferID *id.TransferID
}

// NewComputation stamps b with a fresh payout id.
func NewComputation(tokenID string, owner types.AccountID, balance types.Amount, b Breakdown, at time.Time) *Computation {
	return &Computation{
		ID:         id.NewPayoutID(),
		TokenID:    tokenID,
		OwnerID:    owner,
		Balance:    balance,
		Breakdown:  b,
		ComputedAt: at.UTC(),
	}
}

// Sum returns the total of all amounts in the breakdown.
func (b Breakdown) Sum() types.Amount {
	total := types.Zero
	for _, a := range b {
		total, _ = total.Add(a)
	}
	return total
}

// Calculate splits amount between the beneficiaries of table and owner.
//
// Each beneficiary other than the owner receives
// floor(amount * bp / 10000). The owner receives
// floor(amount * (10000 - consumed) / 10000), where consumed is the sum of
// the other beneficiaries' basis points. When the owner is itself listed
// in the table its listed share is ignored and replaced by the residual.
//
// Rounding is always down, so the amounts may sum to slightly less than
// amount.
func Calculate(owner types.AccountID, table royalty.Table, amount types.Amount, maxLen uint32) (Breakdown, error) {
	if uint64(len(table)) > uint64(maxLen) {
		return nil, fmt.Errorf("%w: %d beneficiaries, caller accepts %d", ErrTooManyRecipients, len(table), maxLen)
	}

	out := make(Breakdown, len(table)+1)
	var consumed uint32
	for account, bp := range table {
		if account == owner {
			continue
		}
		if bp > royalty.TotalBasisPoints-consumed {
			return nil, fmt.Errorf("%w: shares exceed %d basis points", royalty.ErrInvalidShare, royalty.TotalBasisPoints)
		}
		out[account] = amount.MulDiv(uint64(bp), uint64(royalty.TotalBasisPoints))
		consumed += bp
	}

	out[owner] = amount.MulDiv(uint64(royalty.TotalBasisPoints-consumed), uint64(royalty.TotalBasisPoints))
	return out, nil
}
