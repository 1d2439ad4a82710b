package mintage

import (
	"fmt"

	"github.com/xraph/mintage/types"
)

// Call carries the identity and attached deposit of whoever invokes a
// mutating operation.
type Call struct {
	// Predecessor is the account making the call.
	Predecessor types.AccountID `json:"predecessor_id"`
	// Deposit is the amount attached to the call, in yocto.
	Deposit types.Amount `json:"attached_deposit"`
}

// Validate checks the caller account.
func (c Call) Validate() error {
	return c.Predecessor.Validate()
}

// requireOneYocto gates calls that must carry exactly one yocto, proving
// the caller signed with a full-access key.
func (c Call) requireOneYocto() error {
	if !c.Deposit.Equal(types.OneYocto) {
		return fmt.Errorf("%w: got %s", ErrOneYoctoRequired, c.Deposit)
	}
	return nil
}
