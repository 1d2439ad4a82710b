package mintage

import (
	"github.com/xraph/mintage/payout"
	"github.com/xraph/mintage/royalty"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
	"github.com/xraph/mintage/visibility"
)

// Re-export common types so that callers rarely need the sub-packages.

// AccountID is re-exported from the types package.
type AccountID = types.AccountID

// Amount is re-exported from the types package.
type Amount = types.Amount

// View is re-exported from the token package.
type View = token.View

// Metadata is re-exported from the token package.
type Metadata = token.Metadata

// ContractMetadata is re-exported from the token package.
type ContractMetadata = token.ContractMetadata

// RoyaltyTable is re-exported from the royalty package.
type RoyaltyTable = royalty.Table

// Breakdown is re-exported from the payout package.
type Breakdown = payout.Breakdown

// Page is re-exported from the visibility package.
type Page = visibility.Page

// Re-export constructors.
var (
	NewAmount   = types.NewAmount
	ParseAmount = types.ParseAmount
	OneYocto    = types.OneYocto
)
