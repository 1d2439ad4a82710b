package meter

import (
	"time"

	"github.com/xraph/mintage/id"
	"github.com/xraph/mintage/types"
)

// DefaultBytePrice is the default cost of one storage byte: 10^19 yocto,
// i.e. 1 unit per 100 kB.
var DefaultBytePrice = types.MustParseAmount("10000000000000000000")

// Snapshot is the state captured before a metered mutation.
type Snapshot struct {
	Actor       types.AccountID `json:"actor"`
	UsageAtOpen uint64          `json:"usage_at_open"`
}

// Receipt describes how a metered mutation was settled.
type Receipt struct {
	ID            id.ReceiptID    `json:"id"`
	Actor         types.AccountID `json:"actor"`
	BytesAdded    uint64          `json:"bytes_added"`
	BytesReleased uint64          `json:"bytes_released"`
	Deposit       types.Amount    `json:"deposit"`
	Cost          types.Amount    `json:"cost"`
	Refund        types.Amount    `json:"refund"`
	SettledAt     time.Time       `json:"settled_at"`
}
