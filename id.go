package mintage

import "github.com/xraph/mintage/id"

// ID is the identifier type for Mintage events, receipts and transfers.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
