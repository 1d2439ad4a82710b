package audithook

// Action constants for audit events.
const (
	// Token actions
	ActionTokenMinted      = "token.minted"
	ActionTokenTransferred = "token.transferred"
	ActionMintRejected     = "mint.rejected"

	// Accounting actions
	ActionPayoutComputed = "payout.computed"
	ActionStorageSettled = "storage.settled"
)

// Resource constants for audit events.
const (
	ResourceToken   = "token"
	ResourcePayout  = "payout"
	ResourceStorage = "storage"
)

// Category constants for audit events.
const (
	CategoryRegistry = "registry"
	CategoryTransfer = "transfer"
	CategoryPayment  = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
