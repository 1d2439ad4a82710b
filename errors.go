package mintage

import (
	"errors"
	"fmt"

	"github.com/xraph/mintage/expiry"
	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/nft"
	"github.com/xraph/mintage/payout"
	"github.com/xraph/mintage/royalty"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
	"github.com/xraph/mintage/visibility"
)

// Sentinel errors raised by the registry itself.
var (
	// ErrOwnerNotFound is returned when listing an account that owns no tokens.
	ErrOwnerNotFound = errors.New("mintage: owner not found")

	// ErrMetadataForbidden is returned when someone other than the owner or
	// the registry account asks for a token's metadata.
	ErrMetadataForbidden = errors.New("mintage: metadata can only be read by the token owner")

	// ErrOneYoctoRequired is returned when a gated call is made without
	// exactly one yocto attached.
	ErrOneYoctoRequired = errors.New("mintage: requires attached deposit of exactly 1 yocto")

	// ErrMintForbidden is returned when minting is restricted to the
	// registry account and someone else tries.
	ErrMintForbidden = errors.New("mintage: only the registry account may mint")

	// ErrStarted is returned by Start when the registry is already running.
	ErrStarted = errors.New("mintage: registry already started")
)

// Re-exported sentinels from the domain packages.
var (
	ErrTokenNotFound           = token.ErrNotFound
	ErrTokenExists             = token.ErrAlreadyExists
	ErrInvalidTokenID          = token.ErrInvalidTokenID
	ErrMetadataRequired        = token.ErrMetadataRequired
	ErrInvalidDuration         = expiry.ErrInvalidDuration
	ErrTooManyBeneficiaries    = royalty.ErrTooManyBeneficiaries
	ErrInvalidShare            = royalty.ErrInvalidShare
	ErrRoyaltyNotFound         = royalty.ErrNotFound
	ErrTooManyRecipients       = payout.ErrTooManyRecipients
	ErrUnderpayment            = meter.ErrUnderpayment
	ErrInsufficientBalance     = meter.ErrInsufficientBalance
	ErrZeroLimit               = visibility.ErrZeroLimit
	ErrIndexOutOfBounds        = visibility.ErrIndexOutOfBounds
	ErrNotApproved             = nft.ErrNotApproved
	ErrApprovalMismatch        = nft.ErrApprovalMismatch
	ErrSameOwner               = nft.ErrSameOwner
	ErrNotOwner                = nft.ErrNotOwner
	ErrInvalidAccountID        = types.ErrInvalidAccountID
	ErrInvalidAmount           = types.ErrInvalidAmount
	ErrInvalidContractMetadata = token.ErrInvalidContractMetadata
)

// Kind classifies every failure the registry reports.
type Kind int

// Error kinds.
const (
	// KindInternal covers store, driver and other unexpected failures.
	KindInternal Kind = iota
	// KindValidation is malformed input: durations, limits, indexes, ids.
	KindValidation
	// KindConflict is a duplicate token id.
	KindConflict
	// KindCapacityExceeded is too many royalty beneficiaries or payout
	// recipients.
	KindCapacityExceeded
	// KindNotFound is an unknown token, owner or royalty table.
	KindNotFound
	// KindUnauthorized is a caller lacking the right to act.
	KindUnauthorized
	// KindUnderpayment is an attached deposit below the storage cost.
	KindUnderpayment
)

var kindNames = [...]string{
	KindInternal:         "internal",
	KindValidation:       "validation",
	KindConflict:         "conflict",
	KindCapacityExceeded: "capacity_exceeded",
	KindNotFound:         "not_found",
	KindUnauthorized:     "unauthorized",
	KindUnderpayment:     "underpayment",
}

// String returns the snake_case kind name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

var kindTable = []struct {
	err  error
	kind Kind
}{
	{expiry.ErrInvalidDuration, KindValidation},
	{visibility.ErrZeroLimit, KindValidation},
	{visibility.ErrIndexOutOfBounds, KindValidation},
	{royalty.ErrInvalidShare, KindValidation},
	{types.ErrInvalidAccountID, KindValidation},
	{types.ErrInvalidAmount, KindValidation},
	{token.ErrInvalidTokenID, KindValidation},
	{token.ErrMetadataRequired, KindValidation},
	{token.ErrInvalidContractMetadata, KindValidation},
	{nft.ErrSameOwner, KindValidation},

	{token.ErrAlreadyExists, KindConflict},
	{expiry.ErrAlreadyExists, KindConflict},
	{royalty.ErrAlreadyExists, KindConflict},

	{royalty.ErrTooManyBeneficiaries, KindCapacityExceeded},
	{payout.ErrTooManyRecipients, KindCapacityExceeded},

	{token.ErrNotFound, KindNotFound},
	{royalty.ErrNotFound, KindNotFound},
	{expiry.ErrNotFound, KindNotFound},
	{ErrOwnerNotFound, KindNotFound},

	{ErrMetadataForbidden, KindUnauthorized},
	{ErrOneYoctoRequired, KindUnauthorized},
	{ErrMintForbidden, KindUnauthorized},
	{nft.ErrNotApproved, KindUnauthorized},
	{nft.ErrApprovalMismatch, KindUnauthorized},
	{nft.ErrNotOwner, KindUnauthorized},

	{meter.ErrUnderpayment, KindUnderpayment},
}

// KindOf returns the taxonomy kind of err. Wrapped errors are unwrapped;
// anything unrecognised is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	for _, entry := range kindTable {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return KindInternal
}

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("mintage: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "mintage: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("mintage: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsValidation returns true if the error is caused by malformed input.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsConflict returns true if the error is a duplicate token id.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsUnauthorized returns true if the caller lacked the right to act.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// IsRetryable returns true if the error is not caused by the request
// itself, so retrying the same request may succeed.
func IsRetryable(err error) bool { return err != nil && KindOf(err) == KindInternal }
