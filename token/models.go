// Package token defines the non-fungible token record, its NEP-177
// metadata and the assembled view returned to callers.
package token

import (
	"errors"
	"fmt"

	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/royalty"
	"github.com/xraph/mintage/types"
)

// MaxIDLen bounds the length of a token id.
const MaxIDLen = 256

var (
	// ErrInvalidTokenID is returned for empty or oversized token ids.
	ErrInvalidTokenID = errors.New("token: invalid token id")
	// ErrMetadataRequired is returned when a mint carries no metadata.
	ErrMetadataRequired = errors.New("token: metadata required")
)

// Token is the base-ledger record for one token.
type Token struct {
	types.Entity

	ID             string                     `json:"token_id"`
	OwnerID        types.AccountID            `json:"owner_id"`
	Metadata       *Metadata                  `json:"metadata,omitempty"`
	Approvals      map[types.AccountID]uint64 `json:"approved_account_ids"`
	NextApprovalID uint64                     `json:"next_approval_id"`
	Seq            uint64                     `json:"-"`
}

// Entry is one row of an enumeration: a token id and its owner.
type Entry struct {
	TokenID string          `json:"token_id"`
	OwnerID types.AccountID `json:"owner_id"`
}

// Metadata is the NEP-177 per-token metadata.
type Metadata struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	Media         *string `json:"media,omitempty"`
	MediaHash     *string `json:"media_hash,omitempty"`
	Copies        *uint64 `json:"copies,omitempty"`
	IssuedAt      *string `json:"issued_at,omitempty"`
	ExpiresAt     *string `json:"expires_at,omitempty"`
	StartsAt      *string `json:"starts_at,omitempty"`
	UpdatedAt     *string `json:"updated_at,omitempty"`
	Extra         *string `json:"extra,omitempty"`
	Reference     *string `json:"reference,omitempty"`
	ReferenceHash *string `json:"reference_hash,omitempty"`
}

// Clone returns a deep copy of the metadata.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	out := *m
	return &out
}

// View is the assembled token returned by registry reads and mints.
type View struct {
	TokenID        string                     `json:"token_id"`
	OwnerID        types.AccountID            `json:"owner_id"`
	Metadata       *Metadata                  `json:"metadata,omitempty"`
	Approvals      map[types.AccountID]uint64 `json:"approved_account_ids"`
	Royalty        royalty.Table              `json:"royalty,omitempty"`
	ExpirationDate *uint64                    `json:"expiration_date,omitempty"`
}

// ValidateID checks a caller-chosen token id.
func ValidateID(tokenID string) error {
	if tokenID == "" || len(tokenID) > MaxIDLen {
		return fmt.Errorf("%w: %q", ErrInvalidTokenID, tokenID)
	}
	return nil
}

// CloneApprovals returns a copy of the approval set, never nil.
func (t *Token) CloneApprovals() map[types.AccountID]uint64 {
	out := make(map[types.AccountID]uint64, len(t.Approvals))
	for a, n := range t.Approvals {
		out[a] = n
	}
	return out
}

// Storage keys of the base-ledger records of a token.
func ownerKey(tokenID string) string                        { return "t:" + tokenID }
func metadataKey(tokenID string) string                     { return "m:" + tokenID }
func approvalsKey(tokenID string) string                    { return "a:" + tokenID }
func ownerIndexKey(owner types.AccountID, id string) string { return "o:" + string(owner) + ":" + id }

// Footprint returns the number of storage bytes the token's base-ledger
// records occupy: the owner record, the metadata record, the approval
// set and the per-owner index entry.
func (t *Token) Footprint() uint64 {
	approvals := t.Approvals
	if approvals == nil {
		approvals = map[types.AccountID]uint64{}
	}
	n := meter.RecordBytes(ownerKey(t.ID), t.OwnerID)
	if t.Metadata != nil {
		n += meter.RecordBytes(metadataKey(t.ID), t.Metadata)
	}
	n += meter.RecordBytes(approvalsKey(t.ID), approvals)
	n += meter.RecordBytes(ownerIndexKey(t.OwnerID, t.ID), nil)
	return n
}
