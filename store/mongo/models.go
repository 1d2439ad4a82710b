package mongo

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/mintage/expiry"
	"github.com/xraph/mintage/royalty"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
)

// ==================== Token models ====================

type tokenModel struct {
	grove.BaseModel `grove:"table:mintage_tokens"`

	TokenID        string            `grove:"token_id,pk"      bson:"_id"`
	OwnerID        string            `grove:"owner_id"         bson:"owner_id"`
	Metadata       *metadataModel    `grove:"metadata"         bson:"metadata,omitempty"`
	Approvals      map[string]uint64 `grove:"approvals"        bson:"approvals"`
	NextApprovalID uint64            `grove:"next_approval_id" bson:"next_approval_id"`
	Seq            int64             `grove:"seq"              bson:"seq"`
	OwnedSeq       int64             `grove:"owned_seq"        bson:"owned_seq"`
	StorageBytes   int64             `grove:"storage_bytes"    bson:"storage_bytes"`
	CreatedAt      time.Time         `grove:"created_at"       bson:"created_at"`
	UpdatedAt      time.Time         `grove:"updated_at"       bson:"updated_at"`
}

type metadataModel struct {
	Title         *string `bson:"title,omitempty"`
	Description   *string `bson:"description,omitempty"`
	Media         *string `bson:"media,omitempty"`
	MediaHash     *string `bson:"media_hash,omitempty"`
	Copies        *uint64 `bson:"copies,omitempty"`
	IssuedAt      *string `bson:"issued_at,omitempty"`
	ExpiresAt     *string `bson:"expires_at,omitempty"`
	StartsAt      *string `bson:"starts_at,omitempty"`
	UpdatedAt     *string `bson:"updated_at,omitempty"`
	Extra         *string `bson:"extra,omitempty"`
	Reference     *string `bson:"reference,omitempty"`
	ReferenceHash *string `bson:"reference_hash,omitempty"`
}

func toTokenModel(t *token.Token) *tokenModel {
	approvals := make(map[string]uint64, len(t.Approvals))
	for k, v := range t.Approvals {
		approvals[string(k)] = v
	}
	m := &tokenModel{
		TokenID:        t.ID,
		OwnerID:        string(t.OwnerID),
		Approvals:      approvals,
		NextApprovalID: t.NextApprovalID,
		Seq:            int64(t.Seq),         //nolint:gosec // sequence numbers stay far below 2^63
		StorageBytes:   int64(t.Footprint()), //nolint:gosec // record sizes stay far below 2^63
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if md := t.Metadata; md != nil {
		m.Metadata = &metadataModel{
			Title:         md.Title,
			Description:   md.Description,
			Media:         md.Media,
			MediaHash:     md.MediaHash,
			Copies:        md.Copies,
			IssuedAt:      md.IssuedAt,
			ExpiresAt:     md.ExpiresAt,
			StartsAt:      md.StartsAt,
			UpdatedAt:     md.UpdatedAt,
			Extra:         md.Extra,
			Reference:     md.Reference,
			ReferenceHash: md.ReferenceHash,
		}
	}
	return m
}

func fromTokenModel(m *tokenModel) *token.Token {
	t := &token.Token{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             m.TokenID,
		OwnerID:        types.AccountID(m.OwnerID),
		Approvals:      make(map[types.AccountID]uint64, len(m.Approvals)),
		NextApprovalID: m.NextApprovalID,
		Seq:            uint64(m.Seq), //nolint:gosec // stored from a uint64
	}
	for k, v := range m.Approvals {
		t.Approvals[types.AccountID(k)] = v
	}
	if md := m.Metadata; md != nil {
		t.Metadata = &token.Metadata{
			Title:         md.Title,
			Description:   md.Description,
			Media:         md.Media,
			MediaHash:     md.MediaHash,
			Copies:        md.Copies,
			IssuedAt:      md.IssuedAt,
			ExpiresAt:     md.ExpiresAt,
			StartsAt:      md.StartsAt,
			UpdatedAt:     md.UpdatedAt,
			Extra:         md.Extra,
			Reference:     md.Reference,
			ReferenceHash: md.ReferenceHash,
		}
	}
	return t
}

// ==================== Expiration models ====================

// expires_at is kept as a decimal string; BSON integers are signed.
type expirationModel struct {
	grove.BaseModel `grove:"table:mintage_expirations"`

	TokenID      string `grove:"token_id,pk"   bson:"_id"`
	ExpiresAt    string `grove:"expires_at"    bson:"expires_at"`
	StorageBytes int64  `grove:"storage_bytes" bson:"storage_bytes"`
}

func toExpirationModel(e *expiry.Entry) *expirationModel {
	return &expirationModel{
		TokenID:      e.TokenID,
		ExpiresAt:    strconv.FormatUint(e.ExpiresAt, 10),
		StorageBytes: int64(e.Footprint()), //nolint:gosec // record sizes stay far below 2^63
	}
}

func fromExpirationModel(m *expirationModel) (*expiry.Entry, error) {
	at, err := strconv.ParseUint(m.ExpiresAt, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("mintage/mongo: decode expiration of %s: %w", m.TokenID, err)
	}
	return &expiry.Entry{TokenID: m.TokenID, ExpiresAt: at}, nil
}

// ==================== Royalty models ====================

type royaltyModel struct {
	grove.BaseModel `grove:"table:mintage_royalties"`

	TokenID      string            `grove:"token_id,pk"   bson:"_id"`
	Shares       map[string]uint32 `grove:"shares"        bson:"shares"`
	StorageBytes int64             `grove:"storage_bytes" bson:"storage_bytes"`
}

func toRoyaltyModel(tokenID string, table royalty.Table) *royaltyModel {
	shares := make(map[string]uint32, len(table))
	for k, v := range table {
		shares[string(k)] = v
	}
	return &royaltyModel{
		TokenID:      tokenID,
		Shares:       shares,
		StorageBytes: int64(table.Footprint(tokenID)), //nolint:gosec // record sizes stay far below 2^63
	}
}

func fromRoyaltyModel(m *royaltyModel) royalty.Table {
	table := make(royalty.Table, len(m.Shares))
	for k, v := range m.Shares {
		table[types.AccountID(k)] = v
	}
	return table
}

// ==================== Balance models ====================

type balanceModel struct {
	grove.BaseModel `grove:"table:mintage_balances"`

	AccountID string    `grove:"account_id,pk" bson:"_id"`
	Balance   string    `grove:"balance"       bson:"balance"`
	UpdatedAt time.Time `grove:"updated_at"    bson:"updated_at"`
}
