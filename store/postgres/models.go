package postgres

import (
	"encoding/json"
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

	TokenID        string                     `grove:"token_id,pk"`
	OwnerID        string                     `grove:"owner_id"`
	Metadata       json.RawMessage            `grove:"metadata,type:jsonb"`
	Approvals      map[types.AccountID]uint64 `grove:"approvals,type:jsonb"`
	NextApprovalID int64                      `grove:"next_approval_id"`
	Seq            int64                      `grove:"seq"`
	OwnedSeq       int64                      `grove:"owned_seq"`
	StorageBytes   int64                      `grove:"storage_bytes"`
	CreatedAt      time.Time                  `grove:"created_at"`
	UpdatedAt      time.Time                  `grove:"updated_at"`
}

func toTokenModel(t *token.Token) (*tokenModel, error) {
	md, err := json.Marshal(t.Metadata)
	if err != nil {
		return nil, fmt.Errorf("mintage/postgres: encode metadata: %w", err)
	}
	approvals := t.CloneApprovals()

	return &tokenModel{
		TokenID:        t.ID,
		OwnerID:        string(t.OwnerID),
		Metadata:       md,
		Approvals:      approvals,
		NextApprovalID: int64(t.NextApprovalID), //nolint:gosec // approval ids stay far below 2^63
		Seq:            int64(t.Seq),            //nolint:gosec // sequence numbers stay far below 2^63
		StorageBytes:   int64(t.Footprint()),    //nolint:gosec // record sizes stay far below 2^63
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}, nil
}

func fromTokenModel(m *tokenModel) (*token.Token, error) {
	t := &token.Token{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             m.TokenID,
		OwnerID:        types.AccountID(m.OwnerID),
		Approvals:      make(map[types.AccountID]uint64, len(m.Approvals)),
		NextApprovalID: uint64(m.NextApprovalID), //nolint:gosec // stored from a uint64
		Seq:            uint64(m.Seq),            //nolint:gosec // stored from a uint64
	}
	for k, v := range m.Approvals {
		t.Approvals[k] = v
	}
	if len(m.Metadata) > 0 && string(m.Metadata) != "null" {
		t.Metadata = new(token.Metadata)
		if err := json.Unmarshal(m.Metadata, t.Metadata); err != nil {
			return nil, fmt.Errorf("mintage/postgres: decode metadata of %s: %w", m.TokenID, err)
		}
	}
	return t, nil
}

// ==================== Expiration models ====================

type expirationModel struct {
	grove.BaseModel `grove:"table:mintage_expirations"`

	TokenID      string `grove:"token_id,pk"`
	ExpiresAt    string `grove:"expires_at,type:numeric"`
	StorageBytes int64  `grove:"storage_bytes"`
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
		return nil, fmt.Errorf("mintage/postgres: decode expiration of %s: %w", m.TokenID, err)
	}
	return &expiry.Entry{TokenID: m.TokenID, ExpiresAt: at}, nil
}

// ==================== Royalty models ====================

type royaltyModel struct {
	grove.BaseModel `grove:"table:mintage_royalties"`

	TokenID      string        `grove:"token_id,pk"`
	Shares       royalty.Table `grove:"shares,type:jsonb"`
	StorageBytes int64         `grove:"storage_bytes"`
}

func toRoyaltyModel(tokenID string, table royalty.Table) *royaltyModel {
	cp := table.Clone()
	if cp == nil {
		cp = royalty.Table{}
	}
	return &royaltyModel{
		TokenID:      tokenID,
		Shares:       cp,
		StorageBytes: int64(cp.Footprint(tokenID)), //nolint:gosec // record sizes stay far below 2^63
	}
}

func fromRoyaltyModel(m *royaltyModel) royalty.Table {
	if m.Shares == nil {
		return royalty.Table{}
	}
	return m.Shares.Clone()
}

// ==================== Balance models ====================

type balanceModel struct {
	grove.BaseModel `grove:"table:mintage_balances"`

	AccountID string    `grove:"account_id,pk"`
	Balance   string    `grove:"balance,type:numeric"`
	UpdatedAt time.Time `grove:"updated_at"`
}
