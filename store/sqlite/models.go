package sqlite

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

	TokenID        string    `grove:"token_id,pk"`
	OwnerID        string    `grove:"owner_id"`
	Metadata       string    `grove:"metadata"`
	Approvals      string    `grove:"approvals"`
	NextApprovalID int64     `grove:"next_approval_id"`
	Seq            int64     `grove:"seq"`
	OwnedSeq       int64     `grove:"owned_seq"`
	StorageBytes   int64     `grove:"storage_bytes"`
	CreatedAt      time.Time `grove:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"`
}

func toTokenModel(t *token.Token) (*tokenModel, error) {
	approvals := t.Approvals
	if approvals == nil {
		approvals = map[types.AccountID]uint64{}
	}
	ab, err := json.Marshal(approvals)
	if err != nil {
		return nil, fmt.Errorf("mintage/sqlite: encode approvals: %w", err)
	}

	var md string
	if t.Metadata != nil {
		mb, err := json.Marshal(t.Metadata)
		if err != nil {
			return nil, fmt.Errorf("mintage/sqlite: encode metadata: %w", err)
		}
		md = string(mb)
	}

	return &tokenModel{
		TokenID:        t.ID,
		OwnerID:        string(t.OwnerID),
		Metadata:       md,
		Approvals:      string(ab),
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
		Approvals:      map[types.AccountID]uint64{},
		NextApprovalID: uint64(m.NextApprovalID), //nolint:gosec // stored from a uint64
		Seq:            uint64(m.Seq),            //nolint:gosec // stored from a uint64
	}
	if m.Metadata != "" {
		t.Metadata = new(token.Metadata)
		if err := json.Unmarshal([]byte(m.Metadata), t.Metadata); err != nil {
			return nil, fmt.Errorf("mintage/sqlite: decode metadata of %s: %w", m.TokenID, err)
		}
	}
	if m.Approvals != "" {
		if err := json.Unmarshal([]byte(m.Approvals), &t.Approvals); err != nil {
			return nil, fmt.Errorf("mintage/sqlite: decode approvals of %s: %w", m.TokenID, err)
		}
	}
	return t, nil
}

// ==================== Expiration models ====================

type expirationModel struct {
	grove.BaseModel `grove:"table:mintage_expirations"`

	TokenID      string `grove:"token_id,pk"`
	ExpiresAt    string `grove:"expires_at"`
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
		return nil, fmt.Errorf("mintage/sqlite: decode expiration of %s: %w", m.TokenID, err)
	}
	return &expiry.Entry{TokenID: m.TokenID, ExpiresAt: at}, nil
}

// ==================== Royalty models ====================

type royaltyModel struct {
	grove.BaseModel `grove:"table:mintage_royalties"`

	TokenID      string `grove:"token_id,pk"`
	Shares       string `grove:"shares"`
	StorageBytes int64  `grove:"storage_bytes"`
}

func toRoyaltyModel(tokenID string, table royalty.Table) (*royaltyModel, error) {
	if table == nil {
		table = royalty.Table{}
	}
	b, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("mintage/sqlite: encode royalty: %w", err)
	}
	return &royaltyModel{
		TokenID:      tokenID,
		Shares:       string(b),
		StorageBytes: int64(table.Footprint(tokenID)), //nolint:gosec // record sizes stay far below 2^63
	}, nil
}

func fromRoyaltyModel(m *royaltyModel) (royalty.Table, error) {
	table := royalty.Table{}
	if err := json.Unmarshal([]byte(m.Shares), &table); err != nil {
		return nil, fmt.Errorf("mintage/sqlite: decode royalty of %s: %w", m.TokenID, err)
	}
	return table, nil
}

// ==================== Balance models ====================

type balanceModel struct {
	grove.BaseModel `grove:"table:mintage_balances"`

	AccountID string    `grove:"account_id,pk"`
	Balance   string    `grove:"balance"`
	UpdatedAt time.Time `grove:"updated_at"`
}
