package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintage/expiry"
	"github.com/xraph/mintage/royalty"
	"github.com/xraph/mintage/store/memory"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
)

func sampleToken() *token.Token {
	title := "Token t1"
	at := time.Unix(1_700_000_000, 0).UTC()
	return &token.Token{
		Entity:         types.Entity{CreatedAt: at, UpdatedAt: at},
		ID:             "t1",
		OwnerID:        "alice.near",
		Metadata:       &token.Metadata{Title: &title},
		Approvals:      map[types.AccountID]uint64{"market.near": 3},
		NextApprovalID: 4,
		Seq:            7,
	}
}

func TestTokenModelRoundTrip(t *testing.T) {
	tok := sampleToken()

	m, err := toTokenModel(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(tok.Footprint()), m.StorageBytes)

	back, err := fromTokenModel(m)
	require.NoError(t, err)
	assert.Equal(t, tok, back)
}

func TestExpirationModelRoundTrip(t *testing.T) {
	e := &expiry.Entry{TokenID: "t1", ExpiresAt: 1<<63 + 5}

	m := toExpirationModel(e)
	assert.Equal(t, int64(e.Footprint()), m.StorageBytes)

	back, err := fromExpirationModel(m)
	require.NoError(t, err)
	assert.Equal(t, e, back)
}

func TestRoyaltyModelRoundTrip(t *testing.T) {
	table := royalty.Table{"bob.near": 2000, "dave.near": 500}

	rm := toRoyaltyModel("t1", table)
	assert.Equal(t, int64(table.Footprint("t1")), rm.StorageBytes)

	shares := fromRoyaltyModel(rm)
	assert.Equal(t, table, shares)
}

// The storage_bytes columns must add up to what the memory store meters
// for the same records, since StorageUsage sums them.
func TestStorageBytesMatchMemoryUsage(t *testing.T) {
	ctx := context.Background()
	tok := sampleToken()
	e := &expiry.Entry{TokenID: "t1", ExpiresAt: 42}
	table := royalty.Table{"bob.near": 2000}

	mem := memory.New()
	require.NoError(t, mem.CreateToken(ctx, sampleToken()))
	require.NoError(t, mem.SetExpiration(ctx, e))
	require.NoError(t, mem.SetRoyalty(ctx, "t1", table))
	require.NoError(t, mem.SetRoyalty(ctx, "t2", nil))
	want, err := mem.StorageUsage(ctx)
	require.NoError(t, err)

	tm, err := toTokenModel(tok)
	require.NoError(t, err)
	rm := toRoyaltyModel("t1", table)
	em := toExpirationModel(e)
	bare := toRoyaltyModel("t2", nil)

	got := tm.StorageBytes + em.StorageBytes + rm.StorageBytes + bare.StorageBytes
	assert.Equal(t, int64(want), got)
}
