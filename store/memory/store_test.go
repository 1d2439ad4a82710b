package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintage/expiry"
	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/royalty"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
)

func newToken(id string, owner types.AccountID) *token.Token {
	title := "title " + id
	return &token.Token{
		ID:        id,
		OwnerID:   owner,
		Metadata:  &token.Metadata{Title: &title},
		Approvals: map[types.AccountID]uint64{},
	}
}

func TestStorageUsageTracksFootprints(t *testing.T) {
	ctx := context.Background()
	s := New()

	tok := newToken("t1", "alice.near")
	require.NoError(t, s.CreateToken(ctx, tok))
	usage, err := s.StorageUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, tok.Footprint(), usage)

	exp := &expiry.Entry{TokenID: "t1", ExpiresAt: 42}
	require.NoError(t, s.SetExpiration(ctx, exp))
	table := royalty.Table{"bob.near": 100}
	require.NoError(t, s.SetRoyalty(ctx, "t1", table))

	usage, err = s.StorageUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, tok.Footprint()+exp.Footprint()+table.Footprint("t1"), usage)

	tok.Approvals["market.near"] = 0
	require.NoError(t, s.UpdateToken(ctx, tok))
	usage2, err := s.StorageUsage(ctx)
	require.NoError(t, err)
	assert.Greater(t, usage2, usage)

	require.NoError(t, s.DeleteRoyalty(ctx, "t1"))
	require.NoError(t, s.DeleteExpiration(ctx, "t1"))
	require.NoError(t, s.DeleteToken(ctx, "t1"))
	usage, err = s.StorageUsage(ctx)
	require.NoError(t, err)
	assert.Zero(t, usage)
}

func TestTokenStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateToken(ctx, newToken("t1", "alice.near")))
	require.NoError(t, s.CreateToken(ctx, newToken("t2", "alice.near")))
	require.ErrorIs(t, s.CreateToken(ctx, newToken("t1", "bob.near")), token.ErrAlreadyExists)

	got, err := s.GetToken(ctx, "t1")
	require.NoError(t, err)
	*got.Metadata.Title = "mutated"
	got.Approvals["x.near"] = 9

	again, err := s.GetToken(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "title t1", *again.Metadata.Title, "reads return copies")
	assert.Empty(t, again.Approvals)

	again.OwnerID = "bob.near"
	require.NoError(t, s.UpdateToken(ctx, again))

	n, err := s.CountTokensByOwner(ctx, "alice.near")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	bobs, err := s.ListTokensByOwner(ctx, "bob.near")
	require.NoError(t, err)
	assert.Equal(t, []token.Entry{{TokenID: "t1", OwnerID: "bob.near"}}, bobs)

	all, err := s.ListTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []token.Entry{
		{TokenID: "t1", OwnerID: "bob.near"},
		{TokenID: "t2", OwnerID: "alice.near"},
	}, all)

	require.ErrorIs(t, s.UpdateToken(ctx, newToken("nope", "bob.near")), token.ErrNotFound)
	require.ErrorIs(t, s.DeleteToken(ctx, "nope"), token.ErrNotFound)
	_, err = s.GetToken(ctx, "nope")
	require.ErrorIs(t, err, token.ErrNotFound)
}

func TestSideIndexesAreInsertOnly(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.SetExpiration(ctx, &expiry.Entry{TokenID: "t1", ExpiresAt: 1}))
	require.ErrorIs(t, s.SetExpiration(ctx, &expiry.Entry{TokenID: "t1", ExpiresAt: 2}), expiry.ErrAlreadyExists)
	e, err := s.GetExpiration(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), e.ExpiresAt)

	require.NoError(t, s.SetRoyalty(ctx, "t1", royalty.Table{"a.near": 1}))
	require.ErrorIs(t, s.SetRoyalty(ctx, "t1", royalty.Table{"b.near": 2}), royalty.ErrAlreadyExists)

	_, err = s.GetRoyalty(ctx, "t2")
	require.ErrorIs(t, err, royalty.ErrNotFound)
	_, err = s.GetExpiration(ctx, "t2")
	require.ErrorIs(t, err, expiry.ErrNotFound)
}

func TestBalances(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Credit(ctx, "alice.near", types.NewAmount(5)))
	err := s.Debit(ctx, "alice.near", types.NewAmount(6))
	require.ErrorIs(t, err, meter.ErrInsufficientBalance)

	require.NoError(t, s.Debit(ctx, "alice.near", types.NewAmount(5)))
	bal, err := s.Balance(ctx, "alice.near")
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}
