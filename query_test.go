package mintage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintage"
)

func TestGetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mint(t, "t1", "alice.near", func(req *mintage.MintRequest) { req.Expiration = ptr("5m") })

	t.Run("others see a redacted view before expiry", func(t *testing.T) {
		view, err := f.r.Get(ctx, "t1", "carol.near")
		require.NoError(t, err)
		require.NotNil(t, view)
		assert.Equal(t, mintage.AccountID("alice.near"), view.OwnerID)
		assert.Nil(t, view.Metadata)
		assert.NotNil(t, view.Approvals)
	})

	t.Run("expiry exactly now is still visible", func(t *testing.T) {
		f.now = time.Unix(300, 0)
		view, err := f.r.Get(ctx, "t1", "carol.near")
		require.NoError(t, err)
		assert.NotNil(t, view)
	})

	f.now = time.Unix(301, 0)

	t.Run("owner still sees an expired token", func(t *testing.T) {
		view, err := f.r.Get(ctx, "t1", "alice.near")
		require.NoError(t, err)
		require.NotNil(t, view)
		require.NotNil(t, view.Metadata)
		assert.Equal(t, "Token t1", *view.Metadata.Title)
	})

	t.Run("contract account still sees an expired token", func(t *testing.T) {
		view, err := f.r.Get(ctx, "t1", registryAccount)
		require.NoError(t, err)
		assert.NotNil(t, view)
	})

	t.Run("others get nothing after expiry", func(t *testing.T) {
		view, err := f.r.Get(ctx, "t1", "carol.near")
		require.NoError(t, err)
		assert.Nil(t, view)
	})

	t.Run("absent token is nil without error", func(t *testing.T) {
		view, err := f.r.Get(ctx, "nope", "alice.near")
		require.NoError(t, err)
		assert.Nil(t, view)
	})
}

func TestGetMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mint(t, "t1", "alice.near")

	md, err := f.r.GetMetadata(ctx, "t1", "alice.near")
	require.NoError(t, err)
	assert.Equal(t, "Token t1", *md.Title)

	_, err = f.r.GetMetadata(ctx, "t1", "carol.near")
	require.ErrorIs(t, err, mintage.ErrMetadataForbidden)
	assert.True(t, mintage.IsUnauthorized(err))

	_, err = f.r.GetMetadata(ctx, "nope", "alice.near")
	assert.True(t, mintage.IsNotFound(err))
}

func tokenIDs(views []*mintage.View) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.TokenID)
	}
	return out
}

func TestListExcludesExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mint(t, "t1", "alice.near", func(req *mintage.MintRequest) { req.Expiration = ptr("5m") })
	f.mint(t, "t2", "alice.near")
	f.mint(t, "t3", "bob.near", func(req *mintage.MintRequest) { req.Expiration = ptr("1h") })

	views, err := f.r.List(ctx, mintage.Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3"}, tokenIDs(views))
	require.NotNil(t, views[0].Metadata, "list views carry metadata")

	f.advance(301 * time.Second)

	views, err = f.r.List(ctx, mintage.Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{"t2", "t3"}, tokenIDs(views))

	owned, err := f.r.ListForOwner(ctx, "alice.near", mintage.Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, tokenIDs(owned), "expired tokens are hidden even from their owner")

	supply, err := f.r.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), supply, "supply counts expired tokens")
}

func TestListPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"t1", "t2", "t3", "t4", "t5"} {
		f.mint(t, id, "alice.near")
	}

	tests := []struct {
		name string
		page mintage.Page
		want []string
	}{
		{"default", mintage.Page{}, []string{"t1", "t2", "t3", "t4", "t5"}},
		{"from", mintage.Page{FromIndex: ptr(uint64(2))}, []string{"t3", "t4", "t5"}},
		{"limit", mintage.Page{Limit: ptr(uint64(2))}, []string{"t1", "t2"}},
		{"window", mintage.Page{FromIndex: ptr(uint64(1)), Limit: ptr(uint64(3))}, []string{"t2", "t3", "t4"}},
		{"from at end", mintage.Page{FromIndex: ptr(uint64(5))}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := f.r.List(ctx, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tokenIDs(views))
		})
	}

	_, err := f.r.List(ctx, mintage.Page{Limit: ptr(uint64(0))})
	require.ErrorIs(t, err, mintage.ErrZeroLimit)
	assert.True(t, mintage.IsValidation(err))

	_, err = f.r.List(ctx, mintage.Page{FromIndex: ptr(uint64(6))})
	require.ErrorIs(t, err, mintage.ErrIndexOutOfBounds)
}

func TestListForOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mint(t, "t1", "alice.near")
	f.mint(t, "t2", "bob.near")
	f.mint(t, "t3", "alice.near")

	views, err := f.r.ListForOwner(ctx, "alice.near", mintage.Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t3"}, tokenIDs(views))

	_, err = f.r.ListForOwner(ctx, "carol.near", mintage.Page{})
	require.ErrorIs(t, err, mintage.ErrOwnerNotFound)
	assert.True(t, mintage.IsNotFound(err))

	_, err = f.r.ListForOwner(ctx, "alice.near", mintage.Page{FromIndex: ptr(uint64(2))})
	require.ErrorIs(t, err, mintage.ErrIndexOutOfBounds)

	_, err = f.r.ListForOwner(ctx, "alice.near", mintage.Page{Limit: ptr(uint64(0))})
	require.ErrorIs(t, err, mintage.ErrZeroLimit)

	n, err := f.r.SupplyForOwner(ctx, "alice.near")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestContractMetadata(t *testing.T) {
	f := newFixture(t)
	md := f.r.ContractMetadata()
	assert.Equal(t, "nft-1.0.0", md.Spec)
	assert.NotEmpty(t, md.Symbol)
}
