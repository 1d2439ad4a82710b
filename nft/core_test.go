package nft_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintage/nft"
	"github.com/xraph/mintage/store/memory"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
)

func newCore(t *testing.T) *nft.Core {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return nft.NewCore(memory.New(), nft.WithClock(clock))
}

func title(s string) *token.Metadata { return &token.Metadata{Title: &s} }

func TestCoreCreate(t *testing.T) {
	ctx := context.Background()
	c := newCore(t)

	tok, err := c.Create(ctx, "t1", "alice.near", title("one"))
	require.NoError(t, err)
	assert.Equal(t, types.AccountID("alice.near"), tok.OwnerID)
	assert.Equal(t, uint64(1), tok.Seq)

	_, err = c.Create(ctx, "t1", "bob.near", title("again"))
	require.ErrorIs(t, err, token.ErrAlreadyExists)

	owner, err := c.Owner(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, types.AccountID("alice.near"), owner)

	require.NoError(t, c.Remove(ctx, "t1"))
	_, err = c.Token(ctx, "t1")
	require.ErrorIs(t, err, token.ErrNotFound)
}

func TestCoreEnumerationOrder(t *testing.T) {
	ctx := context.Background()
	c := newCore(t)

	for _, id := range []string{"a", "b", "c"} {
		_, err := c.Create(ctx, id, "alice.near", title(id))
		require.NoError(t, err)
	}
	_, err := c.Create(ctx, "d", "bob.near", title("d"))
	require.NoError(t, err)

	// b moves to bob and lands after d in bob's order.
	_, err = c.Transfer(ctx, nft.TransferRequest{Sender: "alice.near", Receiver: "bob.near", TokenID: "b"})
	require.NoError(t, err)

	all, err := c.Enumerate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []token.Entry{
		{TokenID: "a", OwnerID: "alice.near"},
		{TokenID: "b", OwnerID: "bob.near"},
		{TokenID: "c", OwnerID: "alice.near"},
		{TokenID: "d", OwnerID: "bob.near"},
	}, all)

	bobs, err := c.EnumerateByOwner(ctx, "bob.near")
	require.NoError(t, err)
	assert.Equal(t, []token.Entry{
		{TokenID: "d", OwnerID: "bob.near"},
		{TokenID: "b", OwnerID: "bob.near"},
	}, bobs)

	n, err := c.Supply(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)

	n, err = c.SupplyForOwner(ctx, "alice.near")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestCoreApprovals(t *testing.T) {
	ctx := context.Background()
	c := newCore(t)
	_, err := c.Create(ctx, "t1", "alice.near", title("one"))
	require.NoError(t, err)

	_, err = c.Approve(ctx, "t1", "bob.near", "bob.near")
	require.ErrorIs(t, err, nft.ErrNotOwner)

	first, err := c.Approve(ctx, "t1", "alice.near", "market.near")
	require.NoError(t, err)
	second, err := c.Approve(ctx, "t1", "alice.near", "market.near")
	require.NoError(t, err)
	assert.Equal(t, first+1, second, "re-approval issues a fresh id")

	ok, err := c.IsApproved(ctx, "t1", "market.near", &first)
	require.NoError(t, err)
	assert.False(t, ok, "stale approval id")

	ok, err = c.IsApproved(ctx, "t1", "market.near", &second)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Revoke(ctx, "t1", "alice.near", "nobody.near"), "revoking an absent approval is a no-op")
	require.NoError(t, c.Revoke(ctx, "t1", "alice.near", "market.near"))
	ok, err = c.IsApproved(ctx, "t1", "market.near", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Approve(ctx, "t1", "alice.near", "m1.near")
	require.NoError(t, err)
	_, err = c.Approve(ctx, "t1", "alice.near", "m2.near")
	require.NoError(t, err)
	require.NoError(t, c.RevokeAll(ctx, "t1", "alice.near"))
	tok, err := c.Token(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, tok.Approvals)
}

func TestCoreTransferRules(t *testing.T) {
	ctx := context.Background()
	c := newCore(t)
	_, err := c.Create(ctx, "t1", "alice.near", title("one"))
	require.NoError(t, err)
	approvalID, err := c.Approve(ctx, "t1", "alice.near", "market.near")
	require.NoError(t, err)

	_, err = c.Transfer(ctx, nft.TransferRequest{Sender: "eve.near", Receiver: "bob.near", TokenID: "t1"})
	require.ErrorIs(t, err, nft.ErrNotApproved)

	wrong := approvalID + 1
	_, err = c.Transfer(ctx, nft.TransferRequest{Sender: "market.near", Receiver: "bob.near", TokenID: "t1", ApprovalID: &wrong})
	require.ErrorIs(t, err, nft.ErrApprovalMismatch)

	_, err = c.Transfer(ctx, nft.TransferRequest{Sender: "market.near", Receiver: "alice.near", TokenID: "t1"})
	require.ErrorIs(t, err, nft.ErrSameOwner)

	_, err = c.Transfer(ctx, nft.TransferRequest{Sender: "alice.near", Receiver: "bob.near", TokenID: "missing"})
	require.ErrorIs(t, err, token.ErrNotFound)
}

func TestCoreResolveTransfer(t *testing.T) {
	ctx := context.Background()
	c := newCore(t)
	_, err := c.Create(ctx, "t1", "alice.near", title("one"))
	require.NoError(t, err)
	_, err = c.Approve(ctx, "t1", "alice.near", "market.near")
	require.NoError(t, err)

	res, err := c.Transfer(ctx, nft.TransferRequest{Sender: "alice.near", Receiver: "vault.near", TokenID: "t1"})
	require.NoError(t, err)

	kept, back, err := c.ResolveTransfer(ctx, "alice.near", "vault.near", "t1", res.PreviousApprovals, false)
	require.NoError(t, err)
	assert.True(t, kept)
	assert.Nil(t, back)

	kept, back, err = c.ResolveTransfer(ctx, "alice.near", "vault.near", "t1", res.PreviousApprovals, true)
	require.NoError(t, err)
	assert.False(t, kept)
	require.NotNil(t, back)
	assert.Equal(t, types.AccountID("alice.near"), back.NewOwner)

	tok, err := c.Token(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, types.AccountID("alice.near"), tok.OwnerID)
	assert.Equal(t, res.PreviousApprovals, tok.Approvals)

	// The receiver already passed it on: nothing to return.
	_, err = c.Transfer(ctx, nft.TransferRequest{Sender: "alice.near", Receiver: "vault.near", TokenID: "t1"})
	require.NoError(t, err)
	_, err = c.Transfer(ctx, nft.TransferRequest{Sender: "vault.near", Receiver: "carol.near", TokenID: "t1"})
	require.NoError(t, err)
	kept, back, err = c.ResolveTransfer(ctx, "alice.near", "vault.near", "t1", nil, true)
	require.NoError(t, err)
	assert.True(t, kept)
	assert.Nil(t, back)
}

func TestCoreAccounts(t *testing.T) {
	ctx := context.Background()
	c := newCore(t)

	require.NoError(t, c.Credit(ctx, "alice.near", types.NewAmount(10)))
	require.NoError(t, c.Debit(ctx, "alice.near", types.NewAmount(4)))
	bal, err := c.Balance(ctx, "alice.near")
	require.NoError(t, err)
	assert.Equal(t, "6", bal.String())

	require.Error(t, c.Debit(ctx, "alice.near", types.NewAmount(7)))

	usage, err := c.StorageUsage(ctx)
	require.NoError(t, err)
	assert.Zero(t, usage)
}
