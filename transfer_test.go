package mintage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintage"
	"github.com/xraph/mintage/nft"
)

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mint(t, "t1", "alice.near")

	_, err := f.r.Transfer(ctx, call("alice.near", 0), mintage.TransferRequest{Receiver: "bob.near", TokenID: "t1"})
	require.ErrorIs(t, err, mintage.ErrOneYoctoRequired)

	_, err = f.r.Transfer(ctx, call("carol.near", 1), mintage.TransferRequest{Receiver: "bob.near", TokenID: "t1"})
	require.ErrorIs(t, err, mintage.ErrNotApproved)
	assert.True(t, mintage.IsUnauthorized(err))

	_, err = f.r.Transfer(ctx, call("alice.near", 1), mintage.TransferRequest{Receiver: "alice.near", TokenID: "t1"})
	require.ErrorIs(t, err, mintage.ErrSameOwner)
	assert.True(t, mintage.IsValidation(err))

	res, err := f.r.Transfer(ctx, call("alice.near", 1), mintage.TransferRequest{
		Receiver: "bob.near",
		TokenID:  "t1",
		Memo:     ptr("gift"),
	})
	require.NoError(t, err)
	assert.Equal(t, mintage.AccountID("alice.near"), res.PreviousOwner)
	assert.Equal(t, mintage.AccountID("bob.near"), res.NewOwner)
	assert.Nil(t, res.AuthorizedID)

	views, err := f.r.ListForOwner(ctx, "bob.near", mintage.Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, tokenIDs(views))

	_, err = f.r.ListForOwner(ctx, "alice.near", mintage.Page{})
	assert.ErrorIs(t, err, mintage.ErrOwnerNotFound)
}

func TestApprovedTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mint(t, "t1", "alice.near")

	_, err := f.r.Approve(ctx, call("bob.near", 10_000), "t1", "bob.near")
	require.ErrorIs(t, err, mintage.ErrNotOwner)

	approvalID, err := f.r.Approve(ctx, call("alice.near", 10_000), "t1", "market.near")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), approvalID)

	ok, err := f.r.IsApproved(ctx, "t1", "market.near", &approvalID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.r.IsApproved(ctx, "t1", "market.near", ptr(uint64(7)))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.r.Transfer(ctx, call("market.near", 1), mintage.TransferRequest{
		Receiver: "carol.near", TokenID: "t1", ApprovalID: ptr(uint64(7)),
	})
	require.ErrorIs(t, err, mintage.ErrApprovalMismatch)

	res, err := f.r.Transfer(ctx, call("market.near", 1), mintage.TransferRequest{
		Receiver: "carol.near", TokenID: "t1", ApprovalID: &approvalID,
	})
	require.NoError(t, err)
	require.NotNil(t, res.AuthorizedID)
	assert.Equal(t, mintage.AccountID("market.near"), *res.AuthorizedID)
	assert.Equal(t, map[mintage.AccountID]uint64{"market.near": 0}, res.PreviousApprovals)

	ok, err = f.r.IsApproved(ctx, "t1", "market.near", nil)
	require.NoError(t, err)
	assert.False(t, ok, "transfer clears approvals")
}

func TestApproveRequiresDeposit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mint(t, "t1", "alice.near")

	_, err := f.r.Approve(ctx, call("alice.near", 0), "t1", "market.near")
	require.ErrorIs(t, err, mintage.ErrUnderpayment)

	_, err = f.r.Approve(ctx, call("alice.near", 1), "t1", "market.near")
	require.ErrorIs(t, err, mintage.ErrUnderpayment)

	ok, err := f.r.IsApproved(ctx, "t1", "market.near", nil)
	require.NoError(t, err)
	assert.False(t, ok, "failed approval must be undone")
}

func TestRevokeRefundsStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mint(t, "t1", "alice.near")

	before, err := f.r.Balance(ctx, "alice.near")
	require.NoError(t, err)

	_, err = f.r.Approve(ctx, call("alice.near", 10_000), "t1", "market.near")
	require.NoError(t, err)

	err = f.r.Revoke(ctx, call("alice.near", 0), "t1", "market.near")
	require.ErrorIs(t, err, mintage.ErrOneYoctoRequired)

	require.NoError(t, f.r.Revoke(ctx, call("alice.near", 1), "t1", "market.near"))

	after, err := f.r.Balance(ctx, "alice.near")
	require.NoError(t, err)
	want, _ := before.Add(mintage.NewAmount(10_000))
	assert.Equal(t, want.String(), after.String(), "approve cost must come back on revoke")

	ok, err := f.r.IsApproved(ctx, "t1", "market.near", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRevokeAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mint(t, "t1", "alice.near")

	for _, a := range []mintage.AccountID{"m1.near", "m2.near"} {
		_, err := f.r.Approve(ctx, call("alice.near", 10_000), "t1", a)
		require.NoError(t, err)
	}
	require.NoError(t, f.r.RevokeAll(ctx, call("alice.near", 1), "t1"))

	view, err := f.r.Get(ctx, "t1", "alice.near")
	require.NoError(t, err)
	assert.Empty(t, view.Approvals)
}

func TestTransferCall(t *testing.T) {
	tests := []struct {
		name     string
		receiver nft.ReceiverFunc
		kept     bool
	}{
		{"receiver keeps", func(context.Context, mintage.AccountID, mintage.AccountID, string, string) (bool, error) {
			return false, nil
		}, true},
		{"receiver returns", func(context.Context, mintage.AccountID, mintage.AccountID, string, string) (bool, error) {
			return true, nil
		}, false},
		{"receiver fails", func(context.Context, mintage.AccountID, mintage.AccountID, string, string) (bool, error) {
			return false, errors.New("boom")
		}, false},
		{"receiver times out", func(ctx context.Context, _ mintage.AccountID, _ mintage.AccountID, _ string, _ string) (bool, error) {
			<-ctx.Done()
			return false, nil
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t,
				mintage.WithReceiver(tt.receiver),
				mintage.WithReceiverTimeout(50*time.Millisecond),
			)
			ctx := context.Background()
			f.mint(t, "t1", "alice.near")
			_, err := f.r.Approve(ctx, call("alice.near", 10_000), "t1", "market.near")
			require.NoError(t, err)

			out, err := f.r.TransferCall(ctx, call("alice.near", 1), mintage.TransferCallRequest{
				TransferRequest: mintage.TransferRequest{Receiver: "vault.near", TokenID: "t1"},
				Msg:             "stake",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.kept, out.Kept)

			view, err := f.r.Get(ctx, "t1", registryAccount)
			require.NoError(t, err)
			if tt.kept {
				assert.Nil(t, out.Returned)
				assert.Equal(t, mintage.AccountID("vault.near"), view.OwnerID)
				assert.Empty(t, view.Approvals)
				return
			}
			require.NotNil(t, out.Returned)
			assert.Equal(t, mintage.AccountID("alice.near"), view.OwnerID)
			assert.Equal(t, map[mintage.AccountID]uint64{"market.near": 0}, view.Approvals, "approvals restored")
		})
	}
}
