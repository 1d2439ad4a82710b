package observability_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintage/event"
	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/nft"
	"github.com/xraph/mintage/observability"
	"github.com/xraph/mintage/payout"
	"github.com/xraph/mintage/royalty"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
)

func TestMetricsExtensionCounts(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	factory := observability.NewPrometheusFactory(reg)
	m := observability.NewMetricsExtension(factory)

	exp := uint64(10)
	require.NoError(t, m.OnTokenMinted(ctx, &token.View{TokenID: "t1", Royalty: royalty.Table{}, ExpirationDate: &exp}))
	require.NoError(t, m.OnTokenMinted(ctx, &token.View{TokenID: "t2"}))
	require.NoError(t, m.OnMintRejected(ctx, "t3", errors.New("dup")))
	require.NoError(t, m.OnTokenTransferred(ctx, &nft.TransferResult{TokenID: "t1"}))
	require.NoError(t, m.OnPayoutComputed(ctx, &payout.Computation{TokenID: "t1", Breakdown: payout.Breakdown{
		"alice.near": types.NewAmount(1),
		"bob.near":   types.NewAmount(1),
	}}))
	require.NoError(t, m.OnStorageSettled(ctx, &meter.Receipt{BytesAdded: 200}))
	require.NoError(t, m.OnStorageSettled(ctx, &meter.Receipt{BytesReleased: 50}))
	require.NoError(t, m.OnEvent(ctx, &event.Event{Kind: event.KindMint}))

	assert.InDelta(t, 2, testutil.ToFloat64(m.TokensMinted.(prometheus.Counter)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.TokensWithRoyalty.(prometheus.Counter)), 0, "an empty royalty table still counts")
	assert.InDelta(t, 1, testutil.ToFloat64(m.TokensExpiring.(prometheus.Counter)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MintsRejected.(prometheus.Counter)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.TokensTransferred.(prometheus.Counter)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PayoutsComputed.(prometheus.Counter)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.StorageSettlements.(prometheus.Counter)), 0)
	assert.InDelta(t, 200, testutil.ToFloat64(m.StorageBytesAdded.(prometheus.Counter)), 0)
	assert.InDelta(t, 50, testutil.ToFloat64(m.StorageBytesReleased.(prometheus.Counter)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EventsEmitted.(prometheus.Counter)), 0)
}

func TestPrometheusFactoryNamesAndReuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	factory := observability.NewPrometheusFactory(reg)

	a := factory.Counter("mintage.token.minted")
	b := factory.Counter("mintage.token.minted")
	a.Inc()
	b.Add(2)
	factory.Histogram("mintage.payout.recipients").Observe(3)

	n, err := testutil.GatherAndCount(reg, "mintage_token_minted_total", "mintage_payout_recipients")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 3, testutil.ToFloat64(a.(prometheus.Counter)), 0)
}
