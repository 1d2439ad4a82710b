package mintage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xraph/mintage"
	"github.com/xraph/mintage/store/memory"
)

const registryAccount mintage.AccountID = "registry.near"

// fixture is a registry over a memory store with a settable clock.
type fixture struct {
	r     *mintage.Registry
	store *memory.Store
	now   time.Time
}

func newFixture(t *testing.T, opts ...mintage.Option) *fixture {
	t.Helper()

	f := &fixture{store: memory.New(), now: time.Unix(0, 0)}
	base := []mintage.Option{
		mintage.WithClock(func() time.Time { return f.now }),
		mintage.WithContractAccount(registryAccount),
		mintage.WithStorageBytePrice(mintage.NewAmount(1)),
	}
	f.r = mintage.New(f.store, append(base, opts...)...)
	require.NoError(t, f.r.Start(context.Background()))
	t.Cleanup(func() { _ = f.r.Stop() })
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) mint(t *testing.T, tokenID string, owner mintage.AccountID, mutate ...func(*mintage.MintRequest)) *mintage.View {
	t.Helper()

	req := mintage.MintRequest{
		TokenID:  tokenID,
		Receiver: owner,
		Metadata: metadata("Token " + tokenID),
	}
	for _, m := range mutate {
		m(&req)
	}
	view, err := f.r.Mint(context.Background(), call(owner, 100_000), req)
	require.NoError(t, err)
	return view
}

func call(who mintage.AccountID, deposit uint64) mintage.Call {
	return mintage.Call{Predecessor: who, Deposit: mintage.NewAmount(deposit)}
}

func metadata(title string) *mintage.Metadata {
	return &mintage.Metadata{Title: &title}
}

func ptr[T any](v T) *T { return &v }

func TestStartTwice(t *testing.T) {
	f := newFixture(t)
	err := f.r.Start(context.Background())
	require.ErrorIs(t, err, mintage.ErrStarted)
}
