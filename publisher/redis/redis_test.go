package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintage/event"
)

type fakeStreamer struct {
	args []*redis.XAddArgs
	err  error
}

func (f *fakeStreamer) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = append(f.args, a)
	return redis.NewStringResult("1-0", f.err)
}

func TestOnEventAppendsEntry(t *testing.T) {
	fs := &fakeStreamer{}
	p := New(fs, WithStream("nft"), WithMaxLen(1000))

	e := event.NewMint(time.Unix(10, 0), event.Mint{OwnerID: "alice.near", TokenIDs: []string{"t1"}})
	require.NoError(t, p.OnEvent(context.Background(), e))

	require.Len(t, fs.args, 1)
	a := fs.args[0]
	assert.Equal(t, "nft", a.Stream)
	assert.Equal(t, int64(1000), a.MaxLen)
	assert.True(t, a.Approx)

	values, ok := a.Values.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "nft_mint", values["event"])
	assert.Equal(t, "t1", values["key"])
	assert.Contains(t, values["payload"], `"standard":"nep171"`)
}

func TestOnEventUnbounded(t *testing.T) {
	fs := &fakeStreamer{}
	require.NoError(t, New(fs).OnEvent(context.Background(), event.NewMint(time.Unix(0, 0))))
	assert.Equal(t, DefaultStream, fs.args[0].Stream)
	assert.Zero(t, fs.args[0].MaxLen)
}

func TestOnEventReportsError(t *testing.T) {
	fs := &fakeStreamer{err: errors.New("READONLY")}
	err := New(fs).OnEvent(context.Background(), event.NewMint(time.Unix(0, 0)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READONLY")
}
