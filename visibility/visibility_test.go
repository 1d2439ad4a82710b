package visibility

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintage/expiry"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
)

const minute = uint64(60_000_000_000)

func TestLookup(t *testing.T) {
	exp := &expiry.Entry{TokenID: "t1", ExpiresAt: 5 * minute}

	tests := []struct {
		name   string
		caller types.AccountID
		exp    *expiry.Entry
		now    uint64
		want   Level
	}{
		{"owner before expiry", "alice.near", exp, 0, Full},
		{"owner after expiry", "alice.near", exp, 5*minute + 1, Full},
		{"self after expiry", "registry.near", exp, 5*minute + 1, Full},
		{"other before expiry", "bob.near", exp, 0, Redacted},
		{"other at expiry", "bob.near", exp, 5 * minute, Redacted},
		{"other after expiry", "bob.near", exp, 5*minute + 1, Hidden},
		{"other never expires", "bob.near", nil, ^uint64(0), Redacted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lookup(tt.caller, "alice.near", "registry.near", tt.exp, tt.now)
			assert.Equal(t, tt.want, got.Level, "got %s", got.Level)
		})
	}
}

func TestPrivilegedWithoutSelf(t *testing.T) {
	assert.False(t, Privileged("", "alice.near", ""))
	assert.True(t, Privileged("alice.near", "alice.near", ""))
}

func TestListableIgnoresCaller(t *testing.T) {
	exp := &expiry.Entry{ExpiresAt: 100}
	assert.True(t, Listable(exp, 100))
	assert.False(t, Listable(exp, 101))
	assert.True(t, Listable(nil, 101))
}

func TestApply(t *testing.T) {
	title := "One"
	view := &token.View{TokenID: "t1", OwnerID: "alice.near", Metadata: &token.Metadata{Title: &title}}

	assert.Same(t, view, Apply(view, Decision{Level: Full}))

	redacted := Apply(view, Decision{Level: Redacted})
	require.NotNil(t, redacted)
	assert.Nil(t, redacted.Metadata)
	assert.Equal(t, view.OwnerID, redacted.OwnerID)
	assert.NotNil(t, view.Metadata, "input must not be modified")

	assert.Nil(t, Apply(view, Decision{Level: Hidden}))
	assert.Nil(t, Apply(nil, Decision{Level: Full}))
}

func u64(v uint64) *uint64 { return &v }

func entries(ids ...string) []token.Entry {
	out := make([]token.Entry, len(ids))
	for i, id := range ids {
		out[i] = token.Entry{TokenID: id, OwnerID: "alice.near"}
	}
	return out
}

func TestPageCheck(t *testing.T) {
	tests := []struct {
		name    string
		page    Page
		size    uint64
		bound   Bound
		wantErr error
	}{
		{"defaults", Page{}, 3, Inclusive, nil},
		{"zero limit", Page{Limit: u64(0)}, 3, Inclusive, ErrZeroLimit},
		{"inclusive at end", Page{FromIndex: u64(3)}, 3, Inclusive, nil},
		{"inclusive past end", Page{FromIndex: u64(4)}, 3, Inclusive, ErrIndexOutOfBounds},
		{"exclusive at end", Page{FromIndex: u64(3)}, 3, Exclusive, ErrIndexOutOfBounds},
		{"exclusive inside", Page{FromIndex: u64(2)}, 3, Exclusive, nil},
		{"exclusive empty", Page{}, 0, Exclusive, ErrIndexOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.page.Check(tt.size, tt.bound)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPageSelectFiltersBeforePaging(t *testing.T) {
	all := entries("a", "b", "c", "d", "e")
	expired := map[string]bool{"b": true, "d": true}
	keep := func(e token.Entry) (bool, error) { return !expired[e.TokenID], nil }

	got, err := Page{FromIndex: u64(1), Limit: u64(1)}.Select(all, keep)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].TokenID, "index 1 counts only live entries")

	got, err = Page{}.Select(all, keep)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestPageSelectPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Page{}.Select(entries("a"), func(token.Entry) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}
