package expiry

import (
	"time"

	"github.com/xraph/mintage/meter"
)

// Entry records when a token expires. It is written once at mint and
// never updated.
type Entry struct {
	TokenID   string `json:"token_id"`
	ExpiresAt uint64 `json:"expires_at"` // unix nanoseconds
}

// IsExpired reports whether the entry is strictly in the past relative
// to now (unix nanoseconds). A token expiring exactly at now is still
// visible.
func (e *Entry) IsExpired(now uint64) bool {
	if e == nil {
		return false
	}
	return e.ExpiresAt < now
}

// Time returns the expiry as a time.Time.
func (e *Entry) Time() time.Time {
	return time.Unix(0, int64(e.ExpiresAt)).UTC() //nolint:gosec // nanosecond timestamps fit in int64 until 2262
}

// Key is the storage key of an expiration entry.
func Key(tokenID string) string { return "e:" + tokenID }

// Footprint returns the number of storage bytes the entry occupies.
func (e *Entry) Footprint() uint64 {
	return meter.RecordBytes(Key(e.TokenID), e.ExpiresAt)
}

// Nanos converts t to unix nanoseconds, clamping times before the epoch
// to zero.
func Nanos(t time.Time) uint64 {
	ns := t.UnixNano()
	if ns < 0 {
		return 0
	}
	return uint64(ns)
}
