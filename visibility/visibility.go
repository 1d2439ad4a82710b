// Package visibility decides what a caller may observe of a token, based
// on the caller's identity and the token's expiration.
//
// Single lookups and enumerations follow different rules. A lookup by the
// owner or by the registry's own account always sees everything, expired
// or not. Anyone else loses sight of the token once it expires, and never
// sees its metadata. Enumeration drops expired tokens for every caller,
// the owner included, before any paging is applied.
package visibility

import (
	"github.com/xraph/mintage/expiry"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
)

// Level is how much of a token a caller may see.
type Level int

const (
	// Hidden means the token is reported as not found.
	Hidden Level = iota
	// Redacted means owner, approvals, royalty and expiry are shown but
	// metadata is withheld.
	Redacted
	// Full means the whole view is shown.
	Full
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case Hidden:
		return "hidden"
	case Redacted:
		return "redacted"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a visibility check.
type Decision struct {
	Level  Level  `json:"level"`
	Reason string `json:"reason,omitempty"`
}

// Visible reports whether the token may be reported at all.
func (d Decision) Visible() bool { return d.Level != Hidden }

// Privileged reports whether caller is the token's owner or the registry
// itself.
func Privileged(caller, owner, self types.AccountID) bool {
	return caller == owner || (self != "" && caller == self)
}

// Lookup decides what caller may see of a single token owned by owner.
// exp is nil when the token never expires; now is in unix nanoseconds.
func Lookup(caller, owner, self types.AccountID, exp *expiry.Entry, now uint64) Decision {
	if Privileged(caller, owner, self) {
		return Decision{Level: Full}
	}
	if exp.IsExpired(now) {
		return Decision{Level: Hidden, Reason: "expired"}
	}
	return Decision{Level: Redacted, Reason: "caller is not the owner"}
}

// Listable reports whether a token may appear in an enumeration.
func Listable(exp *expiry.Entry, now uint64) bool {
	return !exp.IsExpired(now)
}

// Apply shapes view according to d. It returns nil for Hidden and strips
// metadata for Redacted. view is not modified.
func Apply(view *token.View, d Decision) *token.View {
	if view == nil {
		return nil
	}
	switch d.Level {
	case Full:
		return view
	case Redacted:
		out := *view
		out.Metadata = nil
		return &out
	default:
		return nil
	}
}
