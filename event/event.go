// Package event encodes NEP-171 log events emitted when tokens are minted
// or change hands.
package event

import (
	"encoding/json"
	"time"

	"github.com/xraph/mintage/id"
	"github.com/xraph/mintage/types"
)

// Standard and version of the NEP-171 event envelope.
const (
	Standard = "nep171"
	Version  = "1.0.0"

	// LogPrefix precedes the JSON envelope in log lines.
	LogPrefix = "EVENT_JSON:"
)

// Kind is the event name inside the envelope.
type Kind string

// Event kinds.
const (
	KindMint     Kind = "nft_mint"
	KindTransfer Kind = "nft_transfer"
)

// Mint is the data of one nft_mint entry.
type Mint struct {
	OwnerID  types.AccountID `json:"owner_id"`
	TokenIDs []string        `json:"token_ids"`
	Memo     *string         `json:"memo,omitempty"`
}

// Transfer is the data of one nft_transfer entry.
type Transfer struct {
	AuthorizedID *types.AccountID `json:"authorized_id,omitempty"`
	OldOwnerID   types.AccountID  `json:"old_owner_id"`
	NewOwnerID   types.AccountID  `json:"new_owner_id"`
	TokenIDs     []string         `json:"token_ids"`
	Memo         *string          `json:"memo,omitempty"`
}

// Event is a NEP-171 envelope plus the metadata publishers need.
type Event struct {
	ID         id.EventID `json:"-"`
	OccurredAt time.Time  `json:"-"`

	Standard string `json:"standard"`
	Version  string `json:"version"`
	Kind     Kind   `json:"event"`
	Data     any    `json:"data"`
}

// NewMint builds an nft_mint event.
func NewMint(at time.Time, entries ...Mint) *Event {
	return newEvent(at, KindMint, entries)
}

// NewTransfer builds an nft_transfer event.
func NewTransfer(at time.Time, entries ...Transfer) *Event {
	return newEvent(at, KindTransfer, entries)
}

func newEvent(at time.Time, kind Kind, data any) *Event {
	return &Event{
		ID:         id.NewEventID(),
		OccurredAt: at.UTC(),
		Standard:   Standard,
		Version:    Version,
		Kind:       kind,
		Data:       data,
	}
}

// JSON returns the envelope encoding.
func (e *Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// LogLine returns the envelope prefixed with LogPrefix.
func (e *Event) LogLine() string {
	data, err := e.JSON()
	if err != nil {
		return LogPrefix + "{}"
	}
	return LogPrefix + string(data)
}

// Key returns the partition key for publishers: the first token id.
func (e *Event) Key() string {
	switch d := e.Data.(type) {
	case []Mint:
		if len(d) > 0 && len(d[0].TokenIDs) > 0 {
			return d[0].TokenIDs[0]
		}
	case []Transfer:
		if len(d) > 0 && len(d[0].TokenIDs) > 0 {
			return d[0].TokenIDs[0]
		}
	}
	return e.ID.String()
}
