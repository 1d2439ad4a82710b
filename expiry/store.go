package expiry

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a token has no expiration entry.
	ErrNotFound = errors.New("expiry: entry not found")
	// ErrAlreadyExists is returned when an entry is written twice.
	ErrAlreadyExists = errors.New("expiry: entry already exists")
)

// Store is the expiration index. It is insert-only: there is no update
// path. DeleteExpiration exists so that an aborted mint can be undone.
type Store interface {
	SetExpiration(ctx context.Context, e *Entry) error
	GetExpiration(ctx context.Context, tokenID string) (*Entry, error)
	DeleteExpiration(ctx context.Context, tokenID string) error
}

// Lookup returns the entry for tokenID, or nil when the token never
// expires.
func Lookup(ctx context.Context, s Store, tokenID string) (*Entry, error) {
	e, err := s.GetExpiration(ctx, tokenID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil //nolint:nilnil // absent entry means no expiry
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}
