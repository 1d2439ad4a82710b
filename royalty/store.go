package royalty

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a token has no royalty table.
	ErrNotFound = errors.New("royalty: table not found")
	// ErrAlreadyExists is returned when a table is written twice.
	ErrAlreadyExists = errors.New("royalty: table already exists")
)

// Store persists royalty tables. It is insert-only; DeleteRoyalty exists
// so that an aborted mint can be undone.
type Store interface {
	SetRoyalty(ctx context.Context, tokenID string, table Table) error
	GetRoyalty(ctx context.Context, tokenID string) (Table, error)
	DeleteRoyalty(ctx context.Context, tokenID string) error
}
