package token

import (
	"context"
	"errors"

	"github.com/xraph/mintage/types"
)

var (
	// ErrNotFound is returned when a token does not exist.
	ErrNotFound = errors.New("token: not found")
	// ErrAlreadyExists is returned when a token id is already taken.
	ErrAlreadyExists = errors.New("token: already exists")
)

// Store persists base-ledger token records.
//
// ListTokens returns every token in mint order. ListTokensByOwner returns
// an owner's tokens in the order they arrived at that owner.
type Store interface {
	CreateToken(ctx context.Context, t *Token) error
	GetToken(ctx context.Context, tokenID string) (*Token, error)
	UpdateToken(ctx context.Context, t *Token) error
	DeleteToken(ctx context.Context, tokenID string) error
	ListTokens(ctx context.Context) ([]Entry, error)
	ListTokensByOwner(ctx context.Context, owner types.AccountID) ([]Entry, error)
	CountTokens(ctx context.Context) (uint64, error)
	CountTokensByOwner(ctx context.Context, owner types.AccountID) (uint64, error)
}
