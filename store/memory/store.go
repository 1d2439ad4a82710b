// Package memory provides an in-memory Store. It is safe for concurrent
// use and is intended for tests and single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/mintage/expiry"
	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/royalty"
	mintagestore "github.com/xraph/mintage/store"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
)

// compile-time interface check
var _ mintagestore.Store = (*Store)(nil)

// Store implements store.Store with maps guarded by a mutex.
type Store struct {
	mu sync.RWMutex

	// Token storage
	tokens map[string]*token.Token
	order  []string
	owners map[types.AccountID][]string
	seq    uint64

	// Side indexes
	expirations map[string]*expiry.Entry
	royalties   map[string]royalty.Table

	// Accounts
	balances map[types.AccountID]types.Amount
	usage    uint64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		tokens:      make(map[string]*token.Token),
		owners:      make(map[types.AccountID][]string),
		expirations: make(map[string]*expiry.Entry),
		royalties:   make(map[string]royalty.Table),
		balances:    make(map[types.AccountID]types.Amount),
	}
}

// ==================== Token Store ====================

func (s *Store) CreateToken(_ context.Context, t *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[t.ID]; exists {
		return fmt.Errorf("%w: %s", token.ErrAlreadyExists, t.ID)
	}
	s.seq++
	t.Seq = s.seq

	cp := cloneToken(t)
	s.tokens[t.ID] = cp
	s.order = append(s.order, t.ID)
	s.owners[t.OwnerID] = append(s.owners[t.OwnerID], t.ID)
	s.usage += cp.Footprint()
	return nil
}

func (s *Store) GetToken(_ context.Context, tokenID string) (*token.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[tokenID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", token.ErrNotFound, tokenID)
	}
	return cloneToken(t), nil
}

func (s *Store) UpdateToken(_ context.Context, t *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tokens[t.ID]
	if !ok {
		return fmt.Errorf("%w: %s", token.ErrNotFound, t.ID)
	}

	cp := cloneToken(t)
	cp.Seq = existing.Seq
	if existing.OwnerID != cp.OwnerID {
		s.owners[existing.OwnerID] = removeID(s.owners[existing.OwnerID], t.ID)
		if len(s.owners[existing.OwnerID]) == 0 {
			delete(s.owners, existing.OwnerID)
		}
		s.owners[cp.OwnerID] = append(s.owners[cp.OwnerID], t.ID)
	}
	s.usage = s.usage - existing.Footprint() + cp.Footprint()
	s.tokens[t.ID] = cp
	return nil
}

func (s *Store) DeleteToken(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tokens[tokenID]
	if !ok {
		return fmt.Errorf("%w: %s", token.ErrNotFound, tokenID)
	}
	s.usage -= existing.Footprint()
	delete(s.tokens, tokenID)
	s.order = removeID(s.order, tokenID)
	s.owners[existing.OwnerID] = removeID(s.owners[existing.OwnerID], tokenID)
	if len(s.owners[existing.OwnerID]) == 0 {
		delete(s.owners, existing.OwnerID)
	}
	return nil
}

func (s *Store) ListTokens(_ context.Context) ([]token.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]token.Entry, 0, len(s.order))
	for _, tokenID := range s.order {
		out = append(out, token.Entry{TokenID: tokenID, OwnerID: s.tokens[tokenID].OwnerID})
	}
	return out, nil
}

func (s *Store) ListTokensByOwner(_ context.Context, owner types.AccountID) ([]token.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.owners[owner]
	out := make([]token.Entry, 0, len(ids))
	for _, tokenID := range ids {
		out = append(out, token.Entry{TokenID: tokenID, OwnerID: owner})
	}
	return out, nil
}

func (s *Store) CountTokens(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.tokens)), nil
}

func (s *Store) CountTokensByOwner(_ context.Context, owner types.AccountID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.owners[owner])), nil
}

// ==================== Expiry Store ====================

func (s *Store) SetExpiration(_ context.Context, e *expiry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expirations[e.TokenID]; exists {
		return fmt.Errorf("%w: %s", expiry.ErrAlreadyExists, e.TokenID)
	}
	cp := *e
	s.expirations[e.TokenID] = &cp
	s.usage += cp.Footprint()
	return nil
}

func (s *Store) GetExpiration(_ context.Context, tokenID string) (*expiry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expirations[tokenID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", expiry.ErrNotFound, tokenID)
	}
	cp := *e
	return &cp, nil
}

func (s *Store) DeleteExpiration(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expirations[tokenID]
	if !ok {
		return fmt.Errorf("%w: %s", expiry.ErrNotFound, tokenID)
	}
	s.usage -= e.Footprint()
	delete(s.expirations, tokenID)
	return nil
}

// ==================== Royalty Store ====================

func (s *Store) SetRoyalty(_ context.Context, tokenID string, table royalty.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.royalties[tokenID]; exists {
		return fmt.Errorf("%w: %s", royalty.ErrAlreadyExists, tokenID)
	}
	cp := table.Clone()
	if cp == nil {
		cp = royalty.Table{}
	}
	s.royalties[tokenID] = cp
	s.usage += cp.Footprint(tokenID)
	return nil
}

func (s *Store) GetRoyalty(_ context.Context, tokenID string) (royalty.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.royalties[tokenID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", royalty.ErrNotFound, tokenID)
	}
	return t.Clone(), nil
}

func (s *Store) DeleteRoyalty(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.royalties[tokenID]
	if !ok {
		return fmt.Errorf("%w: %s", royalty.ErrNotFound, tokenID)
	}
	s.usage -= t.Footprint(tokenID)
	delete(s.royalties, tokenID)
	return nil
}

// ==================== Accounts ====================

func (s *Store) StorageUsage(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage, nil
}

func (s *Store) Balance(_ context.Context, account types.AccountID) (types.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

func (s *Store) Credit(_ context.Context, account types.AccountID, amount types.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum, ok := s.balances[account].Add(amount)
	if !ok {
		return fmt.Errorf("memory: balance of %s overflows", account)
	}
	s.balances[account] = sum
	return nil
}

func (s *Store) Debit(_ context.Context, account types.AccountID, amount types.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	diff, ok := s.balances[account].Sub(amount)
	if !ok {
		return fmt.Errorf("%w: %s holds %s, needs %s", meter.ErrInsufficientBalance, account, s.balances[account], amount)
	}
	s.balances[account] = diff
	return nil
}

// ==================== Lifecycle ====================

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ==================== Helpers ====================

func cloneToken(t *token.Token) *token.Token {
	cp := *t
	cp.Metadata = t.Metadata.Clone()
	cp.Approvals = t.CloneApprovals()
	return &cp
}

func removeID(ids []string, target string) []string {
	for i, v := range ids {
		if v == target {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
