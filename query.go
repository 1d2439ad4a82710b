package mintage

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/mintage/expiry"
	"github.com/xraph/mintage/royalty"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
	"github.com/xraph/mintage/visibility"
)

// ──────────────────────────────────────────────────
// Lookups
// ──────────────────────────────────────────────────

// Get returns the token as caller may see it. The owner and the contract
// account always get the full view. Anyone else gets the view without
// metadata, or nothing once the token has expired. A nil view with a nil
// error means the token does not exist or is hidden.
func (r *Registry) Get(ctx context.Context, tokenID string, caller types.AccountID) (view *token.View, err error) {
	ctx, span := r.startSpan(ctx, "Get", tokenID)
	defer func() { endSpan(span, err) }()

	t, err := r.ledger.Token(ctx, tokenID)
	if errors.Is(err, token.ErrNotFound) {
		return nil, nil //nolint:nilnil // absent token is not an error
	}
	if err != nil {
		return nil, err
	}

	full, exp, err := r.assemble(ctx, t)
	if err != nil {
		return nil, err
	}
	d := visibility.Lookup(caller, t.OwnerID, r.self, exp, r.now())
	return visibility.Apply(full, d), nil
}

// GetMetadata returns a token's metadata. Only the owner and the contract
// account may read it; expiry does not apply to them.
func (r *Registry) GetMetadata(ctx context.Context, tokenID string, caller types.AccountID) (md *token.Metadata, err error) {
	ctx, span := r.startSpan(ctx, "GetMetadata", tokenID)
	defer func() { endSpan(span, err) }()

	t, err := r.ledger.Token(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if !visibility.Privileged(caller, t.OwnerID, r.self) {
		return nil, fmt.Errorf("%w: %s", ErrMetadataForbidden, tokenID)
	}
	return t.Metadata.Clone(), nil
}

// ──────────────────────────────────────────────────
// Enumeration
// ──────────────────────────────────────────────────

// List pages through every token in mint order. Expired tokens are left
// out for every caller, and the page window counts only the tokens that
// remain. FromIndex may equal the total supply, which yields an empty
// page.
func (r *Registry) List(ctx context.Context, page visibility.Page) (views []*token.View, err error) {
	ctx, span := r.startSpan(ctx, "List", "")
	defer func() { endSpan(span, err) }()

	total, err := r.ledger.Supply(ctx)
	if err != nil {
		return nil, err
	}
	if err := page.Check(total, visibility.Inclusive); err != nil {
		return nil, err
	}

	entries, err := r.ledger.Enumerate(ctx)
	if err != nil {
		return nil, err
	}
	return r.page(ctx, entries, page)
}

// ListForOwner pages through owner's tokens in the order they arrived.
// Expired tokens are left out. An owner holding no tokens is
// ErrOwnerNotFound, and FromIndex must be below the owner's supply.
func (r *Registry) ListForOwner(ctx context.Context, owner types.AccountID, page visibility.Page) (views []*token.View, err error) {
	ctx, span := r.startSpan(ctx, "ListForOwner", "")
	defer func() { endSpan(span, err) }()

	total, err := r.ledger.SupplyForOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: %s", ErrOwnerNotFound, owner)
	}
	if err := page.Check(total, visibility.Exclusive); err != nil {
		return nil, err
	}

	entries, err := r.ledger.EnumerateByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return r.page(ctx, entries, page)
}

// TotalSupply counts every token, expired ones included.
func (r *Registry) TotalSupply(ctx context.Context) (uint64, error) {
	return r.ledger.Supply(ctx)
}

// SupplyForOwner counts owner's tokens, expired ones included.
func (r *Registry) SupplyForOwner(ctx context.Context, owner types.AccountID) (uint64, error) {
	return r.ledger.SupplyForOwner(ctx, owner)
}

// ContractMetadata returns the NEP-177 metadata of the registry.
func (r *Registry) ContractMetadata() token.ContractMetadata {
	return r.contractMetadata
}

// Balance returns the amount credited to account by refunds, royalties
// or storage costs.
func (r *Registry) Balance(ctx context.Context, account types.AccountID) (types.Amount, error) {
	return r.ledger.Balance(ctx, account)
}

// StorageUsage returns the metered size of all stored records in bytes.
func (r *Registry) StorageUsage(ctx context.Context) (uint64, error) {
	return r.ledger.StorageUsage(ctx)
}

func (r *Registry) page(ctx context.Context, entries []token.Entry, page visibility.Page) ([]*token.View, error) {
	now := r.now()
	expirations := make(map[string]*expiry.Entry)

	selected, err := page.Select(entries, func(e token.Entry) (bool, error) {
		exp, err := expiry.Lookup(ctx, r.expirations, e.TokenID)
		if err != nil {
			return false, err
		}
		expirations[e.TokenID] = exp
		return visibility.Listable(exp, now), nil
	})
	if err != nil {
		return nil, err
	}

	views := make([]*token.View, 0, len(selected))
	for _, e := range selected {
		t, err := r.ledger.Token(ctx, e.TokenID)
		if err != nil {
			return nil, err
		}
		table, err := r.royaltyOf(ctx, e.TokenID)
		if err != nil {
			return nil, err
		}
		views = append(views, buildView(t, table, expirations[e.TokenID]))
	}
	return views, nil
}

// assemble builds the full view of t and returns its expiration entry.
func (r *Registry) assemble(ctx context.Context, t *token.Token) (*token.View, *expiry.Entry, error) {
	exp, err := expiry.Lookup(ctx, r.expirations, t.ID)
	if err != nil {
		return nil, nil, err
	}
	table, err := r.royaltyOf(ctx, t.ID)
	if err != nil {
		return nil, nil, err
	}
	return buildView(t, table, exp), exp, nil
}

// royaltyOf returns the token's royalty table, or nil when it has none.
func (r *Registry) royaltyOf(ctx context.Context, tokenID string) (royalty.Table, error) {
	table, err := r.royalties.GetRoyalty(ctx, tokenID)
	if errors.Is(err, royalty.ErrNotFound) {
		return nil, nil
	}
	return table, err
}

func buildView(t *token.Token, table royalty.Table, exp *expiry.Entry) *token.View {
	v := &token.View{
		TokenID:   t.ID,
		OwnerID:   t.OwnerID,
		Metadata:  t.Metadata.Clone(),
		Approvals: t.CloneApprovals(),
		Royalty:   table,
	}
	if exp != nil {
		at := exp.ExpiresAt
		v.ExpirationDate = &at
	}
	return v
}
