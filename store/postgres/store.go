package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/mintage/expiry"
	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/royalty"
	mintagestore "github.com/xraph/mintage/store"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
)

// compile-time interface check
var _ mintagestore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
//
// Balances are adjusted in a single statement each; the balance column
// carries a CHECK constraint that keeps it inside the 128-bit range.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB

	mu sync.Mutex
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("mintage/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("mintage/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Token Store ====================

func (s *Store) CreateToken(ctx context.Context, t *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	err := s.pg.NewRaw(`SELECT COUNT(*) FROM mintage_tokens WHERE token_id = $1`, t.ID).Scan(ctx, &n)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", token.ErrAlreadyExists, t.ID)
	}

	var seq, owned int64
	err = s.pg.NewRaw(`
		SELECT COALESCE(MAX(seq), 0) + 1, COALESCE(MAX(owned_seq), 0) + 1 FROM mintage_tokens
	`).Scan(ctx, &seq, &owned)
	if err != nil {
		return fmt.Errorf("mintage/postgres: next sequence: %w", err)
	}

	t.Seq = uint64(seq) //nolint:gosec // MAX+1 over non-negative values
	m, err := toTokenModel(t)
	if err != nil {
		return err
	}
	m.OwnedSeq = owned
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetToken(ctx context.Context, tokenID string) (*token.Token, error) {
	m, err := s.getTokenModel(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return fromTokenModel(m)
}

func (s *Store) UpdateToken(ctx context.Context, t *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getTokenModel(ctx, t.ID)
	if err != nil {
		return err
	}

	m, err := toTokenModel(t)
	if err != nil {
		return err
	}
	m.Seq = existing.Seq
	m.OwnedSeq = existing.OwnedSeq
	m.CreatedAt = existing.CreatedAt
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now()
	}
	if existing.OwnerID != m.OwnerID {
		err := s.pg.NewRaw(`SELECT COALESCE(MAX(owned_seq), 0) + 1 FROM mintage_tokens`).Scan(ctx, &m.OwnedSeq)
		if err != nil {
			return fmt.Errorf("mintage/postgres: next owned sequence: %w", err)
		}
	}

	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", token.ErrNotFound, t.ID)
	}
	return nil
}

func (s *Store) DeleteToken(ctx context.Context, tokenID string) error {
	res, err := s.pg.NewDelete((*tokenModel)(nil)).
		Where("token_id = $1", tokenID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", token.ErrNotFound, tokenID)
	}
	return nil
}

func (s *Store) ListTokens(ctx context.Context) ([]token.Entry, error) {
	var models []tokenModel
	err := s.pg.NewSelect(&models).
		OrderExpr("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toEntries(models), nil
}

func (s *Store) ListTokensByOwner(ctx context.Context, owner types.AccountID) ([]token.Entry, error) {
	var models []tokenModel
	err := s.pg.NewSelect(&models).
		Where("owner_id = $1", string(owner)).
		OrderExpr("owned_seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toEntries(models), nil
}

func (s *Store) CountTokens(ctx context.Context) (uint64, error) {
	var n int64
	if err := s.pg.NewRaw(`SELECT COUNT(*) FROM mintage_tokens`).Scan(ctx, &n); err != nil {
		return 0, err
	}
	return uint64(n), nil //nolint:gosec // COUNT is non-negative
}

func (s *Store) CountTokensByOwner(ctx context.Context, owner types.AccountID) (uint64, error) {
	var n int64
	err := s.pg.NewRaw(`SELECT COUNT(*) FROM mintage_tokens WHERE owner_id = $1`, string(owner)).Scan(ctx, &n)
	if err != nil {
		return 0, err
	}
	return uint64(n), nil //nolint:gosec // COUNT is non-negative
}

// ==================== Expiry Store ====================

func (s *Store) SetExpiration(ctx context.Context, e *expiry.Entry) error {
	res, err := s.pg.NewInsert(toExpirationModel(e)).
		OnConflict("(token_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", expiry.ErrAlreadyExists, e.TokenID)
	}
	return nil
}

func (s *Store) GetExpiration(ctx context.Context, tokenID string) (*expiry.Entry, error) {
	m := new(expirationModel)
	err := s.pg.NewSelect(m).
		Where("token_id = $1", tokenID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", expiry.ErrNotFound, tokenID)
		}
		return nil, err
	}
	return fromExpirationModel(m)
}

func (s *Store) DeleteExpiration(ctx context.Context, tokenID string) error {
	res, err := s.pg.NewDelete((*expirationModel)(nil)).
		Where("token_id = $1", tokenID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", expiry.ErrNotFound, tokenID)
	}
	return nil
}

// ==================== Royalty Store ====================

func (s *Store) SetRoyalty(ctx context.Context, tokenID string, table royalty.Table) error {
	res, err := s.pg.NewInsert(toRoyaltyModel(tokenID, table)).
		OnConflict("(token_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", royalty.ErrAlreadyExists, tokenID)
	}
	return nil
}

func (s *Store) GetRoyalty(ctx context.Context, tokenID string) (royalty.Table, error) {
	m := new(royaltyModel)
	err := s.pg.NewSelect(m).
		Where("token_id = $1", tokenID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", royalty.ErrNotFound, tokenID)
		}
		return nil, err
	}
	return fromRoyaltyModel(m), nil
}

func (s *Store) DeleteRoyalty(ctx context.Context, tokenID string) error {
	res, err := s.pg.NewDelete((*royaltyModel)(nil)).
		Where("token_id = $1", tokenID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", royalty.ErrNotFound, tokenID)
	}
	return nil
}

// ==================== Accounts ====================

func (s *Store) StorageUsage(ctx context.Context) (uint64, error) {
	var total int64
	err := s.pg.NewRaw(`
		SELECT
			(SELECT COALESCE(SUM(storage_bytes), 0) FROM mintage_tokens) +
			(SELECT COALESCE(SUM(storage_bytes), 0) FROM mintage_expirations) +
			(SELECT COALESCE(SUM(storage_bytes), 0) FROM mintage_royalties)
	`).Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return uint64(total), nil //nolint:gosec // sums of non-negative sizes
}

func (s *Store) Balance(ctx context.Context, account types.AccountID) (types.Amount, error) {
	m := new(balanceModel)
	err := s.pg.NewSelect(m).
		Where("account_id = $1", string(account)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return types.Zero, nil
		}
		return types.Zero, err
	}
	return types.ParseAmount(m.Balance)
}

// Credit adds amount in one upsert. A sum beyond the 128-bit range
// violates the column constraint and surfaces as an error.
func (s *Store) Credit(ctx context.Context, account types.AccountID, amount types.Amount) error {
	m := &balanceModel{
		AccountID: string(account),
		Balance:   amount.String(),
		UpdatedAt: now(),
	}
	_, err := s.pg.NewInsert(m).
		OnConflict("(account_id) DO UPDATE").
		Set("balance = mintage_balances.balance + EXCLUDED.balance").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mintage/postgres: credit %s: %w", account, err)
	}
	return nil
}

// Debit subtracts amount only when the balance covers it.
func (s *Store) Debit(ctx context.Context, account types.AccountID, amount types.Amount) error {
	if amount.IsZero() {
		return nil
	}
	res, err := s.pg.NewUpdate((*balanceModel)(nil)).
		Set("balance = balance - $1", amount.String()).
		Set("updated_at = $2", now()).
		Where("account_id = $3", string(account)).
		Where("balance >= $4", amount.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		bal, err := s.Balance(ctx, account)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s holds %s, needs %s", meter.ErrInsufficientBalance, account, bal, amount)
	}
	return nil
}

// ==================== Helpers ====================

func (s *Store) getTokenModel(ctx context.Context, tokenID string) (*tokenModel, error) {
	m := new(tokenModel)
	err := s.pg.NewSelect(m).
		Where("token_id = $1", tokenID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", token.ErrNotFound, tokenID)
		}
		return nil, err
	}
	return m, nil
}

func toEntries(models []tokenModel) []token.Entry {
	out := make([]token.Entry, len(models))
	for i := range models {
		out[i] = token.Entry{
			TokenID: models[i].TokenID,
			OwnerID: types.AccountID(models[i].OwnerID),
		}
	}
	return out
}

func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
