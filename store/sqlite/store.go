package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
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

// Store implements store.Store using SQLite via Grove ORM.
//
// Writes that read before they write (token creation, owner moves and
// balance changes) are serialized by a store-level mutex so that the
// sequence columns and balances stay consistent within one process.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB

	mu sync.Mutex
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("mintage/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("mintage/sqlite: migration failed: %w", err)
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

	exists, err := s.tokenExists(ctx, t.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", token.ErrAlreadyExists, t.ID)
	}

	seq, err := s.nextSeq(ctx, "seq")
	if err != nil {
		return err
	}
	owned, err := s.nextSeq(ctx, "owned_seq")
	if err != nil {
		return err
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
	_, err = s.sdb.NewInsert(m).Exec(ctx)
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
		// Moving owners puts the token at the end of the new owner's list.
		owned, err := s.nextSeq(ctx, "owned_seq")
		if err != nil {
			return err
		}
		m.OwnedSeq = owned
	}

	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
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
	res, err := s.sdb.NewDelete((*tokenModel)(nil)).
		Where("token_id = ?", tokenID).
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
	err := s.sdb.NewSelect(&models).
		OrderExpr("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toEntries(models), nil
}

func (s *Store) ListTokensByOwner(ctx context.Context, owner types.AccountID) ([]token.Entry, error) {
	var models []tokenModel
	err := s.sdb.NewSelect(&models).
		Where("owner_id = ?", string(owner)).
		OrderExpr("owned_seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toEntries(models), nil
}

func (s *Store) CountTokens(ctx context.Context) (uint64, error) {
	var n int64
	err := s.sdb.NewRaw(`SELECT COUNT(*) FROM mintage_tokens`).Scan(ctx, &n)
	if err != nil {
		return 0, err
	}
	return uint64(n), nil //nolint:gosec // COUNT is non-negative
}

func (s *Store) CountTokensByOwner(ctx context.Context, owner types.AccountID) (uint64, error) {
	var n int64
	err := s.sdb.NewRaw(`SELECT COUNT(*) FROM mintage_tokens WHERE owner_id = ?`, string(owner)).Scan(ctx, &n)
	if err != nil {
		return 0, err
	}
	return uint64(n), nil //nolint:gosec // COUNT is non-negative
}

// ==================== Expiry Store ====================

func (s *Store) SetExpiration(ctx context.Context, e *expiry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.GetExpiration(ctx, e.TokenID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", expiry.ErrAlreadyExists, e.TokenID)
	case !errors.Is(err, expiry.ErrNotFound):
		return err
	}
	_, err = s.sdb.NewInsert(toExpirationModel(e)).Exec(ctx)
	return err
}

func (s *Store) GetExpiration(ctx context.Context, tokenID string) (*expiry.Entry, error) {
	m := new(expirationModel)
	err := s.sdb.NewSelect(m).
		Where("token_id = ?", tokenID).
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
	res, err := s.sdb.NewDelete((*expirationModel)(nil)).
		Where("token_id = ?", tokenID).
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
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.GetRoyalty(ctx, tokenID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", royalty.ErrAlreadyExists, tokenID)
	case !errors.Is(err, royalty.ErrNotFound):
		return err
	}
	m, err := toRoyaltyModel(tokenID, table)
	if err != nil {
		return err
	}
	_, err = s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetRoyalty(ctx context.Context, tokenID string) (royalty.Table, error) {
	m := new(royaltyModel)
	err := s.sdb.NewSelect(m).
		Where("token_id = ?", tokenID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", royalty.ErrNotFound, tokenID)
		}
		return nil, err
	}
	return fromRoyaltyModel(m)
}

func (s *Store) DeleteRoyalty(ctx context.Context, tokenID string) error {
	res, err := s.sdb.NewDelete((*royaltyModel)(nil)).
		Where("token_id = ?", tokenID).
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
	err := s.sdb.NewRaw(`
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
	err := s.sdb.NewSelect(m).
		Where("account_id = ?", string(account)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return types.Zero, nil
		}
		return types.Zero, err
	}
	return types.ParseAmount(m.Balance)
}

func (s *Store) Credit(ctx context.Context, account types.AccountID, amount types.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bal, err := s.Balance(ctx, account)
	if err != nil {
		return err
	}
	sum, ok := bal.Add(amount)
	if !ok {
		return fmt.Errorf("mintage/sqlite: balance of %s overflows", account)
	}
	return s.putBalance(ctx, account, sum)
}

func (s *Store) Debit(ctx context.Context, account types.AccountID, amount types.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bal, err := s.Balance(ctx, account)
	if err != nil {
		return err
	}
	diff, ok := bal.Sub(amount)
	if !ok {
		return fmt.Errorf("%w: %s holds %s, needs %s", meter.ErrInsufficientBalance, account, bal, amount)
	}
	return s.putBalance(ctx, account, diff)
}

func (s *Store) putBalance(ctx context.Context, account types.AccountID, bal types.Amount) error {
	m := &balanceModel{
		AccountID: string(account),
		Balance:   bal.String(),
		UpdatedAt: now(),
	}
	_, err := s.sdb.NewInsert(m).
		OnConflict("(account_id) DO UPDATE").
		Set("balance = EXCLUDED.balance").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ==================== Helpers ====================

func (s *Store) getTokenModel(ctx context.Context, tokenID string) (*tokenModel, error) {
	m := new(tokenModel)
	err := s.sdb.NewSelect(m).
		Where("token_id = ?", tokenID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", token.ErrNotFound, tokenID)
		}
		return nil, err
	}
	return m, nil
}

func (s *Store) tokenExists(ctx context.Context, tokenID string) (bool, error) {
	var n int64
	err := s.sdb.NewRaw(`SELECT COUNT(*) FROM mintage_tokens WHERE token_id = ?`, tokenID).Scan(ctx, &n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// nextSeq returns MAX(col)+1 over the token table. col is one of the
// fixed sequence column names and never caller input.
func (s *Store) nextSeq(ctx context.Context, col string) (int64, error) {
	var n int64
	err := s.sdb.NewRaw(`SELECT COALESCE(MAX(`+col+`), 0) + 1 FROM mintage_tokens`).Scan(ctx, &n)
	if err != nil {
		return 0, fmt.Errorf("mintage/sqlite: next %s: %w", col, err)
	}
	return n, nil
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
