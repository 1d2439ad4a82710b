package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/mintage/expiry"
	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/royalty"
	mintagestore "github.com/xraph/mintage/store"
	"github.com/xraph/mintage/token"
	"github.com/xraph/mintage/types"
)

// Collection name constants.
const (
	colTokens      = "mintage_tokens"
	colExpirations = "mintage_expirations"
	colRoyalties   = "mintage_royalties"
	colBalances    = "mintage_balances"
	colCounters    = "mintage_counters"
)

// compile-time interface check
var _ mintagestore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB

	mu sync.Mutex
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all mintage collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("mintage/mongo: migrate %s indexes: %w", col, err)
		}
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
	seq, err := s.next(ctx, "seq")
	if err != nil {
		return err
	}
	owned, err := s.next(ctx, "owned_seq")
	if err != nil {
		return err
	}

	t.Seq = uint64(seq) //nolint:gosec // counters start at 1
	m := toTokenModel(t)
	m.OwnedSeq = owned
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", token.ErrAlreadyExists, t.ID)
		}
		return fmt.Errorf("mintage/mongo: create token: %w", err)
	}
	return nil
}

func (s *Store) GetToken(ctx context.Context, tokenID string) (*token.Token, error) {
	m, err := s.getTokenModel(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return fromTokenModel(m), nil
}

func (s *Store) UpdateToken(ctx context.Context, t *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getTokenModel(ctx, t.ID)
	if err != nil {
		return err
	}

	m := toTokenModel(t)
	m.Seq = existing.Seq
	m.OwnedSeq = existing.OwnedSeq
	m.CreatedAt = existing.CreatedAt
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now()
	}
	if existing.OwnerID != m.OwnerID {
		owned, err := s.next(ctx, "owned_seq")
		if err != nil {
			return err
		}
		m.OwnedSeq = owned
	}

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.TokenID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mintage/mongo: update token: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("%w: %s", token.ErrNotFound, t.ID)
	}
	return nil
}

func (s *Store) DeleteToken(ctx context.Context, tokenID string) error {
	res, err := s.mdb.NewDelete((*tokenModel)(nil)).
		Filter(bson.M{"_id": tokenID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mintage/mongo: delete token: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("%w: %s", token.ErrNotFound, tokenID)
	}
	return nil
}

func (s *Store) ListTokens(ctx context.Context) ([]token.Entry, error) {
	var models []tokenModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "seq", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("mintage/mongo: list tokens: %w", err)
	}
	return toEntries(models), nil
}

func (s *Store) ListTokensByOwner(ctx context.Context, owner types.AccountID) ([]token.Entry, error) {
	var models []tokenModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"owner_id": string(owner)}).
		Sort(bson.D{{Key: "owned_seq", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("mintage/mongo: list tokens by owner: %w", err)
	}
	return toEntries(models), nil
}

func (s *Store) CountTokens(ctx context.Context) (uint64, error) {
	n, err := s.mdb.Collection(colTokens).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mintage/mongo: count tokens: %w", err)
	}
	return uint64(n), nil //nolint:gosec // counts are non-negative
}

func (s *Store) CountTokensByOwner(ctx context.Context, owner types.AccountID) (uint64, error) {
	n, err := s.mdb.Collection(colTokens).CountDocuments(ctx, bson.M{"owner_id": string(owner)})
	if err != nil {
		return 0, fmt.Errorf("mintage/mongo: count tokens by owner: %w", err)
	}
	return uint64(n), nil //nolint:gosec // counts are non-negative
}

// ==================== Expiry Store ====================

func (s *Store) SetExpiration(ctx context.Context, e *expiry.Entry) error {
	if _, err := s.mdb.NewInsert(toExpirationModel(e)).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", expiry.ErrAlreadyExists, e.TokenID)
		}
		return fmt.Errorf("mintage/mongo: set expiration: %w", err)
	}
	return nil
}

func (s *Store) GetExpiration(ctx context.Context, tokenID string) (*expiry.Entry, error) {
	var m expirationModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tokenID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: %s", expiry.ErrNotFound, tokenID)
		}
		return nil, fmt.Errorf("mintage/mongo: get expiration: %w", err)
	}
	return fromExpirationModel(&m)
}

func (s *Store) DeleteExpiration(ctx context.Context, tokenID string) error {
	res, err := s.mdb.NewDelete((*expirationModel)(nil)).
		Filter(bson.M{"_id": tokenID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mintage/mongo: delete expiration: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("%w: %s", expiry.ErrNotFound, tokenID)
	}
	return nil
}

// ==================== Royalty Store ====================

func (s *Store) SetRoyalty(ctx context.Context, tokenID string, table royalty.Table) error {
	if _, err := s.mdb.NewInsert(toRoyaltyModel(tokenID, table)).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", royalty.ErrAlreadyExists, tokenID)
		}
		return fmt.Errorf("mintage/mongo: set royalty: %w", err)
	}
	return nil
}

func (s *Store) GetRoyalty(ctx context.Context, tokenID string) (royalty.Table, error) {
	var m royaltyModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tokenID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: %s", royalty.ErrNotFound, tokenID)
		}
		return nil, fmt.Errorf("mintage/mongo: get royalty: %w", err)
	}
	return fromRoyaltyModel(&m), nil
}

func (s *Store) DeleteRoyalty(ctx context.Context, tokenID string) error {
	res, err := s.mdb.NewDelete((*royaltyModel)(nil)).
		Filter(bson.M{"_id": tokenID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mintage/mongo: delete royalty: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("%w: %s", royalty.ErrNotFound, tokenID)
	}
	return nil
}

// ==================== Accounts ====================

func (s *Store) StorageUsage(ctx context.Context) (uint64, error) {
	var total int64
	for _, col := range []string{colTokens, colExpirations, colRoyalties} {
		n, err := s.sumStorageBytes(ctx, col)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return uint64(total), nil //nolint:gosec // sums of non-negative sizes
}

func (s *Store) sumStorageBytes(ctx context.Context, col string) (int64, error) {
	pipeline := bson.A{
		bson.M{
			"$group": bson.M{
				"_id":   nil,
				"total": bson.M{"$sum": "$storage_bytes"},
			},
		},
	}

	cursor, err := s.mdb.Collection(col).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("mintage/mongo: aggregate %s: %w", col, err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("mintage/mongo: aggregate %s decode: %w", col, err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

func (s *Store) Balance(ctx context.Context, account types.AccountID) (types.Amount, error) {
	var m balanceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": string(account)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return types.Zero, nil
		}
		return types.Zero, fmt.Errorf("mintage/mongo: get balance: %w", err)
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
		return fmt.Errorf("mintage/mongo: balance of %s overflows", account)
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
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.AccountID}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":        m.AccountID,
			"balance":    m.Balance,
			"updated_at": m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mintage/mongo: put balance: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

func (s *Store) getTokenModel(ctx context.Context, tokenID string) (*tokenModel, error) {
	var m tokenModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tokenID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: %s", token.ErrNotFound, tokenID)
		}
		return nil, fmt.Errorf("mintage/mongo: get token: %w", err)
	}
	return &m, nil
}

// next atomically increments the named counter and returns its new value.
func (s *Store) next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.mdb.Collection(colCounters).
		FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"value": int64(1)}}, opts).
		Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("mintage/mongo: next %s: %w", name, err)
	}
	return doc.Value, nil
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all mintage collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colTokens: {
			{
				Keys:    bson.D{{Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "owned_seq", Value: 1}}},
		},
	}
}
