package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Mintage store.
var Migrations = migrate.NewGroup("mintage")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_mintage_tokens",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS mintage_tokens (
    token_id         TEXT PRIMARY KEY,
    owner_id         TEXT NOT NULL,
    metadata         JSONB,
    approvals        JSONB NOT NULL DEFAULT '{}',
    next_approval_id BIGINT NOT NULL DEFAULT 0,
    seq              BIGINT NOT NULL,
    owned_seq        BIGINT NOT NULL,
    storage_bytes    BIGINT NOT NULL DEFAULT 0,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_mintage_tokens_seq ON mintage_tokens (seq);
CREATE INDEX IF NOT EXISTS idx_mintage_tokens_owner ON mintage_tokens (owner_id, owned_seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS mintage_tokens`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_mintage_expirations",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS mintage_expirations (
    token_id      TEXT PRIMARY KEY,
    expires_at    NUMERIC(20, 0) NOT NULL,
    storage_bytes BIGINT NOT NULL DEFAULT 0
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS mintage_expirations`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_mintage_royalties",
			Version: "20260101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS mintage_royalties (
    token_id      TEXT PRIMARY KEY,
    shares        JSONB NOT NULL DEFAULT '{}',
    storage_bytes BIGINT NOT NULL DEFAULT 0
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS mintage_royalties`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_mintage_balances",
			Version: "20260101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS mintage_balances (
    account_id TEXT PRIMARY KEY,
    balance    NUMERIC(39, 0) NOT NULL DEFAULT 0
               CHECK (balance >= 0 AND balance <= 340282366920938463463374607431768211455),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS mintage_balances`)
				return err
			},
		},
	)
}
