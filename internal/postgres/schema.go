package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          UUID PRIMARY KEY,
		sku         TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		category    TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		stock       INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
		price_cents INT NOT NULL CHECK (price_cents >= 0),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		user_id    TEXT NOT NULL,
		product_id UUID NOT NULL REFERENCES products(id),
		qty        INT NOT NULL CHECK (qty >= 1),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               UUID PRIMARY KEY,
		user_id          TEXT NOT NULL,
		status           TEXT NOT NULL,
		total_cents      INT NOT NULL,
		shipping_address TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		order_id    UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id  UUID NOT NULL REFERENCES products(id),
		qty         INT NOT NULL CHECK (qty >= 1),
		price_cents INT NOT NULL,
		PRIMARY KEY (order_id, product_id)
	)`,
}

// EnsureSchema creates the tables when they are missing. Safe to call on
// every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
