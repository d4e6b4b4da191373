package shop

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CartRepo struct{ DB *pgxpool.Pool }

// Add merges qty into the owner's existing line for the product (duplicate
// adds accumulate). The stock ceiling check here is advisory only; checkout
// re-checks under a row lock.
func (r *CartRepo) Add(ctx context.Context, userID, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stock int
	err = tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var current int
	err = tx.QueryRow(ctx, `SELECT qty FROM cart_items WHERE user_id=$1 AND product_id=$2`,
		userID, productID).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if current+qty > stock {
		return &InsufficientStockError{ProductID: productID, Required: current + qty, Available: stock}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO cart_items(user_id, product_id, qty, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty, updated_at = now()
	`, userID, productID, qty)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update replaces the line's quantity outright.
func (r *CartRepo) Update(ctx context.Context, userID, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stock int
	err = tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if qty > stock {
		return &InsufficientStockError{ProductID: productID, Required: qty, Available: stock}
	}

	ct, err := tx.Exec(ctx, `UPDATE cart_items SET qty=$3, updated_at=now()
	                         WHERE user_id=$1 AND product_id=$2`, userID, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *CartRepo) Remove(ctx context.Context, userID, productID string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1 AND product_id=$2`, userID, productID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CartRepo) List(ctx context.Context, userID string) ([]CartLine, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.product_id, p.sku, p.name, c.qty, p.price_cents
		FROM cart_items c JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.product_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ProductID, &l.SKU, &l.Name, &l.Qty, &l.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *CartRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}
