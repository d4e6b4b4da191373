package shop

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRepo is read-only; orders are written exclusively by CheckoutRepo.
type OrderRepo struct{ DB *pgxpool.Pool }

// Get scopes the lookup to the owner: someone else's order is a not-found,
// not a forbidden.
func (r *OrderRepo) Get(ctx context.Context, orderID, userID string) (*Order, error) {
	var o Order
	var status string
	err := r.DB.QueryRow(ctx, `SELECT id, user_id, status, total_cents, shipping_address, created_at, updated_at
	                           FROM orders WHERE id=$1 AND user_id=$2`, orderID, userID).
		Scan(&o.ID, &o.UserID, &status, &o.TotalCents, &o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)

	rows, err := r.DB.Query(ctx, `SELECT order_id, product_id, qty, price_cents
	                              FROM order_lines WHERE order_id=$1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.Qty, &l.PriceCents); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	return &o, rows.Err()
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, user_id, status, total_cents, shipping_address, created_at, updated_at
	                              FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	idx := map[string]int{}
	for rows.Next() {
		var o Order
		var status string
		if err := rows.Scan(&o.ID, &o.UserID, &status, &o.TotalCents, &o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Status = Status(status)
		idx[o.ID] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(out))
	for _, o := range out {
		ids = append(ids, o.ID)
	}
	lrows, err := r.DB.Query(ctx, `SELECT order_id, product_id, qty, price_cents
	                               FROM order_lines WHERE order_id = ANY($1) ORDER BY order_id, product_id`, ids)
	if err != nil {
		return nil, err
	}
	defer lrows.Close()
	for lrows.Next() {
		var l OrderLine
		if err := lrows.Scan(&l.OrderID, &l.ProductID, &l.Qty, &l.PriceCents); err != nil {
			return nil, err
		}
		if i, ok := idx[l.OrderID]; ok {
			out[i].Lines = append(out[i].Lines, l)
		}
	}
	return out, lrows.Err()
}
