package shop

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CheckoutRepo struct{ DB *pgxpool.Pool }

// CheckoutTx turns the owner's cart into an order as one transaction:
// lock stok per product (FOR UPDATE) -> kurangi -> snapshot price into an
// order line -> insert order -> clear cart. Any failure rolls the whole
// thing back, so a rejected checkout leaves no residue.
func (r *CheckoutRepo) CheckoutTx(ctx context.Context, userID, shippingAddress string) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// ORDER BY product_id: deterministic lock order across concurrent
	// checkouts sharing products, so they serialize instead of deadlocking.
	rows, err := tx.Query(ctx, `SELECT product_id, qty FROM cart_items
	                            WHERE user_id=$1 ORDER BY product_id`, userID)
	if err != nil {
		return nil, err
	}
	type item struct {
		pid string
		qty int
	}
	var items []item
	for rows.Next() {
		var it item
		if err := rows.Scan(&it.pid, &it.qty); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	orderID := uuid.NewString()
	order := &Order{
		ID:              orderID,
		UserID:          userID,
		Status:          StatusPending,
		ShippingAddress: shippingAddress,
	}

	for _, it := range items {
		var stock, price int
		err := tx.QueryRow(ctx, `SELECT stock, price_cents FROM products WHERE id=$1 FOR UPDATE`, it.pid).
			Scan(&stock, &price)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", it.pid, ErrNotFound)
		}
		if err != nil {
			return nil, mapPgErr(err)
		}
		if stock < it.qty {
			return nil, &InsufficientStockError{ProductID: it.pid, Required: it.qty, Available: stock}
		}

		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = now()
		                           WHERE id=$1`, it.pid, it.qty); err != nil {
			return nil, mapPgErr(err)
		}

		order.Lines = append(order.Lines, OrderLine{
			OrderID:   orderID,
			ProductID: it.pid,
			Qty:       it.qty,
			// price snapshot, tidak ikut berubah kalau katalog di-update
			PriceCents: price,
		})
		order.TotalCents += LineTotalCents(it.qty, price)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, user_id, status, total_cents, shipping_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, orderID, userID, string(order.Status), order.TotalCents, shippingAddress).
		Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, mapPgErr(err)
	}

	for _, l := range order.Lines {
		if _, err := tx.Exec(ctx, `INSERT INTO order_lines(order_id, product_id, qty, price_cents)
		                           VALUES ($1,$2,$3,$4)`, l.OrderID, l.ProductID, l.Qty, l.PriceCents); err != nil {
			return nil, mapPgErr(err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPgErr(err)
	}
	return order, nil
}

// CancelTx releases reserved stock for every line and moves the order to
// CANCELLED, all in one transaction. Cancelling twice fails with ErrInvalidState.
func (r *CheckoutRepo) CancelTx(ctx context.Context, orderID, userID string) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := lockOrder(ctx, tx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, StatusCancelled) {
		return nil, ErrInvalidState
	}

	rows, err := tx.Query(ctx, `SELECT product_id, qty, price_cents FROM order_lines
	                            WHERE order_id=$1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ProductID, &l.Qty, &l.PriceCents); err != nil {
			rows.Close()
			return nil, err
		}
		l.OrderID = orderID
		order.Lines = append(order.Lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, l := range order.Lines {
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = now()
		                           WHERE id=$1`, l.ProductID, l.Qty); err != nil {
			return nil, mapPgErr(err)
		}
	}

	err = tx.QueryRow(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1
	                        RETURNING updated_at`, orderID, string(StatusCancelled)).
		Scan(&order.UpdatedAt)
	if err != nil {
		return nil, mapPgErr(err)
	}
	order.Status = StatusCancelled

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPgErr(err)
	}
	return order, nil
}

// ConfirmTx is a pure status transition; stock was already committed at checkout.
func (r *CheckoutRepo) ConfirmTx(ctx context.Context, orderID, userID string) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := lockOrder(ctx, tx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, StatusConfirmed) {
		return nil, ErrInvalidState
	}

	err = tx.QueryRow(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1
	                        RETURNING updated_at`, orderID, string(StatusConfirmed)).
		Scan(&order.UpdatedAt)
	if err != nil {
		return nil, mapPgErr(err)
	}
	order.Status = StatusConfirmed

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPgErr(err)
	}
	return order, nil
}

func lockOrder(ctx context.Context, tx pgx.Tx, orderID, userID string) (*Order, error) {
	var o Order
	var status string
	err := tx.QueryRow(ctx, `SELECT id, user_id, status, total_cents, shipping_address, created_at, updated_at
	                         FROM orders WHERE id=$1 AND user_id=$2 FOR UPDATE`, orderID, userID).
		Scan(&o.ID, &o.UserID, &status, &o.TotalCents, &o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return &o, nil
}

// mapPgErr surfaces serialization failures and deadlocks as ErrConflict so
// callers know a plain retry is safe.
func mapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return ErrConflict
		}
	}
	return err
}
