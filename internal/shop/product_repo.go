package shop

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepo struct{ DB *pgxpool.Pool }

func (r *ProductRepo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, sku, name, category, description, stock, price_cents, created_at, updated_at
                                FROM products ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.Desc, &p.Stock, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `SELECT id, sku, name, category, description, stock, price_cents, created_at, updated_at
	                           FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.Desc, &p.Stock, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
