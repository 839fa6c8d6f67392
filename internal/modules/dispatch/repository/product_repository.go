package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/types"
)

// ProductRepository persists Product rows and answers the bulk lookups
// component D's batching contract requires.
type ProductRepository interface {
	FindBySKUs(ctx context.Context, db sqlx.ExtContext, skus []string) (map[string]types.Product, error)
	FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Product, error)
}

type productRepository struct{}

func NewProductRepository() ProductRepository {
	return &productRepository{}
}

// FindBySKUs is the first of the two mandatory bulk reads in 4.D: one
// query for every distinct SKU in the day's item set, never one query
// per item.
func (r *productRepository) FindBySKUs(ctx context.Context, db sqlx.ExtContext, skus []string) (map[string]types.Product, error) {
	if len(skus) == 0 {
		return map[string]types.Product{}, nil
	}
	var rows []types.Product
	query, args, err := sqlx.In(`
		SELECT id, sku, name, category, is_store_fixed, fixed_store_id,
		       exclude_from_routing, set_split_rule, active, created_at, updated_at
		FROM products WHERE sku IN (?) AND active = TRUE
	`, skus)
	if err != nil {
		return nil, fmt.Errorf("product repository: build in query: %w", err)
	}
	query = sqlx.Rebind(sqlx.BindType("postgres"), query)
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("product repository: find by skus: %w", err)
	}
	out := make(map[string]types.Product, len(rows))
	for _, p := range rows {
		out[p.SKU] = p
	}
	return out, nil
}

func (r *productRepository) FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Product, error) {
	var p types.Product
	err := sqlx.GetContext(ctx, db, &p, `
		SELECT id, sku, name, category, is_store_fixed, fixed_store_id,
		       exclude_from_routing, set_split_rule, active, created_at, updated_at
		FROM products WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("product repository: find by id: %w", err)
	}
	return &p, nil
}
