package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/pkg/apperrors"
)

// StoreRepository persists Store, ProductStoreMapping and
// StoreDistanceMatrix rows.
type StoreRepository interface {
	FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Store, error)
	FindByIDs(ctx context.Context, db sqlx.ExtContext, ids []int64) (map[int64]types.Store, error)
	FindActive(ctx context.Context, db sqlx.ExtContext) ([]types.Store, error)

	FindMappingsByProductIDs(ctx context.Context, db sqlx.ExtContext, productIDs []int64) (map[int64][]types.ProductStoreMapping, error)

	FindDistancePairs(ctx context.Context, db sqlx.ExtContext, storeIDs []int64) (map[[2]int64]types.StoreDistanceMatrix, error)
	UpsertDistance(ctx context.Context, db sqlx.ExtContext, edge types.StoreDistanceMatrix) error
}

type storeRepository struct{}

func NewStoreRepository() StoreRepository {
	return &storeRepository{}
}

func (r *storeRepository) FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Store, error) {
	var s types.Store
	err := sqlx.GetContext(ctx, db, &s, `
		SELECT id, name, address, district, category, latitude, longitude,
		       priority_level, opening_hours, is_active, created_at, updated_at
		FROM stores WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("store", id)
	}
	if err != nil {
		return nil, fmt.Errorf("store repository: find by id: %w", err)
	}
	return &s, nil
}

func (r *storeRepository) FindByIDs(ctx context.Context, db sqlx.ExtContext, ids []int64) (map[int64]types.Store, error) {
	if len(ids) == 0 {
		return map[int64]types.Store{}, nil
	}
	var rows []types.Store
	query, args, err := sqlx.In(`
		SELECT id, name, address, district, category, latitude, longitude,
		       priority_level, opening_hours, is_active, created_at, updated_at
		FROM stores WHERE id IN (?)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("store repository: build in query: %w", err)
	}
	query = sqlx.Rebind(sqlx.BindType("postgres"), query)
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("store repository: find by ids: %w", err)
	}
	out := make(map[int64]types.Store, len(rows))
	for _, s := range rows {
		out[s.ID] = s
	}
	return out, nil
}

func (r *storeRepository) FindActive(ctx context.Context, db sqlx.ExtContext) ([]types.Store, error) {
	var rows []types.Store
	err := sqlx.SelectContext(ctx, db, &rows, `
		SELECT id, name, address, district, category, latitude, longitude,
		       priority_level, opening_hours, is_active, created_at, updated_at
		FROM stores WHERE is_active = TRUE ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("store repository: find active: %w", err)
	}
	return rows, nil
}

// FindMappingsByProductIDs is the second mandatory bulk read in 4.D: one
// query for every product_id referenced by the day's items.
func (r *storeRepository) FindMappingsByProductIDs(ctx context.Context, db sqlx.ExtContext, productIDs []int64) (map[int64][]types.ProductStoreMapping, error) {
	if len(productIDs) == 0 {
		return map[int64][]types.ProductStoreMapping{}, nil
	}
	var rows []types.ProductStoreMapping
	query, args, err := sqlx.In(`
		SELECT id, product_id, store_id, is_primary_store, priority, stock_status,
		       max_daily_quantity, current_available, active
		FROM product_store_mappings
		WHERE product_id IN (?) AND active = TRUE
	`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("store repository: build in query: %w", err)
	}
	query = sqlx.Rebind(sqlx.BindType("postgres"), query)
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("store repository: find mappings: %w", err)
	}
	out := make(map[int64][]types.ProductStoreMapping, len(productIDs))
	for _, m := range rows {
		out[m.ProductID] = append(out[m.ProductID], m)
	}
	return out, nil
}

func (r *storeRepository) FindDistancePairs(ctx context.Context, db sqlx.ExtContext, storeIDs []int64) (map[[2]int64]types.StoreDistanceMatrix, error) {
	if len(storeIDs) == 0 {
		return map[[2]int64]types.StoreDistanceMatrix{}, nil
	}
	var rows []types.StoreDistanceMatrix
	query, args, err := sqlx.In(`
		SELECT origin_store_id, destination_store_id, distance_km, travel_time_minutes, last_calculated
		FROM store_distance_matrix
		WHERE origin_store_id IN (?) AND destination_store_id IN (?)
	`, storeIDs, storeIDs)
	if err != nil {
		return nil, fmt.Errorf("store repository: build in query: %w", err)
	}
	query = sqlx.Rebind(sqlx.BindType("postgres"), query)
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("store repository: find distance pairs: %w", err)
	}
	out := make(map[[2]int64]types.StoreDistanceMatrix, len(rows))
	for _, e := range rows {
		out[[2]int64{e.OriginStoreID, e.DestinationStoreID}] = e
	}
	return out, nil
}

func (r *storeRepository) UpsertDistance(ctx context.Context, db sqlx.ExtContext, edge types.StoreDistanceMatrix) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO store_distance_matrix (origin_store_id, destination_store_id, distance_km, travel_time_minutes, last_calculated)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (origin_store_id, destination_store_id)
		DO UPDATE SET distance_km = EXCLUDED.distance_km, travel_time_minutes = EXCLUDED.travel_time_minutes, last_calculated = NOW()
	`, edge.OriginStoreID, edge.DestinationStoreID, edge.DistanceKm, edge.TravelTimeMinutes)
	if err != nil {
		return fmt.Errorf("store repository: upsert distance: %w", err)
	}
	return nil
}
