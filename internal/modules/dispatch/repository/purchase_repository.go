package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/pkg/apperrors"
)

// PurchaseRepository persists PurchaseList, PurchaseListItem and
// PurchaseFailure rows.
type PurchaseRepository interface {
	FindOrCreateList(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (*types.PurchaseList, error)
	FindListsForDate(ctx context.Context, db sqlx.ExtContext, date time.Time) ([]types.PurchaseList, error)
	FindListByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.PurchaseList, error)
	FindListByStaffAndDate(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (*types.PurchaseList, error)
	UpdateListCounters(ctx context.Context, db sqlx.ExtContext, listID int64, totalItems, totalStores int) error
	UpdateListStatus(ctx context.Context, db sqlx.ExtContext, listID int64, status types.PurchaseListStatus) error
	CountItemsForStaffDate(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (int, error)

	CreateItem(ctx context.Context, db sqlx.ExtContext, item *types.PurchaseListItem) error
	FindItemByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.PurchaseListItem, error)
	FindItemsByListID(ctx context.Context, db sqlx.ExtContext, listID int64) ([]types.PurchaseListItem, error)
	FindItemsByStoreInList(ctx context.Context, db sqlx.ExtContext, listID, storeID int64) ([]types.PurchaseListItem, error)
	UpdateItemStatus(ctx context.Context, db sqlx.ExtContext, itemID int64, status types.PurchaseListItemStatus) error

	CreateFailure(ctx context.Context, db sqlx.ExtContext, f *types.PurchaseFailure) error
	FindAlternativeSuggestions(ctx context.Context, db sqlx.ExtContext, purchaseListItemID int64) ([]types.Store, error)
}

type purchaseRepository struct{}

func NewPurchaseRepository() PurchaseRepository {
	return &purchaseRepository{}
}

func (r *purchaseRepository) FindOrCreateList(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (*types.PurchaseList, error) {
	existing, err := r.FindListByStaffAndDate(ctx, db, staffID, date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	var pl types.PurchaseList
	row := sqlx.QueryRowxContext(ctx, db, `
		INSERT INTO purchase_lists (staff_id, target_date, status, total_items, total_stores)
		VALUES ($1, $2, $3, 0, 0)
		RETURNING id, staff_id, target_date, status, total_items, total_stores, created_at, updated_at
	`, staffID, date, types.PurchaseListStatusDraft)
	if err := row.StructScan(&pl); err != nil {
		return nil, fmt.Errorf("purchase repository: create list: %w", err)
	}
	return &pl, nil
}

func (r *purchaseRepository) FindListByStaffAndDate(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (*types.PurchaseList, error) {
	var pl types.PurchaseList
	err := sqlx.GetContext(ctx, db, &pl, `
		SELECT id, staff_id, target_date, status, total_items, total_stores, created_at, updated_at
		FROM purchase_lists WHERE staff_id = $1 AND target_date = $2
	`, staffID, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("purchase repository: find list by staff and date: %w", err)
	}
	return &pl, nil
}

func (r *purchaseRepository) FindListsForDate(ctx context.Context, db sqlx.ExtContext, date time.Time) ([]types.PurchaseList, error) {
	var rows []types.PurchaseList
	err := sqlx.SelectContext(ctx, db, &rows, `
		SELECT id, staff_id, target_date, status, total_items, total_stores, created_at, updated_at
		FROM purchase_lists WHERE target_date = $1 ORDER BY staff_id
	`, date)
	if err != nil {
		return nil, fmt.Errorf("purchase repository: find lists for date: %w", err)
	}
	return rows, nil
}

func (r *purchaseRepository) FindListByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.PurchaseList, error) {
	var pl types.PurchaseList
	err := sqlx.GetContext(ctx, db, &pl, `
		SELECT id, staff_id, target_date, status, total_items, total_stores, created_at, updated_at
		FROM purchase_lists WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("purchase_list", id)
	}
	if err != nil {
		return nil, fmt.Errorf("purchase repository: find list by id: %w", err)
	}
	return &pl, nil
}

func (r *purchaseRepository) UpdateListCounters(ctx context.Context, db sqlx.ExtContext, listID int64, totalItems, totalStores int) error {
	_, err := db.ExecContext(ctx, `
		UPDATE purchase_lists SET total_items = $1, total_stores = $2, updated_at = NOW() WHERE id = $3
	`, totalItems, totalStores, listID)
	if err != nil {
		return fmt.Errorf("purchase repository: update list counters: %w", err)
	}
	return nil
}

func (r *purchaseRepository) UpdateListStatus(ctx context.Context, db sqlx.ExtContext, listID int64, status types.PurchaseListStatus) error {
	_, err := db.ExecContext(ctx, `UPDATE purchase_lists SET status = $1, updated_at = NOW() WHERE id = $2`, status, listID)
	if err != nil {
		return fmt.Errorf("purchase repository: update list status: %w", err)
	}
	return nil
}

func (r *purchaseRepository) CountItemsForStaffDate(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, db, &count, `
		SELECT COUNT(*) FROM purchase_list_items pli
		JOIN purchase_lists pl ON pl.id = pli.purchase_list_id
		WHERE pl.staff_id = $1 AND pl.target_date = $2
	`, staffID, date)
	if err != nil {
		return 0, fmt.Errorf("purchase repository: count items for staff date: %w", err)
	}
	return count, nil
}

func (r *purchaseRepository) CreateItem(ctx context.Context, db sqlx.ExtContext, item *types.PurchaseListItem) error {
	row := sqlx.QueryRowxContext(ctx, db, `
		INSERT INTO purchase_list_items (purchase_list_id, order_item_id, store_id, quantity_to_purchase, sequence_order, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, item.PurchaseListID, item.OrderItemID, item.StoreID, item.QuantityToPurchase, item.SequenceOrder, item.Status)
	if err := row.Scan(&item.ID); err != nil {
		return fmt.Errorf("purchase repository: create item: %w", err)
	}
	return nil
}

func (r *purchaseRepository) FindItemByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.PurchaseListItem, error) {
	var item types.PurchaseListItem
	err := sqlx.GetContext(ctx, db, &item, `
		SELECT id, purchase_list_id, order_item_id, store_id, quantity_to_purchase, sequence_order, status
		FROM purchase_list_items WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("purchase_list_item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("purchase repository: find item by id: %w", err)
	}
	return &item, nil
}

func (r *purchaseRepository) FindItemsByListID(ctx context.Context, db sqlx.ExtContext, listID int64) ([]types.PurchaseListItem, error) {
	var rows []types.PurchaseListItem
	err := sqlx.SelectContext(ctx, db, &rows, `
		SELECT id, purchase_list_id, order_item_id, store_id, quantity_to_purchase, sequence_order, status
		FROM purchase_list_items WHERE purchase_list_id = $1 ORDER BY sequence_order
	`, listID)
	if err != nil {
		return nil, fmt.Errorf("purchase repository: find items by list id: %w", err)
	}
	return rows, nil
}

func (r *purchaseRepository) FindItemsByStoreInList(ctx context.Context, db sqlx.ExtContext, listID, storeID int64) ([]types.PurchaseListItem, error) {
	var rows []types.PurchaseListItem
	err := sqlx.SelectContext(ctx, db, &rows, `
		SELECT id, purchase_list_id, order_item_id, store_id, quantity_to_purchase, sequence_order, status
		FROM purchase_list_items WHERE purchase_list_id = $1 AND store_id = $2
	`, listID, storeID)
	if err != nil {
		return nil, fmt.Errorf("purchase repository: find items by store in list: %w", err)
	}
	return rows, nil
}

func (r *purchaseRepository) UpdateItemStatus(ctx context.Context, db sqlx.ExtContext, itemID int64, status types.PurchaseListItemStatus) error {
	_, err := db.ExecContext(ctx, `UPDATE purchase_list_items SET status = $1 WHERE id = $2`, status, itemID)
	if err != nil {
		return fmt.Errorf("purchase repository: update item status: %w", err)
	}
	return nil
}

func (r *purchaseRepository) CreateFailure(ctx context.Context, db sqlx.ExtContext, f *types.PurchaseFailure) error {
	row := sqlx.QueryRowxContext(ctx, db, `
		INSERT INTO purchase_failures (purchase_list_item_id, failure_type, alternative_store_id, recorded_by_staff_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, recorded_at
	`, f.PurchaseListItemID, f.FailureType, f.AlternativeStoreID, f.RecordedByStaffID)
	if err := row.Scan(&f.ID, &f.RecordedAt); err != nil {
		return fmt.Errorf("purchase repository: create failure: %w", err)
	}
	return nil
}

// FindAlternativeSuggestions returns other active stores carrying the
// same product as the failed PurchaseListItem's OrderItem SKU, excluding
// the store that just failed. Read-only: the core never auto-reallocates.
func (r *purchaseRepository) FindAlternativeSuggestions(ctx context.Context, db sqlx.ExtContext, purchaseListItemID int64) ([]types.Store, error) {
	var rows []types.Store
	err := sqlx.SelectContext(ctx, db, &rows, `
		SELECT DISTINCT s.id, s.name, s.address, s.district, s.category, s.latitude, s.longitude,
		       s.priority_level, s.opening_hours, s.is_active, s.created_at, s.updated_at
		FROM purchase_list_items pli
		JOIN order_items oi ON oi.id = pli.order_item_id
		JOIN products p ON p.sku = oi.sku
		JOIN product_store_mappings psm ON psm.product_id = p.id AND psm.active = TRUE
		JOIN stores s ON s.id = psm.store_id AND s.is_active = TRUE
		WHERE pli.id = $1 AND s.id != pli.store_id
		  AND psm.stock_status NOT IN ('out_of_stock', 'discontinued')
		ORDER BY s.id
	`, purchaseListItemID)
	if err != nil {
		return nil, fmt.Errorf("purchase repository: find alternative suggestions: %w", err)
	}
	return rows, nil
}
