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

// OrderRepository persists Order and OrderItem rows.
type OrderRepository interface {
	Create(ctx context.Context, db sqlx.ExtContext, o *types.Order) error
	FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Order, error)
	SetTargetDate(ctx context.Context, db sqlx.ExtContext, orderID int64, date time.Time) error
	UpdateStatus(ctx context.Context, db sqlx.ExtContext, orderID int64, status types.OrderStatus) error

	CreateItem(ctx context.Context, db sqlx.ExtContext, item *types.OrderItem) error
	FindItemByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.OrderItem, error)
	FindPendingItemsForDate(ctx context.Context, db sqlx.ExtContext, date time.Time) ([]types.OrderItem, error)
	FindSiblingItems(ctx context.Context, db sqlx.ExtContext, orderID int64) ([]types.OrderItem, error)
	UpdateItemStatus(ctx context.Context, db sqlx.ExtContext, itemID int64, status types.OrderItemStatus) error
}

type orderRepository struct{}

// NewOrderRepository constructs the default Postgres-backed OrderRepository.
func NewOrderRepository() OrderRepository {
	return &orderRepository{}
}

func (r *orderRepository) Create(ctx context.Context, db sqlx.ExtContext, o *types.Order) error {
	row := sqlx.QueryRowxContext(ctx, db, `
		INSERT INTO orders (external_order_id, source_channel, customer_name, arrival_timestamp, target_purchase_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, o.ExternalOrderID, o.SourceChannel, o.CustomerName, o.ArrivalTimestamp, o.TargetPurchaseDate, o.Status)
	if err := row.Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return fmt.Errorf("order repository: create: %w", err)
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Order, error) {
	var o types.Order
	err := sqlx.GetContext(ctx, db, &o, `
		SELECT id, external_order_id, source_channel, customer_name, arrival_timestamp,
		       target_purchase_date, status, created_at, updated_at
		FROM orders WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("order", id)
	}
	if err != nil {
		return nil, fmt.Errorf("order repository: find by id: %w", err)
	}
	return &o, nil
}

func (r *orderRepository) SetTargetDate(ctx context.Context, db sqlx.ExtContext, orderID int64, date time.Time) error {
	_, err := db.ExecContext(ctx, `UPDATE orders SET target_purchase_date = $1, updated_at = NOW() WHERE id = $2`, date, orderID)
	if err != nil {
		return fmt.Errorf("order repository: set target date: %w", err)
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, db sqlx.ExtContext, orderID int64, status types.OrderStatus) error {
	_, err := db.ExecContext(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, orderID)
	if err != nil {
		return fmt.Errorf("order repository: update status: %w", err)
	}
	return nil
}

func (r *orderRepository) CreateItem(ctx context.Context, db sqlx.ExtContext, item *types.OrderItem) error {
	row := sqlx.QueryRowxContext(ctx, db, `
		INSERT INTO order_items (order_id, sku, product_name, quantity, unit_price, is_bundle, parent_item_id, status, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, item.OrderID, item.SKU, item.ProductName, item.Quantity, item.UnitPrice, item.IsBundle, item.ParentItemID, item.Status, item.Priority)
	if err := row.Scan(&item.ID, &item.CreatedAt); err != nil {
		return fmt.Errorf("order repository: create item: %w", err)
	}
	return nil
}

func (r *orderRepository) FindItemByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.OrderItem, error) {
	var item types.OrderItem
	err := sqlx.GetContext(ctx, db, &item, `
		SELECT id, order_id, sku, product_name, quantity, unit_price, is_bundle, parent_item_id, status, priority, created_at
		FROM order_items WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("order_item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("order repository: find item by id: %w", err)
	}
	return &item, nil
}

// FindPendingItemsForDate is the single bulk read the plan orchestrator
// uses to gather a day's planning workload: all non-bundle items whose
// owning order has this target_purchase_date and are still pending.
func (r *orderRepository) FindPendingItemsForDate(ctx context.Context, db sqlx.ExtContext, date time.Time) ([]types.OrderItem, error) {
	var items []types.OrderItem
	err := sqlx.SelectContext(ctx, db, &items, `
		SELECT oi.id, oi.order_id, oi.sku, oi.product_name, oi.quantity, oi.unit_price,
		       oi.is_bundle, oi.parent_item_id, oi.status, oi.priority, oi.created_at
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.target_purchase_date = $1
		  AND oi.status = $2
		  AND oi.is_bundle = FALSE
		ORDER BY oi.id
	`, date, types.OrderItemStatusPending)
	if err != nil {
		return nil, fmt.Errorf("order repository: find pending items for date: %w", err)
	}
	return items, nil
}

func (r *orderRepository) FindSiblingItems(ctx context.Context, db sqlx.ExtContext, orderID int64) ([]types.OrderItem, error) {
	var items []types.OrderItem
	err := sqlx.SelectContext(ctx, db, &items, `
		SELECT id, order_id, sku, product_name, quantity, unit_price, is_bundle, parent_item_id, status, priority, created_at
		FROM order_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order repository: find sibling items: %w", err)
	}
	return items, nil
}

func (r *orderRepository) UpdateItemStatus(ctx context.Context, db sqlx.ExtContext, itemID int64, status types.OrderItemStatus) error {
	_, err := db.ExecContext(ctx, `UPDATE order_items SET status = $1 WHERE id = $2`, status, itemID)
	if err != nil {
		return fmt.Errorf("order repository: update item status: %w", err)
	}
	return nil
}
