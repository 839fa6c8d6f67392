package types

import "time"

// OrderStatus is the lifecycle state of an Order.
type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "pending"
	OrderStatusProcessing         OrderStatus = "processing"
	OrderStatusAssigned           OrderStatus = "assigned"
	OrderStatusInProgress         OrderStatus = "in_progress"
	OrderStatusCompleted          OrderStatus = "completed"
	OrderStatusPartiallyCompleted OrderStatus = "partially_completed"
	OrderStatusFailed             OrderStatus = "failed"
	OrderStatusCancelled          OrderStatus = "cancelled"
)

// Order is one external purchase order ingested by the dispatch system.
type Order struct {
	ID                  int64       `json:"id" db:"id"`
	ExternalOrderID     string      `json:"external_order_id" db:"external_order_id"`
	SourceChannel       string      `json:"source_channel" db:"source_channel"`
	CustomerName        string      `json:"customer_name" db:"customer_name"`
	ArrivalTimestamp    time.Time   `json:"arrival_timestamp" db:"arrival_timestamp"`
	TargetPurchaseDate  *time.Time  `json:"target_purchase_date" db:"target_purchase_date"`
	Status              OrderStatus `json:"status" db:"status"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItemStatus is the lifecycle state of an OrderItem.
type OrderItemStatus string

const (
	OrderItemStatusPending      OrderItemStatus = "pending"
	OrderItemStatusAssigned     OrderItemStatus = "assigned"
	OrderItemStatusPurchased    OrderItemStatus = "purchased"
	OrderItemStatusFailed       OrderItemStatus = "failed"
	OrderItemStatusDiscontinued OrderItemStatus = "discontinued"
	OrderItemStatusOutOfStock   OrderItemStatus = "out_of_stock"
	OrderItemStatusRestocking   OrderItemStatus = "restocking"
)

// OrderItem is one SKU/quantity line on an Order. A bundle item does not
// directly participate in assignment; it spawns non-bundle child items
// linked back via ParentItemID (see Product.SetSplitRule).
type OrderItem struct {
	ID           int64           `json:"id" db:"id"`
	OrderID      int64           `json:"order_id" db:"order_id"`
	SKU          string          `json:"sku" db:"sku"`
	ProductName  string          `json:"product_name" db:"product_name"`
	Quantity     int             `json:"quantity" db:"quantity"`
	UnitPrice    *float64        `json:"unit_price,omitempty" db:"unit_price"`
	IsBundle     bool            `json:"is_bundle" db:"is_bundle"`
	ParentItemID *int64          `json:"parent_item_id,omitempty" db:"parent_item_id"`
	Status       OrderItemStatus `json:"status" db:"status"`
	Priority     int             `json:"priority" db:"priority"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
