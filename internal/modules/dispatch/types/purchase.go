package types

import "time"

// PurchaseListStatus is the lifecycle state of a PurchaseList.
type PurchaseListStatus string

const (
	PurchaseListStatusDraft      PurchaseListStatus = "draft"
	PurchaseListStatusAssigned   PurchaseListStatus = "assigned"
	PurchaseListStatusInProgress PurchaseListStatus = "in_progress"
	PurchaseListStatusCompleted  PurchaseListStatus = "completed"
)

// PurchaseList is a buyer's shopping workload for one business day.
type PurchaseList struct {
	ID          int64              `json:"id" db:"id"`
	StaffID     int64              `json:"staff_id" db:"staff_id"`
	TargetDate  time.Time          `json:"target_date" db:"target_date"`
	Status      PurchaseListStatus `json:"status" db:"status"`
	TotalItems  int                `json:"total_items" db:"total_items"`
	TotalStores int                `json:"total_stores" db:"total_stores"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
}

// PurchaseListItemStatus is the lifecycle state of a PurchaseListItem.
type PurchaseListItemStatus string

const (
	PurchaseListItemStatusPending    PurchaseListItemStatus = "pending"
	PurchaseListItemStatusInProgress PurchaseListItemStatus = "in_progress"
	PurchaseListItemStatusPurchased  PurchaseListItemStatus = "purchased"
	PurchaseListItemStatusFailed     PurchaseListItemStatus = "failed"
	PurchaseListItemStatusSkipped    PurchaseListItemStatus = "skipped"
)

// PurchaseListItem is a single atomic buy task: one OrderItem's
// allocation to one store for one quantity.
type PurchaseListItem struct {
	ID                 int64                  `json:"id" db:"id"`
	PurchaseListID     int64                  `json:"purchase_list_id" db:"purchase_list_id"`
	OrderItemID        int64                  `json:"order_item_id" db:"order_item_id"`
	StoreID            int64                  `json:"store_id" db:"store_id"`
	QuantityToPurchase int                    `json:"quantity_to_purchase" db:"quantity_to_purchase"`
	SequenceOrder      int                    `json:"sequence_order" db:"sequence_order"`
	Status             PurchaseListItemStatus `json:"status" db:"status"`
}

// FailureType is the PurchaseFailure.FailureType enum.
type FailureType string

const (
	FailureTypeDiscontinued     FailureType = "discontinued"
	FailureTypeOutOfStock       FailureType = "out_of_stock"
	FailureTypeStoreClosed      FailureType = "store_closed"
	FailureTypePriceMismatch    FailureType = "price_mismatch"
	FailureTypeProductNotFound  FailureType = "product_not_found"
	FailureTypeOther            FailureType = "other"
)

// PurchaseFailure is a pure observation record: it flips the referenced
// PurchaseListItem and OrderItem to failed but triggers no automatic
// reallocation.
type PurchaseFailure struct {
	ID                  int64       `json:"id" db:"id"`
	PurchaseListItemID  int64       `json:"purchase_list_item_id" db:"purchase_list_item_id"`
	FailureType         FailureType `json:"failure_type" db:"failure_type"`
	AlternativeStoreID  *int64      `json:"alternative_store_id,omitempty" db:"alternative_store_id"`
	RecordedByStaffID   *int64      `json:"recorded_by_staff_id,omitempty" db:"recorded_by_staff_id"`
	RecordedAt          time.Time   `json:"recorded_at" db:"recorded_at"`
}
