package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// BundleSplitRule is one child-item expansion rule on a bundle product:
// the child SKU and how many units of it make up one unit of the bundle.
type BundleSplitRule struct {
	ChildSKU  string `json:"child_sku"`
	QtyPerSet int    `json:"qty_per_bundle"`
}

// SplitRules is the JSON-column type for Product.SetSplitRule.
type SplitRules []BundleSplitRule

func (r SplitRules) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

func (r *SplitRules) Scan(src interface{}) error {
	if src == nil {
		*r = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("SplitRules: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, r)
}

// Product is the master record keyed by SKU.
type Product struct {
	ID                 int64      `json:"id" db:"id"`
	SKU                string     `json:"sku" db:"sku"`
	Name               string     `json:"name" db:"name"`
	Category           string     `json:"category" db:"category"`
	IsStoreFixed       bool       `json:"is_store_fixed" db:"is_store_fixed"`
	FixedStoreID       *int64     `json:"fixed_store_id,omitempty" db:"fixed_store_id"`
	ExcludeFromRouting bool       `json:"exclude_from_routing" db:"exclude_from_routing"`
	SetSplitRule       SplitRules `json:"set_split_rule,omitempty" db:"set_split_rule"`
	Active             bool       `json:"active" db:"active"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// DayHours is one weekday's opening interval, e.g. {"09:00", "20:00"}.
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// OpeningHours maps a weekday name (lowercase English: "monday" ...
// "sunday") to its DayHours. A missing weekday means closed.
type OpeningHours map[string]DayHours

func (h OpeningHours) Value() (driver.Value, error) {
	if h == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(h)
}

func (h *OpeningHours) Scan(src interface{}) error {
	if src == nil {
		*h = OpeningHours{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("OpeningHours: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, h)
}

// Store is a physical retail location a buyer can visit.
type Store struct {
	ID            int64        `json:"id" db:"id"`
	Name          string       `json:"name" db:"name"`
	Address       string       `json:"address" db:"address"`
	District      string       `json:"district" db:"district"`
	Category      string       `json:"category" db:"category"`
	Latitude      *float64     `json:"latitude,omitempty" db:"latitude"`
	Longitude     *float64     `json:"longitude,omitempty" db:"longitude"`
	PriorityLevel int          `json:"priority_level" db:"priority_level"`
	OpeningHours  OpeningHours `json:"opening_hours" db:"opening_hours"`
	IsActive      bool         `json:"is_active" db:"is_active"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// HasCoordinates reports whether the store can participate in
// distance-aware ordering.
func (s Store) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// StockStatus is the ProductStoreMapping.StockStatus enum.
type StockStatus string

const (
	StockStatusInStock     StockStatus = "in_stock"
	StockStatusLowStock    StockStatus = "low_stock"
	StockStatusOutOfStock  StockStatus = "out_of_stock"
	StockStatusDiscontinued StockStatus = "discontinued"
	StockStatusUnknown     StockStatus = "unknown"
)

// ProductStoreMapping is the edge between Product and Store: which
// stores can fulfil which products, and under what constraints.
type ProductStoreMapping struct {
	ID                int64       `json:"id" db:"id"`
	ProductID         int64       `json:"product_id" db:"product_id"`
	StoreID           int64       `json:"store_id" db:"store_id"`
	IsPrimaryStore    bool        `json:"is_primary_store" db:"is_primary_store"`
	Priority          int         `json:"priority" db:"priority"`
	StockStatus       StockStatus `json:"stock_status" db:"stock_status"`
	MaxDailyQuantity  *int        `json:"max_daily_quantity,omitempty" db:"max_daily_quantity"`
	CurrentAvailable  *int        `json:"current_available,omitempty" db:"current_available"`
	Active            bool        `json:"active" db:"active"`
}

// Cap returns the effective per-day allocation cap for this mapping: 0 for
// an out_of_stock or discontinued mapping, otherwise CurrentAvailable if
// set, else MaxDailyQuantity if set, else -1 meaning unbounded (callers
// treat unbounded as "whatever remains").
func (m ProductStoreMapping) Cap() int {
	if m.StockStatus == StockStatusOutOfStock || m.StockStatus == StockStatusDiscontinued {
		return 0
	}
	if m.CurrentAvailable != nil {
		return *m.CurrentAvailable
	}
	if m.MaxDailyQuantity != nil {
		return *m.MaxDailyQuantity
	}
	return -1
}

// StoreDistanceMatrix is a cached directional edge between two stores.
type StoreDistanceMatrix struct {
	OriginStoreID      int64     `json:"origin_store_id" db:"origin_store_id"`
	DestinationStoreID int64     `json:"destination_store_id" db:"destination_store_id"`
	DistanceKm         float64   `json:"distance_km" db:"distance_km"`
	TravelTimeMinutes  float64   `json:"travel_time_minutes" db:"travel_time_minutes"`
	LastCalculated     time.Time `json:"last_calculated" db:"last_calculated"`
}
