package types

import (
	"time"

	"github.com/google/uuid"
)

// RouteStatus is the lifecycle state of a Route.
type RouteStatus string

const (
	RouteStatusNotStarted RouteStatus = "not_started"
	RouteStatusInProgress RouteStatus = "in_progress"
	RouteStatusCompleted  RouteStatus = "completed"
	RouteStatusCancelled  RouteStatus = "cancelled"
)

// Route is one buyer's ordered sequence of store visits for one day,
// coupled 1:1 to a PurchaseList.
type Route struct {
	ID                    int64       `json:"id" db:"id"`
	PurchaseListID        int64       `json:"purchase_list_id" db:"purchase_list_id"`
	StaffID               int64       `json:"staff_id" db:"staff_id"`
	PlanRunID             *uuid.UUID  `json:"plan_run_id,omitempty" db:"plan_run_id"`
	TargetDate            time.Time   `json:"target_date" db:"target_date"`
	Status                RouteStatus `json:"status" db:"status"`
	TotalDistanceKm       *float64    `json:"total_distance_km,omitempty" db:"total_distance_km"`
	EstimatedTimeMinutes  *int        `json:"estimated_time_minutes,omitempty" db:"estimated_time_minutes"`
	StartLatitude         float64     `json:"start_latitude" db:"start_latitude"`
	StartLongitude        float64     `json:"start_longitude" db:"start_longitude"`
	IncludeReturn         bool        `json:"include_return" db:"include_return"`
	StartedAt             *time.Time  `json:"started_at,omitempty" db:"started_at"`
	CompletedAt           *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt             time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at" db:"updated_at"`
}

// RouteStopStatus is the lifecycle state of a RouteStop.
type RouteStopStatus string

const (
	RouteStopStatusPending   RouteStopStatus = "pending"
	RouteStopStatusCurrent   RouteStopStatus = "current"
	RouteStopStatusCompleted RouteStopStatus = "completed"
	RouteStopStatusSkipped   RouteStopStatus = "skipped"
)

// RouteStop is one store visit within a Route.
type RouteStop struct {
	ID                int64           `json:"id" db:"id"`
	RouteID           int64           `json:"route_id" db:"route_id"`
	StoreID           int64           `json:"store_id" db:"store_id"`
	StopSequence      int             `json:"stop_sequence" db:"stop_sequence"`
	EstimatedArrival  *time.Time      `json:"estimated_arrival,omitempty" db:"estimated_arrival"`
	ActualArrival     *time.Time      `json:"actual_arrival,omitempty" db:"actual_arrival"`
	ActualDeparture   *time.Time      `json:"actual_departure,omitempty" db:"actual_departure"`
	ItemsToPurchase   []int64         `json:"items_to_purchase" db:"items_to_purchase"`
	ItemsCount        int             `json:"items_count" db:"items_count"`
	Status            RouteStopStatus `json:"status" db:"status"`
}
