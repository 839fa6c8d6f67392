package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/pkg/apperrors"
)

// RouteRepository persists Route and RouteStop rows.
type RouteRepository interface {
	FindByStaffAndDate(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (*types.Route, error)
	FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Route, error)
	Upsert(ctx context.Context, db sqlx.ExtContext, route *types.Route) error
	UpdateStatus(ctx context.Context, db sqlx.ExtContext, routeID int64, status types.RouteStatus, startedAt, completedAt *time.Time) error

	DeleteStops(ctx context.Context, db sqlx.ExtContext, routeID int64) error
	CreateStop(ctx context.Context, db sqlx.ExtContext, stop *types.RouteStop) error
	FindStopsByRouteID(ctx context.Context, db sqlx.ExtContext, routeID int64) ([]types.RouteStop, error)
	FindStopByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.RouteStop, error)
	UpdateStop(ctx context.Context, db sqlx.ExtContext, stop *types.RouteStop) error
}

type routeRepository struct{}

func NewRouteRepository() RouteRepository {
	return &routeRepository{}
}

func (r *routeRepository) FindByStaffAndDate(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (*types.Route, error) {
	var rt types.Route
	err := sqlx.GetContext(ctx, db, &rt, `
		SELECT id, purchase_list_id, staff_id, plan_run_id, target_date, status,
		       total_distance_km, estimated_time_minutes, start_latitude, start_longitude,
		       include_return, started_at, completed_at, created_at, updated_at
		FROM routes WHERE staff_id = $1 AND target_date = $2
	`, staffID, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("route repository: find by staff and date: %w", err)
	}
	return &rt, nil
}

func (r *routeRepository) FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Route, error) {
	var rt types.Route
	err := sqlx.GetContext(ctx, db, &rt, `
		SELECT id, purchase_list_id, staff_id, plan_run_id, target_date, status,
		       total_distance_km, estimated_time_minutes, start_latitude, start_longitude,
		       include_return, started_at, completed_at, created_at, updated_at
		FROM routes WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("route", id)
	}
	if err != nil {
		return nil, fmt.Errorf("route repository: find by id: %w", err)
	}
	return &rt, nil
}

// Upsert creates the Route row on first optimization for (staff, date) or
// overwrites the existing one's schedule fields on recomputation. Callers
// are responsible for clearing stops first via DeleteStops before writing
// a fresh stop set.
func (r *routeRepository) Upsert(ctx context.Context, db sqlx.ExtContext, route *types.Route) error {
	existing, err := r.FindByStaffAndDate(ctx, db, route.StaffID, route.TargetDate)
	if err != nil {
		return err
	}
	if existing == nil {
		row := sqlx.QueryRowxContext(ctx, db, `
			INSERT INTO routes (purchase_list_id, staff_id, plan_run_id, target_date, status,
			                     total_distance_km, estimated_time_minutes, start_latitude, start_longitude,
			                     include_return)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at, updated_at
		`, route.PurchaseListID, route.StaffID, route.PlanRunID, route.TargetDate, route.Status,
			route.TotalDistanceKm, route.EstimatedTimeMinutes, route.StartLatitude, route.StartLongitude,
			route.IncludeReturn)
		if err := row.Scan(&route.ID, &route.CreatedAt, &route.UpdatedAt); err != nil {
			return fmt.Errorf("route repository: insert: %w", err)
		}
		return nil
	}

	route.ID = existing.ID
	_, err = db.ExecContext(ctx, `
		UPDATE routes SET plan_run_id = $1, status = $2, total_distance_km = $3, estimated_time_minutes = $4,
		       start_latitude = $5, start_longitude = $6, include_return = $7, updated_at = NOW()
		WHERE id = $8
	`, route.PlanRunID, route.Status, route.TotalDistanceKm, route.EstimatedTimeMinutes,
		route.StartLatitude, route.StartLongitude, route.IncludeReturn, route.ID)
	if err != nil {
		return fmt.Errorf("route repository: update: %w", err)
	}
	return nil
}

func (r *routeRepository) UpdateStatus(ctx context.Context, db sqlx.ExtContext, routeID int64, status types.RouteStatus, startedAt, completedAt *time.Time) error {
	_, err := db.ExecContext(ctx, `
		UPDATE routes SET status = $1, started_at = COALESCE($2, started_at), completed_at = COALESCE($3, completed_at), updated_at = NOW()
		WHERE id = $4
	`, status, startedAt, completedAt, routeID)
	if err != nil {
		return fmt.Errorf("route repository: update status: %w", err)
	}
	return nil
}

// DeleteStops removes every stop for a route. Route regeneration always
// deletes and rebuilds rather than diffing: stop sequencing is recomputed
// from scratch by the optimizer every time.
func (r *routeRepository) DeleteStops(ctx context.Context, db sqlx.ExtContext, routeID int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM route_stops WHERE route_id = $1`, routeID)
	if err != nil {
		return fmt.Errorf("route repository: delete stops: %w", err)
	}
	return nil
}

func (r *routeRepository) CreateStop(ctx context.Context, db sqlx.ExtContext, stop *types.RouteStop) error {
	row := sqlx.QueryRowxContext(ctx, db, `
		INSERT INTO route_stops (route_id, store_id, stop_sequence, estimated_arrival, items_to_purchase, items_count, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, stop.RouteID, stop.StoreID, stop.StopSequence, stop.EstimatedArrival, pq.Array(stop.ItemsToPurchase), stop.ItemsCount, stop.Status)
	if err := row.Scan(&stop.ID); err != nil {
		return fmt.Errorf("route repository: create stop: %w", err)
	}
	return nil
}

func (r *routeRepository) FindStopsByRouteID(ctx context.Context, db sqlx.ExtContext, routeID int64) ([]types.RouteStop, error) {
	var rows []types.RouteStop
	err := sqlx.SelectContext(ctx, db, &rows, `
		SELECT id, route_id, store_id, stop_sequence, estimated_arrival, actual_arrival, actual_departure,
		       items_to_purchase, items_count, status
		FROM route_stops WHERE route_id = $1 ORDER BY stop_sequence
	`, routeID)
	if err != nil {
		return nil, fmt.Errorf("route repository: find stops by route id: %w", err)
	}
	return rows, nil
}

func (r *routeRepository) FindStopByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.RouteStop, error) {
	var stop types.RouteStop
	err := sqlx.GetContext(ctx, db, &stop, `
		SELECT id, route_id, store_id, stop_sequence, estimated_arrival, actual_arrival, actual_departure,
		       items_to_purchase, items_count, status
		FROM route_stops WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("route_stop", id)
	}
	if err != nil {
		return nil, fmt.Errorf("route repository: find stop by id: %w", err)
	}
	return &stop, nil
}

func (r *routeRepository) UpdateStop(ctx context.Context, db sqlx.ExtContext, stop *types.RouteStop) error {
	_, err := db.ExecContext(ctx, `
		UPDATE route_stops SET actual_arrival = $1, actual_departure = $2, status = $3
		WHERE id = $4
	`, stop.ActualArrival, stop.ActualDeparture, stop.Status, stop.ID)
	if err != nil {
		return fmt.Errorf("route repository: update stop: %w", err)
	}
	return nil
}
