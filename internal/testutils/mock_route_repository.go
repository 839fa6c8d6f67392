package testutils

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/types"
)

// MockRouteRepository implements repository.RouteRepository for testing.
type MockRouteRepository struct {
	findByStaffAndDateFunc func(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (*types.Route, error)
	findByIDFunc           func(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Route, error)
	upsertFunc             func(ctx context.Context, db sqlx.ExtContext, route *types.Route) error
	updateStatusFunc       func(ctx context.Context, db sqlx.ExtContext, routeID int64, status types.RouteStatus, startedAt, completedAt *time.Time) error
	deleteStopsFunc        func(ctx context.Context, db sqlx.ExtContext, routeID int64) error
	createStopFunc         func(ctx context.Context, db sqlx.ExtContext, stop *types.RouteStop) error
	findStopsByRouteIDFunc func(ctx context.Context, db sqlx.ExtContext, routeID int64) ([]types.RouteStop, error)
	findStopByIDFunc       func(ctx context.Context, db sqlx.ExtContext, id int64) (*types.RouteStop, error)
	updateStopFunc         func(ctx context.Context, db sqlx.ExtContext, stop *types.RouteStop) error

	Routes     map[int64]*types.Route
	Stops      map[int64]*types.RouteStop
	nextRouteID int64
	nextStopID  int64
}

func NewMockRouteRepository() *MockRouteRepository {
	return &MockRouteRepository{
		Routes: map[int64]*types.Route{},
		Stops:  map[int64]*types.RouteStop{},
	}
}

func (m *MockRouteRepository) FindByStaffAndDate(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (*types.Route, error) {
	if m.findByStaffAndDateFunc != nil {
		return m.findByStaffAndDateFunc(ctx, db, staffID, date)
	}
	for _, r := range m.Routes {
		if r.StaffID == staffID && r.TargetDate.Equal(date) {
			return r, nil
		}
	}
	return nil, nil
}

func (m *MockRouteRepository) FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Route, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, db, id)
	}
	return m.Routes[id], nil
}

func (m *MockRouteRepository) Upsert(ctx context.Context, db sqlx.ExtContext, route *types.Route) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, db, route)
	}
	if route.ID == 0 {
		m.nextRouteID++
		route.ID = m.nextRouteID
	}
	m.Routes[route.ID] = route
	return nil
}

func (m *MockRouteRepository) UpdateStatus(ctx context.Context, db sqlx.ExtContext, routeID int64, status types.RouteStatus, startedAt, completedAt *time.Time) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, db, routeID, status, startedAt, completedAt)
	}
	if r, ok := m.Routes[routeID]; ok {
		r.Status = status
		if startedAt != nil {
			r.StartedAt = startedAt
		}
		if completedAt != nil {
			r.CompletedAt = completedAt
		}
	}
	return nil
}

func (m *MockRouteRepository) DeleteStops(ctx context.Context, db sqlx.ExtContext, routeID int64) error {
	if m.deleteStopsFunc != nil {
		return m.deleteStopsFunc(ctx, db, routeID)
	}
	for id, s := range m.Stops {
		if s.RouteID == routeID {
			delete(m.Stops, id)
		}
	}
	return nil
}

func (m *MockRouteRepository) CreateStop(ctx context.Context, db sqlx.ExtContext, stop *types.RouteStop) error {
	if m.createStopFunc != nil {
		return m.createStopFunc(ctx, db, stop)
	}
	m.nextStopID++
	stop.ID = m.nextStopID
	m.Stops[stop.ID] = stop
	return nil
}

func (m *MockRouteRepository) FindStopsByRouteID(ctx context.Context, db sqlx.ExtContext, routeID int64) ([]types.RouteStop, error) {
	if m.findStopsByRouteIDFunc != nil {
		return m.findStopsByRouteIDFunc(ctx, db, routeID)
	}
	var out []types.RouteStop
	for _, s := range m.Stops {
		if s.RouteID == routeID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *MockRouteRepository) FindStopByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.RouteStop, error) {
	if m.findStopByIDFunc != nil {
		return m.findStopByIDFunc(ctx, db, id)
	}
	return m.Stops[id], nil
}

func (m *MockRouteRepository) UpdateStop(ctx context.Context, db sqlx.ExtContext, stop *types.RouteStop) error {
	if m.updateStopFunc != nil {
		return m.updateStopFunc(ctx, db, stop)
	}
	m.Stops[stop.ID] = stop
	return nil
}

func (m *MockRouteRepository) WithFindByIDFunc(f func(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Route, error)) *MockRouteRepository {
	m.findByIDFunc = f
	return m
}

func (m *MockRouteRepository) WithFindStopByIDFunc(f func(ctx context.Context, db sqlx.ExtContext, id int64) (*types.RouteStop, error)) *MockRouteRepository {
	m.findStopByIDFunc = f
	return m
}
