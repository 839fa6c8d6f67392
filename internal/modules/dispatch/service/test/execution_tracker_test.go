package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"buyerdispatch/internal/modules/dispatch/service"
	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/internal/testutils"
	"buyerdispatch/pkg/apperrors"
)

type ExecutionTrackerTestSuite struct {
	suite.Suite
	tracker   *service.ExecutionTracker
	routes    *testutils.MockRouteRepository
	purchases *testutils.MockPurchaseRepository
	orders    *testutils.MockOrderRepository
	staff     *testutils.MockStaffRepository
	ctx       context.Context
}

func (s *ExecutionTrackerTestSuite) SetupTest() {
	s.routes = testutils.NewMockRouteRepository()
	s.purchases = testutils.NewMockPurchaseRepository()
	s.orders = testutils.NewMockOrderRepository()
	s.staff = testutils.NewMockStaffRepository()
	s.tracker = service.NewExecutionTracker(s.routes, s.purchases, s.orders, s.staff, nil)
	s.ctx = context.Background()
}

// S8 / Property 7 — execution cascade correctness: completing both stops
// covering one order's items purchases every PurchaseListItem and
// OrderItem, completes the order, and completes the route.
func (s *ExecutionTrackerTestSuite) TestCompleteStopCascadesThroughOrderAndRoute() {
	buyer := types.Staff{ID: 1, Role: types.StaffRoleBuyer}

	route := &types.Route{ID: 1, StaffID: 1, PurchaseListID: 1, Status: types.RouteStatusNotStarted}
	s.routes.Routes[route.ID] = route
	stop1 := &types.RouteStop{ID: 10, RouteID: 1, StoreID: 100, StopSequence: 1, Status: types.RouteStopStatusPending}
	stop2 := &types.RouteStop{ID: 11, RouteID: 1, StoreID: 200, StopSequence: 2, Status: types.RouteStopStatusPending}
	s.routes.Stops[stop1.ID] = stop1
	s.routes.Stops[stop2.ID] = stop2

	// One order, four items, two at each of the two stores/stops.
	order := &types.Order{ID: 500, Status: types.OrderStatusInProgress}
	s.orders.Orders[order.ID] = order
	item1 := &types.OrderItem{ID: 5001, OrderID: order.ID, Status: types.OrderItemStatusAssigned}
	item2 := &types.OrderItem{ID: 5002, OrderID: order.ID, Status: types.OrderItemStatusAssigned}
	item3 := &types.OrderItem{ID: 5003, OrderID: order.ID, Status: types.OrderItemStatusAssigned}
	item4 := &types.OrderItem{ID: 5004, OrderID: order.ID, Status: types.OrderItemStatusAssigned}
	s.orders.Items[item1.ID] = item1
	s.orders.Items[item2.ID] = item2
	s.orders.Items[item3.ID] = item3
	s.orders.Items[item4.ID] = item4

	pli1 := &types.PurchaseListItem{PurchaseListID: 1, OrderItemID: item1.ID, StoreID: 100, Status: types.PurchaseListItemStatusPending}
	pli2 := &types.PurchaseListItem{PurchaseListID: 1, OrderItemID: item2.ID, StoreID: 100, Status: types.PurchaseListItemStatusPending}
	pli3 := &types.PurchaseListItem{PurchaseListID: 1, OrderItemID: item3.ID, StoreID: 200, Status: types.PurchaseListItemStatusPending}
	pli4 := &types.PurchaseListItem{PurchaseListID: 1, OrderItemID: item4.ID, StoreID: 200, Status: types.PurchaseListItemStatusPending}
	for _, pli := range []*types.PurchaseListItem{pli1, pli2, pli3, pli4} {
		s.purchases.CreateItem(s.ctx, nil, pli)
	}

	err := s.tracker.CompleteStop(s.ctx, nil, buyer, route.ID, stop1.ID, types.RouteStopStatusCompleted)
	require.NoError(s.T(), err)

	require.Equal(s.T(), types.OrderItemStatusPurchased, item1.Status)
	require.Equal(s.T(), types.OrderItemStatusPurchased, item2.Status)
	require.Equal(s.T(), types.OrderItemStatusAssigned, item3.Status)
	require.Equal(s.T(), types.OrderStatusPartiallyCompleted, order.Status)
	require.Equal(s.T(), types.RouteStatusInProgress, route.Status)
	require.NotNil(s.T(), stop1.ActualArrival)

	err = s.tracker.CompleteStop(s.ctx, nil, buyer, route.ID, stop2.ID, types.RouteStopStatusCompleted)
	require.NoError(s.T(), err)

	require.Equal(s.T(), types.OrderItemStatusPurchased, item3.Status)
	require.Equal(s.T(), types.OrderItemStatusPurchased, item4.Status)
	require.Equal(s.T(), types.OrderStatusCompleted, order.Status)
	require.Equal(s.T(), types.RouteStatusCompleted, route.Status)
	require.NotNil(s.T(), route.CompletedAt)

	for _, pli := range s.purchases.Items {
		require.Equal(s.T(), types.PurchaseListItemStatusPurchased, pli.Status)
	}
}

// Completing a stop twice must not double-apply the cascade (idempotent
// w.r.t. the "already purchased" guard inside cascadeStopCompletion).
func (s *ExecutionTrackerTestSuite) TestCompleteStopTwiceDoesNotReapplyCascade() {
	buyer := types.Staff{ID: 1, Role: types.StaffRoleBuyer}
	route := &types.Route{ID: 1, StaffID: 1, PurchaseListID: 1, Status: types.RouteStatusNotStarted}
	s.routes.Routes[route.ID] = route
	stop := &types.RouteStop{ID: 10, RouteID: 1, StoreID: 100, StopSequence: 1, Status: types.RouteStopStatusPending}
	s.routes.Stops[stop.ID] = stop

	order := &types.Order{ID: 500, Status: types.OrderStatusInProgress}
	s.orders.Orders[order.ID] = order
	item := &types.OrderItem{ID: 5001, OrderID: order.ID, Status: types.OrderItemStatusAssigned}
	s.orders.Items[item.ID] = item
	pli := &types.PurchaseListItem{PurchaseListID: 1, OrderItemID: item.ID, StoreID: 100, Status: types.PurchaseListItemStatusPending}
	s.purchases.CreateItem(s.ctx, nil, pli)

	require.NoError(s.T(), s.tracker.CompleteStop(s.ctx, nil, buyer, route.ID, stop.ID, types.RouteStopStatusCompleted))
	require.NoError(s.T(), s.tracker.CompleteStop(s.ctx, nil, buyer, route.ID, stop.ID, types.RouteStopStatusCompleted))

	require.Equal(s.T(), types.OrderStatusCompleted, order.Status)
	require.Equal(s.T(), types.RouteStatusCompleted, route.Status)
}

// A buyer may complete their own stop but not another buyer's; a
// supervisor may complete any stop.
func (s *ExecutionTrackerTestSuite) TestCompleteStopEnforcesCapabilityTable() {
	route := &types.Route{ID: 1, StaffID: 1, PurchaseListID: 1, Status: types.RouteStatusNotStarted}
	s.routes.Routes[route.ID] = route
	stop := &types.RouteStop{ID: 10, RouteID: 1, StoreID: 100, StopSequence: 1, Status: types.RouteStopStatusPending}
	s.routes.Stops[stop.ID] = stop

	otherBuyer := types.Staff{ID: 2, Role: types.StaffRoleBuyer}
	err := s.tracker.CompleteStop(s.ctx, nil, otherBuyer, route.ID, stop.ID, types.RouteStopStatusCompleted)
	require.Error(s.T(), err)
	de, ok := apperrors.As(err)
	require.True(s.T(), ok)
	require.Equal(s.T(), apperrors.CodeForbidden, de.Code)
	require.Equal(s.T(), types.RouteStopStatusPending, stop.Status)

	supervisor := types.Staff{ID: 9, Role: types.StaffRoleSupervisor}
	err = s.tracker.CompleteStop(s.ctx, nil, supervisor, route.ID, stop.ID, types.RouteStopStatusCompleted)
	require.NoError(s.T(), err)
	require.Equal(s.T(), types.RouteStopStatusCompleted, stop.Status)
}

// RecordFailure flips the PurchaseListItem and OrderItem to failed and
// returns alternative stores without touching route or order status.
func (s *ExecutionTrackerTestSuite) TestRecordFailureFlipsStatusesWithoutReallocating() {
	buyer := types.Staff{ID: 1, Role: types.StaffRoleBuyer}
	order := &types.Order{ID: 500, Status: types.OrderStatusInProgress}
	s.orders.Orders[order.ID] = order
	item := &types.OrderItem{ID: 5001, OrderID: order.ID, Status: types.OrderItemStatusAssigned}
	s.orders.Items[item.ID] = item
	pli := &types.PurchaseListItem{PurchaseListID: 1, OrderItemID: item.ID, StoreID: 100, Status: types.PurchaseListItemStatusPending}
	s.purchases.CreateItem(s.ctx, nil, pli)

	failure := &types.PurchaseFailure{PurchaseListItemID: pli.ID, FailureType: types.FailureTypeOutOfStock}

	alternatives, err := s.tracker.RecordFailure(s.ctx, nil, buyer, failure)
	require.NoError(s.T(), err)
	require.Nil(s.T(), alternatives)

	require.Equal(s.T(), types.PurchaseListItemStatusFailed, pli.Status)
	require.Equal(s.T(), types.OrderItemStatusFailed, item.Status)
	require.Equal(s.T(), types.OrderStatusInProgress, order.Status)
	require.NotNil(s.T(), failure.RecordedByStaffID)
	require.Equal(s.T(), buyer.ID, *failure.RecordedByStaffID)
	require.Len(s.T(), s.purchases.Failures, 1)
}

func TestExecutionTrackerTestSuite(t *testing.T) {
	suite.Run(t, new(ExecutionTrackerTestSuite))
}
