package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"buyerdispatch/internal/modules/dispatch/service"
	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/internal/testutils"
)

type StaffAssignerTestSuite struct {
	suite.Suite
	assigner  *service.StaffAssigner
	staff     *testutils.MockStaffRepository
	orders    *testutils.MockOrderRepository
	purchases *testutils.MockPurchaseRepository
	stores    *testutils.MockStoreRepository
	products  *testutils.MockProductRepository
	ctx       context.Context
	date      time.Time
}

func floatPtr(v float64) *float64 { return &v }

func (s *StaffAssignerTestSuite) SetupTest() {
	s.staff = testutils.NewMockStaffRepository()
	s.orders = testutils.NewMockOrderRepository()
	s.purchases = testutils.NewMockPurchaseRepository()
	s.stores = testutils.NewMockStoreRepository()
	s.products = testutils.NewMockProductRepository()
	selector := service.NewStoreSelector(s.products, s.stores)
	s.assigner = service.NewStaffAssigner(s.staff, s.orders, s.purchases, s.stores, selector, nil)
	s.ctx = context.Background()
	s.date = time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC)
}

// S5 — geographic affinity: the buyer whose running centroid is closer to
// the item's allocated-store centroid wins, regardless of staff id order.
func (s *StaffAssignerTestSuite) TestAssignDayPicksCloserBuyerByCentroid() {
	buyer1 := &types.Staff{ID: 1, Role: types.StaffRoleBuyer, Status: types.StaffStatusIdle, StartLatitude: floatPtr(34.70), StartLongitude: floatPtr(135.50)}
	buyer2 := &types.Staff{ID: 2, Role: types.StaffRoleBuyer, Status: types.StaffStatusIdle, StartLatitude: floatPtr(34.65), StartLongitude: floatPtr(135.52)}
	s.staff.Staff[1] = buyer1
	s.staff.Staff[2] = buyer2

	s.products.Products["X"] = types.Product{ID: 1, SKU: "X"}
	s.stores.Stores[10] = types.Store{ID: 10, IsActive: true, Latitude: floatPtr(34.706), Longitude: floatPtr(135.506)}
	s.stores.Stores[11] = types.Store{ID: 11, IsActive: true, Latitude: floatPtr(34.705), Longitude: floatPtr(135.505)}
	s.stores.Stores[12] = types.Store{ID: 12, IsActive: true, Latitude: floatPtr(34.704), Longitude: floatPtr(135.504)}
	s.stores.Mappings[1] = []types.ProductStoreMapping{
		{ProductID: 1, StoreID: 10, StockStatus: types.StockStatusInStock, MaxDailyQuantity: intPtr(5)},
		{ProductID: 1, StoreID: 11, StockStatus: types.StockStatusInStock, MaxDailyQuantity: intPtr(5)},
		{ProductID: 1, StoreID: 12, StockStatus: types.StockStatusInStock, MaxDailyQuantity: intPtr(5)},
	}
	item := &types.OrderItem{ID: 100, OrderID: 1000, SKU: "X", Quantity: 3, Status: types.OrderItemStatusPending}
	s.orders.Items[item.ID] = item
	s.orders.Orders[1000] = &types.Order{ID: 1000, Status: types.OrderStatusProcessing}

	rule := types.BusinessRule{MaxOrdersPerStaff: 20}
	summary, err := s.assigner.AssignDay(s.ctx, nil, s.date, rule)

	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, summary.AssignedCount)

	var placedOnBuyer1, placedOnBuyer2 int
	for _, pli := range s.purchases.Items {
		list := s.purchases.Lists[pli.PurchaseListID]
		switch list.StaffID {
		case 1:
			placedOnBuyer1++
		case 2:
			placedOnBuyer2++
		}
	}
	require.Positive(s.T(), placedOnBuyer1)
	require.Zero(s.T(), placedOnBuyer2)
}

// Property 2 — capacity respect: an item is skipped rather than placed
// when every buyer would exceed capacity.
func (s *StaffAssignerTestSuite) TestAssignDaySkipsItemWhenNoBuyerHasCapacity() {
	buyer := &types.Staff{ID: 1, Role: types.StaffRoleBuyer, Status: types.StaffStatusIdle, MaxDailyCapacity: intPtr(1)}
	s.staff.Staff[1] = buyer
	// Pre-load the buyer's list so CountItemsForStaffDate already reports
	// it at capacity.
	list, _ := s.purchases.FindOrCreateList(s.ctx, nil, 1, s.date)
	s.purchases.CreateItem(s.ctx, nil, &types.PurchaseListItem{PurchaseListID: list.ID, OrderItemID: 999, StoreID: 1, QuantityToPurchase: 1, Status: types.PurchaseListItemStatusPending})

	s.products.Products["X"] = types.Product{ID: 1, SKU: "X"}
	s.stores.Stores[10] = types.Store{ID: 10, IsActive: true}
	s.stores.Mappings[1] = []types.ProductStoreMapping{
		{ProductID: 1, StoreID: 10, StockStatus: types.StockStatusInStock, MaxDailyQuantity: intPtr(5)},
	}
	item := &types.OrderItem{ID: 100, OrderID: 1000, SKU: "X", Quantity: 2, Status: types.OrderItemStatusPending}
	s.orders.Items[item.ID] = item
	s.orders.Orders[1000] = &types.Order{ID: 1000, Status: types.OrderStatusProcessing}

	rule := types.BusinessRule{MaxOrdersPerStaff: 20}
	summary, err := s.assigner.AssignDay(s.ctx, nil, s.date, rule)

	require.NoError(s.T(), err)
	require.Equal(s.T(), 0, summary.AssignedCount)
	require.Equal(s.T(), types.OrderItemStatusPending, item.Status)
}

func TestStaffAssignerTestSuite(t *testing.T) {
	suite.Run(t, new(StaffAssignerTestSuite))
}
