package testutils

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/types"
)

// MockOrderRepository implements repository.OrderRepository for testing.
type MockOrderRepository struct {
	createFunc               func(ctx context.Context, db sqlx.ExtContext, o *types.Order) error
	findByIDFunc             func(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Order, error)
	setTargetDateFunc        func(ctx context.Context, db sqlx.ExtContext, orderID int64, date time.Time) error
	updateStatusFunc         func(ctx context.Context, db sqlx.ExtContext, orderID int64, status types.OrderStatus) error
	createItemFunc           func(ctx context.Context, db sqlx.ExtContext, item *types.OrderItem) error
	findItemByIDFunc         func(ctx context.Context, db sqlx.ExtContext, id int64) (*types.OrderItem, error)
	findPendingItemsForDateFunc func(ctx context.Context, db sqlx.ExtContext, date time.Time) ([]types.OrderItem, error)
	findSiblingItemsFunc     func(ctx context.Context, db sqlx.ExtContext, orderID int64) ([]types.OrderItem, error)
	updateItemStatusFunc     func(ctx context.Context, db sqlx.ExtContext, itemID int64, status types.OrderItemStatus) error

	// Orders and OrderItems mutated in place by the default in-memory
	// implementations, keyed by ID. Tests can seed these directly.
	Orders map[int64]*types.Order
	Items  map[int64]*types.OrderItem
}

// NewMockOrderRepository creates a new mock order repository with empty
// in-memory backing maps.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		Orders: map[int64]*types.Order{},
		Items:  map[int64]*types.OrderItem{},
	}
}

func (m *MockOrderRepository) Create(ctx context.Context, db sqlx.ExtContext, o *types.Order) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, db, o)
	}
	if o.ID == 0 {
		o.ID = int64(len(m.Orders) + 1)
	}
	m.Orders[o.ID] = o
	return nil
}

func (m *MockOrderRepository) FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Order, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, db, id)
	}
	return m.Orders[id], nil
}

func (m *MockOrderRepository) SetTargetDate(ctx context.Context, db sqlx.ExtContext, orderID int64, date time.Time) error {
	if m.setTargetDateFunc != nil {
		return m.setTargetDateFunc(ctx, db, orderID, date)
	}
	if o, ok := m.Orders[orderID]; ok {
		o.TargetPurchaseDate = &date
	}
	return nil
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, db sqlx.ExtContext, orderID int64, status types.OrderStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, db, orderID, status)
	}
	if o, ok := m.Orders[orderID]; ok {
		o.Status = status
	}
	return nil
}

func (m *MockOrderRepository) CreateItem(ctx context.Context, db sqlx.ExtContext, item *types.OrderItem) error {
	if m.createItemFunc != nil {
		return m.createItemFunc(ctx, db, item)
	}
	if item.ID == 0 {
		item.ID = int64(len(m.Items) + 1)
	}
	m.Items[item.ID] = item
	return nil
}

func (m *MockOrderRepository) FindItemByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.OrderItem, error) {
	if m.findItemByIDFunc != nil {
		return m.findItemByIDFunc(ctx, db, id)
	}
	return m.Items[id], nil
}

func (m *MockOrderRepository) FindPendingItemsForDate(ctx context.Context, db sqlx.ExtContext, date time.Time) ([]types.OrderItem, error) {
	if m.findPendingItemsForDateFunc != nil {
		return m.findPendingItemsForDateFunc(ctx, db, date)
	}
	var out []types.OrderItem
	for _, it := range m.Items {
		if it.Status == types.OrderItemStatusPending && !it.IsBundle {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *MockOrderRepository) FindSiblingItems(ctx context.Context, db sqlx.ExtContext, orderID int64) ([]types.OrderItem, error) {
	if m.findSiblingItemsFunc != nil {
		return m.findSiblingItemsFunc(ctx, db, orderID)
	}
	var out []types.OrderItem
	for _, it := range m.Items {
		if it.OrderID == orderID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *MockOrderRepository) UpdateItemStatus(ctx context.Context, db sqlx.ExtContext, itemID int64, status types.OrderItemStatus) error {
	if m.updateItemStatusFunc != nil {
		return m.updateItemStatusFunc(ctx, db, itemID, status)
	}
	if it, ok := m.Items[itemID]; ok {
		it.Status = status
	}
	return nil
}

func (m *MockOrderRepository) WithCreateFunc(f func(ctx context.Context, db sqlx.ExtContext, o *types.Order) error) *MockOrderRepository {
	m.createFunc = f
	return m
}

func (m *MockOrderRepository) WithFindByIDFunc(f func(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Order, error)) *MockOrderRepository {
	m.findByIDFunc = f
	return m
}

func (m *MockOrderRepository) WithFindPendingItemsForDateFunc(f func(ctx context.Context, db sqlx.ExtContext, date time.Time) ([]types.OrderItem, error)) *MockOrderRepository {
	m.findPendingItemsForDateFunc = f
	return m
}

func (m *MockOrderRepository) WithFindSiblingItemsFunc(f func(ctx context.Context, db sqlx.ExtContext, orderID int64) ([]types.OrderItem, error)) *MockOrderRepository {
	m.findSiblingItemsFunc = f
	return m
}

func (m *MockOrderRepository) WithUpdateItemStatusFunc(f func(ctx context.Context, db sqlx.ExtContext, itemID int64, status types.OrderItemStatus) error) *MockOrderRepository {
	m.updateItemStatusFunc = f
	return m
}
