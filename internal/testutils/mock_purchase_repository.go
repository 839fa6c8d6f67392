package testutils

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/types"
)

// MockPurchaseRepository implements repository.PurchaseRepository for
// testing, backed by simple in-memory maps.
type MockPurchaseRepository struct {
	findOrCreateListFunc        func(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (*types.PurchaseList, error)
	findListsForDateFunc        func(ctx context.Context, db sqlx.ExtContext, date time.Time) ([]types.PurchaseList, error)
	findListByIDFunc            func(ctx context.Context, db sqlx.ExtContext, id int64) (*types.PurchaseList, error)
	findListByStaffAndDateFunc  func(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (*types.PurchaseList, error)
	updateListCountersFunc      func(ctx context.Context, db sqlx.ExtContext, listID int64, totalItems, totalStores int) error
	updateListStatusFunc        func(ctx context.Context, db sqlx.ExtContext, listID int64, status types.PurchaseListStatus) error
	countItemsForStaffDateFunc  func(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (int, error)
	createItemFunc              func(ctx context.Context, db sqlx.ExtContext, item *types.PurchaseListItem) error
	findItemByIDFunc            func(ctx context.Context, db sqlx.ExtContext, id int64) (*types.PurchaseListItem, error)
	findItemsByListIDFunc       func(ctx context.Context, db sqlx.ExtContext, listID int64) ([]types.PurchaseListItem, error)
	findItemsByStoreInListFunc  func(ctx context.Context, db sqlx.ExtContext, listID, storeID int64) ([]types.PurchaseListItem, error)
	updateItemStatusFunc        func(ctx context.Context, db sqlx.ExtContext, itemID int64, status types.PurchaseListItemStatus) error
	createFailureFunc           func(ctx context.Context, db sqlx.ExtContext, f *types.PurchaseFailure) error
	findAlternativeSuggestionsFunc func(ctx context.Context, db sqlx.ExtContext, purchaseListItemID int64) ([]types.Store, error)

	Lists     map[int64]*types.PurchaseList
	Items     map[int64]*types.PurchaseListItem
	Failures  []types.PurchaseFailure
	nextListID int64
	nextItemID int64
}

func NewMockPurchaseRepository() *MockPurchaseRepository {
	return &MockPurchaseRepository{
		Lists: map[int64]*types.PurchaseList{},
		Items: map[int64]*types.PurchaseListItem{},
	}
}

func (m *MockPurchaseRepository) FindOrCreateList(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (*types.PurchaseList, error) {
	if m.findOrCreateListFunc != nil {
		return m.findOrCreateListFunc(ctx, db, staffID, date)
	}
	for _, l := range m.Lists {
		if l.StaffID == staffID && l.TargetDate.Equal(date) {
			return l, nil
		}
	}
	m.nextListID++
	l := &types.PurchaseList{ID: m.nextListID, StaffID: staffID, TargetDate: date, Status: types.PurchaseListStatusDraft}
	m.Lists[l.ID] = l
	return l, nil
}

func (m *MockPurchaseRepository) FindListsForDate(ctx context.Context, db sqlx.ExtContext, date time.Time) ([]types.PurchaseList, error) {
	if m.findListsForDateFunc != nil {
		return m.findListsForDateFunc(ctx, db, date)
	}
	var out []types.PurchaseList
	for _, l := range m.Lists {
		if l.TargetDate.Equal(date) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *MockPurchaseRepository) FindListByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.PurchaseList, error) {
	if m.findListByIDFunc != nil {
		return m.findListByIDFunc(ctx, db, id)
	}
	return m.Lists[id], nil
}

func (m *MockPurchaseRepository) FindListByStaffAndDate(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (*types.PurchaseList, error) {
	if m.findListByStaffAndDateFunc != nil {
		return m.findListByStaffAndDateFunc(ctx, db, staffID, date)
	}
	for _, l := range m.Lists {
		if l.StaffID == staffID && l.TargetDate.Equal(date) {
			return l, nil
		}
	}
	return nil, nil
}

func (m *MockPurchaseRepository) UpdateListCounters(ctx context.Context, db sqlx.ExtContext, listID int64, totalItems, totalStores int) error {
	if m.updateListCountersFunc != nil {
		return m.updateListCountersFunc(ctx, db, listID, totalItems, totalStores)
	}
	if l, ok := m.Lists[listID]; ok {
		l.TotalItems = totalItems
		l.TotalStores = totalStores
	}
	return nil
}

func (m *MockPurchaseRepository) UpdateListStatus(ctx context.Context, db sqlx.ExtContext, listID int64, status types.PurchaseListStatus) error {
	if m.updateListStatusFunc != nil {
		return m.updateListStatusFunc(ctx, db, listID, status)
	}
	if l, ok := m.Lists[listID]; ok {
		l.Status = status
	}
	return nil
}

func (m *MockPurchaseRepository) CountItemsForStaffDate(ctx context.Context, db sqlx.ExtContext, staffID int64, date time.Time) (int, error) {
	if m.countItemsForStaffDateFunc != nil {
		return m.countItemsForStaffDateFunc(ctx, db, staffID, date)
	}
	count := 0
	for _, l := range m.Lists {
		if l.StaffID != staffID || !l.TargetDate.Equal(date) {
			continue
		}
		for _, it := range m.Items {
			if it.PurchaseListID == l.ID {
				count++
			}
		}
	}
	return count, nil
}

func (m *MockPurchaseRepository) CreateItem(ctx context.Context, db sqlx.ExtContext, item *types.PurchaseListItem) error {
	if m.createItemFunc != nil {
		return m.createItemFunc(ctx, db, item)
	}
	m.nextItemID++
	item.ID = m.nextItemID
	m.Items[item.ID] = item
	return nil
}

func (m *MockPurchaseRepository) FindItemByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.PurchaseListItem, error) {
	if m.findItemByIDFunc != nil {
		return m.findItemByIDFunc(ctx, db, id)
	}
	return m.Items[id], nil
}

func (m *MockPurchaseRepository) FindItemsByListID(ctx context.Context, db sqlx.ExtContext, listID int64) ([]types.PurchaseListItem, error) {
	if m.findItemsByListIDFunc != nil {
		return m.findItemsByListIDFunc(ctx, db, listID)
	}
	var out []types.PurchaseListItem
	for _, it := range m.Items {
		if it.PurchaseListID == listID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *MockPurchaseRepository) FindItemsByStoreInList(ctx context.Context, db sqlx.ExtContext, listID, storeID int64) ([]types.PurchaseListItem, error) {
	if m.findItemsByStoreInListFunc != nil {
		return m.findItemsByStoreInListFunc(ctx, db, listID, storeID)
	}
	var out []types.PurchaseListItem
	for _, it := range m.Items {
		if it.PurchaseListID == listID && it.StoreID == storeID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *MockPurchaseRepository) UpdateItemStatus(ctx context.Context, db sqlx.ExtContext, itemID int64, status types.PurchaseListItemStatus) error {
	if m.updateItemStatusFunc != nil {
		return m.updateItemStatusFunc(ctx, db, itemID, status)
	}
	if it, ok := m.Items[itemID]; ok {
		it.Status = status
	}
	return nil
}

func (m *MockPurchaseRepository) CreateFailure(ctx context.Context, db sqlx.ExtContext, f *types.PurchaseFailure) error {
	if m.createFailureFunc != nil {
		return m.createFailureFunc(ctx, db, f)
	}
	m.Failures = append(m.Failures, *f)
	return nil
}

func (m *MockPurchaseRepository) FindAlternativeSuggestions(ctx context.Context, db sqlx.ExtContext, purchaseListItemID int64) ([]types.Store, error) {
	if m.findAlternativeSuggestionsFunc != nil {
		return m.findAlternativeSuggestionsFunc(ctx, db, purchaseListItemID)
	}
	return nil, nil
}

func (m *MockPurchaseRepository) WithFindItemsByListIDFunc(f func(ctx context.Context, db sqlx.ExtContext, listID int64) ([]types.PurchaseListItem, error)) *MockPurchaseRepository {
	m.findItemsByListIDFunc = f
	return m
}

func (m *MockPurchaseRepository) WithFindItemsByStoreInListFunc(f func(ctx context.Context, db sqlx.ExtContext, listID, storeID int64) ([]types.PurchaseListItem, error)) *MockPurchaseRepository {
	m.findItemsByStoreInListFunc = f
	return m
}
