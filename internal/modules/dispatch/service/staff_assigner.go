package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/repository"
	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/pkg/apperrors"
	"buyerdispatch/pkg/geo"
	"buyerdispatch/pkg/workflow"
)

// cityCenterFallback is used as an item's centroid when none of its
// allocated stores carry coordinates. Tokyo Station; arbitrary but stable.
var cityCenterFallback = geo.Point{Lat: 35.681236, Lng: 139.767125}

// AssignSummary reports the outcome of a single assignDay invocation.
type AssignSummary struct {
	AssignedCount int
	AssignedTasks int
	StaffCount    int
}

// StaffAssigner packs the day's item allocations into per-buyer
// PurchaseLists under capacity, using incremental-centroid geographic
// affinity to keep each buyer's stops spatially clustered.
type StaffAssigner struct {
	staff         repository.StaffRepository
	orders        repository.OrderRepository
	purchases     repository.PurchaseRepository
	stores        repository.StoreRepository
	selector      *StoreSelector
	stateMachines *workflow.StateMachineFactory
}

func NewStaffAssigner(staff repository.StaffRepository, orders repository.OrderRepository, purchases repository.PurchaseRepository, stores repository.StoreRepository, selector *StoreSelector, stateMachines *workflow.StateMachineFactory) *StaffAssigner {
	return &StaffAssigner{staff: staff, orders: orders, purchases: purchases, stores: stores, selector: selector, stateMachines: stateMachines}
}

func (sa *StaffAssigner) checkTransition(workflowID, from, to string) error {
	if !sa.stateMachines.CanTransition(workflowID, from, to) {
		return apperrors.New(apperrors.CodeConflict, fmt.Sprintf("%s: %s -> %s is not a legal transition", workflowID, from, to))
	}
	return nil
}

type buyerState struct {
	staff         types.Staff
	list          *types.PurchaseList
	load          int
	capacity      int
	start         geo.Point
	centroid      geo.Centroid
	visitedStores map[int64]bool
	sequence      int
	touchedStores map[int64]bool
}

// AssignDay implements §4.E. It reads the day's pending non-bundle items,
// runs the §4.D allocation over all of them in one pass, then greedily
// places each item's allocations into the buyer whose running centroid is
// closest, respecting capacity.
func (sa *StaffAssigner) AssignDay(ctx context.Context, db sqlx.ExtContext, date time.Time, rule types.BusinessRule) (*AssignSummary, error) {
	buyers, err := sa.staff.FindActiveBuyers(ctx, db)
	if err != nil {
		return nil, err
	}
	items, err := sa.orders.FindPendingItemsForDate(ctx, db, date)
	if err != nil {
		return nil, err
	}

	summary := &AssignSummary{StaffCount: len(buyers)}
	if len(buyers) == 0 || len(items) == 0 {
		return summary, nil
	}

	allocations, err := sa.selector.Allocate(ctx, db, items, nil)
	if err != nil {
		return nil, err
	}

	storeIDSet := map[int64]bool{}
	for _, alloc := range allocations {
		for _, a := range alloc.Allocations {
			storeIDSet[a.StoreID] = true
		}
	}
	storeIDs := make([]int64, 0, len(storeIDSet))
	for id := range storeIDSet {
		storeIDs = append(storeIDs, id)
	}
	stores, err := sa.stores.FindByIDs(ctx, db, storeIDs)
	if err != nil {
		return nil, err
	}

	states := make([]*buyerState, 0, len(buyers))
	for _, st := range buyers {
		list, err := sa.purchases.FindOrCreateList(ctx, db, st.ID, date)
		if err != nil {
			return nil, err
		}
		load, err := sa.purchases.CountItemsForStaffDate(ctx, db, st.ID, date)
		if err != nil {
			return nil, err
		}
		bs := &buyerState{
			staff:         st,
			list:          list,
			load:          load,
			capacity:      st.EffectiveCapacity(rule.MaxOrdersPerStaff),
			visitedStores: map[int64]bool{},
			touchedStores: map[int64]bool{},
		}
		bs.start = cityCenterFallback
		if st.StartLatitude != nil && st.StartLongitude != nil {
			bs.start = geo.Point{Lat: *st.StartLatitude, Lng: *st.StartLongitude}
		}
		states = append(states, bs)
	}

	sortedItemIDs := make([]int64, 0, len(items))
	for _, it := range items {
		sortedItemIDs = append(sortedItemIDs, it.ID)
	}
	sort.Slice(sortedItemIDs, func(i, j int) bool { return sortedItemIDs[i] < sortedItemIDs[j] })

	itemsByID := make(map[int64]types.OrderItem, len(items))
	for _, it := range items {
		itemsByID[it.ID] = it
	}

	touchedOrders := map[int64]bool{}

	for _, itemID := range sortedItemIDs {
		alloc := allocations[itemID]
		if alloc.NoMapping || len(alloc.Allocations) == 0 {
			continue
		}
		item := itemsByID[itemID]

		itemCentroid := itemCentroidOf(alloc, stores)

		var best *buyerState
		bestScore := 0.0
		for _, bs := range states {
			projected := bs.load + len(alloc.Allocations)
			if projected > bs.capacity {
				continue
			}
			score := geo.Euclidean(bs.centroid.Mean(bs.start), itemCentroid)
			if buyerVisitsAny(bs, alloc) {
				score *= 0.5
			}
			if best == nil || score < bestScore {
				best = bs
				bestScore = score
			}
		}
		if best == nil {
			continue
		}

		for _, draw := range alloc.Allocations {
			best.sequence++
			pli := &types.PurchaseListItem{
				PurchaseListID:     best.list.ID,
				OrderItemID:        item.ID,
				StoreID:            draw.StoreID,
				QuantityToPurchase: draw.Qty,
				SequenceOrder:      best.sequence,
				Status:             types.PurchaseListItemStatusPending,
			}
			if err := sa.purchases.CreateItem(ctx, db, pli); err != nil {
				return nil, err
			}
			if st, ok := stores[draw.StoreID]; ok && st.HasCoordinates() {
				best.centroid.Add(geo.Point{Lat: *st.Latitude, Lng: *st.Longitude})
			}
			best.visitedStores[draw.StoreID] = true
			best.touchedStores[draw.StoreID] = true
		}
		best.load += len(alloc.Allocations)

		if err := sa.checkTransition("order_item", string(item.Status), string(types.OrderItemStatusAssigned)); err != nil {
			return nil, err
		}
		if err := sa.orders.UpdateItemStatus(ctx, db, item.ID, types.OrderItemStatusAssigned); err != nil {
			return nil, err
		}
		touchedOrders[item.OrderID] = true
		summary.AssignedCount++
		summary.AssignedTasks += len(alloc.Allocations)
	}

	for orderID := range touchedOrders {
		siblings, err := sa.orders.FindSiblingItems(ctx, db, orderID)
		if err != nil {
			return nil, err
		}
		anyPending := false
		for _, s := range siblings {
			if s.Status == types.OrderItemStatusPending {
				anyPending = true
				break
			}
		}
		if !anyPending {
			order, err := sa.orders.FindByID(ctx, db, orderID)
			if err != nil {
				return nil, err
			}
			if err := sa.checkTransition("order", string(order.Status), string(types.OrderStatusAssigned)); err != nil {
				return nil, err
			}
			if err := sa.orders.UpdateStatus(ctx, db, orderID, types.OrderStatusAssigned); err != nil {
				return nil, err
			}
		}
	}

	for _, bs := range states {
		if len(bs.touchedStores) == 0 {
			continue
		}
		if err := sa.purchases.UpdateListCounters(ctx, db, bs.list.ID, bs.load, len(bs.visitedStores)); err != nil {
			return nil, err
		}
		if bs.staff.Status == types.StaffStatusOffDuty {
			if err := sa.checkTransition("staff", string(types.StaffStatusOffDuty), string(types.StaffStatusIdle)); err != nil {
				return nil, err
			}
			if err := sa.staff.UpdateStatus(ctx, db, bs.staff.ID, types.StaffStatusIdle); err != nil {
				return nil, err
			}
		}
	}

	return summary, nil
}

func itemCentroidOf(alloc ItemAllocation, stores map[int64]types.Store) geo.Point {
	var c geo.Centroid
	for _, a := range alloc.Allocations {
		if st, ok := stores[a.StoreID]; ok && st.HasCoordinates() {
			c.Add(geo.Point{Lat: *st.Latitude, Lng: *st.Longitude})
		}
	}
	return c.Mean(cityCenterFallback)
}

func buyerVisitsAny(bs *buyerState, alloc ItemAllocation) bool {
	for _, a := range alloc.Allocations {
		if bs.visitedStores[a.StoreID] {
			return true
		}
	}
	return false
}
