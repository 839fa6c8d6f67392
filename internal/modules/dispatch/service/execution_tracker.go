package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/repository"
	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/pkg/apperrors"
	"buyerdispatch/pkg/events"
	"buyerdispatch/pkg/workflow"
)

// ExecutionTracker receives execution events (stop completion, purchase
// failure) and propagates them to item, order and route status.
type ExecutionTracker struct {
	routes        repository.RouteRepository
	purchases     repository.PurchaseRepository
	orders        repository.OrderRepository
	staff         repository.StaffRepository
	stateMachines *workflow.StateMachineFactory
	eventBus      *events.Bus
}

func NewExecutionTracker(routes repository.RouteRepository, purchases repository.PurchaseRepository, orders repository.OrderRepository, staff repository.StaffRepository, stateMachines *workflow.StateMachineFactory) *ExecutionTracker {
	return &ExecutionTracker{routes: routes, purchases: purchases, orders: orders, staff: staff, stateMachines: stateMachines}
}

// NewExecutionTrackerWithEventBus additionally publishes route and failure
// lifecycle events as they're recorded.
func NewExecutionTrackerWithEventBus(routes repository.RouteRepository, purchases repository.PurchaseRepository, orders repository.OrderRepository, staff repository.StaffRepository, stateMachines *workflow.StateMachineFactory, bus *events.Bus) *ExecutionTracker {
	t := NewExecutionTracker(routes, purchases, orders, staff, stateMachines)
	t.eventBus = bus
	return t
}

// checkTransition is the shared gate in front of every status write this
// tracker performs: it rejects a move the matching config/workflows/*.yaml
// file doesn't list, before any repository call.
func (t *ExecutionTracker) checkTransition(workflowID, from, to string) error {
	if !t.stateMachines.CanTransition(workflowID, from, to) {
		return apperrors.New(apperrors.CodeConflict, fmt.Sprintf("%s: %s -> %s is not a legal transition", workflowID, from, to))
	}
	return nil
}

func (t *ExecutionTracker) publish(ctx context.Context, eventType string, payload interface{}) {
	if t.eventBus == nil {
		return
	}
	_ = t.eventBus.Publish(ctx, eventType, payload)
}

// CompleteStop implements §4.G. actor must be authorized per the
// capability table: the route's own buyer, or a supervisor/admin.
func (t *ExecutionTracker) CompleteStop(ctx context.Context, db sqlx.ExtContext, actor types.Staff, routeID, stopID int64, newStatus types.RouteStopStatus) error {
	route, err := t.routes.FindByID(ctx, db, routeID)
	if err != nil {
		return err
	}
	if err := AuthorizeStopCompletion(actor, route.StaffID); err != nil {
		return err
	}

	stop, err := t.routes.FindStopByID(ctx, db, stopID)
	if err != nil {
		return err
	}
	if stop.RouteID != routeID {
		return apperrors.New(apperrors.CodeNotFound, "stop does not belong to route")
	}

	wasCompleted := stop.Status == types.RouteStopStatusCompleted
	if err := t.checkTransition("route_stop", string(stop.Status), string(newStatus)); err != nil {
		return err
	}
	stop.Status = newStatus
	if newStatus == types.RouteStopStatusCompleted && stop.ActualArrival == nil {
		now := time.Now().UTC()
		stop.ActualArrival = &now
		stop.ActualDeparture = &now
	}
	if err := t.routes.UpdateStop(ctx, db, stop); err != nil {
		return err
	}

	if route.Status == types.RouteStatusNotStarted {
		if err := t.checkTransition("route", string(types.RouteStatusNotStarted), string(types.RouteStatusInProgress)); err != nil {
			return err
		}
		if err := t.routes.UpdateStatus(ctx, db, routeID, types.RouteStatusInProgress, timePtr(time.Now().UTC()), nil); err != nil {
			return err
		}
		if err := t.departBuyer(ctx, db, route.StaffID); err != nil {
			return err
		}
	}

	if newStatus == types.RouteStopStatusCompleted && !wasCompleted {
		if err := t.cascadeStopCompletion(ctx, db, route, stop); err != nil {
			return err
		}
	}
	t.publish(ctx, "route_stop.status_changed", map[string]interface{}{
		"route_id": routeID,
		"stop_id":  stopID,
		"status":   newStatus,
		"actor_id": actor.ID,
	})

	return t.maybeCompleteRoute(ctx, db, routeID)
}

func (t *ExecutionTracker) cascadeStopCompletion(ctx context.Context, db sqlx.ExtContext, route *types.Route, stop *types.RouteStop) error {
	items, err := t.purchases.FindItemsByStoreInList(ctx, db, route.PurchaseListID, stop.StoreID)
	if err != nil {
		return err
	}

	touchedOrders := map[int64]bool{}
	for _, pli := range items {
		if pli.Status == types.PurchaseListItemStatusPurchased {
			continue
		}
		if err := t.checkTransition("purchase_list_item", string(pli.Status), string(types.PurchaseListItemStatusPurchased)); err != nil {
			return err
		}
		if err := t.purchases.UpdateItemStatus(ctx, db, pli.ID, types.PurchaseListItemStatusPurchased); err != nil {
			return err
		}
		item, err := t.orders.FindItemByID(ctx, db, pli.OrderItemID)
		if err != nil {
			return err
		}
		if item.Status != types.OrderItemStatusPurchased {
			if err := t.checkTransition("order_item", string(item.Status), string(types.OrderItemStatusPurchased)); err != nil {
				return err
			}
			if err := t.orders.UpdateItemStatus(ctx, db, item.ID, types.OrderItemStatusPurchased); err != nil {
				return err
			}
		}
		touchedOrders[item.OrderID] = true
	}

	for orderID := range touchedOrders {
		if err := t.recomputeOrderStatus(ctx, db, orderID); err != nil {
			return err
		}
	}
	return nil
}

func (t *ExecutionTracker) recomputeOrderStatus(ctx context.Context, db sqlx.ExtContext, orderID int64) error {
	siblings, err := t.orders.FindSiblingItems(ctx, db, orderID)
	if err != nil {
		return err
	}
	allPurchased := true
	anyPurchased := false
	for _, s := range siblings {
		if s.Status == types.OrderItemStatusPurchased {
			anyPurchased = true
		} else {
			allPurchased = false
		}
	}
	if !allPurchased && !anyPurchased {
		return nil
	}

	order, err := t.orders.FindByID(ctx, db, orderID)
	if err != nil {
		return err
	}
	target := types.OrderStatusPartiallyCompleted
	if allPurchased {
		target = types.OrderStatusCompleted
	}
	if order.Status == target {
		return nil
	}
	if err := t.checkTransition("order", string(order.Status), string(target)); err != nil {
		return err
	}
	return t.orders.UpdateStatus(ctx, db, orderID, target)
}

func (t *ExecutionTracker) maybeCompleteRoute(ctx context.Context, db sqlx.ExtContext, routeID int64) error {
	stops, err := t.routes.FindStopsByRouteID(ctx, db, routeID)
	if err != nil {
		return err
	}
	for _, s := range stops {
		if s.Status != types.RouteStopStatusCompleted && s.Status != types.RouteStopStatusSkipped {
			return nil
		}
	}
	route, err := t.routes.FindByID(ctx, db, routeID)
	if err != nil {
		return err
	}
	if err := t.checkTransition("route", string(route.Status), string(types.RouteStatusCompleted)); err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := t.routes.UpdateStatus(ctx, db, routeID, types.RouteStatusCompleted, nil, &now); err != nil {
		return err
	}
	if err := t.returnBuyerIdle(ctx, db, route.StaffID); err != nil {
		return err
	}
	t.publish(ctx, "route.completed", map[string]interface{}{"route_id": routeID, "completed_at": now})
	return nil
}

// departBuyer flips the buyer to en_route when their first stop of the day
// starts, mirroring config/workflows/staff.yaml's "depart" transition.
// It acts on the route's buyer whoever completed the stop, so a supervisor
// completing a stop on someone else's behalf also moves that buyer.
// Skipped quietly when the buyer is unknown, already en_route, or the move
// isn't one the workflow allows from their current status.
func (t *ExecutionTracker) departBuyer(ctx context.Context, db sqlx.ExtContext, staffID int64) error {
	buyer, err := t.staff.FindByID(ctx, db, staffID)
	if err != nil {
		return err
	}
	if buyer == nil || buyer.Status == types.StaffStatusEnRoute {
		return nil
	}
	if !t.stateMachines.CanTransition("staff", string(buyer.Status), string(types.StaffStatusEnRoute)) {
		return nil
	}
	return t.staff.UpdateStatus(ctx, db, staffID, types.StaffStatusEnRoute)
}

// returnBuyerIdle is departBuyer's counterpart on route completion.
func (t *ExecutionTracker) returnBuyerIdle(ctx context.Context, db sqlx.ExtContext, staffID int64) error {
	buyer, err := t.staff.FindByID(ctx, db, staffID)
	if err != nil {
		return err
	}
	if buyer == nil || buyer.Status == types.StaffStatusIdle {
		return nil
	}
	if !t.stateMachines.CanTransition("staff", string(buyer.Status), string(types.StaffStatusIdle)) {
		return nil
	}
	return t.staff.UpdateStatus(ctx, db, staffID, types.StaffStatusIdle)
}

// RecordFailure implements the out-of-band failure path: a pure
// observation that flips the PurchaseListItem and OrderItem to failed
// without triggering any automatic reallocation.
func (t *ExecutionTracker) RecordFailure(ctx context.Context, db sqlx.ExtContext, actor types.Staff, f *types.PurchaseFailure) ([]types.Store, error) {
	if !Can(actor.Role, ActionRecordFailure) {
		return nil, apperrors.New(apperrors.CodeForbidden, "staff is not authorized to record purchase failures")
	}

	f.RecordedByStaffID = &actor.ID
	if err := t.purchases.CreateFailure(ctx, db, f); err != nil {
		return nil, err
	}

	pli, err := t.purchases.FindItemByID(ctx, db, f.PurchaseListItemID)
	if err != nil {
		return nil, err
	}
	if err := t.checkTransition("purchase_list_item", string(pli.Status), string(types.PurchaseListItemStatusFailed)); err != nil {
		return nil, err
	}
	if err := t.purchases.UpdateItemStatus(ctx, db, f.PurchaseListItemID, types.PurchaseListItemStatusFailed); err != nil {
		return nil, err
	}

	item, err := t.orders.FindItemByID(ctx, db, pli.OrderItemID)
	if err != nil {
		return nil, err
	}
	if err := t.checkTransition("order_item", string(item.Status), string(types.OrderItemStatusFailed)); err != nil {
		return nil, err
	}
	if err := t.orders.UpdateItemStatus(ctx, db, pli.OrderItemID, types.OrderItemStatusFailed); err != nil {
		return nil, err
	}
	t.publish(ctx, "purchase_failure.recorded", map[string]interface{}{
		"purchase_list_item_id": f.PurchaseListItemID,
		"failure_type":          f.FailureType,
		"recorded_by_staff_id":  actor.ID,
	})

	return t.purchases.FindAlternativeSuggestions(ctx, db, f.PurchaseListItemID)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
