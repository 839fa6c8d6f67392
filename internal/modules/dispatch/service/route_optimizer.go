package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/repository"
	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/pkg/apperrors"
	"buyerdispatch/pkg/geo"
	"buyerdispatch/pkg/workflow"
)

const (
	maxTwoOptPasses     = 50
	twoOptMinImprovement = 0.01 // km
	routeStartHour      = 10
	routeStartMinute    = 0
	reorderDetourCapKm  = 2.0
	reorderWaitThreshold = 10 * time.Minute
)

var weekdayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// RouteOptimizer orders a buyer's daily stops via Nearest-Neighbor seeded
// 2-opt, then simulates the schedule against store opening hours.
type RouteOptimizer struct {
	purchases     repository.PurchaseRepository
	stores        repository.StoreRepository
	staff         repository.StaffRepository
	routes        repository.RouteRepository
	orders        repository.OrderRepository
	gazetteer     *geo.Gazetteer
	stateMachines *workflow.StateMachineFactory
}

func NewRouteOptimizer(purchases repository.PurchaseRepository, stores repository.StoreRepository, staff repository.StaffRepository, routes repository.RouteRepository, orders repository.OrderRepository, gazetteer *geo.Gazetteer, stateMachines *workflow.StateMachineFactory) *RouteOptimizer {
	return &RouteOptimizer{purchases: purchases, stores: stores, staff: staff, routes: routes, orders: orders, gazetteer: gazetteer, stateMachines: stateMachines}
}

func (o *RouteOptimizer) checkTransition(workflowID, from, to string) error {
	if !o.stateMachines.CanTransition(workflowID, from, to) {
		return apperrors.New(apperrors.CodeConflict, fmt.Sprintf("%s: %s -> %s is not a legal transition", workflowID, from, to))
	}
	return nil
}

type stopCandidate struct {
	storeID      int64
	itemIDs      []int64
	totalQty     int
	hasCoords    bool
	point        geo.Point
}

// Optimize implements §4.F for one buyer on one date. Returns nil, nil
// when the buyer's PurchaseList has no items yet.
func (o *RouteOptimizer) Optimize(ctx context.Context, db sqlx.ExtContext, buyerID int64, date time.Time, priority string, planRunID *uuid.UUID, includeReturn bool) (*int64, error) {
	st, err := o.staff.FindByID(ctx, db, buyerID)
	if err != nil {
		return nil, err
	}
	list, err := o.purchases.FindOrCreateList(ctx, db, buyerID, date)
	if err != nil {
		return nil, err
	}
	pliItems, err := o.purchases.FindItemsByListID(ctx, db, list.ID)
	if err != nil {
		return nil, err
	}
	if len(pliItems) == 0 {
		return nil, nil
	}

	byStore := map[int64]*stopCandidate{}
	var order []int64
	for _, pli := range pliItems {
		c, ok := byStore[pli.StoreID]
		if !ok {
			c = &stopCandidate{storeID: pli.StoreID}
			byStore[pli.StoreID] = c
			order = append(order, pli.StoreID)
		}
		c.itemIDs = append(c.itemIDs, pli.OrderItemID)
		c.totalQty += pli.QuantityToPurchase
	}

	storeIDs := append([]int64{}, order...)
	stores, err := o.stores.FindByIDs(ctx, db, storeIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range storeIDs {
		s, ok := stores[id]
		if !ok {
			continue
		}
		if s.HasCoordinates() {
			byStore[id].hasCoords = true
			byStore[id].point = geo.Point{Lat: *s.Latitude, Lng: *s.Longitude}
			continue
		}
		if s.Address == "" || o.gazetteer == nil {
			continue
		}
		if center, _, ok := o.gazetteer.ResolveApprox(s.Address); ok {
			byStore[id].hasCoords = true
			byStore[id].point = center
		}
	}

	distances, err := o.stores.FindDistancePairs(ctx, db, storeIDs)
	if err != nil {
		return nil, err
	}
	distFn := func(from, to int64) float64 {
		if e, ok := distances[[2]int64{from, to}]; ok {
			return e.DistanceKm
		}
		if e, ok := distances[[2]int64{to, from}]; ok {
			return e.DistanceKm
		}
		a, aok := byStore[from]
		b, bok := byStore[to]
		if aok && bok && a.hasCoords && b.hasCoords {
			return geo.HaversineKm(a.point, b.point)
		}
		return math.Inf(1)
	}

	start := cityCenterFallback
	if st.StartLatitude != nil && st.StartLongitude != nil {
		start = geo.Point{Lat: *st.StartLatitude, Lng: *st.StartLongitude}
	}

	stops := make([]*stopCandidate, 0, len(order))
	for _, id := range order {
		stops = append(stops, byStore[id])
	}

	tour := seedNearestNeighbor(stops, start, distFn)
	tour = twoOptImprove(tour, distFn)
	if priority == types.OptimizationPrioritySpeed {
		tour = reorderForOpeningHours(tour, stores, distFn)
	}

	totalDistanceKm, totalMinutes, arrivals := simulateSchedule(tour, start, distFn, stores, date)

	route := &types.Route{
		PurchaseListID:       list.ID,
		StaffID:              buyerID,
		PlanRunID:            planRunID,
		TargetDate:           date,
		Status:               types.RouteStatusNotStarted,
		TotalDistanceKm:       roundPtr(totalDistanceKm, 2),
		EstimatedTimeMinutes:  intPtr(int(math.Round(totalMinutes))),
		StartLatitude:        start.Lat,
		StartLongitude:       start.Lng,
		IncludeReturn:        includeReturn,
	}
	if err := o.routes.Upsert(ctx, db, route); err != nil {
		return nil, err
	}
	if err := o.routes.DeleteStops(ctx, db, route.ID); err != nil {
		return nil, err
	}

	for i, c := range tour {
		arrival := arrivals[i]
		stop := &types.RouteStop{
			RouteID:          route.ID,
			StoreID:          c.storeID,
			StopSequence:     i + 1,
			EstimatedArrival: &arrival,
			ItemsToPurchase:  c.itemIDs,
			ItemsCount:       c.totalQty,
			Status:           types.RouteStopStatusPending,
		}
		if err := o.routes.CreateStop(ctx, db, stop); err != nil {
			return nil, err
		}
	}

	if list.Status == types.PurchaseListStatusDraft {
		if err := o.checkTransition("purchase_list", string(list.Status), string(types.PurchaseListStatusAssigned)); err != nil {
			return nil, err
		}
		if err := o.purchases.UpdateListStatus(ctx, db, list.ID, types.PurchaseListStatusAssigned); err != nil {
			return nil, err
		}
	}

	touchedOrders := map[int64]bool{}
	for _, pli := range pliItems {
		item, err := o.orders.FindItemByID(ctx, db, pli.OrderItemID)
		if err != nil {
			return nil, err
		}
		touchedOrders[item.OrderID] = true
	}
	for orderID := range touchedOrders {
		ord, err := o.orders.FindByID(ctx, db, orderID)
		if err != nil {
			return nil, err
		}
		if ord.Status == types.OrderStatusAssigned {
			if err := o.checkTransition("order", string(ord.Status), string(types.OrderStatusInProgress)); err != nil {
				return nil, err
			}
			if err := o.orders.UpdateStatus(ctx, db, orderID, types.OrderStatusInProgress); err != nil {
				return nil, err
			}
		}
	}

	return &route.ID, nil
}

// seedNearestNeighbor greedily picks the closest unvisited coordinated
// store at each step; stores without coordinates are appended at the end
// in their original relative order.
func seedNearestNeighbor(stops []*stopCandidate, start geo.Point, distFn func(int64, int64) float64) []*stopCandidate {
	var withCoords, withoutCoords []*stopCandidate
	for _, s := range stops {
		if s.hasCoords {
			withCoords = append(withCoords, s)
		} else {
			withoutCoords = append(withoutCoords, s)
		}
	}

	tour := make([]*stopCandidate, 0, len(withCoords))
	visited := make(map[int64]bool, len(withCoords))
	currentPoint := start

	for len(tour) < len(withCoords) {
		var best *stopCandidate
		bestDist := math.Inf(1)
		for _, s := range withCoords {
			if visited[s.storeID] {
				continue
			}
			d := geo.HaversineKm(currentPoint, s.point)
			if d < bestDist {
				bestDist = d
				best = s
			}
		}
		if best == nil {
			break
		}
		visited[best.storeID] = true
		tour = append(tour, best)
		currentPoint = best.point
	}

	return append(tour, withoutCoords...)
}

// twoOptImprove repeatedly reverses segments that shorten the open-path
// tour (no return to start), capped at maxTwoOptPasses or until no
// improving move remains. Stops without coordinates sit inert at the
// tail and are excluded from the edge set being optimized.
func twoOptImprove(tour []*stopCandidate, distFn func(int64, int64) float64) []*stopCandidate {
	n := 0
	for _, s := range tour {
		if s.hasCoords {
			n++
		}
	}
	if n < 4 {
		return tour
	}
	edge := func(a, b *stopCandidate) float64 {
		return distFn(a.storeID, b.storeID)
	}

	for pass := 0; pass < maxTwoOptPasses; pass++ {
		improved := false
		for i := 0; i < n-2; i++ {
			for j := i + 2; j < n-1; j++ {
				a, b := tour[i], tour[i+1]
				c, d := tour[j], tour[j+1]
				before := edge(a, b) + edge(c, d)
				after := edge(a, c) + edge(b, d)
				if before-after > twoOptMinImprovement {
					reverse(tour, i+1, j)
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return tour
}

func reverse(tour []*stopCandidate, i, j int) {
	for i < j {
		tour[i], tour[j] = tour[j], tour[i]
		i++
		j--
	}
}

// reorderForOpeningHours walks the tour simulating a rough arrival clock
// and swaps adjacent stops when the later stop is already open and the
// swap's detour penalty is acceptable, trading a bounded extra distance
// for reduced idle wait at closed stores.
func reorderForOpeningHours(tour []*stopCandidate, stores map[int64]types.Store, distFn func(int64, int64) float64) []*stopCandidate {
	if len(tour) < 2 {
		return tour
	}
	clock := time.Date(0, 1, 1, routeStartHour, routeStartMinute, 0, 0, time.UTC)
	weekday := weekdayNames[clock.Weekday()]

	for i := 0; i < len(tour)-1; i++ {
		cur := tour[i]
		if cur.hasCoords {
			clock = clock.Add(time.Duration(geo.TravelMinutes(distFn(prevStoreID(tour, i), cur.storeID))) * time.Minute)
		}
		openAt, isOpen := openingTime(stores[cur.storeID], weekday, clock)
		if isOpen || openAt == nil {
			clock = clock.Add(5*time.Minute + time.Duration(2*cur.totalQty)*time.Minute)
			continue
		}
		wait := openAt.Sub(clock)
		if wait <= reorderWaitThreshold {
			clock = *openAt
			clock = clock.Add(5*time.Minute + time.Duration(2*cur.totalQty)*time.Minute)
			continue
		}

		next := tour[i+1]
		_, nextIsOpen := openingTime(stores[next.storeID], weekday, clock)
		detour := math.Abs(distFn(prevStoreID(tour, i), next.storeID) - distFn(prevStoreID(tour, i), cur.storeID))
		if nextIsOpen && detour < reorderDetourCapKm {
			tour[i], tour[i+1] = tour[i+1], tour[i]
		}
		clock = clock.Add(5*time.Minute + time.Duration(2*cur.totalQty)*time.Minute)
	}
	return tour
}

func prevStoreID(tour []*stopCandidate, i int) int64 {
	if i == 0 {
		return tour[0].storeID
	}
	return tour[i-1].storeID
}

// simulateSchedule walks the ordered tour from start, producing per-stop
// estimated arrivals and the route totals per §4.F's schedule simulation.
func simulateSchedule(tour []*stopCandidate, start geo.Point, distFn func(int64, int64) float64, stores map[int64]types.Store, date time.Time) (float64, float64, []time.Time) {
	clock := time.Date(date.Year(), date.Month(), date.Day(), routeStartHour, routeStartMinute, 0, 0, date.Location())
	weekday := weekdayNames[date.Weekday()]

	var totalDistance, totalMinutes float64
	currentPoint := start
	var currentID int64
	haveID := false
	arrivals := make([]time.Time, len(tour))

	for i, c := range tour {
		var distKm float64
		if haveID && c.hasCoords {
			distKm = distFn(currentID, c.storeID)
			if math.IsInf(distKm, 1) {
				distKm = geo.HaversineKm(currentPoint, c.point)
			}
		} else if c.hasCoords {
			distKm = geo.HaversineKm(currentPoint, c.point)
		}
		travelMin := math.Round(geo.TravelMinutes(distKm))
		clock = clock.Add(time.Duration(travelMin) * time.Minute)
		totalDistance += distKm
		totalMinutes += travelMin

		if openAt, isOpen := openingTime(stores[c.storeID], weekday, clock); !isOpen && openAt != nil {
			wait := openAt.Sub(clock)
			clock = *openAt
			totalMinutes += wait.Minutes()
		}

		arrivals[i] = clock

		shoppingMin := 5 + 2*c.totalQty
		clock = clock.Add(time.Duration(shoppingMin) * time.Minute)
		totalMinutes += float64(shoppingMin)

		if c.hasCoords {
			currentPoint = c.point
			currentID = c.storeID
			haveID = true
		}
	}

	return totalDistance, totalMinutes, arrivals
}

// openingTime resolves whether the store is open at clock, and if not,
// the next opening time that day. A weekday with no opening_hours entry
// means the store is closed all day; the simulation still visits it
// (the route was already committed to the stop) but has no opening
// time to wait for.
func openingTime(store types.Store, weekday string, clock time.Time) (*time.Time, bool) {
	hours, ok := store.OpeningHours[weekday]
	if !ok || hours.Open == "" {
		return nil, false
	}
	openAt := parseClockOnDate(hours.Open, clock)
	closeAt := parseClockOnDate(hours.Close, clock)
	if openAt == nil {
		return nil, true
	}
	if closeAt != nil && clock.After(*closeAt) {
		return nil, false
	}
	if clock.Before(*openAt) {
		return openAt, false
	}
	return nil, true
}

func parseClockOnDate(hhmm string, ref time.Time) *time.Time {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return nil
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil
	}
	t := time.Date(ref.Year(), ref.Month(), ref.Day(), h, m, 0, 0, ref.Location())
	return &t
}

func roundPtr(v float64, decimals int) *float64 {
	mult := math.Pow(10, float64(decimals))
	r := math.Round(v*mult) / mult
	return &r
}

func intPtr(v int) *int {
	return &v
}
