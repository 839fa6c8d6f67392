package dispatch

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/julienschmidt/httprouter"

	"buyerdispatch/internal/config"
	dispatchhandler "buyerdispatch/internal/modules/dispatch/handler"
	dispatchrepository "buyerdispatch/internal/modules/dispatch/repository"
	dispatchservice "buyerdispatch/internal/modules/dispatch/service"
	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/pkg/geo"
	"buyerdispatch/pkg/registry"
)

// maxCutoffHorizonDays bounds how far ahead ScheduleIncomingOrder looks up
// the holiday calendar; it comfortably covers cutoff's 30-iteration walk
// even across a run of consecutive weekends and holidays.
const maxCutoffHorizonDays = 45

// Module wires the dispatch domain's repositories, services and HTTP
// handlers into the registry.
type Module struct {
	planHandler           *dispatchhandler.PlanHandler
	routeHandler          *dispatchhandler.RouteHandler
	failureHandler        *dispatchhandler.FailureHandler
	distanceMatrixHandler *dispatchhandler.DistanceMatrixHandler

	orchestrator    *dispatchservice.PlanOrchestrator
	cutoffScheduler *dispatchservice.CutoffScheduler
	ruleRepo        dispatchrepository.BusinessRuleRepository
	db              *sqlx.DB
	logger          *slog.Logger
}

func NewModule() *Module {
	return &Module{}
}

func (m *Module) Name() string {
	return "dispatch"
}

func (m *Module) Init(ctx context.Context, deps registry.Dependencies) error {
	m.logger = deps.Logger.With("module", "dispatch")
	m.logger.Info("initializing dispatch module")

	orderRepo := dispatchrepository.NewOrderRepository()
	productRepo := dispatchrepository.NewProductRepository()
	storeRepo := dispatchrepository.NewStoreRepository()
	staffRepo := dispatchrepository.NewStaffRepository()
	purchaseRepo := dispatchrepository.NewPurchaseRepository()
	routeRepo := dispatchrepository.NewRouteRepository()
	ruleRepo := dispatchrepository.NewBusinessRuleRepository()

	gazetteer, err := config.LoadDistrictGazetteer("config/districts.yaml")
	if err != nil {
		m.logger.Warn("failed to load district gazetteer, address-based coordinate fallback disabled", "error", err)
		gazetteer = geo.NewGazetteer(nil)
	}

	storeSelector := dispatchservice.NewStoreSelector(productRepo, storeRepo)
	staffAssigner := dispatchservice.NewStaffAssigner(staffRepo, orderRepo, purchaseRepo, storeRepo, storeSelector, deps.StateMachineFactory)
	routeOptimizer := dispatchservice.NewRouteOptimizer(purchaseRepo, storeRepo, staffRepo, routeRepo, orderRepo, gazetteer, deps.StateMachineFactory)
	executionTracker := dispatchservice.NewExecutionTrackerWithEventBus(routeRepo, purchaseRepo, orderRepo, staffRepo, deps.StateMachineFactory, deps.EventBus)
	distanceMatrixBuilder := dispatchservice.NewDistanceMatrixBuilder(storeRepo)

	m.cutoffScheduler = dispatchservice.NewCutoffScheduler(orderRepo, productRepo, ruleRepo)
	m.ruleRepo = ruleRepo
	m.db = deps.DB
	m.orchestrator = dispatchservice.NewPlanOrchestrator(deps.DB, ruleRepo, staffRepo, staffAssigner, routeOptimizer)

	m.planHandler = dispatchhandler.NewPlanHandler(m.orchestrator)
	m.routeHandler = dispatchhandler.NewRouteHandler(deps.DB, executionTracker)
	m.failureHandler = dispatchhandler.NewFailureHandler(deps.DB, executionTracker)
	m.distanceMatrixHandler = dispatchhandler.NewDistanceMatrixHandler(deps.DB, distanceMatrixBuilder)

	defaults, err := config.LoadBusinessRuleDefaults("config/business_rules.yaml")
	if err != nil {
		m.logger.Warn("failed to load business rule defaults, seeding skipped", "error", err)
	} else if err := dispatchservice.SeedDefaultsIfMissing(ctx, deps.DB, ruleRepo, *defaults); err != nil {
		m.logger.Warn("failed to seed business rule defaults", "error", err)
	}

	m.logger.Info("dispatch module initialized")
	return nil
}

func (m *Module) RegisterRoutes(router interface{}) {
	r, ok := router.(*httprouter.Router)
	if !ok {
		return
	}
	m.planHandler.RegisterRoutes(r)
	m.routeHandler.RegisterRoutes(r)
	m.failureHandler.RegisterRoutes(r)
	m.distanceMatrixHandler.RegisterRoutes(r)
}

// RegisterEventHandlers has nothing to subscribe to: the dispatch module
// is the only producer and consumer of its own lifecycle events in this
// deployment. Kept for symmetry with the Module interface.
func (m *Module) RegisterEventHandlers(bus interface{}) {}

// ScheduleIncomingOrder is the boundary call for the external order-ingest
// collaborator (CSV import, per the HTTP surface's notes): it persists the
// order and its items, resolves the cutoff-schedule target_purchase_date,
// and expands any bundle items, all before the order becomes visible to
// planDay. It is not an HTTP endpoint; the ingest process calls it directly.
func (m *Module) ScheduleIncomingOrder(ctx context.Context, order *types.Order, items []*types.OrderItem) (*types.Order, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	orders := dispatchrepository.NewOrderRepository()
	if err := orders.Create(ctx, tx, order); err != nil {
		return nil, err
	}
	for _, item := range items {
		item.OrderID = order.ID
		if err := orders.CreateItem(ctx, tx, item); err != nil {
			return nil, err
		}
	}

	rule, err := m.ruleRepo.Get(ctx, tx)
	if err != nil {
		return nil, err
	}

	rangeStart := order.ArrivalTimestamp
	rangeEnd := rangeStart.AddDate(0, 0, maxCutoffHorizonDays)
	holidayRows, err := m.ruleRepo.FindHolidaysInRange(ctx, tx, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	holidays := make(map[string]types.Holiday, len(holidayRows))
	for _, h := range holidayRows {
		holidays[h.HolidayDate.Format("2006-01-02")] = h
	}

	if err := m.cutoffScheduler.ScheduleOrder(ctx, tx, order, *rule, holidays); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return order, nil
}

func (m *Module) Health() error {
	return nil
}
