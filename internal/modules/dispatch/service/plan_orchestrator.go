package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/config"
	"buyerdispatch/internal/modules/dispatch/repository"
	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/pkg/events"
)

// PlanResult reports the outcome of a full planDay run.
type PlanResult struct {
	AssignSummary AssignSummary
	RouteIDs      []int64
	Dispatched    bool
}

// PlanOrchestrator drives the cutoff → allocate → assign → optimize
// pipeline for a target date inside a single transactional scope.
type PlanOrchestrator struct {
	db        *sqlx.DB
	rules     repository.BusinessRuleRepository
	staff     repository.StaffRepository
	assigner  *StaffAssigner
	optimizer *RouteOptimizer
	eventBus  *events.Bus
}

func NewPlanOrchestrator(db *sqlx.DB, rules repository.BusinessRuleRepository, staff repository.StaffRepository, assigner *StaffAssigner, optimizer *RouteOptimizer) *PlanOrchestrator {
	return &PlanOrchestrator{db: db, rules: rules, staff: staff, assigner: assigner, optimizer: optimizer}
}

// NewPlanOrchestratorWithEventBus additionally publishes a "plan.started"
// event when PlanDay begins, before its transaction opens. No other plan or
// route events are published.
func NewPlanOrchestratorWithEventBus(db *sqlx.DB, rules repository.BusinessRuleRepository, staff repository.StaffRepository, assigner *StaffAssigner, optimizer *RouteOptimizer, bus *events.Bus) *PlanOrchestrator {
	o := NewPlanOrchestrator(db, rules, staff, assigner, optimizer)
	o.eventBus = bus
	return o
}

func (o *PlanOrchestrator) publish(ctx context.Context, eventType string, payload interface{}) {
	if o.eventBus == nil {
		return
	}
	_ = o.eventBus.Publish(ctx, eventType, payload)
}

// AssignOnly runs §4.E (with its implicit §4.D allocation) inside one
// transaction and commits the resulting PurchaseLists.
func (o *PlanOrchestrator) AssignOnly(ctx context.Context, date time.Time) (*AssignSummary, error) {
	tx, err := o.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("plan orchestrator: begin tx: %w", err)
	}
	defer tx.Rollback()

	rule, err := o.rules.Get(ctx, tx)
	if err != nil {
		return nil, err
	}

	summary, err := o.assigner.AssignDay(ctx, tx, date, *rule)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("plan orchestrator: commit: %w", err)
	}
	return summary, nil
}

// RouteOnly runs §4.F across every active buyer with a non-empty
// PurchaseList for the date.
func (o *PlanOrchestrator) RouteOnly(ctx context.Context, date time.Time) ([]int64, error) {
	tx, err := o.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("plan orchestrator: begin tx: %w", err)
	}
	defer tx.Rollback()

	rule, err := o.rules.Get(ctx, tx)
	if err != nil {
		return nil, err
	}
	buyers, err := o.staff.FindActiveBuyers(ctx, tx)
	if err != nil {
		return nil, err
	}

	planRunID := uuid.New()
	var routeIDs []int64
	for _, buyer := range buyers {
		routeID, err := o.optimizer.Optimize(ctx, tx, buyer.ID, date, rule.OptimizationPriority, &planRunID, rule.IncludeReturn)
		if err != nil {
			return nil, err
		}
		if routeID != nil {
			routeIDs = append(routeIDs, *routeID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("plan orchestrator: commit: %w", err)
	}
	return routeIDs, nil
}

// PlanDay implements §4.I end-to-end: assign, then route every buyer with
// a non-empty list, all inside one transaction so a full re-plan commits
// atomically or not at all. Running it twice for the same date converges
// to the same assignment because §4.D/§4.E tie-break deterministically by
// entity id and PurchaseLists are reused rather than recreated.
func (o *PlanOrchestrator) PlanDay(ctx context.Context, date time.Time, autoDispatch bool) (*PlanResult, error) {
	o.publish(ctx, "plan.started", map[string]interface{}{"date": date.Format("2006-01-02")})

	tx, err := o.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("plan orchestrator: begin tx: %w", err)
	}
	defer tx.Rollback()

	rule, err := o.rules.Get(ctx, tx)
	if err != nil {
		return nil, err
	}

	summary, err := o.assigner.AssignDay(ctx, tx, date, *rule)
	if err != nil {
		return nil, err
	}

	buyers, err := o.staff.FindActiveBuyers(ctx, tx)
	if err != nil {
		return nil, err
	}

	planRunID := uuid.New()
	var routeIDs []int64
	for _, buyer := range buyers {
		routeID, err := o.optimizer.Optimize(ctx, tx, buyer.ID, date, rule.OptimizationPriority, &planRunID, rule.IncludeReturn)
		if err != nil {
			return nil, err
		}
		if routeID != nil {
			routeIDs = append(routeIDs, *routeID)
		}
	}

	dispatched := false
	if autoDispatch && rule.AutoAssign {
		for _, routeID := range routeIDs {
			if err := dispatchRoute(ctx, tx, routeID); err != nil {
				return nil, err
			}
		}
		dispatched = true
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("plan orchestrator: commit: %w", err)
	}

	return &PlanResult{AssignSummary: *summary, RouteIDs: routeIDs, Dispatched: dispatched}, nil
}

func dispatchRoute(ctx context.Context, db sqlx.ExtContext, routeID int64) error {
	_, err := db.ExecContext(ctx, `UPDATE routes SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		types.RouteStatusInProgress, routeID, types.RouteStatusNotStarted)
	return err
}

// SeedDefaultsIfMissing inserts the business_rules row from config on
// first boot. Called once at server startup, not per plan.
func SeedDefaultsIfMissing(ctx context.Context, db *sqlx.DB, rules repository.BusinessRuleRepository, defaults config.BusinessRuleDefaults) error {
	_, err := rules.SeedDefaults(ctx, db, defaults)
	return err
}
