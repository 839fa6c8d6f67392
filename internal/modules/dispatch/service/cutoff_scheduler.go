package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/repository"
	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/pkg/apperrors"
)

const maxCutoffIterations = 30

// CutoffScheduler maps an order's arrival timestamp to its
// target_purchase_date and expands bundle items into their child
// OrderItems ahead of planning.
type CutoffScheduler struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	rules     repository.BusinessRuleRepository
}

func NewCutoffScheduler(orders repository.OrderRepository, products repository.ProductRepository, rules repository.BusinessRuleRepository) *CutoffScheduler {
	return &CutoffScheduler{orders: orders, products: products, rules: rules}
}

// TargetDate implements the §4.C algorithm: advance past the cutoff time
// of day, then skip non-working days per the weekend and holiday policy,
// bounded at maxCutoffIterations.
func (s *CutoffScheduler) TargetDate(ctx context.Context, db sqlx.ExtContext, arrival time.Time, rule types.BusinessRule, holidays map[string]types.Holiday) (time.Time, error) {
	cutoff, err := parseHHMM(rule.CutoffTime)
	if err != nil {
		return time.Time{}, apperrors.Wrap(err, apperrors.CodePolicyError, "invalid cutoff_time policy")
	}

	candidate := dateOnly(arrival)
	timeOfDay := arrival.Hour()*60 + arrival.Minute()
	if timeOfDay >= cutoff {
		candidate = candidate.AddDate(0, 0, 1)
	}

	for i := 0; i < maxCutoffIterations; i++ {
		if !rule.WeekendProcessing && isWeekend(candidate) {
			candidate = candidate.AddDate(0, 0, 1)
			continue
		}
		if h, ok := holidays[candidate.Format("2006-01-02")]; ok {
			if rule.HolidayOverride || h.IsWorking {
				return candidate, nil
			}
			candidate = candidate.AddDate(0, 0, 1)
			continue
		}
		return candidate, nil
	}
	return time.Time{}, apperrors.New(apperrors.CodePolicyError, "cutoff policy did not resolve to a business day within 30 iterations")
}

// ScheduleOrder assigns target_purchase_date to the order and expands any
// bundle OrderItems into their non-bundle children per the product's
// set_split_rule, marking the bundle itself assigned so it drops out of
// later planning.
func (s *CutoffScheduler) ScheduleOrder(ctx context.Context, db sqlx.ExtContext, order *types.Order, rule types.BusinessRule, holidays map[string]types.Holiday) error {
	target, err := s.TargetDate(ctx, db, order.ArrivalTimestamp, rule, holidays)
	if err != nil {
		return err
	}
	order.TargetPurchaseDate = &target
	if err := s.orders.SetTargetDate(ctx, db, order.ID, target); err != nil {
		return err
	}

	items, err := s.orders.FindSiblingItems(ctx, db, order.ID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if !item.IsBundle || item.Status != types.OrderItemStatusPending {
			continue
		}
		if err := s.expandBundle(ctx, db, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *CutoffScheduler) expandBundle(ctx context.Context, db sqlx.ExtContext, bundle types.OrderItem) error {
	products, err := s.products.FindBySKUs(ctx, db, []string{bundle.SKU})
	if err != nil {
		return err
	}
	p, ok := products[bundle.SKU]
	if !ok || len(p.SetSplitRule) == 0 {
		return nil
	}

	for _, rule := range p.SetSplitRule {
		child := &types.OrderItem{
			OrderID:      bundle.OrderID,
			SKU:          rule.ChildSKU,
			ProductName:  rule.ChildSKU,
			Quantity:     rule.QtyPerSet * bundle.Quantity,
			IsBundle:     false,
			ParentItemID: &bundle.ID,
			Status:       types.OrderItemStatusPending,
			Priority:     bundle.Priority,
		}
		if err := s.orders.CreateItem(ctx, db, child); err != nil {
			return fmt.Errorf("cutoff scheduler: expand bundle: %w", err)
		}
	}
	return s.orders.UpdateItemStatus(ctx, db, bundle.ID, types.OrderItemStatusAssigned)
}

func parseHHMM(v string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(v, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("cutoff scheduler: parse cutoff_time %q: %w", v, err)
	}
	return h*60 + m, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
