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

type CutoffSchedulerTestSuite struct {
	suite.Suite
	scheduler *service.CutoffScheduler
	orders    *testutils.MockOrderRepository
	products  *testutils.MockProductRepository
	rules     *testutils.MockBusinessRuleRepository
	ctx       context.Context
}

func (s *CutoffSchedulerTestSuite) SetupTest() {
	s.orders = testutils.NewMockOrderRepository()
	s.products = testutils.NewMockProductRepository()
	s.rules = testutils.NewMockBusinessRuleRepository()
	s.scheduler = service.NewCutoffScheduler(s.orders, s.products, s.rules)
	s.ctx = context.Background()
}

func mustParse(t *testing.T, layout, value string) time.Time {
	tm, err := time.Parse(layout, value)
	require.NoError(t, err)
	return tm
}

// S1 — Cutoff, before.
func (s *CutoffSchedulerTestSuite) TestTargetDateBeforeCutoff() {
	rule := *s.rules.Rule
	arrival := mustParse(s.T(), "2006-01-02 15:04", "2025-02-04 11:30")

	target, err := s.scheduler.TargetDate(s.ctx, nil, arrival, rule, nil)

	require.NoError(s.T(), err)
	require.Equal(s.T(), "2025-02-04", target.Format("2006-01-02"))
}

// S2 — Cutoff, after, weekend skip.
func (s *CutoffSchedulerTestSuite) TestTargetDateAfterCutoffSkipsWeekend() {
	rule := *s.rules.Rule
	arrival := mustParse(s.T(), "2006-01-02 15:04", "2025-02-07 14:00")

	target, err := s.scheduler.TargetDate(s.ctx, nil, arrival, rule, nil)

	require.NoError(s.T(), err)
	require.Equal(s.T(), "2025-02-10", target.Format("2006-01-02"))
}

func (s *CutoffSchedulerTestSuite) TestTargetDateHolidayOverrideAccepted() {
	rule := *s.rules.Rule
	rule.HolidayOverride = true
	arrival := mustParse(s.T(), "2006-01-02 15:04", "2025-02-04 11:30")
	holidays := map[string]types.Holiday{
		"2025-02-04": {HolidayDate: arrival, IsWorking: false},
	}

	target, err := s.scheduler.TargetDate(s.ctx, nil, arrival, rule, holidays)

	require.NoError(s.T(), err)
	require.Equal(s.T(), "2025-02-04", target.Format("2006-01-02"))
}

func (s *CutoffSchedulerTestSuite) TestTargetDateHolidaySkippedWithoutOverride() {
	rule := *s.rules.Rule
	arrival := mustParse(s.T(), "2006-01-02 15:04", "2025-02-04 11:30")
	holidays := map[string]types.Holiday{
		"2025-02-04": {HolidayDate: arrival, IsWorking: false},
	}

	target, err := s.scheduler.TargetDate(s.ctx, nil, arrival, rule, holidays)

	require.NoError(s.T(), err)
	require.Equal(s.T(), "2025-02-05", target.Format("2006-01-02"))
}

// Property 6 — cutoff idempotence: calling TargetDate twice with the same
// arrival and policy yields the same date.
func (s *CutoffSchedulerTestSuite) TestTargetDateIsIdempotent() {
	rule := *s.rules.Rule
	arrival := mustParse(s.T(), "2006-01-02 15:04", "2025-02-07 14:00")

	first, err := s.scheduler.TargetDate(s.ctx, nil, arrival, rule, nil)
	require.NoError(s.T(), err)
	second, err := s.scheduler.TargetDate(s.ctx, nil, arrival, rule, nil)
	require.NoError(s.T(), err)

	require.True(s.T(), first.Equal(second))
}

func (s *CutoffSchedulerTestSuite) TestTargetDateInvalidCutoffIsPolicyError() {
	rule := *s.rules.Rule
	rule.CutoffTime = "not-a-time"
	arrival := mustParse(s.T(), "2006-01-02 15:04", "2025-02-07 14:00")

	_, err := s.scheduler.TargetDate(s.ctx, nil, arrival, rule, nil)

	require.Error(s.T(), err)
}

func (s *CutoffSchedulerTestSuite) TestScheduleOrderExpandsBundle() {
	order := &types.Order{ID: 1, ArrivalTimestamp: mustParse(s.T(), "2006-01-02 15:04", "2025-02-04 11:30")}
	s.orders.Orders[order.ID] = order
	bundle := &types.OrderItem{ID: 10, OrderID: 1, SKU: "BUNDLE-A", Quantity: 2, IsBundle: true, Status: types.OrderItemStatusPending}
	s.orders.Items[bundle.ID] = bundle
	s.products.Products["BUNDLE-A"] = types.Product{
		ID:  1,
		SKU: "BUNDLE-A",
		SetSplitRule: types.SplitRules{
			{ChildSKU: "CHILD-1", QtyPerSet: 3},
			{ChildSKU: "CHILD-2", QtyPerSet: 1},
		},
	}

	err := s.scheduler.ScheduleOrder(s.ctx, nil, order, *s.rules.Rule, nil)

	require.NoError(s.T(), err)
	require.Equal(s.T(), types.OrderItemStatusAssigned, bundle.Status)

	var children []*types.OrderItem
	for _, it := range s.orders.Items {
		if it.ParentItemID != nil && *it.ParentItemID == bundle.ID {
			children = append(children, it)
		}
	}
	require.Len(s.T(), children, 2)
	for _, c := range children {
		switch c.SKU {
		case "CHILD-1":
			require.Equal(s.T(), 6, c.Quantity)
		case "CHILD-2":
			require.Equal(s.T(), 2, c.Quantity)
		default:
			s.T().Fatalf("unexpected child SKU %s", c.SKU)
		}
	}
}

func TestCutoffSchedulerTestSuite(t *testing.T) {
	suite.Run(t, new(CutoffSchedulerTestSuite))
}
