package testutils

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/config"
	"buyerdispatch/internal/modules/dispatch/types"
)

// MockBusinessRuleRepository implements repository.BusinessRuleRepository
// for testing.
type MockBusinessRuleRepository struct {
	getFunc                func(ctx context.Context, db sqlx.ExtContext) (*types.BusinessRule, error)
	seedDefaultsFunc       func(ctx context.Context, db sqlx.ExtContext, defaults config.BusinessRuleDefaults) (*types.BusinessRule, error)
	updateFunc             func(ctx context.Context, db sqlx.ExtContext, rule *types.BusinessRule) error
	createHolidayFunc      func(ctx context.Context, db sqlx.ExtContext, h *types.Holiday) error
	findHolidayByDateFunc  func(ctx context.Context, db sqlx.ExtContext, date time.Time) (*types.Holiday, error)
	findHolidaysInRangeFunc func(ctx context.Context, db sqlx.ExtContext, from, to time.Time) ([]types.Holiday, error)
	updateHolidayFunc      func(ctx context.Context, db sqlx.ExtContext, h *types.Holiday) error
	deleteHolidayFunc      func(ctx context.Context, db sqlx.ExtContext, id int64) error

	Rule     *types.BusinessRule
	Holidays map[string]types.Holiday // keyed by "2006-01-02"
}

func NewMockBusinessRuleRepository() *MockBusinessRuleRepository {
	return &MockBusinessRuleRepository{
		Rule: &types.BusinessRule{
			CutoffTime:           "13:10",
			WeekendProcessing:    false,
			HolidayOverride:      false,
			MaxOrdersPerStaff:    20,
			AutoAssign:           false,
			OptimizationPriority: types.OptimizationPriorityBalanced,
			MaxRouteTimeHours:    8,
			IncludeReturn:        false,
		},
		Holidays: map[string]types.Holiday{},
	}
}

func (m *MockBusinessRuleRepository) Get(ctx context.Context, db sqlx.ExtContext) (*types.BusinessRule, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, db)
	}
	return m.Rule, nil
}

func (m *MockBusinessRuleRepository) SeedDefaults(ctx context.Context, db sqlx.ExtContext, defaults config.BusinessRuleDefaults) (*types.BusinessRule, error) {
	if m.seedDefaultsFunc != nil {
		return m.seedDefaultsFunc(ctx, db, defaults)
	}
	return m.Rule, nil
}

func (m *MockBusinessRuleRepository) Update(ctx context.Context, db sqlx.ExtContext, rule *types.BusinessRule) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, db, rule)
	}
	m.Rule = rule
	return nil
}

func (m *MockBusinessRuleRepository) CreateHoliday(ctx context.Context, db sqlx.ExtContext, h *types.Holiday) error {
	if m.createHolidayFunc != nil {
		return m.createHolidayFunc(ctx, db, h)
	}
	m.Holidays[h.HolidayDate.Format("2006-01-02")] = *h
	return nil
}

func (m *MockBusinessRuleRepository) FindHolidayByDate(ctx context.Context, db sqlx.ExtContext, date time.Time) (*types.Holiday, error) {
	if m.findHolidayByDateFunc != nil {
		return m.findHolidayByDateFunc(ctx, db, date)
	}
	if h, ok := m.Holidays[date.Format("2006-01-02")]; ok {
		return &h, nil
	}
	return nil, nil
}

func (m *MockBusinessRuleRepository) FindHolidaysInRange(ctx context.Context, db sqlx.ExtContext, from, to time.Time) ([]types.Holiday, error) {
	if m.findHolidaysInRangeFunc != nil {
		return m.findHolidaysInRangeFunc(ctx, db, from, to)
	}
	var out []types.Holiday
	for _, h := range m.Holidays {
		if !h.HolidayDate.Before(from) && !h.HolidayDate.After(to) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *MockBusinessRuleRepository) UpdateHoliday(ctx context.Context, db sqlx.ExtContext, h *types.Holiday) error {
	if m.updateHolidayFunc != nil {
		return m.updateHolidayFunc(ctx, db, h)
	}
	m.Holidays[h.HolidayDate.Format("2006-01-02")] = *h
	return nil
}

func (m *MockBusinessRuleRepository) DeleteHoliday(ctx context.Context, db sqlx.ExtContext, id int64) error {
	if m.deleteHolidayFunc != nil {
		return m.deleteHolidayFunc(ctx, db, id)
	}
	for k, h := range m.Holidays {
		if h.ID == id {
			delete(m.Holidays, k)
		}
	}
	return nil
}

// WithHoliday seeds a holiday directly, keyed by date.
func (m *MockBusinessRuleRepository) WithHoliday(h types.Holiday) *MockBusinessRuleRepository {
	m.Holidays[h.HolidayDate.Format("2006-01-02")] = h
	return m
}
