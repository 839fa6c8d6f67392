package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/config"
	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/pkg/apperrors"
)

// BusinessRuleRepository persists the single BusinessRule row and the
// Holiday calendar.
type BusinessRuleRepository interface {
	Get(ctx context.Context, db sqlx.ExtContext) (*types.BusinessRule, error)
	SeedDefaults(ctx context.Context, db sqlx.ExtContext, defaults config.BusinessRuleDefaults) (*types.BusinessRule, error)
	Update(ctx context.Context, db sqlx.ExtContext, rule *types.BusinessRule) error

	CreateHoliday(ctx context.Context, db sqlx.ExtContext, h *types.Holiday) error
	FindHolidayByDate(ctx context.Context, db sqlx.ExtContext, date time.Time) (*types.Holiday, error)
	FindHolidaysInRange(ctx context.Context, db sqlx.ExtContext, from, to time.Time) ([]types.Holiday, error)
	UpdateHoliday(ctx context.Context, db sqlx.ExtContext, h *types.Holiday) error
	DeleteHoliday(ctx context.Context, db sqlx.ExtContext, id int64) error
}

type businessRuleRepository struct{}

func NewBusinessRuleRepository() BusinessRuleRepository {
	return &businessRuleRepository{}
}

func (r *businessRuleRepository) Get(ctx context.Context, db sqlx.ExtContext) (*types.BusinessRule, error) {
	var br types.BusinessRule
	err := sqlx.GetContext(ctx, db, &br, `
		SELECT id, cutoff_time, weekend_processing, holiday_override, default_start_location,
		       max_orders_per_staff, auto_assign, optimization_priority, max_route_time_hours,
		       include_return, updated_at
		FROM business_rules ORDER BY id LIMIT 1
	`)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("business_rules", 0)
	}
	if err != nil {
		return nil, fmt.Errorf("business rule repository: get: %w", err)
	}
	return &br, nil
}

// SeedDefaults inserts the single business_rules row from the YAML-loaded
// defaults if no row exists yet, and is a no-op otherwise.
func (r *businessRuleRepository) SeedDefaults(ctx context.Context, db sqlx.ExtContext, d config.BusinessRuleDefaults) (*types.BusinessRule, error) {
	existing, err := r.Get(ctx, db)
	if err == nil {
		return existing, nil
	}
	de, ok := apperrors.As(err)
	if !ok || de.Code != apperrors.CodeNotFound {
		return nil, err
	}

	var br types.BusinessRule
	row := sqlx.QueryRowxContext(ctx, db, `
		INSERT INTO business_rules (cutoff_time, weekend_processing, holiday_override, default_start_location,
		                             max_orders_per_staff, auto_assign, optimization_priority, max_route_time_hours,
		                             include_return)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, cutoff_time, weekend_processing, holiday_override, default_start_location,
		          max_orders_per_staff, auto_assign, optimization_priority, max_route_time_hours,
		          include_return, updated_at
	`, d.CutoffTime, d.WeekendProcessing, d.HolidayOverride, d.DefaultStartLocationID,
		d.MaxOrdersPerStaff, d.AutoAssign, d.OptimizationPriority, d.MaxRouteTimeHours, d.IncludeReturn)
	if err := row.StructScan(&br); err != nil {
		return nil, fmt.Errorf("business rule repository: seed defaults: %w", err)
	}
	return &br, nil
}

func (r *businessRuleRepository) Update(ctx context.Context, db sqlx.ExtContext, rule *types.BusinessRule) error {
	_, err := db.ExecContext(ctx, `
		UPDATE business_rules SET cutoff_time = $1, weekend_processing = $2, holiday_override = $3,
		       default_start_location = $4, max_orders_per_staff = $5, auto_assign = $6,
		       optimization_priority = $7, max_route_time_hours = $8, include_return = $9, updated_at = NOW()
		WHERE id = $10
	`, rule.CutoffTime, rule.WeekendProcessing, rule.HolidayOverride, rule.DefaultStartLocationID,
		rule.MaxOrdersPerStaff, rule.AutoAssign, rule.OptimizationPriority, rule.MaxRouteTimeHours,
		rule.IncludeReturn, rule.ID)
	if err != nil {
		return fmt.Errorf("business rule repository: update: %w", err)
	}
	return nil
}

func (r *businessRuleRepository) CreateHoliday(ctx context.Context, db sqlx.ExtContext, h *types.Holiday) error {
	row := sqlx.QueryRowxContext(ctx, db, `
		INSERT INTO holidays (holiday_date, name, is_working)
		VALUES ($1, $2, $3)
		RETURNING id
	`, h.HolidayDate, h.Name, h.IsWorking)
	if err := row.Scan(&h.ID); err != nil {
		return fmt.Errorf("business rule repository: create holiday: %w", err)
	}
	return nil
}

func (r *businessRuleRepository) FindHolidayByDate(ctx context.Context, db sqlx.ExtContext, date time.Time) (*types.Holiday, error) {
	var h types.Holiday
	err := sqlx.GetContext(ctx, db, &h, `
		SELECT id, holiday_date, name, is_working FROM holidays WHERE holiday_date = $1
	`, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("business rule repository: find holiday by date: %w", err)
	}
	return &h, nil
}

func (r *businessRuleRepository) FindHolidaysInRange(ctx context.Context, db sqlx.ExtContext, from, to time.Time) ([]types.Holiday, error) {
	var rows []types.Holiday
	err := sqlx.SelectContext(ctx, db, &rows, `
		SELECT id, holiday_date, name, is_working FROM holidays
		WHERE holiday_date BETWEEN $1 AND $2 ORDER BY holiday_date
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("business rule repository: find holidays in range: %w", err)
	}
	return rows, nil
}

func (r *businessRuleRepository) UpdateHoliday(ctx context.Context, db sqlx.ExtContext, h *types.Holiday) error {
	_, err := db.ExecContext(ctx, `
		UPDATE holidays SET holiday_date = $1, name = $2, is_working = $3 WHERE id = $4
	`, h.HolidayDate, h.Name, h.IsWorking, h.ID)
	if err != nil {
		return fmt.Errorf("business rule repository: update holiday: %w", err)
	}
	return nil
}

func (r *businessRuleRepository) DeleteHoliday(ctx context.Context, db sqlx.ExtContext, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("business rule repository: delete holiday: %w", err)
	}
	return nil
}
