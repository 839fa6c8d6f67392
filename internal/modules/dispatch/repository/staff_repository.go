package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/pkg/apperrors"
)

// StaffRepository persists Staff rows.
type StaffRepository interface {
	FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Staff, error)
	FindActiveBuyers(ctx context.Context, db sqlx.ExtContext) ([]types.Staff, error)
	UpdateStatus(ctx context.Context, db sqlx.ExtContext, staffID int64, status types.StaffStatus) error
	Create(ctx context.Context, db sqlx.ExtContext, s *types.Staff, plaintextPassword string) error
}

type staffRepository struct{}

func NewStaffRepository() StaffRepository {
	return &staffRepository{}
}

func (r *staffRepository) FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Staff, error) {
	var s types.Staff
	err := sqlx.GetContext(ctx, db, &s, `
		SELECT id, name, email, password_hash, role, status, start_latitude, start_longitude,
		       max_daily_capacity, active, created_at, updated_at
		FROM staff WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("staff", id)
	}
	if err != nil {
		return nil, fmt.Errorf("staff repository: find by id: %w", err)
	}
	return &s, nil
}

// FindActiveBuyers is the single bulk read component E uses to gather
// the day's candidate assignees: role=buyer, status != off_duty.
func (r *staffRepository) FindActiveBuyers(ctx context.Context, db sqlx.ExtContext) ([]types.Staff, error) {
	var rows []types.Staff
	err := sqlx.SelectContext(ctx, db, &rows, `
		SELECT id, name, email, password_hash, role, status, start_latitude, start_longitude,
		       max_daily_capacity, active, created_at, updated_at
		FROM staff
		WHERE role = $1 AND status != $2 AND active = TRUE
		ORDER BY id
	`, types.StaffRoleBuyer, types.StaffStatusOffDuty)
	if err != nil {
		return nil, fmt.Errorf("staff repository: find active buyers: %w", err)
	}
	return rows, nil
}

func (r *staffRepository) UpdateStatus(ctx context.Context, db sqlx.ExtContext, staffID int64, status types.StaffStatus) error {
	_, err := db.ExecContext(ctx, `UPDATE staff SET status = $1, updated_at = NOW() WHERE id = $2`, status, staffID)
	if err != nil {
		return fmt.Errorf("staff repository: update status: %w", err)
	}
	return nil
}

func (r *staffRepository) Create(ctx context.Context, db sqlx.ExtContext, s *types.Staff, plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("staff repository: hash password: %w", err)
	}
	s.PasswordHash = string(hash)
	row := sqlx.QueryRowxContext(ctx, db, `
		INSERT INTO staff (name, email, password_hash, role, status, start_latitude, start_longitude, max_daily_capacity, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		RETURNING id, created_at, updated_at
	`, s.Name, s.Email, s.PasswordHash, s.Role, s.Status, s.StartLatitude, s.StartLongitude, s.MaxDailyCapacity)
	if err := row.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return fmt.Errorf("staff repository: create: %w", err)
	}
	return nil
}
