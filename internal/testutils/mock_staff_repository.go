package testutils

import (
	"context"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/types"
)

// MockStaffRepository implements repository.StaffRepository for testing.
type MockStaffRepository struct {
	findByIDFunc        func(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Staff, error)
	findActiveBuyersFunc func(ctx context.Context, db sqlx.ExtContext) ([]types.Staff, error)
	updateStatusFunc    func(ctx context.Context, db sqlx.ExtContext, staffID int64, status types.StaffStatus) error
	createFunc          func(ctx context.Context, db sqlx.ExtContext, s *types.Staff, plaintextPassword string) error

	Staff map[int64]*types.Staff
}

func NewMockStaffRepository() *MockStaffRepository {
	return &MockStaffRepository{Staff: map[int64]*types.Staff{}}
}

func (m *MockStaffRepository) FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Staff, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, db, id)
	}
	return m.Staff[id], nil
}

func (m *MockStaffRepository) FindActiveBuyers(ctx context.Context, db sqlx.ExtContext) ([]types.Staff, error) {
	if m.findActiveBuyersFunc != nil {
		return m.findActiveBuyersFunc(ctx, db)
	}
	var out []types.Staff
	for _, s := range m.Staff {
		if s.Role == types.StaffRoleBuyer && s.Status != types.StaffStatusOffDuty {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *MockStaffRepository) UpdateStatus(ctx context.Context, db sqlx.ExtContext, staffID int64, status types.StaffStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, db, staffID, status)
	}
	if s, ok := m.Staff[staffID]; ok {
		s.Status = status
	}
	return nil
}

func (m *MockStaffRepository) Create(ctx context.Context, db sqlx.ExtContext, s *types.Staff, plaintextPassword string) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, db, s, plaintextPassword)
	}
	if s.ID == 0 {
		s.ID = int64(len(m.Staff) + 1)
	}
	m.Staff[s.ID] = s
	return nil
}

func (m *MockStaffRepository) WithFindActiveBuyersFunc(f func(ctx context.Context, db sqlx.ExtContext) ([]types.Staff, error)) *MockStaffRepository {
	m.findActiveBuyersFunc = f
	return m
}

func (m *MockStaffRepository) WithFindByIDFunc(f func(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Staff, error)) *MockStaffRepository {
	m.findByIDFunc = f
	return m
}
