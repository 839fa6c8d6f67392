package testutils

import (
	"context"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/types"
)

// MockProductRepository implements repository.ProductRepository for testing.
type MockProductRepository struct {
	findBySKUsFunc func(ctx context.Context, db sqlx.ExtContext, skus []string) (map[string]types.Product, error)
	findByIDFunc   func(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Product, error)

	// Products is the in-memory backing store keyed by SKU, consulted by
	// the default FindBySKUs implementation.
	Products map[string]types.Product
}

func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{Products: map[string]types.Product{}}
}

func (m *MockProductRepository) FindBySKUs(ctx context.Context, db sqlx.ExtContext, skus []string) (map[string]types.Product, error) {
	if m.findBySKUsFunc != nil {
		return m.findBySKUsFunc(ctx, db, skus)
	}
	out := make(map[string]types.Product, len(skus))
	for _, sku := range skus {
		if p, ok := m.Products[sku]; ok {
			out[sku] = p
		}
	}
	return out, nil
}

func (m *MockProductRepository) FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Product, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, db, id)
	}
	for _, p := range m.Products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *MockProductRepository) WithFindBySKUsFunc(f func(ctx context.Context, db sqlx.ExtContext, skus []string) (map[string]types.Product, error)) *MockProductRepository {
	m.findBySKUsFunc = f
	return m
}

func (m *MockProductRepository) WithFindByIDFunc(f func(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Product, error)) *MockProductRepository {
	m.findByIDFunc = f
	return m
}
