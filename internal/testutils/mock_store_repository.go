package testutils

import (
	"context"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/types"
)

// MockStoreRepository implements repository.StoreRepository for testing.
type MockStoreRepository struct {
	findByIDFunc               func(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Store, error)
	findByIDsFunc              func(ctx context.Context, db sqlx.ExtContext, ids []int64) (map[int64]types.Store, error)
	findActiveFunc             func(ctx context.Context, db sqlx.ExtContext) ([]types.Store, error)
	findMappingsByProductIDsFunc func(ctx context.Context, db sqlx.ExtContext, productIDs []int64) (map[int64][]types.ProductStoreMapping, error)
	findDistancePairsFunc      func(ctx context.Context, db sqlx.ExtContext, storeIDs []int64) (map[[2]int64]types.StoreDistanceMatrix, error)
	upsertDistanceFunc         func(ctx context.Context, db sqlx.ExtContext, edge types.StoreDistanceMatrix) error

	// Stores and Mappings are in-memory backing data consulted by the
	// default implementations; tests seed these directly.
	Stores    map[int64]types.Store
	Mappings  map[int64][]types.ProductStoreMapping
	Distances map[[2]int64]types.StoreDistanceMatrix
}

func NewMockStoreRepository() *MockStoreRepository {
	return &MockStoreRepository{
		Stores:    map[int64]types.Store{},
		Mappings:  map[int64][]types.ProductStoreMapping{},
		Distances: map[[2]int64]types.StoreDistanceMatrix{},
	}
}

func (m *MockStoreRepository) FindByID(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Store, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, db, id)
	}
	if s, ok := m.Stores[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *MockStoreRepository) FindByIDs(ctx context.Context, db sqlx.ExtContext, ids []int64) (map[int64]types.Store, error) {
	if m.findByIDsFunc != nil {
		return m.findByIDsFunc(ctx, db, ids)
	}
	out := make(map[int64]types.Store, len(ids))
	for _, id := range ids {
		if s, ok := m.Stores[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (m *MockStoreRepository) FindActive(ctx context.Context, db sqlx.ExtContext) ([]types.Store, error) {
	if m.findActiveFunc != nil {
		return m.findActiveFunc(ctx, db)
	}
	var out []types.Store
	for _, s := range m.Stores {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockStoreRepository) FindMappingsByProductIDs(ctx context.Context, db sqlx.ExtContext, productIDs []int64) (map[int64][]types.ProductStoreMapping, error) {
	if m.findMappingsByProductIDsFunc != nil {
		return m.findMappingsByProductIDsFunc(ctx, db, productIDs)
	}
	out := make(map[int64][]types.ProductStoreMapping, len(productIDs))
	for _, id := range productIDs {
		if ms, ok := m.Mappings[id]; ok {
			out[id] = ms
		}
	}
	return out, nil
}

func (m *MockStoreRepository) FindDistancePairs(ctx context.Context, db sqlx.ExtContext, storeIDs []int64) (map[[2]int64]types.StoreDistanceMatrix, error) {
	if m.findDistancePairsFunc != nil {
		return m.findDistancePairsFunc(ctx, db, storeIDs)
	}
	return m.Distances, nil
}

func (m *MockStoreRepository) UpsertDistance(ctx context.Context, db sqlx.ExtContext, edge types.StoreDistanceMatrix) error {
	if m.upsertDistanceFunc != nil {
		return m.upsertDistanceFunc(ctx, db, edge)
	}
	m.Distances[[2]int64{edge.OriginStoreID, edge.DestinationStoreID}] = edge
	return nil
}

func (m *MockStoreRepository) WithFindByIDsFunc(f func(ctx context.Context, db sqlx.ExtContext, ids []int64) (map[int64]types.Store, error)) *MockStoreRepository {
	m.findByIDsFunc = f
	return m
}

func (m *MockStoreRepository) WithFindMappingsByProductIDsFunc(f func(ctx context.Context, db sqlx.ExtContext, productIDs []int64) (map[int64][]types.ProductStoreMapping, error)) *MockStoreRepository {
	m.findMappingsByProductIDsFunc = f
	return m
}

func (m *MockStoreRepository) WithFindDistancePairsFunc(f func(ctx context.Context, db sqlx.ExtContext, storeIDs []int64) (map[[2]int64]types.StoreDistanceMatrix, error)) *MockStoreRepository {
	m.findDistancePairsFunc = f
	return m
}
