package service

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/repository"
	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/pkg/apperrors"
	"buyerdispatch/pkg/geo"
)

// Allocation is one (store, quantity) draw contributing toward an item's
// requested quantity.
type Allocation struct {
	StoreID int64
	Qty     int
	Score   float64
}

// ItemAllocation is the outcome of allocating a single OrderItem's
// quantity across candidate stores.
type ItemAllocation struct {
	OrderItemID int64
	Total       int
	Allocations []Allocation
	Remaining   int
	NoMapping   bool
}

// StoreSelector scores (product, store) candidates and splits an item's
// requested quantity across them subject to per-store capacity.
type StoreSelector struct {
	products repository.ProductRepository
	stores   repository.StoreRepository
}

func NewStoreSelector(products repository.ProductRepository, stores repository.StoreRepository) *StoreSelector {
	return &StoreSelector{products: products, stores: stores}
}

// scoreCandidate implements the §4.D scoring formula. staffStart is nil
// when scoring outside the context of a specific buyer (e.g. a dry-run
// allocation preview).
func scoreCandidate(m types.ProductStoreMapping, store types.Store, staffStart *geo.Point) float64 {
	var score float64

	switch m.StockStatus {
	case types.StockStatusInStock:
		score += 100
	case types.StockStatusLowStock:
		score += 50
	case types.StockStatusUnknown:
		score += 25
	}

	if p := 10 - store.PriorityLevel; p > 0 {
		score += float64(p) * 5
	}
	if p := 10 - m.Priority; p > 0 {
		score += float64(p) * 3
	}
	if m.IsPrimaryStore {
		score += 20
	}

	if staffStart != nil && store.HasCoordinates() {
		d := geo.HaversineKm(*staffStart, geo.Point{Lat: *store.Latitude, Lng: *store.Longitude})
		switch {
		case d < 1:
			score += 50
		case d < 3:
			score += 30
		case d < 5:
			score += 15
		case d < 10:
			score += 5
		}
	}

	return score
}

// Allocate runs the §4.D procedure for a batch of OrderItems, using the
// two mandated bulk reads (products by SKU, mappings by product_id) plus
// one store lookup for the union of referenced stores.
func (s *StoreSelector) Allocate(ctx context.Context, db sqlx.ExtContext, items []types.OrderItem, staffStart *geo.Point) (map[int64]ItemAllocation, error) {
	skus := make([]string, 0, len(items))
	seenSKU := map[string]bool{}
	for _, it := range items {
		if !seenSKU[it.SKU] {
			seenSKU[it.SKU] = true
			skus = append(skus, it.SKU)
		}
	}
	products, err := s.products.FindBySKUs(ctx, db, skus)
	if err != nil {
		return nil, err
	}

	productIDs := make([]int64, 0, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
	}
	mappingsByProduct, err := s.stores.FindMappingsByProductIDs(ctx, db, productIDs)
	if err != nil {
		return nil, err
	}

	storeIDSet := map[int64]bool{}
	for _, mappings := range mappingsByProduct {
		for _, m := range mappings {
			storeIDSet[m.StoreID] = true
		}
	}
	for _, p := range products {
		if p.IsStoreFixed && p.FixedStoreID != nil {
			storeIDSet[*p.FixedStoreID] = true
		}
	}
	storeIDs := make([]int64, 0, len(storeIDSet))
	for id := range storeIDSet {
		storeIDs = append(storeIDs, id)
	}
	stores, err := s.stores.FindByIDs(ctx, db, storeIDs)
	if err != nil {
		return nil, err
	}

	results := make(map[int64]ItemAllocation, len(items))
	for _, item := range items {
		product, ok := products[item.SKU]
		if !ok {
			results[item.ID] = ItemAllocation{OrderItemID: item.ID, Remaining: item.Quantity, NoMapping: true}
			continue
		}

		if product.IsStoreFixed {
			if product.FixedStoreID == nil {
				return nil, apperrors.New(apperrors.CodePolicyError, "product is store-fixed but has no fixed_store_id")
			}
			results[item.ID] = ItemAllocation{
				OrderItemID: item.ID,
				Total:       item.Quantity,
				Allocations: []Allocation{{StoreID: *product.FixedStoreID, Qty: item.Quantity, Score: 100}},
			}
			continue
		}

		candidates := mappingsByProduct[product.ID]
		type scored struct {
			mapping types.ProductStoreMapping
			score   float64
		}
		ranked := make([]scored, 0, len(candidates))
		for _, m := range candidates {
			st, ok := stores[m.StoreID]
			if !ok {
				continue
			}
			ranked = append(ranked, scored{mapping: m, score: scoreCandidate(m, st, staffStart)})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].score != ranked[j].score {
				return ranked[i].score > ranked[j].score
			}
			return ranked[i].mapping.StoreID < ranked[j].mapping.StoreID
		})

		remaining := item.Quantity
		var allocations []Allocation
		for _, r := range ranked {
			if remaining <= 0 {
				break
			}
			cap := r.mapping.Cap()
			if cap == 0 {
				continue
			}
			draw := remaining
			if cap > 0 && cap < draw {
				draw = cap
			}
			if draw <= 0 {
				continue
			}
			allocations = append(allocations, Allocation{StoreID: r.mapping.StoreID, Qty: draw, Score: r.score})
			remaining -= draw
		}

		results[item.ID] = ItemAllocation{
			OrderItemID: item.ID,
			Total:       item.Quantity,
			Allocations: allocations,
			Remaining:   remaining,
		}
	}

	return results, nil
}
