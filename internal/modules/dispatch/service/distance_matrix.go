package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"buyerdispatch/internal/modules/dispatch/repository"
	"buyerdispatch/internal/modules/dispatch/types"
	"buyerdispatch/pkg/geo"
)

// DistanceMatrixBuilder implements component B: it rebuilds the cached
// pairwise store distances the optimizer reads from instead of computing
// Haversine on every route-planning pass.
type DistanceMatrixBuilder struct {
	stores repository.StoreRepository
}

func NewDistanceMatrixBuilder(stores repository.StoreRepository) *DistanceMatrixBuilder {
	return &DistanceMatrixBuilder{stores: stores}
}

// Recompute upserts a directional edge for every ordered pair of active,
// geo-located stores. Running it twice produces the same distance and
// travel-time values, since they are a pure function of store
// coordinates; each run refreshes every edge's last_calculated.
func (b *DistanceMatrixBuilder) Recompute(ctx context.Context, db sqlx.ExtContext) (int, error) {
	stores, err := b.stores.FindActive(ctx, db)
	if err != nil {
		return 0, err
	}

	located := make([]types.Store, 0, len(stores))
	for _, s := range stores {
		if s.HasCoordinates() {
			located = append(located, s)
		}
	}

	count := 0
	for _, from := range located {
		for _, to := range located {
			if from.ID == to.ID {
				continue
			}
			distKm := geo.HaversineKm(
				geo.Point{Lat: *from.Latitude, Lng: *from.Longitude},
				geo.Point{Lat: *to.Latitude, Lng: *to.Longitude},
			)
			edge := types.StoreDistanceMatrix{
				OriginStoreID:      from.ID,
				DestinationStoreID: to.ID,
				DistanceKm:         distKm,
				TravelTimeMinutes:  geo.TravelMinutes(distKm),
			}
			if err := b.stores.UpsertDistance(ctx, db, edge); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}
