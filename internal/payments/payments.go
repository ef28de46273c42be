package payments

import (
	"context"

	"github.com/example/ride-hail/internal/geo"
	"github.com/example/ride-hail/internal/models"
)

// Charger is consumed by the ride service to mirror the lifecycle in the
// payment processor: hold on accept, capture on end, release on cancel.
type Charger interface {
	Hold(ctx context.Context, rideID int64, amountMinor int64, currency string) error
	Capture(ctx context.Context, rideID int64) error
	Cancel(ctx context.Context, rideID int64) error
}

// Fare pricing, minor currency units.
const (
	BaseFareMinor  = 5000 // flag-fall
	PerKMFareMinor = 2500
)

// EstimateFareMinor prices a ride from the great-circle pickup->dropoff
// distance. Good enough for a hold amount; the final fare is settled at
// capture time.
func EstimateFareMinor(pickup, dropoff models.Coord) int64 {
	km := geo.Haversine(pickup.Lat, pickup.Lon, dropoff.Lat, dropoff.Lon)
	return BaseFareMinor + int64(km*PerKMFareMinor)
}
