// Package service is the composition root for the ride lifecycle: it
// exposes the operations the request-handling layer calls and wires the
// state machine, the location store and the geo matcher together with the
// side-effect collaborators (notification, ingestion, payments).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/ride-hail/internal/dispatch"
	"github.com/example/ride-hail/internal/eta"
	"github.com/example/ride-hail/internal/geo"
	"github.com/example/ride-hail/internal/location"
	"github.com/example/ride-hail/internal/models"
	"github.com/example/ride-hail/internal/observability"
	"github.com/example/ride-hail/internal/payments"
	"github.com/example/ride-hail/internal/ride"
)

// ErrNoDriversAvailable means no driver currently has a live location.
// It is an empty result, not a fault.
var ErrNoDriversAvailable = errors.New("no drivers available")

// LocationPublisher forwards location pings to the ingestion pipeline.
type LocationPublisher interface {
	PublishLocation(driverID int64, loc models.LiveLocation) error
}

type RideService struct {
	Machine   *ride.Machine
	Locations *location.Store
	Logger    *slog.Logger

	// optional collaborators; side effects on them are best-effort
	Notifier  dispatch.RideNotifier
	Publisher LocationPublisher
	Charger   payments.Charger
	Currency  string
	ETAClient eta.Client
	ETACache  *eta.Cache

	DefaultSpeedMps float64
}

// RequestRide opens a new ride in the requested state.
func (s *RideService) RequestRide(ctx context.Context, req models.RideRequest) (*models.Ride, error) {
	r, err := s.Machine.Create(ctx, req.RiderID, req.Pickup, req.Dropoff)
	if err != nil {
		return nil, err
	}
	observability.RidesCreated.Inc()
	return r, nil
}

// UpdateRideStatus applies a forward transition and then mirrors it into
// the payment processor and the driver's notification channel. Those
// side effects never fail the transition; they are logged and counted.
func (s *RideService) UpdateRideStatus(ctx context.Context, rideID int64, target ride.Status, driverID int64) (*models.Ride, error) {
	r, err := s.Machine.Transition(ctx, rideID, target, driverID)
	if err != nil {
		if errors.Is(err, ride.ErrUnmodifiedStatus) || errors.Is(err, ride.ErrInvalidTransition) {
			observability.TransitionConflicts.Inc()
		}
		return nil, err
	}
	observability.RideTransitions.WithLabelValues(string(target)).Inc()

	s.settlePayment(ctx, r, target)
	if s.Notifier != nil {
		update := models.RideUpdate{RideID: r.ID, Status: r.Status, DriverID: driverID}
		if err := s.Notifier.NotifyRide(driverID, update); err != nil {
			s.Logger.Debug("driver not reachable for ride update", "ride_id", r.ID, "driver_id", driverID)
		}
	}
	return r, nil
}

func (s *RideService) settlePayment(ctx context.Context, r *models.Ride, target ride.Status) {
	if s.Charger == nil {
		return
	}
	var err error
	switch target {
	case ride.StatusAccept:
		amount := payments.EstimateFareMinor(r.Pickup, r.Dropoff)
		err = s.Charger.Hold(ctx, r.ID, amount, s.Currency)
	case ride.StatusEnd:
		err = s.Charger.Capture(ctx, r.ID)
	case ride.StatusCancel:
		err = s.Charger.Cancel(ctx, r.ID)
	default:
		return
	}
	if err != nil {
		s.Logger.Warn("payment side effect failed", "ride_id", r.ID, "status", target, "error", err)
	}
}

// FindNearestDriver fans out one cache read per active driver and reduces
// the answers with the geo matcher. The result slice is indexed by the
// enumeration position, so candidate order and the first-seen tie-break
// stay deterministic regardless of goroutine scheduling.
func (s *RideService) FindNearestDriver(ctx context.Context, rider models.Coord) (*models.NearestDriver, error) {
	observability.NearestQueries.Inc()

	ids, err := s.Locations.ActiveDriverIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		observability.NearestMisses.Inc()
		return nil, ErrNoDriversAvailable
	}

	locs := make([]*models.LiveLocation, len(ids))
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			loc, err := s.Locations.Get(ctx, id)
			if err != nil {
				errs[i] = err
				return
			}
			locs[i] = &loc
		}(i, id)
	}
	wg.Wait()

	candidates := make([]geo.Candidate, 0, len(ids))
	for i, loc := range locs {
		if loc == nil {
			// expired between enumeration and fetch is normal churn;
			// anything else is an infrastructure failure
			if errs[i] != nil && !errors.Is(errs[i], location.ErrNotFound) {
				return nil, fmt.Errorf("fetch driver %d location: %w", ids[i], errs[i])
			}
			continue
		}
		candidates = append(candidates, geo.Candidate{DriverID: ids[i], Loc: loc.Coord()})
	}

	match, ok := geo.Nearest(rider, candidates, func(c geo.Candidate) {
		s.Logger.Warn("skipping driver with malformed location", "driver_id", c.DriverID, "lat", c.Loc.Lat, "lon", c.Loc.Lon)
	})
	if !ok {
		observability.NearestMisses.Inc()
		return nil, ErrNoDriversAvailable
	}

	var winner models.LiveLocation
	for i, id := range ids {
		if id == match.DriverID && locs[i] != nil {
			winner = *locs[i]
			break
		}
	}
	return &models.NearestDriver{
		DriverID:   match.DriverID,
		Location:   winner,
		DistanceKM: match.DistanceKM,
		ETASeconds: s.estimateETA(winner.Coord(), rider),
	}, nil
}

func (s *RideService) estimateETA(from, to models.Coord) float64 {
	if s.ETACache != nil {
		if v, ok := s.ETACache.Get(from, to); ok {
			return v
		}
	}
	if s.ETAClient != nil {
		if v, err := s.ETAClient.EstimateSeconds(from, to); err == nil {
			if s.ETACache != nil {
				s.ETACache.Set(from, to, v)
			}
			return v
		}
	}
	return eta.EstimateSeconds(from, to, s.DefaultSpeedMps)
}

// PingLocation records a driver's live position and forwards it to the
// ingestion topic when a producer is configured.
func (s *RideService) PingLocation(ctx context.Context, driverID int64, loc models.LiveLocation) error {
	if err := s.Locations.Report(ctx, driverID, loc); err != nil {
		return err
	}
	observability.LocationPings.Inc()
	if s.Publisher != nil {
		if err := s.Publisher.PublishLocation(driverID, loc); err != nil {
			s.Logger.Warn("location publish failed", "driver_id", driverID, "error", err)
		}
	}
	return nil
}
