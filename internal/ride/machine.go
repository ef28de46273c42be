// Package ride owns ride records and their forward-only lifecycle:
// requested -> accept -> start -> end/cancel. Every mutation goes through
// Transition, which enforces that the status rank only ever increases.
package ride

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/ride-hail/internal/models"
	"github.com/example/ride-hail/internal/storage"
)

type Machine struct {
	store  storage.RideStore
	logger *slog.Logger
	locks  keyedMutex
}

func NewMachine(store storage.RideStore, logger *slog.Logger) *Machine {
	return &Machine{store: store, logger: logger}
}

// Create persists a new ride in the requested state with no driver.
// Both coordinates must be present; field-format validation is the
// boundary layer's job.
func (m *Machine) Create(ctx context.Context, riderID int64, pickup, dropoff *models.Coord) (*models.Ride, error) {
	if pickup == nil || dropoff == nil {
		return nil, ErrInvalidLocation
	}
	r, err := m.store.InsertRide(ctx, riderID, *pickup, *dropoff, string(StatusRequested))
	if err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}
	m.logger.Info("ride created", "ride_id", r.ID, "rider_id", riderID)
	return r, nil
}

// Transition moves a ride to target and records driverID as the assigned
// driver, overwriting any prior assignment. The target rank must strictly
// exceed the current rank: an equal rank fails with ErrUnmodifiedStatus
// (a no-op conflict, not a server fault) and a lower rank with
// ErrInvalidTransition. The whole read-validate-write runs under a
// per-ride lock, so concurrent attempts observe each other's results and
// a retried call re-validates against fresh state.
func (m *Machine) Transition(ctx context.Context, rideID int64, target Status, driverID int64) (*models.Ride, error) {
	targetRank, ok := Rank(target)
	if !ok {
		return nil, ErrUnknownStatus
	}

	unlock := m.locks.lock(rideID)
	defer unlock()

	cur, err := m.store.GetRide(ctx, rideID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load ride %d: %w", rideID, err)
	}

	curRank, ok := Rank(Status(cur.Status))
	if !ok {
		return nil, fmt.Errorf("ride %d has unrecognized stored status %q", rideID, cur.Status)
	}
	if targetRank == curRank {
		return nil, ErrUnmodifiedStatus
	}
	if targetRank < curRank {
		return nil, ErrInvalidTransition
	}

	updated, err := m.store.UpdateRide(ctx, rideID, string(target), driverID)
	if err != nil {
		return nil, fmt.Errorf("update ride %d: %w", rideID, err)
	}
	m.logger.Info("ride transitioned",
		"ride_id", rideID, "from", cur.Status, "to", target, "driver_id", driverID)
	return updated, nil
}
