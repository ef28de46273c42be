package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/ride-hail/internal/cache"
	"github.com/example/ride-hail/internal/location"
	"github.com/example/ride-hail/internal/models"
	"github.com/example/ride-hail/internal/ride"
	"github.com/example/ride-hail/internal/storage"
)

type fakeNotifier struct {
	updates []models.RideUpdate
}

func (f *fakeNotifier) NotifyRide(driverID int64, u models.RideUpdate) error {
	f.updates = append(f.updates, u)
	return nil
}

type fakeCharger struct {
	holds, captures, cancels []int64
}

func (f *fakeCharger) Hold(ctx context.Context, rideID, amountMinor int64, currency string) error {
	f.holds = append(f.holds, rideID)
	return nil
}
func (f *fakeCharger) Capture(ctx context.Context, rideID int64) error {
	f.captures = append(f.captures, rideID)
	return nil
}
func (f *fakeCharger) Cancel(ctx context.Context, rideID int64) error {
	f.cancels = append(f.cancels, rideID)
	return nil
}

func newTestService(t *testing.T) (*RideService, *fakeNotifier, *fakeCharger) {
	t.Helper()
	mem := cache.NewMemory()
	t.Cleanup(mem.Stop)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &fakeNotifier{}
	charger := &fakeCharger{}
	svc := &RideService{
		Machine:         ride.NewMachine(storage.NewMemoryStore(), logger),
		Locations:       location.NewStore(mem, time.Minute),
		Logger:          logger,
		Notifier:        notifier,
		Charger:         charger,
		Currency:        "usd",
		DefaultSpeedMps: 10,
	}
	return svc, notifier, charger
}

func coord(lat, lon float64) *models.Coord { return &models.Coord{Lat: lat, Lon: lon} }

func TestRequestRide(t *testing.T) {
	svc, _, _ := newTestService(t)
	r, err := svc.RequestRide(context.Background(), models.RideRequest{
		RiderID: 11, Pickup: coord(23.81, 90.41), Dropoff: coord(23.77, 90.39),
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != "requested" || r.DriverID != nil {
		t.Fatalf("unexpected new ride %+v", r)
	}
}

func TestRequestRideMissingCoordinate(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.RequestRide(context.Background(), models.RideRequest{RiderID: 11, Pickup: coord(1, 2)})
	if !errors.Is(err, ride.ErrInvalidLocation) {
		t.Fatalf("expected ErrInvalidLocation, got %v", err)
	}
}

func TestUpdateRideStatusSideEffects(t *testing.T) {
	svc, notifier, charger := newTestService(t)
	ctx := context.Background()
	r, err := svc.RequestRide(ctx, models.RideRequest{RiderID: 11, Pickup: coord(23.81, 90.41), Dropoff: coord(23.77, 90.39)})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpdateRideStatus(ctx, r.ID, ride.StatusAccept, 7); err != nil {
		t.Fatal(err)
	}
	if len(charger.holds) != 1 || charger.holds[0] != r.ID {
		t.Fatalf("expected a hold on accept, got %+v", charger)
	}
	if len(notifier.updates) != 1 || notifier.updates[0].Status != "accept" || notifier.updates[0].DriverID != 7 {
		t.Fatalf("expected driver notification, got %+v", notifier.updates)
	}

	if _, err := svc.UpdateRideStatus(ctx, r.ID, ride.StatusStart, 7); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateRideStatus(ctx, r.ID, ride.StatusEnd, 7); err != nil {
		t.Fatal(err)
	}
	if len(charger.captures) != 1 || charger.captures[0] != r.ID {
		t.Fatalf("expected a capture on end, got %+v", charger)
	}
}

func TestUpdateRideStatusCancelReleasesHold(t *testing.T) {
	svc, _, charger := newTestService(t)
	ctx := context.Background()
	r, _ := svc.RequestRide(ctx, models.RideRequest{RiderID: 11, Pickup: coord(23.81, 90.41), Dropoff: coord(23.77, 90.39)})
	_, _ = svc.UpdateRideStatus(ctx, r.ID, ride.StatusAccept, 7)
	if _, err := svc.UpdateRideStatus(ctx, r.ID, ride.StatusCancel, 7); err != nil {
		t.Fatal(err)
	}
	if len(charger.cancels) != 1 {
		t.Fatalf("expected hold release on cancel, got %+v", charger)
	}
}

func TestUpdateRideStatusConflictSkipsSideEffects(t *testing.T) {
	svc, notifier, charger := newTestService(t)
	ctx := context.Background()
	r, _ := svc.RequestRide(ctx, models.RideRequest{RiderID: 11, Pickup: coord(23.81, 90.41), Dropoff: coord(23.77, 90.39)})
	_, _ = svc.UpdateRideStatus(ctx, r.ID, ride.StatusAccept, 7)
	if _, err := svc.UpdateRideStatus(ctx, r.ID, ride.StatusAccept, 7); !errors.Is(err, ride.ErrUnmodifiedStatus) {
		t.Fatalf("expected ErrUnmodifiedStatus, got %v", err)
	}
	if len(charger.holds) != 1 || len(notifier.updates) != 1 {
		t.Fatalf("conflicting transition must not repeat side effects: %+v %+v", charger, notifier.updates)
	}
}

func TestFindNearestDriver(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.PingLocation(ctx, 1, models.LiveLocation{Latitude: 23.81, Longitude: 90.41, Phone: "01711111111"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.PingLocation(ctx, 2, models.LiveLocation{Latitude: 23.90, Longitude: 90.50, Phone: "01722222222"}); err != nil {
		t.Fatal(err)
	}

	near, err := svc.FindNearestDriver(ctx, models.Coord{Lat: 23.80, Lon: 90.40})
	if err != nil {
		t.Fatal(err)
	}
	if near.DriverID != 1 {
		t.Fatalf("expected driver 1 (closer), got %d", near.DriverID)
	}
	if near.Location.Phone != "01711111111" {
		t.Fatalf("winner location not returned: %+v", near.Location)
	}
	if near.DistanceKM <= 0 || near.ETASeconds <= 0 {
		t.Fatalf("expected distance and eta, got %+v", near)
	}
}

func TestFindNearestDriverNoneActive(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.FindNearestDriver(context.Background(), models.Coord{Lat: 23.80, Lon: 90.40}); !errors.Is(err, ErrNoDriversAvailable) {
		t.Fatalf("expected ErrNoDriversAvailable, got %v", err)
	}
}

func TestFindNearestDriverAllExpired(t *testing.T) {
	mem := cache.NewMemory()
	t.Cleanup(mem.Stop)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := &RideService{
		Machine:         ride.NewMachine(storage.NewMemoryStore(), logger),
		Locations:       location.NewStore(mem, 10*time.Millisecond),
		Logger:          logger,
		DefaultSpeedMps: 10,
	}
	ctx := context.Background()
	_ = svc.PingLocation(ctx, 1, models.LiveLocation{Latitude: 23.81, Longitude: 90.41})
	time.Sleep(20 * time.Millisecond)
	if _, err := svc.FindNearestDriver(ctx, models.Coord{Lat: 23.80, Lon: 90.40}); !errors.Is(err, ErrNoDriversAvailable) {
		t.Fatalf("expected ErrNoDriversAvailable after expiry, got %v", err)
	}
}
