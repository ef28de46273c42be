package geo

import (
	"math"
	"testing"

	"github.com/example/ride-hail/internal/models"
)

func TestHaversineZero(t *testing.T) {
	if d := Haversine(23.81, 90.41, 23.81, 90.41); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := Haversine(23.81, 90.41, 23.77, 90.39)
	b := Haversine(23.77, 90.39, 23.81, 90.41)
	if math.Abs(a-b) > 1e-12 {
		t.Fatalf("expected symmetric distance, got %f vs %f", a, b)
	}
	if a <= 0 {
		t.Fatalf("expected positive distance, got %f", a)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Dhaka to Chittagong, roughly 215 km great-circle.
	d := Haversine(23.8103, 90.4125, 22.3569, 91.7832)
	if d < 200 || d > 230 {
		t.Fatalf("unexpected distance %f", d)
	}
}

func TestNearestPicksClosest(t *testing.T) {
	rider := models.Coord{Lat: 23.80, Lon: 90.40}
	cands := []Candidate{
		{DriverID: 2, Loc: models.Coord{Lat: 23.90, Lon: 90.50}},
		{DriverID: 1, Loc: models.Coord{Lat: 23.81, Lon: 90.41}},
	}
	m, ok := Nearest(rider, cands, nil)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.DriverID != 1 {
		t.Fatalf("expected driver 1, got %d", m.DriverID)
	}
	for _, c := range cands {
		if d := Haversine(rider.Lat, rider.Lon, c.Loc.Lat, c.Loc.Lon); d < m.DistanceKM {
			t.Fatalf("candidate %d closer (%f) than match (%f)", c.DriverID, d, m.DistanceKM)
		}
	}
}

func TestNearestEmpty(t *testing.T) {
	if _, ok := Nearest(models.Coord{}, nil, nil); ok {
		t.Fatal("expected no match for empty candidate set")
	}
}

func TestNearestFirstSeenWinsOnTie(t *testing.T) {
	rider := models.Coord{Lat: 0, Lon: 0}
	cands := []Candidate{
		{DriverID: 5, Loc: models.Coord{Lat: 1, Lon: 0}},
		{DriverID: 9, Loc: models.Coord{Lat: -1, Lon: 0}}, // same distance
	}
	m, ok := Nearest(rider, cands, nil)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.DriverID != 5 {
		t.Fatalf("tie must resolve to first seen, got %d", m.DriverID)
	}
}

func TestNearestSkipsMalformed(t *testing.T) {
	rider := models.Coord{Lat: 23.80, Lon: 90.40}
	var skippedIDs []int64
	cands := []Candidate{
		{DriverID: 1, Loc: models.Coord{Lat: math.NaN(), Lon: 90.41}},
		{DriverID: 2, Loc: models.Coord{Lat: 91.5, Lon: 90.41}},
		{DriverID: 3, Loc: models.Coord{Lat: 23.81, Lon: 90.41}},
	}
	m, ok := Nearest(rider, cands, func(c Candidate) { skippedIDs = append(skippedIDs, c.DriverID) })
	if !ok || m.DriverID != 3 {
		t.Fatalf("expected driver 3, got %+v ok=%v", m, ok)
	}
	if len(skippedIDs) != 2 || skippedIDs[0] != 1 || skippedIDs[1] != 2 {
		t.Fatalf("expected drivers 1 and 2 skipped, got %v", skippedIDs)
	}
}

func TestNearestAllMalformed(t *testing.T) {
	cands := []Candidate{{DriverID: 1, Loc: models.Coord{Lat: math.Inf(1)}}}
	if _, ok := Nearest(models.Coord{}, cands, nil); ok {
		t.Fatal("expected no match when every candidate is malformed")
	}
}
