package eta

import (
	"testing"
	"time"

	"github.com/example/ride-hail/internal/models"
)

func TestEstimateSecondsScalesWithDistance(t *testing.T) {
	a := models.Coord{Lat: 23.80, Lon: 90.40}
	near := models.Coord{Lat: 23.81, Lon: 90.41}
	far := models.Coord{Lat: 23.90, Lon: 90.50}
	if EstimateSeconds(a, near, 10) >= EstimateSeconds(a, far, 10) {
		t.Fatal("nearer point must have a smaller ETA")
	}
	if EstimateSeconds(a, a, 10) != 0 {
		t.Fatal("zero distance must have zero ETA")
	}
}

func TestEstimateSecondsDefaultSpeed(t *testing.T) {
	a := models.Coord{Lat: 23.80, Lon: 90.40}
	b := models.Coord{Lat: 23.81, Lon: 90.41}
	if EstimateSeconds(a, b, 0) <= 0 {
		t.Fatal("non-positive speed must fall back to a sane default")
	}
}

func TestCacheRoundTripAndExpiry(t *testing.T) {
	c := NewCache(20 * time.Millisecond)
	a := models.Coord{Lat: 1, Lon: 2}
	b := models.Coord{Lat: 3, Lon: 4}
	if _, ok := c.Get(a, b); ok {
		t.Fatal("empty cache hit")
	}
	c.Set(a, b, 42)
	if v, ok := c.Get(a, b); !ok || v != 42 {
		t.Fatalf("got %f ok=%v", v, ok)
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get(a, b); ok {
		t.Fatal("expired entry still served")
	}
}
