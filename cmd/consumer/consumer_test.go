package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/ride-hail/internal/models"
)

// fakeWriter implements LocationWriter for tests
type fakeWriter struct {
	fail  int // number of times to fail before succeeding
	calls int
	last  models.LiveLocation
}

func (f *fakeWriter) Report(ctx context.Context, driverID int64, loc models.LiveLocation) error {
	f.calls++
	if f.calls <= f.fail {
		return errors.New("cache fail")
	}
	f.last = loc
	return nil
}

func TestUpdateLocationWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeWriter{fail: 1}
	loc := models.LiveLocation{Latitude: 23.81, Longitude: 90.41, Phone: "01711111111"}
	start := time.Now()
	if err := updateLocationWithRetry(context.Background(), f, 7, loc, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls < 2 {
		t.Fatalf("expected retries, got %d calls", f.calls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
	if f.last != loc {
		t.Fatalf("wrong payload written: %+v", f.last)
	}
}

func TestUpdateLocationWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeWriter{fail: 5}
	loc := models.LiveLocation{Latitude: 23.81, Longitude: 90.41}
	if err := updateLocationWithRetry(context.Background(), f, 7, loc, 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
}
