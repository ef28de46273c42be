// Package location adapts the expiring cache into a live driver location
// store. Entries are written with a fresh TTL on every ping, so a driver
// who keeps reporting stays active indefinitely while one who goes quiet
// is evicted within one TTL window.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/example/ride-hail/internal/cache"
	"github.com/example/ride-hail/internal/models"
)

// KeyPrefix is the cache key namespace for driver locations. The format
// is relied on by cache inspection tooling and must not change.
const KeyPrefix = "location?driverId="

// ErrNotFound reports that a driver has no live location (never pinged,
// or the entry expired).
var ErrNotFound = errors.New("location: driver not active")

// DefaultTTL matches LOCATION_TTL_SECONDS' default.
const DefaultTTL = 3000 * time.Second

type Store struct {
	cache cache.Store
	ttl   time.Duration
}

func NewStore(c cache.Store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: c, ttl: ttl}
}

func Key(driverID int64) string {
	return KeyPrefix + strconv.FormatInt(driverID, 10)
}

// Report overwrites the driver's live location and resets its TTL.
func (s *Store) Report(ctx context.Context, driverID int64, loc models.LiveLocation) error {
	b, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("location: encode driver %d: %w", driverID, err)
	}
	if err := s.cache.SetWithTTL(ctx, Key(driverID), string(b), s.ttl); err != nil {
		return fmt.Errorf("location: store driver %d: %w", driverID, err)
	}
	return nil
}

// ActiveDriverIDs enumerates drivers with an unexpired location entry.
// Order follows cache enumeration and carries no meaning. Keys whose
// suffix is not a numeric id are ignored.
func (s *Store) ActiveDriverIDs(ctx context.Context) ([]int64, error) {
	keys, err := s.cache.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("location: list active drivers: %w", err)
	}
	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		id, err := strconv.ParseInt(k[len(KeyPrefix):], 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Get returns the driver's live location, or ErrNotFound when absent or
// expired.
func (s *Store) Get(ctx context.Context, driverID int64) (models.LiveLocation, error) {
	v, err := s.cache.Get(ctx, Key(driverID))
	if errors.Is(err, cache.ErrMiss) {
		return models.LiveLocation{}, ErrNotFound
	}
	if err != nil {
		return models.LiveLocation{}, fmt.Errorf("location: fetch driver %d: %w", driverID, err)
	}
	var loc models.LiveLocation
	if err := json.Unmarshal([]byte(v), &loc); err != nil {
		return models.LiveLocation{}, fmt.Errorf("location: decode driver %d: %w", driverID, err)
	}
	return loc, nil
}
