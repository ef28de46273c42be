package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/ride-hail/internal/models"
)

var (
	ErrNotFound   = errors.New("storage: not found")
	ErrPhoneTaken = errors.New("storage: phone already registered")
	ErrEmailTaken = errors.New("storage: email already registered")
)

const (
	TableRiders  = "riders"
	TableDrivers = "drivers"
)

// RideStore defines persistence operations for rides.
type RideStore interface {
	InsertRide(ctx context.Context, riderID int64, pickup, dropoff models.Coord, status string) (*models.Ride, error)
	GetRide(ctx context.Context, id int64) (*models.Ride, error)
	UpdateRide(ctx context.Context, id int64, status string, driverID int64) (*models.Ride, error)
}

// UserStore defines persistence operations for riders and drivers. The
// table argument selects which population the operation targets.
type UserStore interface {
	CreateUser(ctx context.Context, table string, u models.User) (*models.User, error)
	FindUserByPhone(ctx context.Context, table, phone string) (*models.User, error)
}

type MemoryStore struct {
	mu     sync.RWMutex
	rides  map[int64]*models.Ride
	users  map[string]map[string]*models.User // table -> phone -> user
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rides: make(map[int64]*models.Ride),
		users: map[string]map[string]*models.User{
			TableRiders:  {},
			TableDrivers: {},
		},
	}
}

func (m *MemoryStore) InsertRide(ctx context.Context, riderID int64, pickup, dropoff models.Coord, status string) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := time.Now()
	r := &models.Ride{
		ID:        m.nextID,
		RiderID:   riderID,
		Pickup:    pickup,
		Dropoff:   dropoff,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.rides[r.ID] = r
	out := *r
	return &out, nil
}

func (m *MemoryStore) GetRide(ctx context.Context, id int64) (*models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

func (m *MemoryStore) UpdateRide(ctx context.Context, id int64, status string, driverID int64) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.Status = status
	r.DriverID = &driverID
	r.UpdatedAt = time.Now()
	out := *r
	return &out, nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, table string, u models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byPhone, ok := m.users[table]
	if !ok {
		byPhone = map[string]*models.User{}
		m.users[table] = byPhone
	}
	if _, exists := byPhone[u.Phone]; exists {
		return nil, ErrPhoneTaken
	}
	if u.Email != "" {
		for _, other := range byPhone {
			if other.Email == u.Email {
				return nil, ErrEmailTaken
			}
		}
	}
	m.nextID++
	u.ID = m.nextID
	byPhone[u.Phone] = &u
	out := u
	return &out, nil
}

func (m *MemoryStore) FindUserByPhone(ctx context.Context, table, phone string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byPhone, ok := m.users[table]
	if !ok {
		return nil, ErrNotFound
	}
	u, ok := byPhone[phone]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}
