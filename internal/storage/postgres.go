package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/example/ride-hail/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) InsertRide(ctx context.Context, riderID int64, pickup, dropoff models.Coord, status string) (*models.Ride, error) {
	now := time.Now()
	r := &models.Ride{RiderID: riderID, Pickup: pickup, Dropoff: dropoff, Status: status, CreatedAt: now, UpdatedAt: now}
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO rides(rider_id, pickup_lat, pickup_lon, dropoff_lat, dropoff_lon, status, created_at, updated_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		riderID, pickup.Lat, pickup.Lon, dropoff.Lat, dropoff.Lon, status, now, now).Scan(&r.ID)
	if err != nil {
		return nil, fmt.Errorf("insert ride: %w", err)
	}
	return r, nil
}

func (p *PostgresStore) GetRide(ctx context.Context, id int64) (*models.Ride, error) {
	r := &models.Ride{}
	var driverID sql.NullInt64
	err := p.db.QueryRowContext(ctx,
		`SELECT id, rider_id, driver_id, pickup_lat, pickup_lon, dropoff_lat, dropoff_lon, status, created_at, updated_at
		 FROM rides WHERE id=$1`, id).
		Scan(&r.ID, &r.RiderID, &driverID, &r.Pickup.Lat, &r.Pickup.Lon, &r.Dropoff.Lat, &r.Dropoff.Lon, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ride %d: %w", id, err)
	}
	if driverID.Valid {
		r.DriverID = &driverID.Int64
	}
	return r, nil
}

func (p *PostgresStore) UpdateRide(ctx context.Context, id int64, status string, driverID int64) (*models.Ride, error) {
	r := &models.Ride{}
	err := p.db.QueryRowContext(ctx,
		`UPDATE rides SET status=$1, driver_id=$2, updated_at=$3 WHERE id=$4
		 RETURNING id, rider_id, driver_id, pickup_lat, pickup_lon, dropoff_lat, dropoff_lon, status, created_at, updated_at`,
		status, driverID, time.Now(), id).
		Scan(&r.ID, &r.RiderID, &r.DriverID, &r.Pickup.Lat, &r.Pickup.Lon, &r.Dropoff.Lat, &r.Dropoff.Lon, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update ride %d: %w", id, err)
	}
	return r, nil
}

func (p *PostgresStore) CreateUser(ctx context.Context, table string, u models.User) (*models.User, error) {
	var err error
	switch table {
	case TableRiders:
		err = p.db.QueryRowContext(ctx,
			`INSERT INTO riders(name, phone, email) VALUES($1,$2,$3) RETURNING id`,
			u.Name, u.Phone, u.Email).Scan(&u.ID)
	case TableDrivers:
		err = p.db.QueryRowContext(ctx,
			`INSERT INTO drivers(name, phone) VALUES($1,$2) RETURNING id`,
			u.Name, u.Phone).Scan(&u.ID)
	default:
		return nil, fmt.Errorf("create user: unknown table %q", table)
	}
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return &u, nil
}

func (p *PostgresStore) FindUserByPhone(ctx context.Context, table, phone string) (*models.User, error) {
	var (
		u   models.User
		err error
	)
	switch table {
	case TableRiders:
		u.Role = models.RoleRider
		err = p.db.QueryRowContext(ctx, `SELECT id, name, phone, email FROM riders WHERE phone=$1`, phone).
			Scan(&u.ID, &u.Name, &u.Phone, &u.Email)
	case TableDrivers:
		u.Role = models.RoleDriver
		err = p.db.QueryRowContext(ctx, `SELECT id, name, phone FROM drivers WHERE phone=$1`, phone).
			Scan(&u.ID, &u.Name, &u.Phone)
	default:
		return nil, fmt.Errorf("find user: unknown table %q", table)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by phone: %w", err)
	}
	return &u, nil
}

// mapUniqueViolation translates Postgres unique-constraint failures into
// the store's conflict sentinels so callers can answer 409s precisely.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if strings.Contains(pqErr.Constraint, "email") {
			return ErrEmailTaken
		}
		return ErrPhoneTaken
	}
	return fmt.Errorf("create user: %w", err)
}

func (p *PostgresStore) Close() error { return p.db.Close() }
