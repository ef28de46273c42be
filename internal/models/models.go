package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

const (
	RoleDriver = "driver"
	RoleRider  = "rider"
)

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
	Role  string `json:"type"` // driver | rider
}

// LiveLocation is the ephemeral per-driver record kept in the expiring
// cache. The field names are the cache value wire format and must stay
// compatible with existing cache inspection tooling.
type LiveLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Phone     string  `json:"driverPhone"`
}

func (l LiveLocation) Coord() Coord { return Coord{Lat: l.Latitude, Lon: l.Longitude} }

type Ride struct {
	ID        int64     `json:"id"`
	RiderID   int64     `json:"rider_id"`
	DriverID  *int64    `json:"driver_id,omitempty"` // nil until a driver acts on the ride
	Pickup    Coord     `json:"pickup"`
	Dropoff   Coord     `json:"dropoff"`
	Status    string    `json:"status"` // requested, accept, start, end, cancel
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RideRequest struct {
	RiderID int64  `json:"rider_id"`
	Pickup  *Coord `json:"pickup"`
	Dropoff *Coord `json:"dropoff"`
}

// NearestDriver is the answer to a rider's nearest-driver query.
type NearestDriver struct {
	DriverID   int64        `json:"driver_id"`
	Location   LiveLocation `json:"location"`
	DistanceKM float64      `json:"distance_km"`
	ETASeconds float64      `json:"eta_seconds,omitempty"`
}

// RideUpdate is pushed to the assigned driver's websocket session when a
// ride it is involved in changes status.
type RideUpdate struct {
	RideID   int64  `json:"ride_id"`
	Status   string `json:"status"`
	DriverID int64  `json:"driver_id"`
}
