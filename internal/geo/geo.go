package geo

import (
	"math"

	"github.com/example/ride-hail/internal/models"
)

// Candidate is one driver considered by Nearest.
type Candidate struct {
	DriverID int64
	Loc      models.Coord
}

// Match is the winning candidate plus its great-circle distance.
type Match struct {
	Candidate
	DistanceKM float64
}

// Haversine returns the great-circle distance in kilometers between two
// points given in degrees. Earth radius 6371 km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

// Nearest scans candidates and returns the one closest to rider. Ties are
// deterministic: only a strictly smaller distance replaces the current
// best, so the first candidate seen at the minimum distance wins.
// Candidates with malformed coordinates are skipped; the skipped callback,
// when non-nil, is invoked for each so the caller can log a warning.
// Returns false when no usable candidate exists.
func Nearest(rider models.Coord, candidates []Candidate, skipped func(Candidate)) (Match, bool) {
	best := Match{DistanceKM: math.Inf(1)}
	found := false
	for _, c := range candidates {
		if !validCoord(c.Loc) {
			if skipped != nil {
				skipped(c)
			}
			continue
		}
		d := Haversine(rider.Lat, rider.Lon, c.Loc.Lat, c.Loc.Lon)
		if d < best.DistanceKM {
			best = Match{Candidate: c, DistanceKM: d}
			found = true
		}
	}
	return best, found
}

func validCoord(c models.Coord) bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}
