// Package geo implements the geofence gate that restricts access to
// participants physically near the campus.
package geo

import (
	"errors"
	"math"
	"os"
	"strconv"
)

// VIT campus reference point and allowed radius.
const (
	CampusLatitude  = 12.9692
	CampusLongitude = 79.1559
	CampusRadiusKm  = 5
)

const earthRadiusKm = 6371

// ErrUnavailable is returned when coordinates cannot be obtained.
var ErrUnavailable = errors.New("geo: coordinates unavailable")

// Distance returns the great-circle distance in kilometers between two
// coordinates using the haversine formula on a spherical Earth.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// IsWithinRadius reports whether the two coordinates are at most radiusKm
// kilometers apart. A distance exactly equal to the radius is inside.
func IsWithinRadius(lat1, lng1, lat2, lng2, radiusKm float64) bool {
	return Distance(lat1, lng1, lat2, lng2) <= radiusKm
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// CoordinateSource is a one-shot coordinate read. Implementations wrap
// whatever positioning facility the host environment provides.
type CoordinateSource interface {
	Coordinates() (lat, lng float64, err error)
}

// StaticSource returns fixed coordinates. Useful in tests and for clients
// whose position is configured rather than measured.
type StaticSource struct {
	Lat float64
	Lng float64
}

func (s StaticSource) Coordinates() (float64, float64, error) {
	return s.Lat, s.Lng, nil
}

// EnvSource reads coordinates from the GEO_LATITUDE and GEO_LONGITUDE
// environment variables. Missing or malformed values map to
// ErrUnavailable, the same outcome as a denied positioning permission.
type EnvSource struct{}

func (EnvSource) Coordinates() (float64, float64, error) {
	latStr := os.Getenv("GEO_LATITUDE")
	lngStr := os.Getenv("GEO_LONGITUDE")
	if latStr == "" || lngStr == "" {
		return 0, 0, ErrUnavailable
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, ErrUnavailable
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return 0, 0, ErrUnavailable
	}
	return lat, lng, nil
}

// Gate decides access eligibility against a reference point.
type Gate struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

// CampusGate returns the gate configured for the campus constants.
func CampusGate() Gate {
	return Gate{Lat: CampusLatitude, Lng: CampusLongitude, RadiusKm: CampusRadiusKm}
}

// Admit reads one coordinate fix from src and reports whether it falls
// inside the gate. The error is non-nil only when the read itself failed.
func (g Gate) Admit(src CoordinateSource) (bool, error) {
	lat, lng, err := src.Coordinates()
	if err != nil {
		return false, err
	}
	return IsWithinRadius(lat, lng, g.Lat, g.Lng, g.RadiusKm), nil
}
