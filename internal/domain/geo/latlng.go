package geo

import (
	"errors"
	"fmt"
	"math"
)

// LatLng is a geographic coordinate pair in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultCenter is used whenever no position is known yet.
var DefaultCenter = LatLng{Lat: 15.3694, Lng: 44.1910}

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// Validate checks that both axes are finite and within range.
func (point LatLng) Validate() error {
	if math.IsNaN(point.Lat) || math.IsInf(point.Lat, 0) || point.Lat < -90 || point.Lat > 90 {
		return ErrInvalidLatitude
	}
	if math.IsNaN(point.Lng) || math.IsInf(point.Lng, 0) || point.Lng < -180 || point.Lng > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// Valid reports whether the point passes Validate.
func (point LatLng) Valid() bool {
	return point.Validate() == nil
}

// String returns "lat,lng" with enough precision for routing requests.
func (point LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", point.Lat, point.Lng)
}

// Distance returns the Euclidean distance between two points in coordinate
// degrees. It is not a physical distance; it is the cheap metric used for
// jitter filtering, where 1e-5 degrees is roughly one meter.
func Distance(a, b LatLng) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lng-b.Lng)
}

// HaversineKM returns the great-circle distance between two points in kilometers.
func HaversineKM(a, b LatLng) float64 {
	const earthRadiusKM = 6371.0
	la1 := a.Lat * math.Pi / 180
	la2 := b.Lat * math.Pi / 180
	dla := (b.Lat - a.Lat) * math.Pi / 180
	dln := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dla/2)*math.Sin(dla/2) +
		math.Cos(la1)*math.Cos(la2)*math.Sin(dln/2)*math.Sin(dln/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
