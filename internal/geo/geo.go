// README: Geocoding contracts plus pure geographic helpers.
package geo

import (
	"context"
	"errors"
	"math"

	"bitebay/internal/types"
)

var ErrNoResult = errors.New("no geocoding result")

type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
	Reverse(ctx context.Context, p types.Point) (string, error)
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two points.
func HaversineKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// Midpoint is the arithmetic midpoint; good enough at city scale.
func Midpoint(a, b types.Point) types.Point {
	return types.Point{Lat: (a.Lat + b.Lat) / 2, Lng: (a.Lng + b.Lng) / 2}
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
