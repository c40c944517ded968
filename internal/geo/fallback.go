package geo

import (
	"context"
	"math"
	"strings"

	"bitebay/internal/types"
)

// Place is one row of the approximate-coordinates table.
type Place struct {
	Name  string
	Point types.Point
}

// DefaultPlaces covers the cities and districts the marketplace launched in.
// Districts are listed before their city so the more specific match wins.
var DefaultPlaces = []Place{
	{Name: "koramangala", Point: types.Point{Lat: 12.9352, Lng: 77.6245}},
	{Name: "indiranagar", Point: types.Point{Lat: 12.9784, Lng: 77.6408}},
	{Name: "whitefield", Point: types.Point{Lat: 12.9698, Lng: 77.7500}},
	{Name: "bangalore", Point: types.Point{Lat: 12.9716, Lng: 77.5946}},
	{Name: "bengaluru", Point: types.Point{Lat: 12.9716, Lng: 77.5946}},
	{Name: "andheri", Point: types.Point{Lat: 19.1136, Lng: 72.8697}},
	{Name: "bandra", Point: types.Point{Lat: 19.0596, Lng: 72.8295}},
	{Name: "mumbai", Point: types.Point{Lat: 19.0760, Lng: 72.8777}},
	{Name: "connaught place", Point: types.Point{Lat: 28.6315, Lng: 77.2167}},
	{Name: "new delhi", Point: types.Point{Lat: 28.6139, Lng: 77.2090}},
	{Name: "delhi", Point: types.Point{Lat: 28.7041, Lng: 77.1025}},
	{Name: "gurugram", Point: types.Point{Lat: 28.4595, Lng: 77.0266}},
	{Name: "noida", Point: types.Point{Lat: 28.5355, Lng: 77.3910}},
	{Name: "hyderabad", Point: types.Point{Lat: 17.3850, Lng: 78.4867}},
	{Name: "chennai", Point: types.Point{Lat: 13.0827, Lng: 80.2707}},
	{Name: "kolkata", Point: types.Point{Lat: 22.5726, Lng: 88.3639}},
	{Name: "pune", Point: types.Point{Lat: 18.5204, Lng: 73.8567}},
	{Name: "ahmedabad", Point: types.Point{Lat: 23.0225, Lng: 72.5714}},
	{Name: "jaipur", Point: types.Point{Lat: 26.9124, Lng: 75.7873}},
	{Name: "kochi", Point: types.Point{Lat: 9.9312, Lng: 76.2673}},
}

// FallbackGeocoder answers from a fixed table when the real provider is down.
// Matching is a case-insensitive substring search in table order.
type FallbackGeocoder struct {
	places []Place
}

func NewFallbackGeocoder(places []Place) *FallbackGeocoder {
	if len(places) == 0 {
		places = DefaultPlaces
	}
	return &FallbackGeocoder{places: places}
}

func (f *FallbackGeocoder) Geocode(_ context.Context, address string) (types.Point, error) {
	needle := strings.ToLower(address)
	for _, p := range f.places {
		if strings.Contains(needle, p.Name) {
			return p.Point, nil
		}
	}
	return types.Point{}, ErrNoResult
}

// Reverse returns the nearest table entry within 25 km.
func (f *FallbackGeocoder) Reverse(_ context.Context, p types.Point) (string, error) {
	best, bestKm := "", math.MaxFloat64
	for _, place := range f.places {
		if d := HaversineKm(p, place.Point); d < bestKm {
			best, bestKm = place.Name, d
		}
	}
	if best == "" || bestKm > 25 {
		return "", ErrNoResult
	}
	return best, nil
}
