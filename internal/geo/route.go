package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"bitebay/internal/types"
)

var ErrNoRoute = errors.New("no route found")

// Router predicts travel time between two points.
type Router interface {
	TravelTime(ctx context.Context, from, to types.Point) (time.Duration, error)
}

type directionsAPI interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// GoogleRouter asks the Directions API for a two-wheeler friendly driving route.
type GoogleRouter struct {
	client directionsAPI
	region string
}

func NewGoogleRouter(apiKey, region string) (*GoogleRouter, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleRouter{client: client, region: region}, nil
}

func (g *GoogleRouter) TravelTime(ctx context.Context, from, to types.Point) (time.Duration, error) {
	routes, _, err := g.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      latLng(from),
		Destination: latLng(to),
		Mode:        maps.TravelModeDriving,
		Region:      g.region,
	})
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, ErrNoRoute
	}
	return routes[0].Legs[0].Duration, nil
}

func latLng(p types.Point) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// SpeedRouter assumes a constant average speed over the straight-line distance.
type SpeedRouter struct {
	KmPerHour float64
}

func (s SpeedRouter) TravelTime(_ context.Context, from, to types.Point) (time.Duration, error) {
	if s.KmPerHour <= 0 {
		return 0, ErrNoRoute
	}
	hours := HaversineKm(from, to) / s.KmPerHour
	return time.Duration(hours * float64(time.Hour)), nil
}

// RouteChain returns the first router's answer that succeeds.
type RouteChain []Router

func (c RouteChain) TravelTime(ctx context.Context, from, to types.Point) (time.Duration, error) {
	errs := []error{ErrNoRoute}
	for _, r := range c {
		d, err := r.TravelTime(ctx, from, to)
		if err == nil {
			return d, nil
		}
		errs = append(errs, err)
	}
	return 0, errors.Join(errs...)
}
