package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"localmarket/internal/geo"

	"googlemaps.github.io/maps"
)

// ErrDirectionsUnavailable is returned when no maps client is configured
var ErrDirectionsUnavailable = errors.New("directions provider not configured")

// TravelMode is the means of transport for a planned route
type TravelMode string

const (
	TravelModeDriving   TravelMode = "driving"
	TravelModeWalking   TravelMode = "walking"
	TravelModeBicycling TravelMode = "bicycling"
	TravelModeTransit   TravelMode = "transit"
)

// Route is the provider-computed geometry and timing for one itinerary
type Route struct {
	Summary        string        `json:"summary"`
	Polyline       string        `json:"polyline"`
	DistanceMeters int           `json:"distance_meters"`
	Duration       time.Duration `json:"duration"`
}

// DirectionsService wraps the Google Maps Directions API. Route geometry
// and ETA come entirely from the provider.
type DirectionsService struct {
	client  *maps.Client
	timeout time.Duration
}

// NewDirectionsService constructs a directions service. An empty API key
// yields a service whose GetRoute always fails with ErrDirectionsUnavailable.
func NewDirectionsService(apiKey string) *DirectionsService {
	s := &DirectionsService{timeout: 10 * time.Second}
	if apiKey == "" {
		return s
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return s
	}
	s.client = client
	return s
}

// GetRoute asks the provider for an itinerary through the given waypoints
func (s *DirectionsService) GetRoute(ctx context.Context, origin, destination geo.Coordinates, waypoints []geo.Coordinates, mode TravelMode) (*Route, error) {
	if s.client == nil {
		return nil, ErrDirectionsUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := &maps.DirectionsRequest{
		Origin:      latLngParam(origin),
		Destination: latLngParam(destination),
		Mode:        travelMode(mode),
	}
	for _, wp := range waypoints {
		req.Waypoints = append(req.Waypoints, latLngParam(wp))
	}

	routes, _, err := s.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	if len(routes) == 0 {
		return nil, errors.New("no route found")
	}

	best := routes[0]
	route := &Route{
		Summary:  best.Summary,
		Polyline: best.OverviewPolyline.Points,
	}
	for _, leg := range best.Legs {
		route.DistanceMeters += leg.Distance.Meters
		route.Duration += leg.Duration
	}
	return route, nil
}

func latLngParam(c geo.Coordinates) string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lng)
}

func travelMode(mode TravelMode) maps.Mode {
	switch mode {
	case TravelModeWalking:
		return maps.TravelModeWalking
	case TravelModeBicycling:
		return maps.TravelModeBicycling
	case TravelModeTransit:
		return maps.TravelModeTransit
	default:
		return maps.TravelModeDriving
	}
}
