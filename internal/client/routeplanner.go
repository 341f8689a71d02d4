package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"localmarket/internal/geo"
	"localmarket/internal/services"
)

// ErrRouteIncomplete is returned when planning without origin and destination
var ErrRouteIncomplete = errors.New("route requires both an origin and a destination")

// DirectionsProvider computes route geometry and ETA
// (implemented by services.DirectionsService)
type DirectionsProvider interface {
	GetRoute(ctx context.Context, origin, destination geo.Coordinates, waypoints []geo.Coordinates, mode services.TravelMode) (*services.Route, error)
}

// SavedRoute is a named itinerary the user stored for reuse
type SavedRoute struct {
	Name        string              `json:"name"`
	Origin      geo.Coordinates     `json:"origin"`
	Destination geo.Coordinates     `json:"destination"`
	Waypoints   []geo.Coordinates   `json:"waypoints"`
	Mode        services.TravelMode `json:"mode"`
}

// RoutePlanner is the route-planning state container. All geometry and
// timing comes from the directions provider; the planner only manages the
// itinerary being edited.
type RoutePlanner struct {
	mu          sync.Mutex
	provider    DirectionsProvider
	origin      *geo.Coordinates
	destination *geo.Coordinates
	waypoints   []geo.Coordinates
	mode        services.TravelMode
	panelOpen   bool
	current     *services.Route
	saved       map[string]SavedRoute
}

// NewRoutePlanner creates a planner backed by the given directions provider
func NewRoutePlanner(provider DirectionsProvider) *RoutePlanner {
	return &RoutePlanner{
		provider: provider,
		mode:     services.TravelModeDriving,
		saved:    make(map[string]SavedRoute),
	}
}

// SetOrigin sets the route start; any previously computed route is stale
func (p *RoutePlanner) SetOrigin(c geo.Coordinates) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.origin = &c
	p.current = nil
}

// SetDestination sets the route end
func (p *RoutePlanner) SetDestination(c geo.Coordinates) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destination = &c
	p.current = nil
}

// SetTravelMode switches the means of transport
func (p *RoutePlanner) SetTravelMode(mode services.TravelMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = mode
	p.current = nil
}

// AddWaypoint appends an intermediate stop
func (p *RoutePlanner) AddWaypoint(c geo.Coordinates) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waypoints = append(p.waypoints, c)
	p.current = nil
}

// RemoveWaypoint deletes the waypoint at the given index
func (p *RoutePlanner) RemoveWaypoint(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.waypoints) {
		return fmt.Errorf("waypoint index %d out of range", index)
	}
	p.waypoints = append(p.waypoints[:index], p.waypoints[index+1:]...)
	p.current = nil
	return nil
}

// MoveWaypoint reorders a waypoint from one position to another
func (p *RoutePlanner) MoveWaypoint(from, to int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if from < 0 || from >= len(p.waypoints) || to < 0 || to >= len(p.waypoints) {
		return fmt.Errorf("waypoint move %d -> %d out of range", from, to)
	}
	wp := p.waypoints[from]
	p.waypoints = append(p.waypoints[:from], p.waypoints[from+1:]...)
	p.waypoints = append(p.waypoints[:to], append([]geo.Coordinates{wp}, p.waypoints[to:]...)...)
	p.current = nil
	return nil
}

// ClearRoute resets the itinerary being edited
func (p *RoutePlanner) ClearRoute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.origin = nil
	p.destination = nil
	p.waypoints = nil
	p.current = nil
}

// TogglePanel flips the route panel visibility and returns the new state
func (p *RoutePlanner) TogglePanel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.panelOpen = !p.panelOpen
	return p.panelOpen
}

// Plan asks the directions provider for the current itinerary's route
func (p *RoutePlanner) Plan(ctx context.Context) (*services.Route, error) {
	p.mu.Lock()
	if p.origin == nil || p.destination == nil {
		p.mu.Unlock()
		return nil, ErrRouteIncomplete
	}
	origin := *p.origin
	destination := *p.destination
	waypoints := append([]geo.Coordinates(nil), p.waypoints...)
	mode := p.mode
	p.mu.Unlock()

	route, err := p.provider.GetRoute(ctx, origin, destination, waypoints, mode)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.current = route
	p.mu.Unlock()
	return route, nil
}

// CurrentRoute returns the last planned route, if any
func (p *RoutePlanner) CurrentRoute() *services.Route {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// SaveRoute stores the current itinerary under a name
func (p *RoutePlanner) SaveRoute(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name == "" {
		return errors.New("route name is required")
	}
	if p.origin == nil || p.destination == nil {
		return ErrRouteIncomplete
	}
	p.saved[name] = SavedRoute{
		Name:        name,
		Origin:      *p.origin,
		Destination: *p.destination,
		Waypoints:   append([]geo.Coordinates(nil), p.waypoints...),
		Mode:        p.mode,
	}
	return nil
}

// LoadRoute restores a saved itinerary into the editor
func (p *RoutePlanner) LoadRoute(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	route, ok := p.saved[name]
	if !ok {
		return fmt.Errorf("no saved route named %q", name)
	}
	origin := route.Origin
	destination := route.Destination
	p.origin = &origin
	p.destination = &destination
	p.waypoints = append([]geo.Coordinates(nil), route.Waypoints...)
	p.mode = route.Mode
	p.current = nil
	return nil
}

// SavedRoutes lists the stored itineraries
func (p *RoutePlanner) SavedRoutes() []SavedRoute {
	p.mu.Lock()
	defer p.mu.Unlock()
	routes := make([]SavedRoute, 0, len(p.saved))
	for _, r := range p.saved {
		routes = append(routes, r)
	}
	return routes
}
