package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"localmarket/internal/geo"
)

// PermissionState mirrors the platform geolocation permission
type PermissionState string

const (
	PermissionUnknown PermissionState = "unknown"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// ErrNoUserLocation is recorded when a search is attempted before any fix
var ErrNoUserLocation = errors.New("no user location available; call GetCurrentLocation first")

// Position is one geolocation fix
type Position struct {
	Coordinates    geo.Coordinates
	AccuracyMeters float64
	Timestamp      time.Time
}

// PositionProvider abstracts the platform geolocation source
type PositionProvider interface {
	// CurrentPosition acquires a single fix
	CurrentPosition(ctx context.Context) (Position, error)
	// WatchPosition streams fixes until ctx is cancelled. Errors on the
	// second channel are advisory; the stream keeps going.
	WatchPosition(ctx context.Context) (<-chan Position, <-chan error)
}

// NearbySearcher performs proximity searches (implemented by APIClient)
type NearbySearcher interface {
	SearchNearby(ctx context.Context, center geo.Coordinates, params NearbyParams) ([]NearbyBusiness, error)
}

// AddressGeocoder resolves addresses (implemented by APIClient)
type AddressGeocoder interface {
	GeocodeAddress(ctx context.Context, address string) (*geo.Coordinates, error)
}

// MapsController coordinates geolocation permission, position acquisition,
// proximity search and map viewport state. Expected failures land in state
// fields, never in panics; at most one search is in flight at a time.
type MapsController struct {
	mu       sync.Mutex
	provider PositionProvider
	searcher NearbySearcher
	geocoder AddressGeocoder

	userLocation    *Position
	locationLoading bool
	locationErr     error
	permission      PermissionState

	nearby        []NearbyBusiness
	searchLoading bool
	searchErr     error

	mapCenter        geo.Coordinates
	mapZoom          int
	selectedBusiness *NearbyBusiness

	// Single-slot handle for the in-flight search; swapping it in
	// supersedes and cancels the predecessor. activeSearch identifies the
	// search that currently owns the loading/result state.
	cancelSearch context.CancelFunc
	activeSearch context.Context

	watching  bool
	stopWatch context.CancelFunc
}

// NewMapsController creates a controller with the given dependencies
func NewMapsController(provider PositionProvider, searcher NearbySearcher, geocoder AddressGeocoder, initialCenter geo.Coordinates) *MapsController {
	return &MapsController{
		provider:   provider,
		searcher:   searcher,
		geocoder:   geocoder,
		permission: PermissionUnknown,
		mapCenter:  initialCenter,
		mapZoom:    12,
	}
}

// GetCurrentLocation acquires a single position fix. Success centers the
// map on the fix and marks permission granted; failure records the error
// and marks permission denied. No automatic retry.
func (m *MapsController) GetCurrentLocation(ctx context.Context) (*Position, error) {
	m.mu.Lock()
	m.locationLoading = true
	m.locationErr = nil
	m.mu.Unlock()

	pos, err := m.provider.CurrentPosition(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.locationLoading = false
	if err != nil {
		m.locationErr = err
		m.permission = PermissionDenied
		return nil, err
	}

	m.userLocation = &pos
	m.mapCenter = pos.Coordinates
	m.permission = PermissionGranted
	return &pos, nil
}

// StartLocationTracking begins a continuous position watch. No-op if a
// watch is already running.
func (m *MapsController) StartLocationTracking() {
	m.mu.Lock()
	if m.watching {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.watching = true
	m.stopWatch = cancel
	m.mu.Unlock()

	fixes, errs := m.provider.WatchPosition(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case pos, ok := <-fixes:
				if !ok {
					return
				}
				m.mu.Lock()
				m.userLocation = &pos
				m.permission = PermissionGranted
				m.mu.Unlock()
			case err, ok := <-errs:
				if !ok {
					continue
				}
				// Keep the last known fix; only record the error
				m.mu.Lock()
				m.locationErr = err
				m.mu.Unlock()
			}
		}
	}()
}

// StopLocationTracking stops the continuous position watch
func (m *MapsController) StopLocationTracking() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.watching {
		return
	}
	m.stopWatch()
	m.stopWatch = nil
	m.watching = false
}

// SearchNearby searches around the current user location. Fails closed
// when no fix has been acquired: the error is recorded in state and no
// request is made.
func (m *MapsController) SearchNearby(ctx context.Context, params NearbyParams) ([]NearbyBusiness, error) {
	m.mu.Lock()
	loc := m.userLocation
	if loc == nil {
		m.searchErr = ErrNoUserLocation
		m.mu.Unlock()
		return nil, ErrNoUserLocation
	}
	m.mu.Unlock()

	return m.SearchAt(ctx, loc.Coordinates, params)
}

// SearchAt searches around an explicit point, superseding and cancelling
// any search already in flight (last call wins)
func (m *MapsController) SearchAt(ctx context.Context, center geo.Coordinates, params NearbyParams) ([]NearbyBusiness, error) {
	m.mu.Lock()
	if m.cancelSearch != nil {
		m.cancelSearch()
	}
	searchCtx, cancel := context.WithCancel(ctx)
	m.cancelSearch = cancel
	m.activeSearch = searchCtx
	m.searchLoading = true
	m.searchErr = nil
	m.mu.Unlock()

	results, err := m.searcher.SearchNearby(searchCtx, center, params)

	m.mu.Lock()
	defer m.mu.Unlock()

	// A superseded search must not clobber its successor's state
	if m.activeSearch != searchCtx {
		return nil, searchCtx.Err()
	}

	// Still the current search: even a caller-cancelled one clears the
	// loading flag, since no successor will
	m.searchLoading = false
	if err == nil && searchCtx.Err() != nil {
		err = searchCtx.Err()
	}
	if err != nil {
		m.searchErr = err
		return nil, err
	}

	m.nearby = results
	m.mapCenter = center
	return results, nil
}

// GeocodeAddress resolves an address, returning nil on any failure
func (m *MapsController) GeocodeAddress(ctx context.Context, address string) *geo.Coordinates {
	coords, err := m.geocoder.GeocodeAddress(ctx, address)
	if err != nil {
		return nil
	}
	return coords
}

// CalculateDistance computes the great-circle distance between two points,
// returning nil when either point is invalid
func (m *MapsController) CalculateDistance(from, to geo.Coordinates) *geo.Distance {
	if !geo.IsValidCoordinates(from) || !geo.IsValidCoordinates(to) {
		return nil
	}
	d := geo.HaversineDistance(from, to)
	return &d
}

// SelectBusiness marks a result as selected and centers the map on it
func (m *MapsController) SelectBusiness(b *NearbyBusiness) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectedBusiness = b
	if b != nil {
		m.mapCenter = b.Location.Coordinates()
	}
}

// SetZoom updates the map zoom level
func (m *MapsController) SetZoom(zoom int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mapZoom = zoom
}

// State is a snapshot of the controller's observable state
type State struct {
	UserLocation     *Position
	LocationLoading  bool
	LocationErr      error
	Permission       PermissionState
	Nearby           []NearbyBusiness
	SearchLoading    bool
	SearchErr        error
	MapCenter        geo.Coordinates
	MapZoom          int
	SelectedBusiness *NearbyBusiness
	Tracking         bool
}

// Snapshot returns a copy of the current state
func (m *MapsController) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{
		UserLocation:     m.userLocation,
		LocationLoading:  m.locationLoading,
		LocationErr:      m.locationErr,
		Permission:       m.permission,
		Nearby:           m.nearby,
		SearchLoading:    m.searchLoading,
		SearchErr:        m.searchErr,
		MapCenter:        m.mapCenter,
		MapZoom:          m.mapZoom,
		SelectedBusiness: m.selectedBusiness,
		Tracking:         m.watching,
	}
}
