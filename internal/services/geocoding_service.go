package services

import (
	"context"
	"log"
	"strings"
	"time"

	"localmarket/internal/geo"
	"localmarket/internal/metrics"
	"localmarket/internal/models"

	"googlemaps.github.io/maps"
)

// FallbackPolicy is the degraded-mode value returned when the geocoding
// provider is unavailable. Lookup must never crash the caller just because
// credentials are missing.
type FallbackPolicy struct {
	Coordinates geo.Coordinates
	Label       string
}

// DefaultFallbackPolicy centers on Amsterdam
func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{
		Coordinates: geo.Coordinates{Lat: 52.3676, Lng: 4.9041},
		Label:       "Amsterdam",
	}
}

// GeocodeResult is the outcome of a forward or reverse geocode
type GeocodeResult struct {
	Coordinates geo.Coordinates `json:"coordinates"`
	Address     models.Address  `json:"address"`
	PlaceID     string          `json:"place_id,omitempty"`
	Viewport    *geo.Bounds     `json:"viewport,omitempty"`
}

// PlaceResult is a single match from a places-nearby search
type PlaceResult struct {
	Name        string          `json:"name"`
	PlaceID     string          `json:"place_id"`
	Coordinates geo.Coordinates `json:"coordinates"`
	Vicinity    string          `json:"vicinity,omitempty"`
	Types       []string        `json:"types,omitempty"`
	Rating      float32         `json:"rating,omitempty"`
}

// NearbyPlacesOptions parameterizes a places-nearby search
type NearbyPlacesOptions struct {
	Center       geo.Coordinates
	RadiusMeters uint
	Keyword      string
}

// GeocodingService wraps the Google Maps geocoding and places APIs.
// Provider failures degrade to the fallback policy instead of propagating.
type GeocodingService struct {
	client   *maps.Client
	fallback FallbackPolicy
	timeout  time.Duration
}

// NewGeocodingService constructs a geocoding service. An empty API key
// yields a client-less service that only ever serves degraded results.
func NewGeocodingService(apiKey string, fallback FallbackPolicy) *GeocodingService {
	s := &GeocodingService{
		fallback: fallback,
		timeout:  5 * time.Second,
	}

	if apiKey == "" {
		log.Println("Warning: GOOGLE_MAPS_API_KEY not set, geocoding will serve fallback results")
		return s
	}

	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		log.Printf("Warning: failed to initialize maps client, geocoding will serve fallback results: %v", err)
		return s
	}
	s.client = client
	return s
}

// GeocodeAddress resolves free-text into coordinates. Returns nil (no error)
// when the provider finds nothing; returns the fallback result when the
// provider is unavailable or errors.
func (s *GeocodingService) GeocodeAddress(ctx context.Context, address string) (*GeocodeResult, error) {
	if s.client == nil {
		metrics.GeocodeFallbacks.Inc()
		return s.fallbackResult(address), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		log.Printf("Warning: geocoding provider error for %q: %v", address, err)
		metrics.GeocodeFallbacks.Inc()
		return s.fallbackResult(address), nil
	}
	if len(results) == 0 {
		return nil, nil
	}

	best := results[0]
	parsed := parseAddressComponents(best.AddressComponents)
	parsed.Formatted = best.FormattedAddress

	return &GeocodeResult{
		Coordinates: geo.Coordinates{Lat: best.Geometry.Location.Lat, Lng: best.Geometry.Location.Lng},
		Address:     parsed,
		PlaceID:     best.PlaceID,
		Viewport:    viewportBounds(best.Geometry.Viewport),
	}, nil
}

// ReverseGeocode resolves coordinates into an address. Never returns nil:
// on provider failure the result carries the input coordinates and a
// "lat, lng" formatted address.
func (s *GeocodingService) ReverseGeocode(ctx context.Context, coords geo.Coordinates) *GeocodeResult {
	degraded := &GeocodeResult{
		Coordinates: coords,
		Address:     models.Address{Formatted: geo.FormatCoordinates(coords)},
	}

	if s.client == nil {
		metrics.GeocodeFallbacks.Inc()
		return degraded
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results, err := s.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: coords.Lat, Lng: coords.Lng},
	})
	if err != nil {
		log.Printf("Warning: reverse geocoding provider error for %s: %v", geo.FormatCoordinates(coords), err)
		metrics.GeocodeFallbacks.Inc()
		return degraded
	}
	if len(results) == 0 {
		return degraded
	}

	best := results[0]
	parsed := parseAddressComponents(best.AddressComponents)
	parsed.Formatted = best.FormattedAddress

	return &GeocodeResult{
		Coordinates: coords,
		Address:     parsed,
		PlaceID:     best.PlaceID,
	}
}

// SearchNearbyPlaces proxies the places-nearby API. Returns an empty slice
// (not an error) without credentials or on provider failure.
func (s *GeocodingService) SearchNearbyPlaces(ctx context.Context, opts NearbyPlacesOptions) []PlaceResult {
	if s.client == nil {
		return []PlaceResult{}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: opts.Center.Lat, Lng: opts.Center.Lng},
		Radius:   opts.RadiusMeters,
		Keyword:  opts.Keyword,
	})
	if err != nil {
		log.Printf("Warning: places nearby provider error: %v", err)
		return []PlaceResult{}
	}

	places := make([]PlaceResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		places = append(places, PlaceResult{
			Name:    r.Name,
			PlaceID: r.PlaceID,
			Coordinates: geo.Coordinates{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
			Vicinity: r.Vicinity,
			Types:    r.Types,
			Rating:   r.Rating,
		})
	}
	return places
}

// fallbackResult builds the degraded forward-geocode answer: the configured
// sentinel coordinates tagged with the caller's input text.
func (s *GeocodingService) fallbackResult(address string) *GeocodeResult {
	return &GeocodeResult{
		Coordinates: s.fallback.Coordinates,
		Address:     models.Address{Formatted: address},
	}
}

// parseAddressComponents accumulates a typed component list into a flat
// address. Street-level component types concatenate into one field.
func parseAddressComponents(components []maps.AddressComponent) models.Address {
	var addr models.Address
	var street []string

	for _, comp := range components {
		for _, t := range comp.Types {
			switch t {
			case "street_number", "route":
				street = append(street, comp.LongName)
			case "locality", "postal_town":
				addr.City = comp.LongName
			case "postal_code":
				addr.PostalCode = comp.LongName
			case "country":
				addr.Country = comp.LongName
			}
		}
	}

	addr.Street = strings.TrimSpace(strings.Join(street, " "))
	return addr
}

// viewportBounds maps the provider viewport onto our bounds type
func viewportBounds(v maps.LatLngBounds) *geo.Bounds {
	if v.NorthEast.Lat == 0 && v.NorthEast.Lng == 0 && v.SouthWest.Lat == 0 && v.SouthWest.Lng == 0 {
		return nil
	}
	return &geo.Bounds{
		Northeast: geo.Coordinates{Lat: v.NorthEast.Lat, Lng: v.NorthEast.Lng},
		Southwest: geo.Coordinates{Lat: v.SouthWest.Lat, Lng: v.SouthWest.Lng},
	}
}
