package services

import (
	"context"
	"testing"

	"localmarket/internal/geo"

	"googlemaps.github.io/maps"
)

func TestGeocodeAddressFallbackWithoutAPIKey(t *testing.T) {
	s := NewGeocodingService("", DefaultFallbackPolicy())

	result, err := s.GeocodeAddress(context.Background(), "Dam Square 1, Amsterdam")
	if err != nil {
		t.Fatalf("GeocodeAddress returned error: %v", err)
	}
	if result == nil {
		t.Fatal("GeocodeAddress returned nil without credentials; want fallback result")
	}

	want := geo.Coordinates{Lat: 52.3676, Lng: 4.9041}
	if result.Coordinates != want {
		t.Errorf("fallback coordinates = %+v, want %+v", result.Coordinates, want)
	}
	if result.Address.Formatted != "Dam Square 1, Amsterdam" {
		t.Errorf("fallback formatted address = %q, want the input text", result.Address.Formatted)
	}
}

func TestGeocodeAddressCustomFallbackPolicy(t *testing.T) {
	fallback := FallbackPolicy{
		Coordinates: geo.Coordinates{Lat: 48.8566, Lng: 2.3522},
		Label:       "Paris",
	}
	s := NewGeocodingService("", fallback)

	result, err := s.GeocodeAddress(context.Background(), "anywhere")
	if err != nil {
		t.Fatalf("GeocodeAddress returned error: %v", err)
	}
	if result.Coordinates != fallback.Coordinates {
		t.Errorf("fallback coordinates = %+v, want %+v", result.Coordinates, fallback.Coordinates)
	}
}

func TestReverseGeocodeDegradesWithoutAPIKey(t *testing.T) {
	s := NewGeocodingService("", DefaultFallbackPolicy())
	coords := geo.Coordinates{Lat: 52.3676, Lng: 4.9041}

	result := s.ReverseGeocode(context.Background(), coords)
	if result == nil {
		t.Fatal("ReverseGeocode returned nil; it must always yield a renderable value")
	}
	if result.Coordinates != coords {
		t.Errorf("degraded result coordinates = %+v, want input %+v", result.Coordinates, coords)
	}
	if result.Address.Formatted != "52.3676, 4.9041" {
		t.Errorf("degraded formatted address = %q, want \"52.3676, 4.9041\"", result.Address.Formatted)
	}
}

func TestSearchNearbyPlacesEmptyWithoutAPIKey(t *testing.T) {
	s := NewGeocodingService("", DefaultFallbackPolicy())

	places := s.SearchNearbyPlaces(context.Background(), NearbyPlacesOptions{
		Center:       geo.Coordinates{Lat: 52.3676, Lng: 4.9041},
		RadiusMeters: 1000,
	})
	if places == nil {
		t.Fatal("SearchNearbyPlaces returned nil; want empty slice")
	}
	if len(places) != 0 {
		t.Errorf("SearchNearbyPlaces returned %d results without credentials; want 0", len(places))
	}
}

func TestParseAddressComponents(t *testing.T) {
	components := []maps.AddressComponent{
		{LongName: "1", Types: []string{"street_number"}},
		{LongName: "Damstraat", Types: []string{"route"}},
		{LongName: "Amsterdam", Types: []string{"locality", "political"}},
		{LongName: "1012 JS", Types: []string{"postal_code"}},
		{LongName: "Netherlands", Types: []string{"country", "political"}},
	}

	addr := parseAddressComponents(components)

	if addr.Street != "1 Damstraat" {
		t.Errorf("street = %q, want street components concatenated", addr.Street)
	}
	if addr.City != "Amsterdam" {
		t.Errorf("city = %q, want Amsterdam", addr.City)
	}
	if addr.PostalCode != "1012 JS" {
		t.Errorf("postal code = %q, want 1012 JS", addr.PostalCode)
	}
	if addr.Country != "Netherlands" {
		t.Errorf("country = %q, want Netherlands", addr.Country)
	}
}

func TestParseAddressComponentsEmpty(t *testing.T) {
	addr := parseAddressComponents(nil)
	if addr.Street != "" || addr.City != "" || addr.PostalCode != "" || addr.Country != "" {
		t.Errorf("empty component list should yield empty address, got %+v", addr)
	}
}

func TestViewportBounds(t *testing.T) {
	if b := viewportBounds(maps.LatLngBounds{}); b != nil {
		t.Errorf("zero viewport should map to nil, got %+v", b)
	}

	v := maps.LatLngBounds{
		NorthEast: maps.LatLng{Lat: 52.4, Lng: 5.0},
		SouthWest: maps.LatLng{Lat: 52.3, Lng: 4.8},
	}
	b := viewportBounds(v)
	if b == nil {
		t.Fatal("non-zero viewport mapped to nil")
	}
	if b.Northeast.Lat != 52.4 || b.Southwest.Lng != 4.8 {
		t.Errorf("viewport mapped incorrectly: %+v", b)
	}
}
