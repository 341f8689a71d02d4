package models

import (
	"strings"
	"testing"

	"localmarket/internal/geo"
)

func TestAddressFormat(t *testing.T) {
	addr := Address{
		Street:     "Damstraat 1",
		City:       "Amsterdam",
		PostalCode: "1012 JS",
		Country:    "Netherlands",
	}
	got := addr.Format()
	want := "Damstraat 1, Amsterdam 1012 JS, Netherlands"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestBeforeSaveDerivesFormattedAddress(t *testing.T) {
	loc := Location{
		BusinessID: 1,
		Lat:        52.3676,
		Lng:        4.9041,
		Address: Address{
			Street:     "Damstraat 1",
			City:       "Amsterdam",
			PostalCode: "1012 JS",
			Country:    "Netherlands",
		},
	}
	if err := loc.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave returned error: %v", err)
	}
	if loc.Address.Formatted != loc.Address.Format() {
		t.Errorf("formatted address = %q, want derived %q", loc.Address.Formatted, loc.Address.Format())
	}
}

func TestBeforeSavePreservesExistingFormatted(t *testing.T) {
	loc := Location{
		BusinessID: 1,
		Lat:        52.3676,
		Lng:        4.9041,
		Address:    Address{Formatted: "Dam Square, Amsterdam"},
	}
	if err := loc.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave returned error: %v", err)
	}
	if loc.Address.Formatted != "Dam Square, Amsterdam" {
		t.Errorf("formatted address overwritten: %q", loc.Address.Formatted)
	}
}

func TestBeforeSaveRejectsInvalidCoordinates(t *testing.T) {
	loc := Location{BusinessID: 1, Lat: 91, Lng: 4.9041}
	err := loc.BeforeSave(nil)
	if err == nil {
		t.Fatal("BeforeSave accepted latitude 91")
	}
	if !strings.Contains(err.Error(), "invalid coordinates") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBeforeSaveRadiusDefaults(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		want   float64
	}{
		{"zero gets default", 0, DefaultRadiusKm},
		{"negative gets default", -3, DefaultRadiusKm},
		{"oversized is clamped", 500, MaxRadiusKm},
		{"valid is kept", 12.5, 12.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := Location{BusinessID: 1, Lat: 52.3676, Lng: 4.9041, RadiusKm: tt.radius}
			if err := loc.BeforeSave(nil); err != nil {
				t.Fatalf("BeforeSave returned error: %v", err)
			}
			if loc.RadiusKm != tt.want {
				t.Errorf("radius = %v, want %v", loc.RadiusKm, tt.want)
			}
		})
	}
}

func TestBeforeSaveDefaultsSourceAndTimestamps(t *testing.T) {
	loc := Location{BusinessID: 1, Lat: 52.3676, Lng: 4.9041}
	if err := loc.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave returned error: %v", err)
	}
	if loc.Source != SourceManual {
		t.Errorf("source = %q, want %q", loc.Source, SourceManual)
	}
	if loc.CreatedAt.IsZero() || loc.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestDistanceFrom(t *testing.T) {
	loc := Location{Lat: 52.0907, Lng: 5.1214} // Utrecht
	amsterdam := geo.Coordinates{Lat: 52.3676, Lng: 4.9041}

	d := loc.DistanceFrom(amsterdam)
	if d.DistanceKm < 30 || d.DistanceKm > 40 {
		t.Errorf("Amsterdam-Utrecht distance = %v km, want roughly 35", d.DistanceKm)
	}
	if d.Unit != "km" {
		t.Errorf("unit = %q, want km", d.Unit)
	}
}
