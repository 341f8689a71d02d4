package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"localmarket/internal/geo"

	"gorm.io/gorm"
)

// LocationSource identifies where a location record came from
type LocationSource string

const (
	SourceManual       LocationSource = "manual"
	SourceGooglePlaces LocationSource = "google_places"
	SourceUserInput    LocationSource = "user_input"
)

// DefaultRadiusKm is the service radius assigned when none is supplied
const DefaultRadiusKm = 5.0

// MaxRadiusKm bounds the service radius
const MaxRadiusKm = 100.0

// Address represents a structured postal address stored as JSONB
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Formatted  string `json:"formatted"`
}

// Format derives the formatted address from the structured fields
func (a Address) Format() string {
	return strings.TrimSpace(fmt.Sprintf("%s, %s %s, %s", a.Street, a.City, a.PostalCode, a.Country))
}

// Implement driver.Valuer and sql.Scanner for JSONB storage
func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Address) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("failed to unmarshal Address: %v", value)
	}
}

// LocationMetadata holds optional provider metadata for a location
type LocationMetadata struct {
	Timezone  string      `json:"timezone,omitempty"`
	UTCOffset int         `json:"utc_offset,omitempty"`
	Viewport  *geo.Bounds `json:"viewport,omitempty"`
}

func (m LocationMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *LocationMetadata) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("failed to unmarshal LocationMetadata: %v", value)
	}
}

// Location represents a business's geocoded location record.
// One active location per business, enforced by the unique index.
type Location struct {
	ID         uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	BusinessID uint              `gorm:"uniqueIndex;not null" json:"business_id"`
	Name       string            `gorm:"size:255" json:"name"`
	Address    Address           `gorm:"type:json" json:"address"`
	Lat        float64           `gorm:"not null;index:idx_location_verified_coords,priority:2" json:"lat"`
	Lng        float64           `gorm:"not null;index:idx_location_verified_coords,priority:3" json:"lng"`
	RadiusKm   float64           `gorm:"not null;default:5" json:"radius_km"`
	PlaceID    *string           `gorm:"uniqueIndex;size:255" json:"place_id,omitempty"`
	Verified   bool              `gorm:"not null;default:false;index:idx_location_verified_coords,priority:1" json:"verified"`
	Accuracy   *float64          `json:"accuracy,omitempty"`
	Source     LocationSource    `gorm:"size:20;not null;default:manual" json:"source"`
	Metadata   *LocationMetadata `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null" json:"updated_at"`
}

// Coordinates returns the location's coordinate pair
func (l *Location) Coordinates() geo.Coordinates {
	return geo.Coordinates{Lat: l.Lat, Lng: l.Lng}
}

// DistanceFrom computes the great-circle distance from a point to this location
func (l *Location) DistanceFrom(c geo.Coordinates) geo.Distance {
	return geo.HaversineDistance(c, l.Coordinates())
}

// BeforeSave validates coordinates, clamps the radius and derives the
// formatted address so it is never empty once persisted
func (l *Location) BeforeSave(tx *gorm.DB) error {
	if !geo.IsValidCoordinates(l.Coordinates()) {
		return fmt.Errorf("invalid coordinates: %f, %f", l.Lat, l.Lng)
	}
	if l.RadiusKm <= 0 {
		l.RadiusKm = DefaultRadiusKm
	}
	if l.RadiusKm > MaxRadiusKm {
		l.RadiusKm = MaxRadiusKm
	}
	if l.Address.Formatted == "" {
		l.Address.Formatted = l.Address.Format()
	}
	if l.Source == "" {
		l.Source = SourceManual
	}
	now := time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	return nil
}

// TableName specifies the table name for the Location model
func (Location) TableName() string {
	return "location"
}

// CreateLocationRequest represents the data needed to create or update a location
type CreateLocationRequest struct {
	BusinessID  uint             `json:"business_id" binding:"required"`
	Address     Address          `json:"address" binding:"required"`
	Coordinates *geo.Coordinates `json:"coordinates,omitempty"`
	Name        string           `json:"name"`
	RadiusKm    float64          `json:"radius_km"`
	Accuracy    *float64         `json:"accuracy,omitempty"`
}
