package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for Haversine distances.
const EarthRadiusKm = 6371.0

// KmPerDegreeLat is the approximate north-south extent of one degree of latitude.
const KmPerDegreeLat = 111.32

// Coordinates represents a geographic coordinate pair (WGS 84).
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds represents a rectangular lat/lng region by its corners.
type Bounds struct {
	Northeast Coordinates `json:"northeast"`
	Southwest Coordinates `json:"southwest"`
}

// Distance is a great-circle distance result.
type Distance struct {
	DistanceKm float64 `json:"distance"`
	Unit       string  `json:"unit"`
}

// IsValidCoordinates reports whether the pair lies within valid
// lat/lng ranges. NaN fails both range checks.
func IsValidCoordinates(c Coordinates) bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// HaversineDistance computes the great-circle distance between two points,
// rounded to two decimal places. Input validation is the caller's concern.
func HaversineDistance(p1, p2 Coordinates) Distance {
	lat1 := p1.Lat * math.Pi / 180
	lat2 := p2.Lat * math.Pi / 180
	dLat := (p2.Lat - p1.Lat) * math.Pi / 180
	dLng := (p2.Lng - p1.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	km := EarthRadiusKm * c
	return Distance{
		DistanceKm: math.Round(km*100) / 100,
		Unit:       "km",
	}
}

// BoundsAround approximates a bounding box of the given radius around a
// center point. Longitude degrees shrink with cos(latitude).
func BoundsAround(center Coordinates, radiusKm float64) Bounds {
	latDelta := radiusKm / KmPerDegreeLat
	lngDelta := radiusKm / (KmPerDegreeLat * math.Cos(center.Lat*math.Pi/180))

	return Bounds{
		Northeast: Coordinates{Lat: center.Lat + latDelta, Lng: center.Lng + lngDelta},
		Southwest: Coordinates{Lat: center.Lat - latDelta, Lng: center.Lng - lngDelta},
	}
}

// Contains reports whether a point lies inside the bounding box.
func (b Bounds) Contains(c Coordinates) bool {
	return c.Lat >= b.Southwest.Lat && c.Lat <= b.Northeast.Lat &&
		c.Lng >= b.Southwest.Lng && c.Lng <= b.Northeast.Lng
}

// FormatCoordinates renders a coordinate pair as "lat, lng", the degraded
// formatted address used when reverse geocoding is unavailable.
func FormatCoordinates(c Coordinates) string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lng)
}
