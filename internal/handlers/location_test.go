package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"localmarket/internal/geo"
	"localmarket/internal/models"
	"localmarket/internal/services"

	"github.com/gin-gonic/gin"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	// A keyless geocoder falls back to the default policy instead of
	// calling out, which keeps these tests offline
	handler := NewLocationHandler(services.NewGeocodingService("", services.DefaultFallbackPolicy()), nil)

	router := gin.New()
	router.GET("/locations/nearby", handler.Nearby)
	router.GET("/locations/bounds", handler.Bounds)
	router.POST("/locations/geocode", handler.Geocode)
	router.POST("/locations/reverse-geocode", handler.ReverseGeocode)
	router.POST("/locations/distance", handler.Distance)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDistanceEndpoint(t *testing.T) {
	router := newTestRouter()

	w := postJSON(t, router, "/locations/distance",
		`{"from":{"lat":52.3676,"lng":4.9041},"to":{"lat":52.0907,"lng":5.1214}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success  bool    `json:"success"`
		Distance float64 `json:"distance"`
		Unit     string  `json:"unit"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Distance < 30 || resp.Distance > 40 {
		t.Errorf("Amsterdam-Utrecht distance = %v km, want roughly 35", resp.Distance)
	}
	if resp.Unit != "km" {
		t.Errorf("unit = %q, want km", resp.Unit)
	}
}

func TestDistanceEndpointValidation(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name string
		body string
	}{
		{"missing to", `{"from":{"lat":52.3676,"lng":4.9041}}`},
		{"missing body", `{}`},
		{"latitude out of range", `{"from":{"lat":91,"lng":0},"to":{"lat":0,"lng":0}}`},
		{"longitude out of range", `{"from":{"lat":0,"lng":0},"to":{"lat":0,"lng":181}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/locations/distance", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestGeocodeEndpointFallback(t *testing.T) {
	router := newTestRouter()

	w := postJSON(t, router, "/locations/geocode", `{"address":"Dam Square 1, Amsterdam"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Result  struct {
			Coordinates struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"coordinates"`
		} `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Result.Coordinates.Lat != 52.3676 || resp.Result.Coordinates.Lng != 4.9041 {
		t.Errorf("fallback coordinates = %+v, want the Amsterdam default", resp.Result.Coordinates)
	}
}

func TestGeocodeEndpointRequiresAddress(t *testing.T) {
	router := newTestRouter()

	w := postJSON(t, router, "/locations/geocode", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestReverseGeocodeEndpoint(t *testing.T) {
	router := newTestRouter()

	w := postJSON(t, router, "/locations/reverse-geocode", `{"lat":52.3676,"lng":4.9041}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Result  struct {
			Address struct {
				Formatted string `json:"formatted"`
			} `json:"address"`
		} `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Result.Address.Formatted != "52.3676, 4.9041" {
		t.Errorf("degraded formatted address = %q, want \"52.3676, 4.9041\"", resp.Result.Address.Formatted)
	}
}

func TestReverseGeocodeEndpointValidation(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name string
		body string
	}{
		{"missing lng", `{"lat":52.3676}`},
		{"empty body", `{}`},
		{"latitude out of range", `{"lat":-91,"lng":4.9041}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/locations/reverse-geocode", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestNearbyEndpointValidation(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name string
		path string
	}{
		{"missing lat", "/locations/nearby?lng=4.9041"},
		{"missing both", "/locations/nearby"},
		{"non-numeric lat", "/locations/nearby?lat=abc&lng=4.9041"},
		{"latitude out of range", "/locations/nearby?lat=91&lng=4.9041"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func nearbyLocation(id, businessID uint, lat, lng float64) models.Location {
	return models.Location{ID: id, BusinessID: businessID, Lat: lat, Lng: lng, Verified: true}
}

func TestRankNearby(t *testing.T) {
	center := geo.Coordinates{Lat: 52.3676, Lng: 4.9041}
	// 2025-03-03 is a Monday
	noon := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)

	locations := []models.Location{
		nearbyLocation(1, 10, 52.3784, 4.9041), // ~1.2 km north
		nearbyLocation(2, 20, 52.3721, 4.9041), // ~500 m north
		nearbyLocation(3, 30, 52.0907, 5.1214), // Utrecht, ~36 km out
		nearbyLocation(4, 40, 52.3721, 4.9041), // business filtered out
	}
	businesses := map[uint]models.Business{
		10: {ID: 10, Name: "Far Cafe", OpeningHours: models.WeeklyHours{"monday": {Open: 900, Close: 1700}}},
		20: {ID: 20, Name: "Near Cafe"},
		30: {ID: 30, Name: "Utrecht Cafe"},
	}

	results := rankNearby(locations, businesses, center, 5000, 50, noon)

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (outside radius and missing business excluded)", len(results))
	}
	if results[0].Business.ID != 20 || results[1].Business.ID != 10 {
		t.Errorf("results not nearest first: %d then %d", results[0].Business.ID, results[1].Business.ID)
	}
	if results[0].Distance != 500 {
		t.Errorf("nearest distance = %v m, want 500", results[0].Distance)
	}
	if results[1].Distance != 1200 {
		t.Errorf("second distance = %v m, want 1200", results[1].Distance)
	}
	if !results[1].OpenNow {
		t.Error("business open at Monday noon reported closed")
	}
	if results[0].OpenNow {
		t.Error("business without opening hours reported open")
	}
}

func TestRankNearbyLimitKeepsNearest(t *testing.T) {
	center := geo.Coordinates{Lat: 52.3676, Lng: 4.9041}
	locations := []models.Location{
		nearbyLocation(1, 10, 52.3784, 4.9041),
		nearbyLocation(2, 20, 52.3721, 4.9041),
	}
	businesses := map[uint]models.Business{
		10: {ID: 10},
		20: {ID: 20},
	}

	results := rankNearby(locations, businesses, center, 5000, 1, time.Now())
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Business.ID != 20 {
		t.Errorf("truncation kept business %d, want the nearest (20)", results[0].Business.ID)
	}
}

func TestRankNearbyRadiusIsACircleNotABox(t *testing.T) {
	center := geo.Coordinates{Lat: 52.3676, Lng: 4.9041}
	// Inside the 1 km bounding box corner diagonally, but ~1.1 km away
	diagonal := nearbyLocation(1, 10, 52.3676+0.0072, 4.9041+0.0118)
	businesses := map[uint]models.Business{10: {ID: 10}}

	results := rankNearby([]models.Location{diagonal}, businesses, center, 1000, 50, time.Now())
	if len(results) != 0 {
		t.Errorf("point outside the circle survived the radius filter: %+v", results)
	}
}

func TestBoundsEndpointValidation(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name string
		path string
	}{
		{"missing corners", "/locations/bounds?sw_lat=52.3"},
		{"no parameters", "/locations/bounds"},
		{"latitude out of range", "/locations/bounds?sw_lat=52.3&sw_lng=4.8&ne_lat=92&ne_lng=5.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", w.Code, w.Body.String())
			}
		})
	}
}
