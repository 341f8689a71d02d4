package handlers

import (
	"errors"
	"log"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"localmarket/internal/database"
	"localmarket/internal/geo"
	"localmarket/internal/metrics"
	"localmarket/internal/models"
	"localmarket/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// DefaultNearbyRadiusMeters is the search radius when none is given
	DefaultNearbyRadiusMeters = 5000.0
	// DefaultNearbyLimit is the result cap when none is given
	DefaultNearbyLimit = 50
	// MaxNearbyLimit bounds the nearby result cap
	MaxNearbyLimit = 100
	// BoundsResultCap caps bounding-box queries, which have no client limit
	BoundsResultCap = 200
)

// LocationHandler serves the /locations routes. The geocoding and email
// services are injected at construction.
type LocationHandler struct {
	geocoder *services.GeocodingService
	email    *services.EmailService
}

// NewLocationHandler creates a location handler with its dependencies
func NewLocationHandler(geocoder *services.GeocodingService, email *services.EmailService) *LocationHandler {
	return &LocationHandler{geocoder: geocoder, email: email}
}

// NearbyResult is one distance-annotated proximity search hit
type NearbyResult struct {
	Location models.Location `json:"location"`
	Business models.Business `json:"business"`
	Distance float64         `json:"distance"` // meters, rounded
	OpenNow  bool            `json:"open_now"`
}

// Nearby handles GET /locations/nearby: verified locations within a radius
// of a point, nearest first
func (h *LocationHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng parameters are required"})
		return
	}

	center := geo.Coordinates{Lat: lat, Lng: lng}
	if !geo.IsValidCoordinates(center) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates provided"})
		return
	}

	radiusMeters := DefaultNearbyRadiusMeters
	if raw := c.Query("radius"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			radiusMeters = parsed
		}
	}

	limit := DefaultNearbyLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > MaxNearbyLimit {
		limit = MaxNearbyLimit
	}

	metrics.NearbySearches.Inc()

	results, err := h.searchNearby(center, radiusMeters, c.Query("category"), limit)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to search nearby locations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(results),
		"center":  center,
		"radius":  radiusMeters,
		"results": results,
	})
}

// searchNearby runs a bounding-box prefilter on the indexed coordinate
// columns, then ranks the survivors by Haversine distance
func (h *LocationHandler) searchNearby(center geo.Coordinates, radiusMeters float64, category string, limit int) ([]NearbyResult, error) {
	db := database.GetDB()
	box := geo.BoundsAround(center, radiusMeters/1000)

	var locations []models.Location
	if err := db.Where("verified = ?", true).
		Where("lat BETWEEN ? AND ?", box.Southwest.Lat, box.Northeast.Lat).
		Where("lng BETWEEN ? AND ?", box.Southwest.Lng, box.Northeast.Lng).
		Find(&locations).Error; err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return []NearbyResult{}, nil
	}

	businesses, err := h.loadBusinesses(db, locations, category)
	if err != nil {
		return nil, err
	}

	return rankNearby(locations, businesses, center, radiusMeters, limit, time.Now()), nil
}

// rankNearby reduces box-prefiltered rows to the search circle, annotates
// each hit with its distance in meters, sorts nearest first and truncates
// to the limit
func rankNearby(locations []models.Location, businesses map[uint]models.Business, center geo.Coordinates, radiusMeters float64, limit int, now time.Time) []NearbyResult {
	results := make([]NearbyResult, 0, len(locations))
	for _, location := range locations {
		business, ok := businesses[location.BusinessID]
		if !ok {
			// Filtered out by category, or orphaned record
			continue
		}
		meters := location.DistanceFrom(center).DistanceKm * 1000
		if meters > radiusMeters {
			// Inside the box corners but outside the circle
			continue
		}
		results = append(results, NearbyResult{
			Location: location,
			Business: business,
			Distance: math.Round(meters),
			OpenNow:  business.IsOpenAt(now),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// loadBusinesses fetches owning businesses for a set of locations, with an
// optional category filter applied only when present
func (h *LocationHandler) loadBusinesses(db *gorm.DB, locations []models.Location, category string) (map[uint]models.Business, error) {
	ids := make([]uint, 0, len(locations))
	for _, l := range locations {
		ids = append(ids, l.BusinessID)
	}

	query := db.Where("id IN ?", ids)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var businesses []models.Business
	if err := query.Find(&businesses).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Business, len(businesses))
	for _, b := range businesses {
		byID[b.ID] = b
	}
	return byID, nil
}

// Bounds handles GET /locations/bounds: verified locations inside a
// bounding box, joined with their businesses
func (h *LocationHandler) Bounds(c *gin.Context) {
	swLat, err1 := strconv.ParseFloat(c.Query("sw_lat"), 64)
	swLng, err2 := strconv.ParseFloat(c.Query("sw_lng"), 64)
	neLat, err3 := strconv.ParseFloat(c.Query("ne_lat"), 64)
	neLng, err4 := strconv.ParseFloat(c.Query("ne_lng"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sw_lat, sw_lng, ne_lat and ne_lng parameters are required"})
		return
	}

	bounds := geo.Bounds{
		Southwest: geo.Coordinates{Lat: swLat, Lng: swLng},
		Northeast: geo.Coordinates{Lat: neLat, Lng: neLng},
	}
	if !geo.IsValidCoordinates(bounds.Southwest) || !geo.IsValidCoordinates(bounds.Northeast) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates provided"})
		return
	}

	db := database.GetDB()

	var locations []models.Location
	if err := db.Where("verified = ?", true).
		Where("lat BETWEEN ? AND ?", bounds.Southwest.Lat, bounds.Northeast.Lat).
		Where("lng BETWEEN ? AND ?", bounds.Southwest.Lng, bounds.Northeast.Lng).
		Limit(BoundsResultCap).
		Find(&locations).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to search locations in bounds", err)
		return
	}

	results := make([]gin.H, 0, len(locations))
	if len(locations) > 0 {
		businesses, err := h.loadBusinesses(db, locations, c.Query("category"))
		if err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to load businesses", err)
			return
		}
		now := time.Now()
		for _, location := range locations {
			business, ok := businesses[location.BusinessID]
			if !ok {
				continue
			}
			results = append(results, gin.H{
				"location": location,
				"business": business,
				"open_now": business.IsOpenAt(now),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"bounds":    bounds,
		"count":     len(results),
		"locations": results,
	})
}

// GeocodeRequest is the body for POST /locations/geocode
type GeocodeRequest struct {
	Address string `json:"address" binding:"required"`
}

// Geocode handles POST /locations/geocode: free-text address to coordinates
func (h *LocationHandler) Geocode(c *gin.Context) {
	var request GeocodeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Address is required", err)
		return
	}

	result, err := h.geocoder.GeocodeAddress(c.Request.Context(), request.Address)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to geocode address", err)
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Address not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

// ReverseGeocodeRequest is the body for POST /locations/reverse-geocode
type ReverseGeocodeRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// ReverseGeocode handles POST /locations/reverse-geocode. The degraded
// provider result is still a success.
func (h *LocationHandler) ReverseGeocode(c *gin.Context) {
	var request ReverseGeocodeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "lat and lng are required", err)
		return
	}

	coords := geo.Coordinates{Lat: *request.Lat, Lng: *request.Lng}
	if !geo.IsValidCoordinates(coords) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates provided"})
		return
	}

	result := h.geocoder.ReverseGeocode(c.Request.Context(), coords)
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

// DistanceRequest is the body for POST /locations/distance
type DistanceRequest struct {
	From *geo.Coordinates `json:"from" binding:"required"`
	To   *geo.Coordinates `json:"to" binding:"required"`
}

// Distance handles POST /locations/distance: great-circle distance between two points
func (h *LocationHandler) Distance(c *gin.Context) {
	var request DistanceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "from and to coordinates are required", err)
		return
	}

	if !geo.IsValidCoordinates(*request.From) || !geo.IsValidCoordinates(*request.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates provided"})
		return
	}

	distance := geo.HaversineDistance(*request.From, *request.To)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"from":     request.From,
		"to":       request.To,
		"distance": distance.DistanceKm,
		"unit":     distance.Unit,
	})
}

// CreateOrUpdate handles POST /locations: upserts the caller's business
// location, geocoding the address when no coordinates are supplied
func (h *LocationHandler) CreateOrUpdate(c *gin.Context) {
	var request models.CreateLocationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "business_id and address are required", err)
		return
	}

	username := c.GetString("username")
	db := database.GetDB()

	var business models.Business
	if err := db.Where("id = ?", request.BusinessID).First(&business).Error; err != nil {
		handleError(c, http.StatusNotFound, "Business not found", err)
		return
	}

	if business.OwnerUsername != username {
		log.Printf("Error: %s attempted to manage location for business %d owned by %s",
			username, business.ID, business.OwnerUsername)
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only manage locations for your own businesses"})
		return
	}

	location := models.Location{
		BusinessID: request.BusinessID,
		Name:       request.Name,
		Address:    request.Address,
		RadiusKm:   request.RadiusKm,
		Accuracy:   request.Accuracy,
		Source:     models.SourceUserInput,
	}
	if location.Name == "" {
		location.Name = business.Name
	}

	if request.Coordinates != nil {
		if !geo.IsValidCoordinates(*request.Coordinates) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates provided"})
			return
		}
		location.Lat = request.Coordinates.Lat
		location.Lng = request.Coordinates.Lng
	} else {
		result, err := h.geocoder.GeocodeAddress(c.Request.Context(), request.Address.Format())
		if err != nil || result == nil {
			handleError(c, http.StatusBadRequest, "Failed to geocode address", err)
			return
		}
		location.Lat = result.Coordinates.Lat
		location.Lng = result.Coordinates.Lng
		location.Source = models.SourceGooglePlaces
		if result.PlaceID != "" {
			location.PlaceID = &result.PlaceID
		}
		if result.Viewport != nil {
			location.Metadata = &models.LocationMetadata{Viewport: result.Viewport}
		}
	}

	// Atomic upsert keyed by business_id: concurrent writers for the same
	// business cannot produce duplicate rows. RETURNING reloads the row so
	// the response carries the persisted verified flag, which the conflict
	// update leaves untouched.
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "business_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "address", "lat", "lng", "radius_km", "place_id",
			"accuracy", "source", "metadata", "updated_at",
		}),
	}, clause.Returning{}).Create(&location).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to save location", err)
		return
	}

	h.notifyLocationSubmitted(db, business, location)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"location": gin.H{
			"id":          location.ID,
			"business_id": location.BusinessID,
			"name":        location.Name,
			"coordinates": location.Coordinates(),
			"address":     location.Address,
			"radius_km":   location.RadiusKm,
			"verified":    location.Verified,
		},
	})
}

// ByBusiness handles GET /locations/business/:businessId: verified
// locations for one business, newest first
func (h *LocationHandler) ByBusiness(c *gin.Context) {
	businessID := c.Param("businessId")

	db := database.GetDB()
	var locations []models.Location
	if err := db.Where("business_id = ? AND verified = ?", businessID, true).
		Order("created_at DESC").
		Find(&locations).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch locations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"count":     len(locations),
		"locations": locations,
	})
}

// Verify handles POST /locations/:id/verify (admin only): flips the
// verified flag so the location appears in public search
func (h *LocationHandler) Verify(c *gin.Context) {
	if !c.GetBool("admin") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can verify locations"})
		return
	}

	db := database.GetDB()

	var location models.Location
	if err := db.Where("id = ?", c.Param("id")).First(&location).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch location", err)
		return
	}

	if err := db.Model(&location).Update("verified", true).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to verify location", err)
		return
	}
	location.Verified = true

	h.notifyLocationVerified(db, location)

	c.JSON(http.StatusOK, gin.H{"success": true, "location": location})
}

// notifyLocationSubmitted records a notification and emails the owner.
// Both are best-effort: failures are logged, never surfaced.
func (h *LocationHandler) notifyLocationSubmitted(db *gorm.DB, business models.Business, location models.Location) {
	notif := models.Notification{
		RecipientUsername: business.OwnerUsername,
		Type:              "location_submitted",
		Message:           "Location for '" + business.Name + "' was saved and awaits verification",
		BusinessID:        business.ID,
		CreatedAt:         time.Now(),
	}
	if err := db.Create(&notif).Error; err != nil {
		log.Printf("Warning: Failed to create notification: %v", err)
	}

	if h.email == nil {
		return
	}
	var owner models.Account
	if err := db.Where("username = ?", business.OwnerUsername).First(&owner).Error; err != nil {
		log.Printf("Warning: Failed to load owner for notification: %v", err)
		return
	}
	if err := h.email.SendLocationSubmittedEmail(owner, business, location); err != nil {
		log.Printf("Warning: Failed to send location submitted email: %v", err)
	}
}

func (h *LocationHandler) notifyLocationVerified(db *gorm.DB, location models.Location) {
	var business models.Business
	if err := db.Where("id = ?", location.BusinessID).First(&business).Error; err != nil {
		log.Printf("Warning: Failed to load business for verification notification: %v", err)
		return
	}

	notif := models.Notification{
		RecipientUsername: business.OwnerUsername,
		Type:              "location_verified",
		Message:           "Location for '" + business.Name + "' is verified and now publicly visible",
		BusinessID:        business.ID,
		CreatedAt:         time.Now(),
	}
	if err := db.Create(&notif).Error; err != nil {
		log.Printf("Warning: Failed to create notification: %v", err)
	}

	if h.email == nil {
		return
	}
	var owner models.Account
	if err := db.Where("username = ?", business.OwnerUsername).First(&owner).Error; err != nil {
		log.Printf("Warning: Failed to load owner for notification: %v", err)
		return
	}
	if err := h.email.SendLocationVerifiedEmail(owner, business); err != nil {
		log.Printf("Warning: Failed to send location verified email: %v", err)
	}
}
