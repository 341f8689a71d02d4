package handlers

import (
	"net/http"
	"strconv"

	"localmarket/internal/database"
	"localmarket/internal/models"
	"localmarket/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateBusiness handles the creation of a new business listing
func CreateBusiness(c *gin.Context) {
	var request models.CreateBusinessRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input: "+err.Error(), err)
		return
	}

	username := c.GetString("username")
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	business := models.Business{
		OwnerUsername: username,
		Name:          request.Name,
		Category:      request.Category,
		Description:   request.Description,
		OpeningHours:  request.OpeningHours,
	}

	db := database.GetDB()
	if err := db.Create(&business).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create business", err)
		return
	}

	c.JSON(http.StatusCreated, business)
}

// GetBusiness handles fetching a single business by ID
func GetBusiness(c *gin.Context) {
	db := database.GetDB()

	var business models.Business
	if err := db.Where("id = ?", c.Param("id")).First(&business).Error; err != nil {
		handleError(c, http.StatusNotFound, "Business not found", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"business": business,
		"open_now": business.IsOpenNow(),
	})
}

// SearchBusinesses handles text search over business listings
func SearchBusinesses(c *gin.Context) {
	searchTerm := c.Query("q")
	if searchTerm == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q parameter is required"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	searchService := services.NewSearchService()
	businesses, err := searchService.SearchBusinesses(searchTerm, limit, offset)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to search businesses", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(businesses),
		"businesses": businesses,
	})
}

// UploadBusinessPhoto handles POST /businesses/:id/photo (owner only)
func UploadBusinessPhoto(c *gin.Context) {
	username := c.GetString("username")
	db := database.GetDB()

	var business models.Business
	if err := db.Where("id = ?", c.Param("id")).First(&business).Error; err != nil {
		handleError(c, http.StatusNotFound, "Business not found", err)
		return
	}

	if business.OwnerUsername != username {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only upload photos for your own businesses"})
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		handleError(c, http.StatusBadRequest, "photo file is required", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		handleError(c, http.StatusBadRequest, "Failed to read uploaded file", err)
		return
	}
	defer file.Close()

	imageService, err := services.NewImageService()
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Image uploads are not configured", err)
		return
	}

	if err := imageService.ValidateImageFile(file, 5*1024*1024); err != nil {
		handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	url, err := imageService.UploadBusinessPhoto(file, fileHeader.Filename, business.ID)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to upload photo", err)
		return
	}

	if err := db.Model(&business).Update("photo_url", url).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to save photo URL", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "photo_url": url})
}
