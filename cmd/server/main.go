package main

import (
	"log"
	"os"

	"localmarket/internal/auth"
	"localmarket/internal/database"
	"localmarket/internal/handlers"
	"localmarket/internal/metrics"
	"localmarket/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// This is our main function - the entry point of our application
func main() {
	// Load .env in development; production configures the environment directly
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file loaded: %v", err)
		}
	}

	// Initialize database
	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Geocoding degrades to the fallback policy when no key is configured
	geocoder := services.NewGeocodingService(os.Getenv("GOOGLE_MAPS_API_KEY"), services.DefaultFallbackPolicy())
	emailService := services.NewEmailService()
	locationHandler := handlers.NewLocationHandler(geocoder, emailService)

	// Initialize Gin router
	router := gin.Default()

	// Configure trusted proxies
	router.SetTrustedProxies([]string{"127.0.0.1"})

	// CORS for the SPA frontend
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173"}
	if origin := os.Getenv("FRONTEND_ORIGIN"); origin != "" {
		corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, origin)
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	// Request metrics
	router.Use(metrics.Middleware())

	// Basic routes
	router.GET("/", handlers.HomeHandler)
	router.GET("/health", handlers.HealthHandler)
	router.GET("/metrics", metrics.Handler())

	// Auth routes (no auth required)
	router.POST("/auth/google", handlers.GoogleLogin)

	// Public location routes
	locations := router.Group("/locations")
	{
		locations.GET("/nearby", locationHandler.Nearby)
		locations.GET("/bounds", locationHandler.Bounds)
		locations.GET("/business/:businessId", locationHandler.ByBusiness)
		locations.POST("/geocode", locationHandler.Geocode)
		locations.POST("/reverse-geocode", locationHandler.ReverseGeocode)
		locations.POST("/distance", locationHandler.Distance)
	}

	// Public business routes
	router.GET("/businesses/search", handlers.SearchBusinesses)
	router.GET("/businesses/:id", handlers.GetBusiness)

	// Protected routes (auth required)
	protected := router.Group("")
	protected.Use(auth.AuthMiddleware())
	{
		protected.POST("/auth/logout", handlers.Logout)
		protected.GET("/auth/me", handlers.GetCurrentUser)

		protected.POST("/locations", locationHandler.CreateOrUpdate)
		protected.POST("/locations/:id/verify", locationHandler.Verify)

		protected.POST("/businesses", handlers.CreateBusiness)
		protected.POST("/businesses/:id/photo", handlers.UploadBusinessPhoto)
	}

	// Nudge owners whose locations sit unverified
	services.NewVerificationWorker().Start()

	// Start the server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
