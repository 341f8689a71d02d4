package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"localmarket/internal/database"
	"localmarket/internal/models"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/idtoken"
)

// VerifyGoogleIDToken validates a Google-issued ID token and returns its payload
func VerifyGoogleIDToken(ctx context.Context, rawIDToken string) (*idtoken.Payload, error) {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	if clientID == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID is not set")
	}

	payload, err := idtoken.Validate(ctx, rawIDToken, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate ID token: %w", err)
	}
	return payload, nil
}

// UserInfo holds the identity claims extracted from a verified ID token
type UserInfo struct {
	Sub     string
	Email   string
	Name    string
	Picture string
}

// ExtractUserInfo pulls identity claims out of a verified token payload
func ExtractUserInfo(payload *idtoken.Payload) (*UserInfo, error) {
	email, ok := payload.Claims["email"].(string)
	if !ok {
		return nil, fmt.Errorf("id token payload has no email claim")
	}

	userInfo := &UserInfo{
		Sub:   payload.Subject,
		Email: email,
	}
	if name, ok := payload.Claims["name"].(string); ok {
		userInfo.Name = name
	}
	if picture, ok := payload.Claims["picture"].(string); ok {
		userInfo.Picture = picture
	}

	return userInfo, nil
}

// BearerToken extracts the token from the Authorization header
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware validates the bearer token and loads the account
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		session, err := GetSession(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		var account models.Account
		db := database.GetDB()
		if err := db.Where("username = ?", session.Username).First(&account).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
			c.Abort()
			return
		}

		// Store user info in context for handlers to use
		c.Set("username", account.Username)
		c.Set("email", account.Email)
		c.Set("admin", account.Admin)
		c.Set("token", token)

		c.Next()
	}
}
