package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"localmarket/internal/database"
	"localmarket/internal/models"

	"gorm.io/gorm"
)

const (
	// TokenLength is the length of the random bearer token in bytes
	TokenLength = 32
)

// GenerateRandomString creates a cryptographically secure random string
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

// CreateSession issues a new bearer token for the user
func CreateSession(username string) (*models.Session, error) {
	token, err := GenerateRandomString(TokenLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	session := models.Session{
		Token:     token,
		Username:  username,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(models.SessionDuration),
	}

	db := database.GetDB()
	if err := db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &session, nil
}

// GetSession looks up a bearer token
func GetSession(token string) (*models.Session, error) {
	db := database.GetDB()
	var session models.Session
	if err := db.Where("token = ?", token).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("session not found")
		}
		return nil, fmt.Errorf("failed to retrieve session: %w", err)
	}

	if session.IsExpired() {
		DeleteSession(token)
		return nil, fmt.Errorf("session expired")
	}

	return &session, nil
}

// DeleteSession revokes a bearer token
func DeleteSession(token string) {
	db := database.GetDB()
	db.Where("token = ?", token).Delete(&models.Session{})
}
