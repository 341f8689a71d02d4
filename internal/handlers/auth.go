package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"localmarket/internal/auth"
	"localmarket/internal/database"
	"localmarket/internal/models"
	"localmarket/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GoogleLoginRequest carries a Google-issued ID token
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// GoogleLogin verifies a Google ID token and issues a bearer token,
// creating the account on first sign-in
func GoogleLogin(c *gin.Context) {
	var request GoogleLoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "id_token is required", err)
		return
	}

	payload, err := auth.VerifyGoogleIDToken(c.Request.Context(), request.IDToken)
	if err != nil {
		handleError(c, http.StatusUnauthorized, "Invalid ID token", err)
		return
	}

	userInfo, err := auth.ExtractUserInfo(payload)
	if err != nil {
		handleError(c, http.StatusUnauthorized, "Invalid ID token", err)
		return
	}

	db := database.GetDB()

	var account models.Account
	if err := db.Where("google_id = ?", userInfo.Sub).First(&account).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusInternalServerError, "Failed to look up account", err)
			return
		}

		// First sign-in: create the account with a username derived from the email
		account = models.Account{
			Username:  usernameFromEmail(userInfo.Email),
			GoogleID:  userInfo.Sub,
			Email:     userInfo.Email,
			FullName:  userInfo.Name,
			AvatarURL: userInfo.Picture,
		}
		if err := db.Create(&account).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to create account", err)
			return
		}
	} else {
		db.Model(&account).Update("last_login", time.Now())
	}

	session, err := auth.CreateSession(account.Username)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create session", err)
		return
	}

	log.Printf("Login for %s from %s", account.Username, utils.GetRealClientIP(c))

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"account":    account,
	})
}

// Logout revokes the caller's bearer token
func Logout(c *gin.Context) {
	token := c.GetString("token")
	if token != "" {
		auth.DeleteSession(token)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

// GetCurrentUser returns the authenticated account
func GetCurrentUser(c *gin.Context) {
	username := c.GetString("username")

	db := database.GetDB()
	var account models.Account
	if err := db.Where("username = ?", username).First(&account).Error; err != nil {
		handleError(c, http.StatusNotFound, "Account not found", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "account": account})
}

// usernameFromEmail derives a usable username from the email local part,
// suffixed with a timestamp to dodge collisions
func usernameFromEmail(email string) string {
	local := email
	if idx := strings.IndexByte(email, '@'); idx > 0 {
		local = email[:idx]
	}
	local = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, local)
	if len(local) > 20 {
		local = local[:20]
	}
	return fmt.Sprintf("%s%d", local, time.Now().Unix()%100000)
}
