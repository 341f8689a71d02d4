package models

import (
	"time"

	"gorm.io/gorm"
)

// SessionDuration is the length of time a bearer token remains valid
const SessionDuration = time.Hour * 24 * 30 // 30 days

// Session represents an issued bearer token
type Session struct {
	Token     string    `gorm:"primaryKey;size:64" json:"-"`
	Username  string    `gorm:"size:30;not null;index" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"-"`
}

// BeforeCreate hook for sessions
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = now.Add(SessionDuration)
	}
	return nil
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// TableName specifies the table name for the Session model
func (Session) TableName() string {
	return "session"
}
