package models

import "time"

// Notification represents a message for a business owner
type Notification struct {
	ID                uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipientUsername string    `gorm:"size:30;not null;index" json:"recipient_username"`
	Type              string    `gorm:"size:30;not null" json:"type"` // location_submitted, location_verified
	Message           string    `gorm:"type:text;not null" json:"message"`
	BusinessID        uint      `gorm:"not null" json:"business_id"`
	Read              bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt         time.Time `gorm:"not null" json:"created_at"`
}

// VerificationNudge tracks which unverified locations have already been
// nudged, to avoid repeat emails
type VerificationNudge struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LocationID uint      `gorm:"not null;uniqueIndex" json:"location_id"`
	SentAt     time.Time `gorm:"not null" json:"sent_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notification"
}

// TableName specifies the table name for the VerificationNudge model
func (VerificationNudge) TableName() string {
	return "verification_nudge"
}
