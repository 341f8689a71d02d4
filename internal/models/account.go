package models

import (
	"time"

	"gorm.io/gorm"
)

// Account represents a business owner's account
type Account struct {
	Username   string     `gorm:"primaryKey;size:30;not null" json:"username"`
	GoogleID   string     `gorm:"uniqueIndex;size:128;not null" json:"-"`
	Email      string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName   string     `gorm:"size:255" json:"full_name"`
	AvatarURL  string     `gorm:"size:512" json:"avatar_url"`
	Admin      bool       `gorm:"not null;default:false" json:"-"`
	Businesses []Business `gorm:"foreignKey:OwnerUsername" json:"businesses,omitempty"`
	LastLogin  time.Time  `gorm:"not null" json:"last_login"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook is called before creating a new account
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	if a.LastLogin.IsZero() {
		a.LastLogin = now
	}
	return nil
}

// BeforeSave hook is called before saving the account
func (a *Account) BeforeSave(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "account"
}
