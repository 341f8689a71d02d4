package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// BusinessCategory represents the category of a business
type BusinessCategory string

const (
	CategoryRestaurant BusinessCategory = "restaurant"
	CategoryRetail     BusinessCategory = "retail"
	CategoryServices   BusinessCategory = "services"
	CategoryRealEstate BusinessCategory = "real_estate"
	CategoryOther      BusinessCategory = "other"
)

// DayHours is an opening window for one weekday, in HHMM integer form
// (e.g. 930 for 09:30, 1730 for 17:30)
type DayHours struct {
	Open  int `json:"open"`
	Close int `json:"close"`
}

// WeeklyHours maps lowercase weekday names to opening windows.
// A missing day means closed all day.
type WeeklyHours map[string]DayHours

func (w WeeklyHours) Value() (driver.Value, error) {
	if w == nil {
		return "{}", nil
	}
	return json.Marshal(w)
}

func (w *WeeklyHours) Scan(value interface{}) error {
	if value == nil {
		*w = WeeklyHours{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, w)
	case string:
		return json.Unmarshal([]byte(v), w)
	default:
		return fmt.Errorf("unsupported type for WeeklyHours: %T", value)
	}
}

// Business represents a business listed on the marketplace
type Business struct {
	ID            uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerUsername string           `gorm:"size:30;not null;index" json:"owner_username"`
	Name          string           `gorm:"size:255;not null" json:"name"`
	Category      BusinessCategory `gorm:"size:30;not null;index" json:"category"`
	Description   string           `gorm:"type:text" json:"description"`
	PhotoURL      string           `gorm:"size:512" json:"photo_url"`
	OpeningHours  WeeklyHours      `gorm:"type:json" json:"opening_hours"`
	CreatedAt     time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"not null" json:"updated_at"`
}

// IsOpenAt reports whether the business is open at the given local time.
// Absence of hours for that weekday means closed.
func (b *Business) IsOpenAt(t time.Time) bool {
	hours, ok := b.OpeningHours[strings.ToLower(t.Weekday().String())]
	if !ok {
		return false
	}
	hhmm := t.Hour()*100 + t.Minute()
	return hhmm >= hours.Open && hhmm < hours.Close
}

// IsOpenNow reports whether the business is currently open
func (b *Business) IsOpenNow() bool {
	return b.IsOpenAt(time.Now())
}

// BeforeCreate hook is called before creating a new business
func (b *Business) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}
	if b.Category == "" {
		b.Category = CategoryOther
	}
	return nil
}

// BeforeSave hook is called before saving the business
func (b *Business) BeforeSave(tx *gorm.DB) error {
	b.UpdatedAt = time.Now()
	return nil
}

// TableName specifies the table name for the Business model
func (Business) TableName() string {
	return "business"
}

// CreateBusinessRequest represents the data needed to create a new business
type CreateBusinessRequest struct {
	Name         string           `json:"name" binding:"required"`
	Category     BusinessCategory `json:"category" binding:"required,oneof=restaurant retail services real_estate other"`
	Description  string           `json:"description"`
	OpeningHours WeeklyHours      `json:"opening_hours"`
}
