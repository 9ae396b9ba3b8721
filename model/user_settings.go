package model

import (
	"time"

	"gorm.io/gorm"
)

// UserSettings stores per-user search and notification preferences
type UserSettings struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UserID             uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	DefaultRadiusMiles float64        `gorm:"default:10" json:"default_radius_miles"`
	DefaultMaxReviews  int            `gorm:"default:15" json:"default_max_reviews"`
	LeadsOnlyDefault   bool           `gorm:"default:false" json:"leads_only_default"`
	EmailNotifications bool           `gorm:"default:true" json:"email_notifications"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for UserSettings
func (UserSettings) TableName() string {
	return "user_settings"
}
