package model

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityType represents the type of tracked activity
type ActivityType string

const (
	ActivityTypeRegister      ActivityType = "register"
	ActivityTypeLogin         ActivityType = "login"
	ActivityTypeLogout        ActivityType = "logout"
	ActivityTypeSearch        ActivityType = "search"
	ActivityTypeExport        ActivityType = "export"
	ActivityTypePageView      ActivityType = "page_view"
	ActivityTypePasswordReset ActivityType = "password_reset"
	ActivityTypeEmailVerified ActivityType = "email_verified"
	ActivityTypePlanChange    ActivityType = "plan_change"
)

// UserActivity tracks user and guest actions for analytics. UserID is nil for
// guest traffic; IPAddress is always recorded.
type UserActivity struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       *uint          `gorm:"index:idx_user_activity" json:"user_id,omitempty"`
	ActivityType ActivityType   `gorm:"type:varchar(50);not null;index:idx_activity_type" json:"activity_type"`
	Page         string         `gorm:"type:varchar(255)" json:"page"`
	Metadata     datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"` // Additional context
	IPAddress    string         `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent    string         `gorm:"type:text" json:"user_agent"`
	CreatedAt    time.Time      `gorm:"index:idx_created_at" json:"created_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName specifies the table name for UserActivity
func (UserActivity) TableName() string {
	return "user_activities"
}
