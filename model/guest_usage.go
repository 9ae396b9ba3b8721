package model

import (
	"time"
)

// GuestUsage tracks daily search usage for anonymous visitors, one row per
// client key. UpdatedAt doubles as the reset-eligibility marker: a row older
// than the rolling window counts as zero regardless of SearchCount.
type GuestUsage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ClientKey   string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"client_key"`
	UserAgent   string    `gorm:"type:varchar(500)" json:"user_agent"`
	SearchCount int       `gorm:"not null;default:0" json:"search_count"`
	FirstSeenAt time.Time `gorm:"not null" json:"first_seen_at"` // set once at creation
	LastSeenAt  time.Time `gorm:"not null;index" json:"last_seen_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GuestUsage
func (GuestUsage) TableName() string {
	return "guest_usage"
}
