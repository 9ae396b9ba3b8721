package model

import (
	"time"

	"gorm.io/datatypes"
)

// SearchRecord persists one executed places search, whether by a registered
// user or a guest. Exactly one of UserID / ClientKey is set.
type SearchRecord struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      *uint          `gorm:"index" json:"user_id,omitempty"`
	ClientKey   string         `gorm:"type:varchar(128);index" json:"-"`
	Location    string         `gorm:"type:varchar(255);not null" json:"location"`
	Keyword     string         `gorm:"type:varchar(120)" json:"keyword"`
	RadiusMiles float64        `gorm:"not null" json:"radius_miles"`
	MaxReviews  int            `json:"max_reviews"`
	LeadsOnly   bool           `json:"leads_only"`
	ResultCount int            `json:"result_count"`
	LeadCount   int            `json:"lead_count"`
	DurationMs  int            `json:"duration_ms"`
	TopResults  datatypes.JSON `gorm:"type:jsonb" json:"top_results,omitempty"` // snapshot of leading results for history views
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName specifies the table name for SearchRecord
func (SearchRecord) TableName() string {
	return "search_records"
}
