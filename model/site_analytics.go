package model

import (
	"time"
)

// SiteAnalytics holds one row of daily aggregated usage, written by the
// nightly rollup job and read by the admin dashboard.
type SiteAnalytics struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Date              time.Time `gorm:"type:date;uniqueIndex;not null" json:"date"`
	TotalVisits       int       `gorm:"default:0" json:"total_visits"`
	UniqueVisitors    int       `gorm:"default:0" json:"unique_visitors"`
	RegisteredUsers   int       `gorm:"default:0" json:"registered_users"`
	ActiveUsers       int       `gorm:"default:0" json:"active_users"`
	SearchesPerformed int       `gorm:"default:0" json:"searches_performed"`
	ExportsPerformed  int       `gorm:"default:0" json:"exports_performed"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for SiteAnalytics
func (SiteAnalytics) TableName() string {
	return "site_analytics"
}

// PageVisit counts visits per path per day
type PageVisit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_page_visit_day" json:"date"`
	Path      string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_page_visit_day" json:"path"`
	Count     int       `gorm:"default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for PageVisit
func (PageVisit) TableName() string {
	return "page_visits"
}
