package model

import (
	"time"

	"gorm.io/gorm"
)

// ExportRecord tracks every generated lead workbook, including the archive
// key when the file was copied to object storage.
type ExportRecord struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	SearchRecordID *uint          `gorm:"index" json:"search_record_id,omitempty"`
	FileName       string         `gorm:"type:varchar(120);not null" json:"file_name"`
	RowCount       int            `json:"row_count"`
	LeadCount      int            `json:"lead_count"`
	ByteSize       int64          `json:"byte_size"`
	StorageKey     string         `gorm:"type:varchar(255)" json:"storage_key,omitempty"` // empty when object storage is unconfigured
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User   User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Search *SearchRecord `gorm:"foreignKey:SearchRecordID" json:"-"`
}

// TableName specifies the table name for ExportRecord
func (ExportRecord) TableName() string {
	return "export_records"
}
