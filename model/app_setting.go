package model

import (
	"time"

	"gorm.io/gorm"
)

// Setting value types. Secret-typed values are sealed before storage
// and redacted everywhere they surface.
const (
	SettingTypeString = "string"
	SettingTypeInt    = "int"
	SettingTypeBool   = "bool"
	SettingTypeJSON   = "json"
	SettingTypeSecret = "secret"
)

// AppSetting is one runtime configuration row. Public settings feed the
// unauthenticated /settings endpoint the frontend bootstraps from; the
// rest are readable through the admin API only.
type AppSetting struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Key         string         `gorm:"uniqueIndex;not null" json:"key"`
	Value       string         `gorm:"type:text;not null" json:"value"`
	Type        string         `gorm:"type:varchar(20);default:'string'" json:"type"`
	Description string         `gorm:"type:text" json:"description"`
	IsPublic    bool           `gorm:"default:false" json:"is_public"`
	Category    string         `gorm:"type:varchar(50)" json:"category"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsSecret reports whether the value is sealed at rest
func (s *AppSetting) IsSecret() bool {
	return s.Type == SettingTypeSecret
}

func (AppSetting) TableName() string {
	return "app_settings"
}
