package model

import (
	"time"

	"gorm.io/gorm"
)

// JWTTokenBlacklist holds individually revoked tokens, identified by
// JTI rather than the token text. A row only matters until the token
// would have expired on its own; the nightly cleanup drops the rest.
type JWTTokenBlacklist struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	JTI       string         `gorm:"column:jti;uniqueIndex;not null;type:varchar(64)" json:"jti"`
	UserID    uint           `gorm:"index" json:"user_id"`
	Reason    string         `gorm:"type:varchar(100)" json:"reason"` // logout, token_refresh, security
	ExpiresAt time.Time      `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (JWTTokenBlacklist) TableName() string {
	return "jwt_token_blacklist"
}
