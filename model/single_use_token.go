package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SingleUseToken is the shared shape of mailed confirmation tokens: a
// random value tied to one user, with an expiry, redeemable at most once.
// Password reset and email verification embed it and differ only in table
// and mail template.
type SingleUseToken struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index;not null" json:"user_id"`
	Token     string         `gorm:"uniqueIndex;not null;type:varchar(64)" json:"token"`
	ExpiresAt time.Time      `gorm:"index;not null" json:"expires_at"`
	UsedAt    *time.Time     `json:"used_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MintToken issues a token for userID that expires after ttl. Token values
// are random UUIDs, so the 64-character column has headroom.
func MintToken(userID uint, ttl time.Duration) SingleUseToken {
	return SingleUseToken{
		UserID:    userID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(ttl),
	}
}

// IsExpired reports whether the token's expiry has passed.
func (t *SingleUseToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsUsed reports whether the token has already been consumed.
func (t *SingleUseToken) IsUsed() bool {
	return t.UsedAt != nil
}

// MarkAsUsed stamps the token as consumed so it cannot be redeemed twice.
func (t *SingleUseToken) MarkAsUsed() {
	now := time.Now()
	t.UsedAt = &now
}
