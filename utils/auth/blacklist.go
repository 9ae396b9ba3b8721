package auth

import (
	"context"
	"time"

	"github.com/leadscout/leadscout/model"
	"gorm.io/gorm"
)

// BlacklistService revokes individual JWTs by JTI. Revocations are rows
// in jwt_token_blacklist and age out with the token's own expiry, so
// the table stays small; the nightly cleanup job removes expired rows.
type BlacklistService struct {
	db *gorm.DB
}

func NewBlacklistService(db *gorm.DB) *BlacklistService {
	return &BlacklistService{db: db}
}

// RevokeToken blacklists a token until its natural expiry. Reason is
// recorded for auditing ("logout", "token_refresh").
func (b *BlacklistService) RevokeToken(ctx context.Context, jti string, userID uint, expiresAt time.Time, reason string) error {
	row := model.JWTTokenBlacklist{
		JTI:       jti,
		UserID:    userID,
		Reason:    reason,
		ExpiresAt: expiresAt,
	}
	return b.db.WithContext(ctx).Create(&row).Error
}

// IsTokenRevoked reports whether the JTI has an unexpired blacklist row
func (b *BlacklistService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := b.db.WithContext(ctx).
		Model(&model.JWTTokenBlacklist{}).
		Select("count(*) > 0").
		Where("jti = ? AND expires_at > ?", jti, time.Now()).
		Find(&revoked).
		Error
	return revoked, err
}
