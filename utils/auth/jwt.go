package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/leadscout/leadscout/model"
)

// Token types carried in the custom claims. Access tokens authenticate
// requests; refresh tokens may only be exchanged for new pairs.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// JWTConfig holds signing configuration
type JWTConfig struct {
	Secret        string
	Expiry        time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// Claims is the token payload. TokenVersion is compared against the user
// row on every authenticated request, so bumping the stored version
// invalidates every outstanding token at once.
type Claims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenType    string `json:"token_type"`
	TokenVersion int    `json:"token_version"`
	jwt.RegisteredClaims
}

// JWTManager signs and validates the API's tokens
type JWTManager struct {
	cfg JWTConfig
}

// NewJWTManager creates a manager signing with the given configuration
func NewJWTManager(cfg JWTConfig) *JWTManager {
	return &JWTManager{cfg: cfg}
}

// sign issues one token of the given type for the user. Every token gets
// a fresh UUID as its JTI so it can be individually blacklisted later.
func (m *JWTManager) sign(tokenType string, ttl time.Duration, user *model.User) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenType:    tokenType,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.cfg.Issuer,
			Subject:   user.Email,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.Secret))
}

// GenerateTokenPair signs a fresh access and refresh token for the user
func (m *JWTManager) GenerateTokenPair(user *model.User) (accessToken, refreshToken string, err error) {
	if accessToken, err = m.sign(TokenTypeAccess, m.cfg.Expiry, user); err != nil {
		return "", "", err
	}
	if refreshToken, err = m.sign(TokenTypeRefresh, m.cfg.RefreshExpiry, user); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// AccessTokenTTL reports the configured access token lifetime
func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.cfg.Expiry
}

// ValidateToken verifies the signature and standard claims and returns the
// parsed payload. Only HMAC-signed tokens are accepted.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// extractClaims parses without verifying. Only safe for reading metadata
// off a token the caller already holds, like its expiry.
func (m *JWTManager) extractClaims(tokenString string) (*Claims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// GetTokenExpiry returns when a token expires, used to bound how long a
// revoked JTI must stay on the blacklist
func (m *JWTManager) GetTokenExpiry(tokenString string) (time.Time, error) {
	claims, err := m.extractClaims(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no expiry")
	}
	return claims.ExpiresAt.Time, nil
}
