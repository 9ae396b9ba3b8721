package auth

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/model"
	authutil "github.com/leadscout/leadscout/utils/auth"
	"github.com/leadscout/leadscout/utils/middleware"
	"github.com/leadscout/leadscout/utils/response"
)

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse represents a token refresh response
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RefreshToken exchanges a valid refresh token for a new token pair. The
// old refresh token is blacklisted so each one can be redeemed only once.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	claims, err := h.jwt.ValidateToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Refresh token is invalid or expired")
	}

	if claims.TokenType != authutil.TokenTypeRefresh {
		return response.Unauthorized(c, "Token is not a refresh token")
	}

	revoked, err := h.blacklist.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to verify token")
	}
	if revoked {
		return response.Unauthorized(c, "Token has been revoked")
	}

	// The stored token version must still match; a mismatch means the
	// account logged out everywhere or changed its password since.
	var user model.User
	if err := h.db.First(&user, claims.UserID).Error; err != nil {
		return response.Unauthorized(c, "User not found")
	}
	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Session is no longer valid")
	}

	newAccessToken, newRefreshToken, expiresIn, err := h.issueTokens(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	// Retire the redeemed refresh token. If the write fails the token
	// still dies on its own expiry, so the request succeeds anyway.
	expiresAt, _ := h.jwt.GetTokenExpiry(req.RefreshToken)
	if err := h.blacklist.RevokeToken(c.Context(), claims.ID, user.ID, expiresAt, "token_refresh"); err != nil {
		log.Printf("Failed to blacklist redeemed refresh token for user %d: %v", user.ID, err)
	}

	return response.Success(c, RefreshResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    expiresIn,
	})
}

// Logout blacklists the presented access token
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	jti, ok := middleware.GetTokenJTI(c)
	if !ok {
		return response.BadRequest(c, "Missing token ID")
	}

	// Blacklist entries only need to live until the token would have
	// expired anyway; read the real expiry when possible.
	expiresAt := time.Now().Add(24 * time.Hour)
	if token := bearerToken(c.Get("Authorization")); token != "" {
		if exp, err := h.jwt.GetTokenExpiry(token); err == nil {
			expiresAt = exp
		}
	}

	if err := h.blacklist.RevokeToken(c.Context(), jti, user.ID, expiresAt, "logout"); err != nil {
		return response.InternalServerError(c, "Failed to log out")
	}

	if h.analytics != nil {
		_ = h.analytics.TrackActivity(c.Context(), &user.ID, model.ActivityTypeLogout, "", nil, c.IP(), c.Get("User-Agent"))
	}

	return response.Success(c, fiber.Map{
		"message": "You have been logged out",
	})
}

// bearerToken strips the Bearer prefix from an Authorization header value
func bearerToken(header string) string {
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return raw
}
