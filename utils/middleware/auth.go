package middleware

import (
	"errors"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/utils/auth"
	"github.com/leadscout/leadscout/utils/response"
	"gorm.io/gorm"
)

// Context locals keys set by the middleware and read back by handlers
const (
	localUserID    = "user_id"
	localUserEmail = "user_email"
	localUserRole  = "user_role"
	localClaims    = "claims"
	localUser      = "user"
	localTokenJTI  = "token_jti"
)

// AuthMiddleware authenticates requests from bearer tokens. A token is
// only honored when it validates, is not blacklisted, and its embedded
// token version still matches the user row.
type AuthMiddleware struct {
	jwt       *auth.JWTManager
	blacklist *auth.BlacklistService
	db        *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwt:       jwtManager,
		blacklist: auth.NewBlacklistService(db),
		db:        db,
	}
}

// authFailure describes why a token was rejected and how to answer
type authFailure struct {
	serverError bool
	message     string
}

func (f *authFailure) respond(c *fiber.Ctx) error {
	if f.serverError {
		return response.InternalServerError(c, f.message)
	}
	return response.Unauthorized(c, f.message)
}

// validateRequest runs the full token check: header shape, signature,
// token type, blacklist, user existence, and token version.
func (m *AuthMiddleware) validateRequest(c *fiber.Ctx) (*auth.Claims, *model.User, *authFailure) {
	header := c.Get("Authorization")
	if header == "" {
		return nil, nil, &authFailure{message: "Missing authorization token"}
	}

	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return nil, nil, &authFailure{message: "Invalid authorization format"}
	}

	claims, err := m.jwt.ValidateToken(raw)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, nil, &authFailure{message: "Token has expired"}
		}
		return nil, nil, &authFailure{message: "Invalid token"}
	}

	if claims.TokenType != auth.TokenTypeAccess {
		return nil, nil, &authFailure{message: "Invalid token type"}
	}

	revoked, err := m.blacklist.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		return nil, nil, &authFailure{serverError: true, message: "Failed to check token status"}
	}
	if revoked {
		return nil, nil, &authFailure{message: "Token has been revoked"}
	}

	var user model.User
	if err := m.db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &authFailure{message: "User not found"}
		}
		return nil, nil, &authFailure{serverError: true, message: "Failed to load user"}
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, &authFailure{message: "Token has been invalidated"}
	}

	return claims, &user, nil
}

// storeIdentity makes the authenticated identity available to handlers
func storeIdentity(c *fiber.Ctx, claims *auth.Claims, user *model.User) {
	c.Locals(localUserID, claims.UserID)
	c.Locals(localUserEmail, claims.Email)
	c.Locals(localUserRole, claims.Role)
	c.Locals(localClaims, claims)
	c.Locals(localUser, user)
	c.Locals(localTokenJTI, claims.ID)
}

// Required rejects any request without a fully valid access token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, failure := m.validateRequest(c)
		if failure != nil {
			return failure.respond(c)
		}
		storeIdentity(c, claims, user)
		return c.Next()
	}
}

// Optional authenticates when a valid token is present and silently
// continues as anonymous otherwise. Guest-limited endpoints use this: a
// bad token does not block the request, it just gets guest treatment.
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}
		claims, user, failure := m.validateRequest(c)
		if failure != nil {
			return c.Next()
		}
		storeIdentity(c, claims, user)
		return c.Next()
	}
}

// RequireRole allows only the listed roles through. Must run after
// Required or another middleware that stored the identity.
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := GetUserRole(c)
		if !ok {
			return response.Forbidden(c, "Access denied")
		}
		if !slices.Contains(roles, role) {
			return response.Forbidden(c, "Insufficient permissions")
		}
		return c.Next()
	}
}

// RequireAdmin authenticates and gates on the admin role in one step, so
// admin routes need no separate Required() in front
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, failure := m.validateRequest(c)
		if failure != nil {
			return failure.respond(c)
		}

		if !user.IsAdmin() {
			return response.Forbidden(c, "Admin access required")
		}

		storeIdentity(c, claims, user)
		return c.Next()
	}
}

// GetUserID extracts the authenticated user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(localUserID).(uint)
	return id, ok
}

// GetUserEmail extracts the authenticated user's email from context
func GetUserEmail(c *fiber.Ctx) (string, bool) {
	email, ok := c.Locals(localUserEmail).(string)
	return email, ok
}

// GetUserRole extracts the authenticated user's role from context
func GetUserRole(c *fiber.Ctx) (string, bool) {
	role, ok := c.Locals(localUserRole).(string)
	return role, ok
}

// GetUser extracts the full user record from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user, ok := c.Locals(localUser).(*model.User)
	return user, ok
}

// GetClaims extracts the raw token claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(localClaims).(*auth.Claims)
	return claims, ok
}

// GetTokenJTI extracts the token's unique ID from context
func GetTokenJTI(c *fiber.Ctx) (string, bool) {
	jti, ok := c.Locals(localTokenJTI).(string)
	return jti, ok
}
