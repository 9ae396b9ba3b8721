package auth

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/services"
	authutil "github.com/leadscout/leadscout/utils/auth"
	"github.com/leadscout/leadscout/utils/middleware"
	"github.com/leadscout/leadscout/utils/response"
	"github.com/leadscout/leadscout/utils/validation"
	"gorm.io/gorm"
)

// verificationTokenTTL is how long an email confirmation link stays valid
const verificationTokenTTL = 24 * time.Hour

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db         *gorm.DB
	jwt        *authutil.JWTManager
	blacklist  *authutil.BlacklistService
	bruteForce *middleware.BruteForceProtection
	email      *services.EmailService
	analytics  *services.AnalyticsService
	validator  *validation.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, bruteForce *middleware.BruteForceProtection, email *services.EmailService, analytics *services.AnalyticsService) *AuthHandler {
	return &AuthHandler{
		db:         db,
		jwt:        jwtManager,
		blacklist:  authutil.NewBlacklistService(db),
		bruteForce: bruteForce,
		email:      email,
		analytics:  analytics,
		validator:  validation.NewValidator(),
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
}

// RegisterResponse represents a successful registration response
type RegisterResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID            uint      `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	CurrentPlan   string    `json:"current_plan"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Role:          user.Role,
		CurrentPlan:   user.CurrentPlan,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

// issueTokens signs a fresh token pair and reports the access token TTL in
// seconds for the response body
func (h *AuthHandler) issueTokens(user *model.User) (accessToken, refreshToken string, expiresIn int, err error) {
	accessToken, refreshToken, err = h.jwt.GenerateTokenPair(user)
	if err != nil {
		return "", "", 0, err
	}
	return accessToken, refreshToken, int(h.jwt.AccessTokenTTL().Seconds()), nil
}

// Register creates an account and signs the new user in
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var existingUser model.User
	if err := h.db.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return response.Conflict(c, "User with this email already exists")
	}

	hashedPassword, err := authutil.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	// New accounts always start on the free plan with the plain user role,
	// privileges are never client input.
	user := model.User{
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Name:         validation.SanitizeString(req.Name),
		Role:         model.RoleUser,
		CurrentPlan:  model.PlanFree,
		IsActive:     true,
		TokenVersion: 0,
		Settings:     &model.UserSettings{},
	}

	if err := h.db.Create(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to create user")
	}

	// Issue the email confirmation link. Registration succeeds either way,
	// the user can request a fresh link later.
	h.sendVerification(&user)

	if h.analytics != nil {
		_ = h.analytics.TrackActivity(c.Context(), &user.ID, model.ActivityTypeRegister, "", nil, c.IP(), c.Get("User-Agent"))
	}

	accessToken, refreshToken, expiresIn, err := h.issueTokens(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.Created(c, RegisterResponse{
		User:         toUserResponse(&user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	})
}

// sendVerification creates a fresh confirmation token and emails it
func (h *AuthHandler) sendVerification(user *model.User) {
	record := model.EmailVerificationToken{
		SingleUseToken: model.MintToken(user.ID, verificationTokenTTL),
	}
	if err := h.db.Create(&record).Error; err != nil {
		log.Printf("Failed to create verification token for %s: %v", user.Email, err)
		return
	}

	if h.email != nil {
		if err := h.email.SendVerificationEmail(user.Email, record.Token, user.Name); err != nil {
			log.Printf("Failed to send verification email to %s: %v", user.Email, err)
		}
	}
}
