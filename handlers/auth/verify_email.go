package auth

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/utils/middleware"
	"github.com/leadscout/leadscout/utils/response"
)

// VerifyEmailRequest carries the token from the confirmation link. The
// token may also arrive as a query param, so the struct is validated by
// hand rather than by tag.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// VerifyEmail confirms a user's email address with a single-use token
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req VerifyEmailRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	// Accept the token as a query param too so the emailed link works directly
	if req.Token == "" {
		req.Token = c.Query("token")
	}
	if req.Token == "" {
		return response.BadRequest(c, "Verification token is required")
	}

	var token model.EmailVerificationToken
	if err := h.db.Where("token = ?", req.Token).First(&token).Error; err != nil {
		return response.BadRequest(c, "Invalid or expired verification token")
	}

	if token.IsExpired() {
		return response.BadRequest(c, "Verification token has expired")
	}
	if token.IsUsed() {
		return response.BadRequest(c, "Verification token has already been used")
	}

	var user model.User
	if err := h.db.First(&user, token.UserID).Error; err != nil {
		return response.BadRequest(c, "User not found")
	}

	if !user.EmailVerified {
		if err := h.db.Model(&user).Update("email_verified", true).Error; err != nil {
			return response.InternalServerError(c, "Failed to verify email")
		}
		user.EmailVerified = true

		if h.email != nil {
			if err := h.email.SendWelcomeEmail(user.Email, user.Name); err != nil {
				log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
			}
		}

		if h.analytics != nil {
			_ = h.analytics.TrackActivity(c.Context(), &user.ID, model.ActivityTypeEmailVerified, "", nil, c.IP(), c.Get("User-Agent"))
		}
	}

	token.MarkAsUsed()
	h.db.Save(&token)

	return response.Success(c, fiber.Map{
		"message": "Email verified successfully",
		"user":    toUserResponse(&user),
	})
}

// ResendVerification issues a fresh confirmation link for the current user
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	if user.EmailVerified {
		return response.Conflict(c, "Email is already verified")
	}

	h.sendVerification(&user)

	return response.Success(c, fiber.Map{
		"message": "Verification email sent",
	})
}
