package auth

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/model"
	authutil "github.com/leadscout/leadscout/utils/auth"
	"github.com/leadscout/leadscout/utils/middleware"
	"github.com/leadscout/leadscout/utils/response"
)

// resetTokenTTL bounds how long a password reset link stays redeemable
const resetTokenTTL = 1 * time.Hour

// ForgotPasswordRequest asks for a reset link by email
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest redeems a reset token for a new password
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// ChangePasswordRequest rotates the password of a signed-in user
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// ForgotPassword issues a reset token and mails the reset link. The
// response never reveals whether the address has an account.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	neutral := fiber.Map{
		"message": "If an account exists for that email, a reset link is on its way",
	}

	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return response.Success(c, neutral)
	}

	reset := model.PasswordResetToken{
		SingleUseToken: model.MintToken(user.ID, resetTokenTTL),
	}
	if err := h.db.Create(&reset).Error; err != nil {
		return response.InternalServerError(c, "Failed to create reset token")
	}

	// A failed send is only logged. The token stays valid and the user
	// can request another link.
	if h.email != nil {
		if err := h.email.SendPasswordResetEmail(user.Email, reset.Token, user.Name); err != nil {
			log.Printf("Failed to send password reset email to %s: %v", user.Email, err)
		}
	}

	return response.Success(c, neutral)
}

// ResetPassword redeems a reset token. Tokens are single use and the
// change bumps the token version, logging out every existing session.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var reset model.PasswordResetToken
	if err := h.db.Where("token = ?", req.Token).First(&reset).Error; err != nil {
		return response.BadRequest(c, "Reset link is invalid or has expired")
	}
	if reset.IsExpired() {
		return response.BadRequest(c, "Reset link has expired, request a new one")
	}
	if reset.IsUsed() {
		return response.BadRequest(c, "Reset link has already been used")
	}

	var user model.User
	if err := h.db.First(&user, reset.UserID).Error; err != nil {
		return response.BadRequest(c, "User not found")
	}

	if err := h.setPassword(&user, req.NewPassword); err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	reset.MarkAsUsed()
	h.db.Save(&reset)

	if h.analytics != nil {
		_ = h.analytics.TrackActivity(c.Context(), &user.ID, model.ActivityTypePasswordReset, "", nil, c.IP(), c.Get("User-Agent"))
	}

	return response.Success(c, fiber.Map{
		"message": "Your password has been reset",
	})
}

// ChangePassword lets an authenticated user rotate their password after
// proving they know the current one
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return response.Unauthorized(c, "User not found")
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.OldPassword); err != nil {
		return response.BadRequest(c, "Current password is incorrect")
	}

	if err := h.setPassword(&user, req.NewPassword); err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	return response.Success(c, fiber.Map{
		"message": "Password changed. Sign in again with your new password",
	})
}

// setPassword stores the new hash and bumps the token version so every
// previously issued token stops validating
func (h *AuthHandler) setPassword(user *model.User, newPassword string) error {
	hashedPassword, err := authutil.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return h.db.Model(user).Updates(map[string]interface{}{
		"password_hash": hashedPassword,
		"token_version": user.TokenVersion + 1,
	}).Error
}
