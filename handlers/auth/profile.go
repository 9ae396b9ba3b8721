package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/services"
	"github.com/leadscout/leadscout/utils/middleware"
	"github.com/leadscout/leadscout/utils/response"
	"gorm.io/gorm"
)

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	Name string `json:"name,omitempty"`
}

// ProfileResponse is the profile payload including search preferences
type ProfileResponse struct {
	UserResponse
	Settings *model.UserSettings `json:"settings,omitempty"`
}

// UpdateSettingsRequest carries per-user search preference changes.
// Pointers distinguish "leave unchanged" from explicit zero values.
type UpdateSettingsRequest struct {
	DefaultRadiusMiles *float64 `json:"default_radius_miles,omitempty"`
	DefaultMaxReviews  *int     `json:"default_max_reviews,omitempty"`
	LeadsOnlyDefault   *bool    `json:"leads_only_default,omitempty"`
	EmailNotifications *bool    `json:"email_notifications,omitempty"`
}

// GetProfile retrieves the current user's profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var user model.User
	if err := h.db.Preload("Settings").First(&user, userID).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	res := ProfileResponse{
		UserResponse: toUserResponse(&user),
		Settings:     user.Settings,
	}

	return response.Success(c, res)
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	if req.Name != "" {
		user.Name = req.Name
	}

	if err := h.db.Save(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.Success(c, toUserResponse(&user))
}

// GetSettings retrieves the current user's search preferences
func (h *AuthHandler) GetSettings(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	settings, err := h.loadOrCreateSettings(userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load settings")
	}

	return response.Success(c, settings)
}

// UpdateSettings updates the current user's search preferences
func (h *AuthHandler) UpdateSettings(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	settings, err := h.loadOrCreateSettings(userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load settings")
	}

	if req.DefaultRadiusMiles != nil {
		if *req.DefaultRadiusMiles <= 0 || *req.DefaultRadiusMiles > services.MaxRadiusMiles {
			return response.BadRequest(c, "Default radius must be between 1 and 30 miles")
		}
		settings.DefaultRadiusMiles = *req.DefaultRadiusMiles
	}
	if req.DefaultMaxReviews != nil {
		if *req.DefaultMaxReviews < 0 {
			return response.BadRequest(c, "Default max reviews cannot be negative")
		}
		settings.DefaultMaxReviews = *req.DefaultMaxReviews
	}
	if req.LeadsOnlyDefault != nil {
		settings.LeadsOnlyDefault = *req.LeadsOnlyDefault
	}
	if req.EmailNotifications != nil {
		settings.EmailNotifications = *req.EmailNotifications
	}

	if err := h.db.Save(settings).Error; err != nil {
		return response.InternalServerError(c, "Failed to update settings")
	}

	return response.Success(c, settings)
}

// loadOrCreateSettings returns the user's settings row, creating the
// defaults row for accounts that predate the settings table.
func (h *AuthHandler) loadOrCreateSettings(userID uint) (*model.UserSettings, error) {
	var settings model.UserSettings
	err := h.db.Where("user_id = ?", userID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settings = model.UserSettings{
		UserID:             userID,
		DefaultRadiusMiles: services.DefaultRadiusMiles,
		DefaultMaxReviews:  services.DefaultMaxReviews,
		EmailNotifications: true,
	}
	if err := h.db.Create(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}
