package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/database"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/utils/response"
	"gorm.io/gorm"
)

// HandleGetPublicSettings returns the settings flagged public, keyed by name.
// The frontend reads these to toggle registration, exports and the guest
// search counter without an authenticated call.
func HandleGetPublicSettings(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var settings []model.AppSetting
	if err := db.Where("is_public = ?", true).Find(&settings).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch settings")
	}

	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}

	return response.Success(c, values)
}
