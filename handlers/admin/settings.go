package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/config"
	"github.com/leadscout/leadscout/database"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/utils/crypto"
	"github.com/leadscout/leadscout/utils/response"
	"gorm.io/gorm"
)

const redactedValue = "••••••••"

// settingsSalt scopes the derived sealing key to the settings table. The
// passphrase is the deployment's JWT secret, so rotating it orphans any
// sealed values.
var settingsSalt = []byte("leadscout.app-settings.v1")

// SettingRequest is the body for creating or updating a setting
type SettingRequest struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsPublic    bool   `json:"is_public"`
}

func settingsKey() ([]byte, error) {
	env, err := config.Get()
	if err != nil {
		return nil, err
	}
	return crypto.DeriveKey(env.JWT_SECRET, settingsSalt), nil
}

func redactSetting(s *model.AppSetting) {
	if s.IsSecret() {
		s.Value = redactedValue
	}
}

// ListSettings retrieves all app settings
// GET /admin/settings
func ListSettings(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	var settings []model.AppSetting
	if err := db.Order("category, key").Find(&settings).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch settings")
	}

	for i := range settings {
		redactSetting(&settings[i])
	}

	return response.SuccessWithMessage(c, "Settings retrieved successfully", settings)
}

// GetSetting retrieves a specific setting by key
// GET /admin/settings/:key
func GetSetting(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	key := c.Params("key")
	var setting model.AppSetting
	if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Setting not found")
		}
		return response.InternalServerError(c, "Failed to fetch setting")
	}

	redactSetting(&setting)

	return response.SuccessWithMessage(c, "Setting retrieved successfully", setting)
}

// RevealSetting returns a setting with its sealed value unsealed. The only
// way to read a secret back out; every call lands in the audit log.
// GET /admin/settings/:key/reveal
func RevealSetting(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	key := c.Params("key")
	var setting model.AppSetting
	if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Setting not found")
		}
		return response.InternalServerError(c, "Failed to fetch setting")
	}

	if setting.IsSecret() {
		sealKey, err := settingsKey()
		if err != nil {
			return response.InternalServerError(c, "Sealing key unavailable")
		}
		plain, err := crypto.OpenString(setting.Value, sealKey)
		if err != nil {
			return response.InternalServerError(c, "Failed to unseal secret value")
		}
		setting.Value = plain
	}

	return response.SuccessWithMessage(c, "Setting revealed", setting)
}

// CreateSetting creates a new setting. Secret-typed values are sealed with
// AES-GCM before they reach the database.
// POST /admin/settings
func CreateSetting(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	var req SettingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Key == "" || req.Value == "" {
		return response.BadRequest(c, "Key and value are required")
	}
	if req.Type == "" {
		req.Type = "string"
	}

	var existing model.AppSetting
	if err := db.Where("key = ?", req.Key).First(&existing).Error; err == nil {
		return response.Conflict(c, "A setting with this key already exists")
	}

	value := req.Value
	if req.Type == model.SettingTypeSecret {
		key, err := settingsKey()
		if err != nil {
			return response.InternalServerError(c, "Sealing key unavailable")
		}
		sealed, err := crypto.SealString(value, key)
		if err != nil {
			return response.InternalServerError(c, "Failed to seal secret value")
		}
		value = sealed
	}

	setting := model.AppSetting{
		Key:         req.Key,
		Value:       value,
		Type:        req.Type,
		Description: req.Description,
		Category:    req.Category,
		IsPublic:    req.IsPublic && req.Type != model.SettingTypeSecret,
	}

	if err := db.Create(&setting).Error; err != nil {
		return response.InternalServerError(c, "Failed to create setting")
	}

	redactSetting(&setting)

	return response.Created(c, setting)
}

// UpdateSetting updates an existing setting
// PUT /admin/settings/:key
func UpdateSetting(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	key := c.Params("key")

	var req SettingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var setting model.AppSetting
	if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Setting not found")
		}
		return response.InternalServerError(c, "Failed to fetch setting")
	}

	updates := map[string]interface{}{}
	if req.Value != "" {
		value := req.Value
		if setting.IsSecret() {
			sealKey, err := settingsKey()
			if err != nil {
				return response.InternalServerError(c, "Sealing key unavailable")
			}
			sealed, err := crypto.SealString(value, sealKey)
			if err != nil {
				return response.InternalServerError(c, "Failed to seal secret value")
			}
			value = sealed
		}
		updates["value"] = value
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}

	if len(updates) > 0 {
		if err := db.Model(&setting).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update setting")
		}
	}

	redactSetting(&setting)

	return response.SuccessWithMessage(c, "Setting updated successfully", setting)
}

// DeleteSetting deletes a setting
// DELETE /admin/settings/:key
func DeleteSetting(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	key := c.Params("key")
	result := db.Where("key = ?", key).Delete(&model.AppSetting{})

	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete setting")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Setting not found")
	}

	return response.SuccessWithMessage(c, "Setting deleted successfully", fiber.Map{"key": key})
}
