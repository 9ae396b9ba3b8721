package middleware

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/database"
	"github.com/leadscout/leadscout/model"
	"gorm.io/gorm"
)

// AdminAuditLog records an audit trail entry for the admin action it
// wraps. Request context values are copied out before the async write
// because fiber recycles the context once the handler returns.
func AdminAuditLog(store database.Storage, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminUser, ok := GetUser(c)
		if !ok {
			return c.Next()
		}
		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			return c.Next()
		}

		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsed, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsed)
			}
		}

		newValue := capturedBody(c, resource)
		oldValue := capturedState(c, db, resource, resourceID)

		adminID := adminUser.ID
		ipAddress := c.IP()
		userAgent := c.Get("User-Agent")
		description := c.Method() + " " + c.Path()

		err := c.Next()

		go func() {
			oldJSON, _ := json.Marshal(oldValue)
			newJSON, _ := json.Marshal(newValue)

			db.Create(&model.AdminAuditLog{
				AdminID:     adminID,
				Action:      action,
				Resource:    resource,
				ResourceID:  resourceID,
				OldValue:    string(oldJSON),
				NewValue:    string(newJSON),
				IPAddress:   ipAddress,
				UserAgent:   userAgent,
				Description: description,
			})
		}()

		return err
	}
}

// capturedBody snapshots the submitted body for mutating requests.
// Settings bodies may carry secrets, so the value field never reaches
// the audit row.
func capturedBody(c *fiber.Ctx, resource string) interface{} {
	if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
		return nil
	}
	body := c.Body()
	if len(body) == 0 {
		return nil
	}

	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	if resource == "settings" {
		if m, ok := parsed.(map[string]interface{}); ok {
			if _, has := m["value"]; has {
				m["value"] = "[redacted]"
			}
		}
	}
	return parsed
}

// capturedState snapshots the pre-change row for updates and deletes of
// known resources
func capturedState(c *fiber.Ctx, db *gorm.DB, resource string, resourceID uint) interface{} {
	if c.Method() != fiber.MethodPut && c.Method() != fiber.MethodDelete {
		return nil
	}

	switch resource {
	case "users":
		if resourceID == 0 {
			return nil
		}
		// The password hash never serializes; the model excludes it
		// from JSON.
		var user model.User
		if err := db.First(&user, resourceID).Error; err != nil {
			return nil
		}
		return user
	case "settings":
		key := c.Params("key")
		if key == "" {
			return nil
		}
		var setting model.AppSetting
		if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
			return nil
		}
		if setting.IsSecret() {
			setting.Value = "[redacted]"
		}
		return setting
	}
	return nil
}
