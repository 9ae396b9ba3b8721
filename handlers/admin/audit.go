package admin

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/database"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/utils/response"
	"gorm.io/gorm"
)

// ListAuditLogs pages through the admin action trail, filterable by
// action, resource, acting admin, and date range
// GET /admin/audit
func ListAuditLogs(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	page, limit, offset := pageWindow(c)

	tx := db.Model(&model.AdminAuditLog{}).Preload("Admin")

	if action := c.Query("action"); action != "" {
		tx = tx.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		tx = tx.Where("resource = ?", resource)
	}
	if raw := c.Query("admin_id"); raw != "" {
		if adminID, err := strconv.ParseUint(raw, 10, 32); err == nil {
			tx = tx.Where("admin_id = ?", adminID)
		}
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			tx = tx.Where("created_at >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			// The end date is inclusive, so cut off at the following midnight
			tx = tx.Where("created_at < ?", t.AddDate(0, 0, 1))
		}
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count audit logs")
	}

	var logs []model.AdminAuditLog
	if err := tx.Offset(offset).Limit(limit).Order("created_at DESC").Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	return response.SuccessWithMessage(c, "Audit logs retrieved successfully", fiber.Map{
		"logs":       logs,
		"pagination": response.CalculatePagination(page, limit, total),
	})
}

// GetAuditLog returns one audit entry with the acting admin preloaded
// GET /admin/audit/:id
func GetAuditLog(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	logID, err := paramID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid log ID")
	}

	var entry model.AdminAuditLog
	if err := db.Preload("Admin").First(&entry, logID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Audit log not found")
		}
		return response.InternalServerError(c, "Failed to fetch audit log")
	}

	return response.SuccessWithMessage(c, "Audit log retrieved successfully", entry)
}
