// Package admin implements the /admin API surface: user management,
// platform analytics, runtime settings, and the audit trail. Every
// route here sits behind the admin auth middleware.
package admin

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/database"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/utils/response"
	"gorm.io/gorm"
)

// gormDB unwraps the gorm handle from the storage interface. On failure
// the error response is already written; callers just return it.
func gormDB(c *fiber.Ctx, store database.Storage) (*gorm.DB, error) {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return nil, response.InternalServerError(c, "Database connection error")
	}
	return db, nil
}

// paramID parses the :id route parameter
func paramID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// pageWindow reads the page and limit query parameters, clamps them to
// sane bounds, and returns the matching row offset
func pageWindow(c *fiber.Ctx) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	limit, _ = strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

// fetchUser loads one user row, writing the appropriate response when
// the row is missing or the query fails
func fetchUser(c *fiber.Ctx, db *gorm.DB, userID uint) (*model.User, error) {
	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NotFound(c, "User not found")
		}
		return nil, response.InternalServerError(c, "Failed to fetch user")
	}
	return &user, nil
}
