package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/database"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/utils/auth"
	"github.com/leadscout/leadscout/utils/middleware"
	"github.com/leadscout/leadscout/utils/response"
	"gorm.io/gorm"
)

// userListQuery holds the filter and sort parameters for ListUsers.
// Paging is read separately through pageWindow.
type userListQuery struct {
	Role    string `query:"role"`
	Plan    string `query:"plan"`
	Search  string `query:"search"`
	Sort    string `query:"sort"`
	SortDir string `query:"sort_dir"`
}

// userUpdate is the partial-update body for UpdateUser. Empty fields are
// left unchanged; IsActive is a pointer so that false is expressible.
type userUpdate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Plan     string `json:"plan"`
	IsActive *bool  `json:"is_active"`
}

// setPasswordRequest is the body for ResetUserPassword
type setPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// userAccountStats summarizes one user's lifetime activity
type userAccountStats struct {
	TotalSearches   int64 `json:"total_searches"`
	TotalLeadsFound int64 `json:"total_leads_found"`
	TotalExports    int64 `json:"total_exports"`
	TotalPaidCents  int64 `json:"total_paid_cents"`
}

// userPopulationStats summarizes the whole user base
type userPopulationStats struct {
	TotalUsers     int64 `json:"total_users"`
	AdminUsers     int64 `json:"admin_users"`
	ProUsers       int64 `json:"pro_users"`
	VerifiedUsers  int64 `json:"verified_users"`
	ActiveToday    int64 `json:"active_today"`
	ActiveThisWeek int64 `json:"active_this_week"`
}

var (
	// sortableUserColumns whitelists what the sort parameter may name
	sortableUserColumns = map[string]bool{
		"created_at":    true,
		"updated_at":    true,
		"last_login_at": true,
		"email":         true,
		"name":          true,
		"current_plan":  true,
	}

	validRoles = map[string]bool{model.RoleUser: true, model.RoleAdmin: true}
	validPlans = map[string]bool{model.PlanFree: true, model.PlanPro: true, model.PlanAdmin: true}
)

// userSort maps the requested sort parameters onto a whitelisted column
// and direction, falling back to newest first
func userSort(column, dir string) (string, string) {
	if !sortableUserColumns[column] {
		column = "created_at"
	}
	if dir != "asc" && dir != "desc" {
		dir = "desc"
	}
	return column, dir
}

// ListUsers pages through accounts with role, plan, and text filters
// GET /admin/users
func ListUsers(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	var q userListQuery
	if err := c.QueryParser(&q); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	page, limit, offset := pageWindow(c)
	column, dir := userSort(q.Sort, q.SortDir)

	tx := db.Model(&model.User{})
	if q.Role != "" {
		tx = tx.Where("role = ?", q.Role)
	}
	if q.Plan != "" {
		tx = tx.Where("current_plan = ?", q.Plan)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	if err := tx.Offset(offset).Limit(limit).Order(column + " " + dir).Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.SuccessWithMessage(c, "Users retrieved successfully", fiber.Map{
		"users":      users,
		"pagination": response.CalculatePagination(page, limit, total),
	})
}

// GetUser returns one account with its settings and lifetime stats
// GET /admin/users/:id
func GetUser(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	userID, err := paramID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var user model.User
	if err := db.Preload("Settings").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	var stats userAccountStats
	db.Model(&model.SearchRecord{}).Where("user_id = ?", userID).Count(&stats.TotalSearches)
	db.Model(&model.SearchRecord{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(lead_count), 0)").Scan(&stats.TotalLeadsFound)
	db.Model(&model.ExportRecord{}).Where("user_id = ?", userID).Count(&stats.TotalExports)
	db.Model(&model.Payment{}).Where("user_id = ? AND status = ?", userID, model.PaymentStatusPaid).
		Select("COALESCE(SUM(amount_cents), 0)").Scan(&stats.TotalPaidCents)

	return response.SuccessWithMessage(c, "User retrieved successfully", fiber.Map{
		"user":  user,
		"stats": stats,
	})
}

// UpdateUser applies a partial update to an account. Unknown role or
// plan values are rejected rather than ignored, and deactivating an
// account bumps its token version so live sessions stop working.
// PUT /admin/users/:id
func UpdateUser(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	userID, err := paramID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req userUpdate
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, errResp := fetchUser(c, db, userID)
	if user == nil {
		return errResp
	}

	changes := make(map[string]interface{})
	if req.Name != "" {
		changes["name"] = req.Name
	}
	if req.Email != "" {
		var taken int64
		db.Model(&model.User{}).Where("email = ? AND id <> ?", req.Email, userID).Count(&taken)
		if taken > 0 {
			return response.Conflict(c, "Email already in use")
		}
		changes["email"] = req.Email
	}
	if req.Role != "" {
		if !validRoles[req.Role] {
			return response.BadRequest(c, "Unknown role: "+req.Role)
		}
		changes["role"] = req.Role
	}
	if req.Plan != "" {
		if !validPlans[req.Plan] {
			return response.BadRequest(c, "Unknown plan: "+req.Plan)
		}
		changes["current_plan"] = req.Plan
	}
	if req.IsActive != nil {
		changes["is_active"] = *req.IsActive
		if !*req.IsActive {
			changes["token_version"] = user.TokenVersion + 1
		}
	}

	if len(changes) > 0 {
		if err := db.Model(user).Updates(changes).Error; err != nil {
			return response.InternalServerError(c, "Failed to update user")
		}
	}

	db.First(user, userID)

	return response.SuccessWithMessage(c, "User updated successfully", fiber.Map{
		"user": user,
	})
}

// DeleteUser soft deletes an account. Admins cannot delete themselves.
// DELETE /admin/users/:id
func DeleteUser(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	userID, err := paramID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	if me, ok := middleware.GetUser(c); ok && me.ID == userID {
		return response.BadRequest(c, "Cannot delete your own account")
	}

	user, errResp := fetchUser(c, db, userID)
	if user == nil {
		return errResp
	}

	if err := db.Delete(user).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete user")
	}

	return response.SuccessWithMessage(c, "User deleted successfully", fiber.Map{
		"user_id": userID,
	})
}

// ResetUserPassword sets a new password on behalf of a user and logs
// out all of their sessions
// POST /admin/users/:id/reset-password
func ResetUserPassword(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	userID, err := paramID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req setPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if !auth.IsPasswordValid(req.NewPassword) {
		return response.BadRequest(c, "Password must be between 8 and 72 characters")
	}

	user, errResp := fetchUser(c, db, userID)
	if user == nil {
		return errResp
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to hash password")
	}

	if err := db.Model(user).Updates(map[string]interface{}{
		"password_hash": hash,
		"token_version": user.TokenVersion + 1,
	}).Error; err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	return response.SuccessWithMessage(c, "Password reset successfully", fiber.Map{
		"user_id": userID,
		"message": "All user sessions have been invalidated",
	})
}

// GetUserStats summarizes the user base for the admin dashboard. The
// population counts come back in one round trip via filtered aggregates.
// GET /admin/users/stats
func GetUserStats(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	var stats userPopulationStats
	err := db.Raw(`
		SELECT
			COUNT(*)                                      AS total_users,
			COUNT(*) FILTER (WHERE role = ?)              AS admin_users,
			COUNT(*) FILTER (WHERE current_plan = ?)      AS pro_users,
			COUNT(*) FILTER (WHERE email_verified)        AS verified_users
		FROM users
		WHERE deleted_at IS NULL`,
		model.RoleAdmin, model.PlanPro).Scan(&stats).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch user statistics")
	}

	db.Model(&model.UserActivity{}).
		Where("created_at >= NOW() - INTERVAL '1 day' AND user_id IS NOT NULL").
		Distinct("user_id").
		Count(&stats.ActiveToday)
	db.Model(&model.UserActivity{}).
		Where("created_at >= NOW() - INTERVAL '7 days' AND user_id IS NOT NULL").
		Distinct("user_id").
		Count(&stats.ActiveThisWeek)

	return response.SuccessWithMessage(c, "User statistics retrieved successfully", stats)
}

// ListGuestUsage reports the heaviest anonymous search consumers
// GET /admin/guest-usage
func ListGuestUsage(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	limit, _ := strconv.Atoi(c.Query("limit", "25"))
	if limit < 1 || limit > 200 {
		limit = 25
	}

	var buckets []model.GuestUsage
	if err := db.Order("search_count DESC, updated_at DESC").
		Limit(limit).
		Find(&buckets).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch guest usage")
	}

	var total int64
	db.Model(&model.GuestUsage{}).Count(&total)

	return response.SuccessWithMessage(c, "Guest usage retrieved successfully", fiber.Map{
		"buckets":       buckets,
		"total_buckets": total,
	})
}
