// Package analytics exposes tracking and reporting endpoints: the
// public page-visit ping, per-user stats, and the admin time series.
package analytics

import (
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/services"
	"github.com/leadscout/leadscout/utils/middleware"
	"github.com/leadscout/leadscout/utils/response"
	"gorm.io/gorm"
)

// AnalyticsHandler handles analytics and reporting requests
type AnalyticsHandler struct {
	db  *gorm.DB
	svc *services.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(db *gorm.DB, svc *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{db: db, svc: svc}
}

// TrackRequest is the body for the public tracking endpoint
type TrackRequest struct {
	Path string `json:"path"`
	Page string `json:"page"`
}

// requireUser pulls the authenticated user from context. On failure the
// 401 is already written; callers return the second value.
func requireUser(c *fiber.Ctx) (*model.User, error) {
	if user, ok := middleware.GetUser(c); ok && user != nil {
		return user, nil
	}
	return nil, response.Unauthorized(c, "User not authenticated")
}

// requireAdminUser is requireUser plus the admin role gate
func requireAdminUser(c *fiber.Ctx) (*model.User, error) {
	user, errResp := requireUser(c)
	if user == nil {
		return nil, errResp
	}
	if !user.IsAdmin() {
		return nil, response.Forbidden(c, "Admin access required")
	}
	return user, nil
}

// queryDays reads the days parameter, clamped to one year
func queryDays(c *fiber.Ctx, fallback int) int {
	days, _ := strconv.Atoi(c.Query("days", strconv.Itoa(fallback)))
	if days < 1 || days > 365 {
		return fallback
	}
	return days
}

// reportError logs the underlying failure and answers with a clean 500.
// Internals never reach the client.
func reportError(c *fiber.Ctx, what string, err error) error {
	log.Printf("analytics: %s: %v", what, err)
	return response.InternalServerError(c, "Failed to fetch "+what)
}

// Track handles POST /api/v1/track. Public endpoint the frontend pings on
// navigation; counts the page visit and, for known users, appends a
// page_view activity.
func (h *AnalyticsHandler) Track(c *fiber.Ctx) error {
	var req TrackRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	path := strings.TrimSpace(req.Path)
	if path == "" {
		path = strings.TrimSpace(req.Page)
	}
	if path == "" || len(path) > 255 {
		return response.BadRequest(c, "A page path is required")
	}

	if err := h.svc.TrackPageView(c.Context(), path); err != nil {
		return response.InternalServerError(c, "Failed to record visit")
	}

	var userID *uint
	if user, ok := middleware.GetUser(c); ok {
		userID = &user.ID
	}
	_ = h.svc.TrackActivity(c.Context(), userID, model.ActivityTypePageView, path, nil, c.IP(), c.Get("User-Agent"))

	return response.Success(c, fiber.Map{
		"recorded": true,
	})
}

// GetDashboard handles GET /api/v1/admin/dashboard
func (h *AnalyticsHandler) GetDashboard(c *fiber.Ctx) error {
	if user, errResp := requireAdminUser(c); user == nil {
		return errResp
	}

	stats, err := h.svc.GetDashboardStats(c.Context())
	if err != nil {
		return reportError(c, "dashboard stats", err)
	}
	return response.Success(c, stats)
}

// GetUserStats handles GET /api/v1/analytics/users/:id. Users may read
// their own stats; admins may read anyone's.
func (h *AnalyticsHandler) GetUserStats(c *fiber.Ctx) error {
	user, errResp := requireUser(c)
	if user == nil {
		return errResp
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	if !user.IsAdmin() && user.ID != uint(id) {
		return response.Forbidden(c, "You can only view your own statistics")
	}

	stats, err := h.svc.GetUserStats(c.Context(), uint(id))
	if err != nil {
		return reportError(c, "user stats", err)
	}
	return response.Success(c, stats)
}

// GetMyStats handles GET /api/v1/analytics/me
func (h *AnalyticsHandler) GetMyStats(c *fiber.Ctx) error {
	user, errResp := requireUser(c)
	if user == nil {
		return errResp
	}

	stats, err := h.svc.GetUserStats(c.Context(), user.ID)
	if err != nil {
		return reportError(c, "your stats", err)
	}
	return response.Success(c, stats)
}

// GetActivityTimeSeries handles GET /api/v1/analytics/activity/timeseries
func (h *AnalyticsHandler) GetActivityTimeSeries(c *fiber.Ctx) error {
	if user, errResp := requireAdminUser(c); user == nil {
		return errResp
	}

	series, err := h.svc.GetActivityTimeSeries(c.Context(), queryDays(c, 30), model.ActivityType(c.Query("type", "")))
	if err != nil {
		return reportError(c, "activity time series", err)
	}
	return response.Success(c, series)
}

// GetSearchTimeSeries handles GET /api/v1/analytics/searches/timeseries
func (h *AnalyticsHandler) GetSearchTimeSeries(c *fiber.Ctx) error {
	if user, errResp := requireAdminUser(c); user == nil {
		return errResp
	}

	series, err := h.svc.GetSearchTimeSeries(c.Context(), queryDays(c, 30))
	if err != nil {
		return reportError(c, "search time series", err)
	}
	return response.Success(c, series)
}

// GetTopKeywords handles GET /api/v1/analytics/keywords/top
func (h *AnalyticsHandler) GetTopKeywords(c *fiber.Ctx) error {
	if user, errResp := requireAdminUser(c); user == nil {
		return errResp
	}

	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	keywords, err := h.svc.GetTopKeywords(c.Context(), queryDays(c, 30), limit)
	if err != nil {
		return reportError(c, "top keywords", err)
	}
	return response.Success(c, keywords)
}

// GetDailyAnalytics handles GET /api/v1/analytics/daily
func (h *AnalyticsHandler) GetDailyAnalytics(c *fiber.Ctx) error {
	if user, errResp := requireAdminUser(c); user == nil {
		return errResp
	}

	rows, err := h.svc.GetDailyAnalytics(c.Context(), queryDays(c, 30))
	if err != nil {
		return reportError(c, "daily analytics", err)
	}
	return response.Success(c, rows)
}

// GetUserActivities handles GET /api/v1/analytics/activities. Regular
// users see only their own history; admins can filter by user.
func (h *AnalyticsHandler) GetUserActivities(c *fiber.Ctx) error {
	user, errResp := requireUser(c)
	if user == nil {
		return errResp
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	tx := h.db.Model(&model.UserActivity{})
	if !user.IsAdmin() {
		tx = tx.Where("user_id = ?", user.ID)
	} else if raw := c.Query("user_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			tx = tx.Where("user_id = ?", id)
		}
	}
	if activityType := c.Query("type"); activityType != "" {
		tx = tx.Where("activity_type = ?", activityType)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count activities")
	}

	var activities []model.UserActivity
	if err := tx.Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&activities).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch activities")
	}

	return response.Paginated(c, activities, response.CalculatePagination(page, limit, total))
}

// GetSystemHealth handles GET /api/v1/admin/health
func (h *AnalyticsHandler) GetSystemHealth(c *fiber.Ctx) error {
	if user, errResp := requireAdminUser(c); user == nil {
		return errResp
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		return unhealthy(c, "error", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return unhealthy(c, "unreachable", err)
	}

	pool := sqlDB.Stats()
	return response.Success(c, fiber.Map{
		"status":   "healthy",
		"database": "connected",
		"pool": fiber.Map{
			"open_connections": pool.OpenConnections,
			"in_use":           pool.InUse,
			"idle":             pool.Idle,
		},
	})
}

// unhealthy reports a failed health probe. The HTTP status stays 200 so
// the dashboard can render the payload; status carries the verdict.
func unhealthy(c *fiber.Ctx, database string, err error) error {
	return response.Success(c, fiber.Map{
		"status":   "unhealthy",
		"database": database,
		"error":    err.Error(),
	})
}
