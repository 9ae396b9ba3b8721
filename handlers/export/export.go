package export

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/services"
	"github.com/leadscout/leadscout/services/places"
	"github.com/leadscout/leadscout/services/spaces"
	"github.com/leadscout/leadscout/utils/middleware"
	"github.com/leadscout/leadscout/utils/response"
	"github.com/leadscout/leadscout/utils/validation"
	"gorm.io/gorm"
)

// ExportHandler handles lead export requests
type ExportHandler struct {
	db        *gorm.DB
	leads     *services.LeadService
	exports   *services.ExportService
	analytics *services.AnalyticsService
	validator *validation.Validator
}

// NewExportHandler creates a new export handler
func NewExportHandler(db *gorm.DB, leads *services.LeadService, exports *services.ExportService, analytics *services.AnalyticsService) *ExportHandler {
	return &ExportHandler{
		db:        db,
		leads:     leads,
		exports:   exports,
		analytics: analytics,
		validator: validation.NewValidator(),
	}
}

// ExportLeadsRequest represents the request body for exporting leads
type ExportLeadsRequest struct {
	Location    string  `json:"location" validate:"required,min=2,max=255"`
	Keyword     string  `json:"keyword" validate:"required,min=2,max=100"`
	RadiusMiles float64 `json:"radius_miles" validate:"omitempty,gt=0,lte=30"`
	MaxReviews  int     `json:"max_reviews" validate:"omitempty,min=1,max=10000"`
	LeadsOnly   bool    `json:"leads_only"`
}

// ExportLeads handles POST /api/v1/leads/export. Runs the search on the
// caller's account and streams the rendered workbook. Free-plan users are
// held to their monthly export quota.
func (h *ExportHandler) ExportLeads(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req ExportLeadsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	result, err := h.leads.RunSearch(c.Context(), services.SearchRequest{
		Location:    validation.SanitizeString(req.Location),
		Keyword:     validation.SanitizeString(req.Keyword),
		RadiusMiles: req.RadiusMiles,
		MaxReviews:  req.MaxReviews,
		LeadsOnly:   req.LeadsOnly,
		UserID:      &user.ID,
	})
	if err != nil {
		if errors.Is(err, places.ErrLocationNotFound) {
			return response.BadRequest(c, "Could not find that location, try a more specific address")
		}
		return response.InternalServerError(c, "Search failed, please try again")
	}

	var searchRecordID *uint
	if result.SearchRecordID != 0 {
		id := result.SearchRecordID
		searchRecordID = &id
	}

	file, err := h.exports.ExportSearch(c.Context(), user, result, searchRecordID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrExportQuotaExceeded):
			used, _ := h.exports.ExportsThisMonth(c.Context(), user.ID)
			return response.LimitExceeded(c, "Monthly export limit reached, upgrade to Pro for unlimited exports", fiber.Map{
				"exports_used": used,
				"plan":         user.CurrentPlan,
			})
		case errors.Is(err, services.ErrNothingToExport):
			return response.BadRequest(c, "This search returned no businesses to export")
		default:
			return response.InternalServerError(c, "Failed to build export")
		}
	}

	h.trackExport(c, user.ID, file)

	c.Set(fiber.HeaderContentType, spaces.ContentTypeFor(file.FileName))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, file.FileName))
	c.Set(fiber.HeaderContentLength, strconv.Itoa(len(file.Data)))
	return c.Send(file.Data)
}

// trackExport writes the export into the activity stream, best-effort
func (h *ExportHandler) trackExport(c *fiber.Ctx, userID uint, file *services.ExportFile) {
	if h.analytics == nil {
		return
	}
	metadata := map[string]interface{}{
		"file_name":  file.FileName,
		"row_count":  file.Record.RowCount,
		"lead_count": file.Record.LeadCount,
	}
	_ = h.analytics.TrackActivity(c.Context(), &userID, model.ActivityTypeExport, "", metadata, c.IP(), c.Get("User-Agent"))
}

// History handles GET /api/v1/exports for the authenticated user
func (h *ExportHandler) History(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	records, err := h.exports.ExportHistory(c.Context(), userID, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch export history")
	}

	used, _ := h.exports.ExportsThisMonth(c.Context(), userID)

	return response.Success(c, fiber.Map{
		"exports":         records,
		"count":           len(records),
		"used_this_month": used,
	})
}

// Download handles GET /api/v1/exports/:id/download, returning a short-lived
// link to the archived copy of a past export
func (h *ExportHandler) Download(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid export ID")
	}

	var record model.ExportRecord
	if err := h.db.Where("id = ? AND user_id = ?", uint(id), userID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Export not found")
		}
		return response.InternalServerError(c, "Failed to fetch export")
	}

	url, err := h.exports.DownloadURL(&record)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate download link")
	}
	if url == "" {
		return response.NotFound(c, "No archived copy is available for this export")
	}

	return response.Success(c, fiber.Map{
		"url":        url,
		"file_name":  record.FileName,
		"expires_in": 15 * 60,
	})
}
