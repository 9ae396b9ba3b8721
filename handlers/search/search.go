package search

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/services"
	"github.com/leadscout/leadscout/services/guestusage"
	"github.com/leadscout/leadscout/services/places"
	"github.com/leadscout/leadscout/utils/middleware"
	"github.com/leadscout/leadscout/utils/response"
	"github.com/leadscout/leadscout/utils/validation"
	"gorm.io/gorm"
)

// SearchHandler handles lead search requests
type SearchHandler struct {
	db        *gorm.DB
	leads     *services.LeadService
	guests    *guestusage.Service
	analytics *services.AnalyticsService
	validator *validation.Validator
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(db *gorm.DB, leads *services.LeadService, guests *guestusage.Service, analytics *services.AnalyticsService) *SearchHandler {
	return &SearchHandler{
		db:        db,
		leads:     leads,
		guests:    guests,
		analytics: analytics,
		validator: validation.NewValidator(),
	}
}

// SearchLeadsRequest represents the request body for a lead search
type SearchLeadsRequest struct {
	Location    string  `json:"location" validate:"required,min=2,max=255"`
	Keyword     string  `json:"keyword" validate:"required,min=2,max=100"`
	RadiusMiles float64 `json:"radius_miles" validate:"omitempty,gt=0,lte=30"`
	MaxReviews  int     `json:"max_reviews" validate:"omitempty,min=1,max=10000"`
	LeadsOnly   bool    `json:"leads_only"`
}

// SearchLeadsResponse wraps a search result with the caller's remaining quota
type SearchLeadsResponse struct {
	*services.SearchResult
	GuestQuota *guestusage.Decision `json:"guest_quota,omitempty"`
}

// Search handles POST /api/v1/search. Authenticated callers search freely;
// anonymous callers are gated by the guest usage tracker: an advisory check
// runs before the places API is called, and the binding atomic record runs
// after the search succeeded. A record that comes back not-allowed means this
// request lost a race for the last slot, it is denied even though the search
// ran, and the result is discarded.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	var req SearchLeadsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	req.Location = validation.SanitizeString(req.Location)
	req.Keyword = validation.SanitizeString(req.Keyword)

	svcReq := services.SearchRequest{
		Location:    req.Location,
		Keyword:     req.Keyword,
		RadiusMiles: req.RadiusMiles,
		MaxReviews:  req.MaxReviews,
		LeadsOnly:   req.LeadsOnly,
	}

	user, authenticated := middleware.GetUser(c)

	// Only paid plans search the full radius; guests and free accounts are
	// clamped to the free ceiling.
	if (!authenticated || !user.HasPaidPlan()) && svcReq.RadiusMiles > services.FreeRadiusMiles {
		svcReq.RadiusMiles = services.FreeRadiusMiles
	}

	if authenticated {
		svcReq.UserID = &user.ID
		return h.runSearch(c, svcReq, nil)
	}

	// Anonymous caller. A request whose client identity cannot be resolved
	// is denied outright, an unkeyed search would be unaccountable.
	clientKey, err := guestusage.ClientKeyFromCtx(c)
	if err != nil {
		return response.LimitExceeded(c, guestusage.ReasonUnavailable, nil)
	}
	svcReq.ClientKey = clientKey

	if decision := h.guests.Authorize(c.Context(), clientKey); !decision.Allowed {
		return response.LimitExceeded(c, decision.Reason, fiber.Map{
			"remaining": decision.Remaining,
			"reset_at":  decision.ResetAt,
		})
	}

	return h.runSearch(c, svcReq, &clientKey)
}

// runSearch executes the search and, for guests, records it against their
// quota afterwards
func (h *SearchHandler) runSearch(c *fiber.Ctx, req services.SearchRequest, guestKey *string) error {
	result, err := h.leads.RunSearch(c.Context(), req)
	if err != nil {
		if errors.Is(err, places.ErrLocationNotFound) {
			return response.BadRequest(c, "Could not find that location, try a more specific address")
		}
		return response.InternalServerError(c, "Search failed, please try again")
	}

	res := SearchLeadsResponse{SearchResult: result}

	if guestKey != nil {
		decision, err := h.guests.Record(c.Context(), *guestKey, c.Get("User-Agent"))
		if err != nil {
			return response.LimitExceeded(c, guestusage.ReasonUnavailable, nil)
		}
		if !decision.Allowed {
			return response.LimitExceeded(c, decision.Reason, fiber.Map{
				"remaining": decision.Remaining,
				"reset_at":  decision.ResetAt,
			})
		}
		res.GuestQuota = &decision
	}

	h.trackSearch(c, req, result)

	return response.Success(c, res)
}

// trackSearch writes the search into the activity stream, best-effort
func (h *SearchHandler) trackSearch(c *fiber.Ctx, req services.SearchRequest, result *services.SearchResult) {
	if h.analytics == nil {
		return
	}
	metadata := map[string]interface{}{
		"keyword":     req.Keyword,
		"location":    result.Location,
		"total_found": result.TotalFound,
		"lead_count":  result.LeadCount,
	}
	_ = h.analytics.TrackActivity(c.Context(), req.UserID, model.ActivityTypeSearch, "", metadata, c.IP(), c.Get("User-Agent"))
}

// History handles GET /api/v1/search/history for the authenticated user
func (h *SearchHandler) History(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	records, err := h.leads.SearchHistory(c.Context(), userID, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch search history")
	}

	return response.Success(c, fiber.Map{
		"searches": records,
		"count":    len(records),
	})
}

// GetSearch handles GET /api/v1/search/:id, owner-only detail view of a
// recorded search including its stored top results
func (h *SearchHandler) GetSearch(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid search ID")
	}

	var record model.SearchRecord
	if err := h.db.Where("id = ? AND user_id = ?", uint(id), userID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Search not found")
		}
		return response.InternalServerError(c, "Failed to fetch search")
	}

	return response.Success(c, record)
}

// Quota handles GET /api/v1/search/quota, letting anonymous clients render
// their remaining free searches without spending one
func (h *SearchHandler) Quota(c *fiber.Ctx) error {
	if _, authenticated := middleware.GetUser(c); authenticated {
		return response.Success(c, fiber.Map{
			"unlimited": true,
		})
	}

	clientKey, err := guestusage.ClientKeyFromCtx(c)
	if err != nil {
		return response.LimitExceeded(c, guestusage.ReasonUnavailable, nil)
	}

	decision := h.guests.Authorize(c.Context(), clientKey)
	return response.Success(c, fiber.Map{
		"unlimited": false,
		"allowed":   decision.Allowed,
		"limit":     h.guests.Limit(),
		"remaining": decision.Remaining,
		"reset_at":  decision.ResetAt,
	})
}
