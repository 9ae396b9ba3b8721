package billing

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/services/billing"
	"github.com/leadscout/leadscout/utils/middleware"
	"github.com/leadscout/leadscout/utils/response"
	"gorm.io/gorm"
)

// BillingHandler handles subscription and payment requests
type BillingHandler struct {
	db      *gorm.DB
	billing *billing.Service
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(db *gorm.DB, billingService *billing.Service) *BillingHandler {
	return &BillingHandler{
		db:      db,
		billing: billingService,
	}
}

// CreateCheckout handles POST /api/v1/billing/checkout, returning a Stripe
// Checkout URL for the Pro plan
func (h *BillingHandler) CreateCheckout(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	if user.HasPaidPlan() {
		return response.Conflict(c, "This account already has an active subscription")
	}

	url, err := h.billing.CreateCheckoutSession(c.Context(), user)
	if err != nil {
		if errors.Is(err, billing.ErrNotConfigured) {
			return response.ServiceUnavailable(c, "Billing is not available right now")
		}
		return response.InternalServerError(c, "Failed to start checkout")
	}

	return response.Success(c, fiber.Map{
		"checkout_url": url,
	})
}

// CreatePortal handles POST /api/v1/billing/portal, returning a Stripe
// customer portal URL where subscribers manage their plan
func (h *BillingHandler) CreatePortal(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	url, err := h.billing.CreatePortalSession(c.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrNotConfigured):
			return response.ServiceUnavailable(c, "Billing is not available right now")
		case errors.Is(err, billing.ErrNoSubscription):
			return response.BadRequest(c, "No subscription found for this account")
		default:
			return response.InternalServerError(c, "Failed to open billing portal")
		}
	}

	return response.Success(c, fiber.Map{
		"portal_url": url,
	})
}

// Webhook handles POST /api/v1/billing/webhook. Stripe authenticates itself
// with the signature header, the route carries no session auth.
func (h *BillingHandler) Webhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("Stripe-Signature")

	if err := h.billing.HandleWebhook(payload, signature); err != nil {
		// A non-2xx tells Stripe to retry the delivery
		return response.BadRequest(c, "Webhook processing failed")
	}

	return response.Success(c, fiber.Map{
		"received": true,
	})
}

// Subscription handles GET /api/v1/billing/subscription, reporting the
// caller's current plan and payment history
func (h *BillingHandler) Subscription(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var payments []model.Payment
	if err := h.db.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&payments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch payment history")
	}

	return response.Success(c, fiber.Map{
		"plan":          user.CurrentPlan,
		"is_subscribed": user.HasPaidPlan(),
		"payments":      payments,
	})
}
