package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/leadscout/leadscout/config"
	"github.com/leadscout/leadscout/model"
	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrNotConfigured is returned when Stripe credentials are missing
	ErrNotConfigured = errors.New("billing is not configured")
	// ErrNoSubscription is returned when a portal session is requested
	// for a user who never subscribed
	ErrNoSubscription = errors.New("user has no billing account")
)

// Service handles Stripe checkout, the customer portal and webhooks
type Service struct {
	db            *gorm.DB
	proPriceID    string
	webhookSecret string
	appBaseURL    string
	configured    bool
}

// NewService creates a billing service and sets the Stripe API key
func NewService(db *gorm.DB) *Service {
	env, _ := config.Get()

	if env.STRIPE_SECRET_KEY != "" {
		stripe.Key = env.STRIPE_SECRET_KEY
	}

	return &Service{
		db:            db,
		proPriceID:    env.STRIPE_PRO_PRICE_ID,
		webhookSecret: env.STRIPE_WEBHOOK_SECRET,
		appBaseURL:    env.APP_BASE_URL,
		configured:    env.STRIPE_SECRET_KEY != "" && env.STRIPE_PRO_PRICE_ID != "",
	}
}

// IsConfigured checks whether checkout can be offered
func (s *Service) IsConfigured() bool {
	return s.configured
}

// CreateCheckoutSession starts a Pro subscription checkout and returns the
// hosted payment page URL
func (s *Service) CreateCheckoutSession(ctx context.Context, user *model.User) (string, error) {
	if !s.configured {
		return "", ErrNotConfigured
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.proPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(s.appBaseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.appBaseURL + "/pricing"),
		ClientReferenceID: stripe.String(strconv.FormatUint(uint64(user.ID), 10)),
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	payment := &model.Payment{
		UserID:           user.ID,
		StripeSessionID:  sess.ID,
		StripeCustomerID: customerID,
		AmountCents:      sess.AmountTotal,
		Currency:         string(sess.Currency),
		Plan:             model.PlanPro,
		Status:           model.PaymentStatusPending,
	}
	if err := s.db.Create(payment).Error; err != nil {
		log.Printf("Billing: failed to record pending payment for session %s: %v", sess.ID, err)
	}

	return sess.URL, nil
}

// CreatePortalSession returns the Stripe customer portal URL where a
// subscriber can change cards or cancel
func (s *Service) CreatePortalSession(ctx context.Context, user *model.User) (string, error) {
	if !s.configured {
		return "", ErrNotConfigured
	}
	if user.StripeCustomerID == "" {
		return "", ErrNoSubscription
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(user.StripeCustomerID),
		ReturnURL: stripe.String(s.appBaseURL + "/account"),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return sess.URL, nil
}

// ensureCustomer returns the user's Stripe customer ID, creating one on first use
func (s *Service) ensureCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(user.Name),
	}
	params.Context = ctx
	params.AddMetadata("user_id", strconv.FormatUint(uint64(user.ID), 10))

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create Stripe customer: %w", err)
	}

	if err := s.db.Model(user).Update("stripe_customer_id", cust.ID).Error; err != nil {
		return "", fmt.Errorf("failed to store Stripe customer ID: %w", err)
	}
	user.StripeCustomerID = cust.ID
	return cust.ID, nil
}

// HandleWebhook verifies a webhook payload and applies the event
func (s *Service) HandleWebhook(payload []byte, signature string) error {
	if s.webhookSecret == "" {
		return ErrNotConfigured
	}

	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return fmt.Errorf("webhook signature verification failed: %w", err)
	}

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(event)
	case "customer.subscription.updated":
		return s.handleSubscriptionUpdated(event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(event)
	default:
		log.Printf("Billing: ignoring webhook event %s", event.Type)
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}
	subscriptionID := ""
	if sess.Subscription != nil {
		subscriptionID = sess.Subscription.ID
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":                 model.PaymentStatusPaid,
		"paid_at":                now,
		"amount_cents":           sess.AmountTotal,
		"currency":               string(sess.Currency),
		"stripe_customer_id":     customerID,
		"stripe_subscription_id": subscriptionID,
	}

	result := s.db.Model(&model.Payment{}).
		Where("stripe_session_id = ?", sess.ID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Session was created outside this app instance, record it fresh
		payment := &model.Payment{
			StripeSessionID:      sess.ID,
			StripeCustomerID:     customerID,
			StripeSubscriptionID: subscriptionID,
			AmountCents:          sess.AmountTotal,
			Currency:             string(sess.Currency),
			Plan:                 model.PlanPro,
			Status:               model.PaymentStatusPaid,
			PaidAt:               &now,
		}
		if userID, err := strconv.ParseUint(sess.ClientReferenceID, 10, 64); err == nil {
			payment.UserID = uint(userID)
		}
		if err := s.db.Create(payment).Error; err != nil {
			log.Printf("Billing: failed to record payment for session %s: %v", sess.ID, err)
		}
	}

	user, err := s.findUser(sess.ClientReferenceID, customerID)
	if err != nil {
		log.Printf("Billing: no user found for completed session %s: %v", sess.ID, err)
		return nil
	}

	return s.changePlan(user, model.PlanPro, map[string]interface{}{
		"stripe_customer_id":     customerID,
		"stripe_subscription_id": subscriptionID,
	})
}

func (s *Service) handleSubscriptionUpdated(event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}
	if sub.Customer == nil {
		return nil
	}

	user, err := s.findUserByCustomer(sub.Customer.ID)
	if err != nil {
		log.Printf("Billing: no user for customer %s on subscription update", sub.Customer.ID)
		return nil
	}

	switch sub.Status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		if user.CurrentPlan == model.PlanFree {
			return s.changePlan(user, model.PlanPro, map[string]interface{}{
				"stripe_subscription_id": sub.ID,
			})
		}
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusIncompleteExpired:
		if user.CurrentPlan == model.PlanPro {
			return s.changePlan(user, model.PlanFree, map[string]interface{}{
				"stripe_subscription_id": "",
			})
		}
	}
	return nil
}

func (s *Service) handleSubscriptionDeleted(event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}
	if sub.Customer == nil {
		return nil
	}

	user, err := s.findUserByCustomer(sub.Customer.ID)
	if err != nil {
		log.Printf("Billing: no user for customer %s on subscription delete", sub.Customer.ID)
		return nil
	}

	if user.CurrentPlan != model.PlanPro {
		return nil
	}
	return s.changePlan(user, model.PlanFree, map[string]interface{}{
		"stripe_subscription_id": "",
	})
}

// changePlan updates the user's plan plus any extra columns and logs the change
func (s *Service) changePlan(user *model.User, newPlan string, extra map[string]interface{}) error {
	oldPlan := user.CurrentPlan

	updates := map[string]interface{}{"current_plan": newPlan}
	for k, v := range extra {
		updates[k] = v
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to change plan for user %d: %w", user.ID, err)
	}

	metadata, _ := json.Marshal(map[string]string{"from": oldPlan, "to": newPlan})
	activity := model.UserActivity{
		UserID:       &user.ID,
		ActivityType: model.ActivityTypePlanChange,
		Metadata:     datatypes.JSON(metadata),
	}
	if err := s.db.Create(&activity).Error; err != nil {
		log.Printf("Billing: failed to log plan change for user %d: %v", user.ID, err)
	}

	log.Printf("Billing: user %d moved from %s to %s", user.ID, oldPlan, newPlan)
	return nil
}

// findUser resolves a user from a checkout's client reference or customer ID
func (s *Service) findUser(clientReference, customerID string) (*model.User, error) {
	if clientReference != "" {
		if userID, err := strconv.ParseUint(clientReference, 10, 64); err == nil {
			var user model.User
			if err := s.db.First(&user, uint(userID)).Error; err == nil {
				return &user, nil
			}
		}
	}
	return s.findUserByCustomer(customerID)
}

func (s *Service) findUserByCustomer(customerID string) (*model.User, error) {
	if customerID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user model.User
	if err := s.db.Where("stripe_customer_id = ?", customerID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
