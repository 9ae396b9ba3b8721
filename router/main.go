// Package router wires every HTTP route to its handler and middleware chain.
package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/config"
	"github.com/leadscout/leadscout/database"
	"github.com/leadscout/leadscout/handlers"
	admin_handlers "github.com/leadscout/leadscout/handlers/admin"
	analytics_handlers "github.com/leadscout/leadscout/handlers/analytics"
	auth_handlers "github.com/leadscout/leadscout/handlers/auth"
	billing_handlers "github.com/leadscout/leadscout/handlers/billing"
	export_handlers "github.com/leadscout/leadscout/handlers/export"
	search_handlers "github.com/leadscout/leadscout/handlers/search"
	"github.com/leadscout/leadscout/services"
	"github.com/leadscout/leadscout/services/billing"
	"github.com/leadscout/leadscout/services/guestusage"
	"github.com/leadscout/leadscout/services/places"
	"github.com/leadscout/leadscout/services/spaces"
	"github.com/leadscout/leadscout/utils/auth"
	"github.com/leadscout/leadscout/utils/cache"
	"github.com/leadscout/leadscout/utils/middleware"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour

	// Global per-IP request ceiling, distinct from the guest search limit.
	rateLimitRequests = 100
	rateLimitWindow   = 1 * time.Minute
)

// handlerSet carries everything the route registrations need.
type handlerSet struct {
	store      database.Storage
	authMW     *middleware.AuthMiddleware
	bruteForce *middleware.BruteForceProtection
	redis      *cache.RedisCache
	auth       *auth_handlers.AuthHandler
	search     *search_handlers.SearchHandler
	export     *export_handlers.ExportHandler
	billing    *billing_handlers.BillingHandler
	analytics  *analytics_handlers.AnalyticsHandler
}

func SetupRoutes(app *fiber.App, store database.Storage) {
	env, err := config.Get()
	if err != nil {
		log.Fatal("Failed to load environment configuration")
	}
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	h := buildHandlers(env, store)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: rateLimitRequests,
		RateLimitWindow:   rateLimitWindow,
	})

	app.Get("/ping", func(c *fiber.Ctx) error { return handlers.HandleCheckHealth(c, store) })

	api := app.Group("/api/v1")

	// Detailed health with Redis reachability and uptime
	api.Get("/health", handlers.HandleDetailedHealth(store, h.redis))

	// Public app settings for the frontend (is_public rows only)
	api.Get("/settings", func(c *fiber.Ctx) error { return handlers.HandleGetPublicSettings(c, store) })

	registerAuthRoutes(api, h)
	registerSearchRoutes(api, h)
	registerExportRoutes(api, h)
	registerBillingRoutes(api, h)
	registerAnalyticsRoutes(api, h)
	registerAdminRoutes(api, h)
}

// buildHandlers constructs the service graph bottom-up: cache and storage
// first, then domain services, then the handlers that use them.
func buildHandlers(env *config.EnviornmentVariable, store database.Storage) *handlerSet {
	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "leadscout-api"
	}
	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        accessTokenTTL,
		RefreshExpiry: refreshTokenTTL,
		Issuer:        jwtIssuer,
	})

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection and Places caching will be disabled.", err)
	}

	var bruteForce *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForce = middleware.NewBruteForceProtection(redisCache)
	}

	// Guest usage tracker admits anonymous searches up to the daily limit
	guestService := guestusage.NewService(guestusage.NewGormStore(db), env.GUEST_DAILY_SEARCH_LIMIT)

	analyticsService := services.NewAnalyticsService(db)
	emailService := services.NewEmailService()

	placesClient, err := places.NewClient(places.Config{
		APIKey: env.GOOGLE_MAPS_API_KEY,
		Cache:  redisCache,
	})
	if err != nil {
		log.Fatalf("Failed to initialize Google Places client: %v", err)
	}
	leadService := services.NewLeadService(db, placesClient)

	// Export archive is optional; exports still stream without it
	var archive *spaces.Client
	if env.SPACES_KEY != "" && env.SPACES_SECRET != "" && env.SPACES_BUCKET != "" {
		archive, err = spaces.NewClient(spaces.Config{
			AccessKey: env.SPACES_KEY,
			SecretKey: env.SPACES_SECRET,
			Bucket:    env.SPACES_BUCKET,
			Region:    env.SPACES_REGION,
			Endpoint:  env.SPACES_ENDPOINT,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize Spaces client: %v. Export archiving will be disabled.", err)
			archive = nil
		}
	}
	exportService := services.NewExportService(db, archive)

	return &handlerSet{
		store:      store,
		authMW:     middleware.NewAuthMiddleware(jwtManager, db),
		bruteForce: bruteForce,
		redis:      redisCache,
		auth:       auth_handlers.NewAuthHandler(db, jwtManager, bruteForce, emailService, analyticsService),
		search:     search_handlers.NewSearchHandler(db, leadService, guestService, analyticsService),
		export:     export_handlers.NewExportHandler(db, leadService, exportService, analyticsService),
		billing:    billing_handlers.NewBillingHandler(db, billing.NewService(db)),
		analytics:  analytics_handlers.NewAnalyticsHandler(db, analyticsService),
	}
}

func registerAuthRoutes(api fiber.Router, h *handlerSet) {
	authGroup := api.Group("/auth")
	authGroup.Post("/register", h.auth.Register)

	// Login sits behind the per-IP lockout when Redis is up
	if h.bruteForce != nil {
		authGroup.Post("/login", h.bruteForce.CheckAndRecordAttempt(), h.auth.Login)
	} else {
		authGroup.Post("/login", h.auth.Login)
	}

	authGroup.Post("/refresh", h.auth.RefreshToken)
	authGroup.Post("/forgot-password", h.auth.ForgotPassword)
	authGroup.Post("/reset-password", h.auth.ResetPassword)

	// GET serves the link from the verification mail directly
	authGroup.Get("/verify-email", h.auth.VerifyEmail)
	authGroup.Post("/verify-email", h.auth.VerifyEmail)

	authGroup.Post("/logout", h.authMW.Required(), h.auth.Logout)
	authGroup.Post("/change-password", h.authMW.Required(), h.auth.ChangePassword)
	authGroup.Post("/resend-verification", h.authMW.Required(), h.auth.ResendVerification)

	profileGroup := api.Group("/profile", h.authMW.Required())
	profileGroup.Get("/", h.auth.GetProfile)
	profileGroup.Put("/", h.auth.UpdateProfile)
	profileGroup.Get("/settings", h.auth.GetSettings)
	profileGroup.Put("/settings", h.auth.UpdateSettings)
}

func registerSearchRoutes(api fiber.Router, h *handlerSet) {
	// Anonymous callers pass through the guest usage tracker; authenticated
	// callers skip it. Quota is a read-only preview that never spends a search.
	search := api.Group("/search")
	search.Post("/", h.authMW.Optional(), h.search.Search)
	search.Get("/quota", h.authMW.Optional(), h.search.Quota)
	search.Get("/history", h.authMW.Required(), h.search.History)
	search.Get("/:id", h.authMW.Required(), h.search.GetSearch)
}

func registerExportRoutes(api fiber.Router, h *handlerSet) {
	api.Post("/leads/export", h.authMW.Required(), h.export.ExportLeads)

	exportsGroup := api.Group("/exports", h.authMW.Required())
	exportsGroup.Get("/", h.export.History)
	exportsGroup.Get("/:id/download", h.export.Download)
}

func registerBillingRoutes(api fiber.Router, h *handlerSet) {
	billingGroup := api.Group("/billing")
	billingGroup.Post("/checkout", h.authMW.Required(), h.billing.CreateCheckout)
	billingGroup.Post("/portal", h.authMW.Required(), h.billing.CreatePortal)
	billingGroup.Get("/subscription", h.authMW.Required(), h.billing.Subscription)

	// Stripe calls this; signature verification stands in for auth
	billingGroup.Post("/webhook", h.billing.Webhook)
}

func registerAnalyticsRoutes(api fiber.Router, h *handlerSet) {
	// Page-visit beacon from the frontend; attributed when a token is present
	api.Post("/track", h.authMW.Optional(), h.analytics.Track)

	analytics := api.Group("/analytics", h.authMW.Required())
	analytics.Get("/me", h.analytics.GetMyStats)
	analytics.Get("/users/:id", h.analytics.GetUserStats)
	analytics.Get("/activities", h.analytics.GetUserActivities)

	adminOnly := h.authMW.RequireAdmin()
	analytics.Get("/activity/timeseries", adminOnly, h.analytics.GetActivityTimeSeries)
	analytics.Get("/searches/timeseries", adminOnly, h.analytics.GetSearchTimeSeries)
	analytics.Get("/keywords/top", adminOnly, h.analytics.GetTopKeywords)
	analytics.Get("/daily", adminOnly, h.analytics.GetDailyAnalytics)
}

func registerAdminRoutes(api fiber.Router, h *handlerSet) {
	store := h.store

	// withStore adapts the store-taking admin handlers to fiber's signature
	withStore := func(fn func(*fiber.Ctx, database.Storage) error) fiber.Handler {
		return func(c *fiber.Ctx) error {
			return fn(c, store)
		}
	}
	audited := func(action, resource string) fiber.Handler {
		return middleware.AdminAuditLog(store, action, resource)
	}

	admin := api.Group("/admin", h.authMW.RequireAdmin())
	admin.Get("/dashboard", h.analytics.GetDashboard)
	admin.Get("/health", h.analytics.GetSystemHealth)

	// User management
	admin.Get("/users/stats", withStore(admin_handlers.GetUserStats))
	admin.Get("/users", withStore(admin_handlers.ListUsers))
	admin.Get("/users/:id", withStore(admin_handlers.GetUser))
	admin.Put("/users/:id", audited("user_update", "users"), withStore(admin_handlers.UpdateUser))
	admin.Delete("/users/:id", audited("user_delete", "users"), withStore(admin_handlers.DeleteUser))
	admin.Post("/users/:id/reset-password", audited("password_reset", "users"), withStore(admin_handlers.ResetUserPassword))

	// Guest usage inspection (top consumers by current window count)
	admin.Get("/guest-usage", withStore(admin_handlers.ListGuestUsage))

	// Analytics
	admin.Get("/analytics", h.analytics.GetDailyAnalytics)
	admin.Get("/analytics/overview", withStore(admin_handlers.GetOverviewAnalytics))
	admin.Get("/analytics/searches", withStore(admin_handlers.GetSearchAnalytics))
	admin.Get("/analytics/revenue", withStore(admin_handlers.GetRevenueAnalytics))
	admin.Get("/analytics/guests", withStore(admin_handlers.GetGuestAnalytics))

	// Audit trail
	admin.Get("/audit", withStore(admin_handlers.ListAuditLogs))
	admin.Get("/audit/:id", withStore(admin_handlers.GetAuditLog))

	// Settings management
	admin.Get("/settings", withStore(admin_handlers.ListSettings))
	admin.Get("/settings/:key", withStore(admin_handlers.GetSetting))
	admin.Get("/settings/:key/reveal", audited("setting_reveal", "settings"), withStore(admin_handlers.RevealSetting))
	admin.Post("/settings", audited("setting_create", "settings"), withStore(admin_handlers.CreateSetting))
	admin.Put("/settings/:key", audited("setting_update", "settings"), withStore(admin_handlers.UpdateSetting))
	admin.Delete("/settings/:key", audited("setting_delete", "settings"), withStore(admin_handlers.DeleteSetting))
}
