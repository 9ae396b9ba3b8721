package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/database"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/utils/response"
)

type overviewStats struct {
	TotalUsers       int64 `json:"total_users"`
	TotalSearches    int64 `json:"total_searches"`
	TotalLeadsFound  int64 `json:"total_leads_found"`
	TotalExports     int64 `json:"total_exports"`
	TotalRevenue     int64 `json:"total_revenue_cents"`
	GuestBuckets     int64 `json:"guest_buckets"`
	ActiveUsersToday int64 `json:"active_users_today"`
	ActiveUsersWeek  int64 `json:"active_users_week"`
}

type dailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type keywordStat struct {
	Keyword string `json:"keyword"`
	Count   int64  `json:"count"`
	Leads   int64  `json:"leads"`
}

type locationStat struct {
	Location string `json:"location"`
	Count    int64  `json:"count"`
}

type searchAnalytics struct {
	TotalSearches int64          `json:"total_searches"`
	GuestSearches int64          `json:"guest_searches"`
	AvgDurationMs float64        `json:"avg_duration_ms"`
	SearchesByDay []dailyCount   `json:"searches_by_day"`
	TopKeywords   []keywordStat  `json:"top_keywords"`
	TopLocations  []locationStat `json:"top_locations"`
}

type planCount struct {
	Plan  string `json:"plan"`
	Count int64  `json:"count"`
}

type monthlyRevenue struct {
	Month string `json:"month"`
	Cents int64  `json:"cents"`
}

type revenueAnalytics struct {
	TotalRevenueCents int64            `json:"total_revenue_cents"`
	PaidPayments      int64            `json:"paid_payments"`
	UsersByPlan       []planCount      `json:"users_by_plan"`
	RevenueByMonth    []monthlyRevenue `json:"revenue_by_month"`
	RecentPayments    []model.Payment  `json:"recent_payments"`
}

type guestAnalytics struct {
	TotalBuckets  int64              `json:"total_buckets"`
	ActiveToday   int64              `json:"active_today"`
	AtLimitToday  int64              `json:"at_limit_today"`
	GuestSearches int64              `json:"guest_searches"`
	TopBuckets    []model.GuestUsage `json:"top_buckets"`
}

// GetOverviewAnalytics returns the headline numbers for the admin
// dashboard landing page
// GET /admin/analytics/overview
func GetOverviewAnalytics(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	var stats overviewStats
	db.Model(&model.User{}).Count(&stats.TotalUsers)
	db.Model(&model.SearchRecord{}).Count(&stats.TotalSearches)
	db.Model(&model.SearchRecord{}).Select("COALESCE(SUM(lead_count), 0)").Scan(&stats.TotalLeadsFound)
	db.Model(&model.ExportRecord{}).Count(&stats.TotalExports)
	db.Model(&model.Payment{}).Where("status = ?", model.PaymentStatusPaid).
		Select("COALESCE(SUM(amount_cents), 0)").Scan(&stats.TotalRevenue)
	db.Model(&model.GuestUsage{}).Count(&stats.GuestBuckets)

	db.Model(&model.UserActivity{}).
		Where("created_at >= ? AND user_id IS NOT NULL", time.Now().Add(-24*time.Hour)).
		Distinct("user_id").
		Count(&stats.ActiveUsersToday)
	db.Model(&model.UserActivity{}).
		Where("created_at >= ? AND user_id IS NOT NULL", time.Now().Add(-7*24*time.Hour)).
		Distinct("user_id").
		Count(&stats.ActiveUsersWeek)

	return response.SuccessWithMessage(c, "Overview analytics retrieved successfully", stats)
}

// GetSearchAnalytics breaks down search volume, keywords, and locations
// over the last 30 days
// GET /admin/analytics/searches
func GetSearchAnalytics(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	var analytics searchAnalytics
	db.Model(&model.SearchRecord{}).Count(&analytics.TotalSearches)
	db.Model(&model.SearchRecord{}).Where("user_id IS NULL").Count(&analytics.GuestSearches)
	db.Model(&model.SearchRecord{}).Select("COALESCE(AVG(duration_ms), 0)").Scan(&analytics.AvgDurationMs)

	db.Raw(`
		SELECT DATE(created_at) as date, COUNT(*) as count
		FROM search_records
		WHERE created_at >= NOW() - INTERVAL '30 days'
		AND deleted_at IS NULL
		GROUP BY DATE(created_at)
		ORDER BY date ASC
	`).Scan(&analytics.SearchesByDay)

	db.Raw(`
		SELECT keyword, COUNT(*) as count, COALESCE(SUM(lead_count), 0) as leads
		FROM search_records
		WHERE created_at >= NOW() - INTERVAL '30 days'
		AND deleted_at IS NULL
		GROUP BY keyword
		ORDER BY count DESC
		LIMIT 10
	`).Scan(&analytics.TopKeywords)

	db.Raw(`
		SELECT location, COUNT(*) as count
		FROM search_records
		WHERE created_at >= NOW() - INTERVAL '30 days'
		AND deleted_at IS NULL
		GROUP BY location
		ORDER BY count DESC
		LIMIT 10
	`).Scan(&analytics.TopLocations)

	return response.SuccessWithMessage(c, "Search analytics retrieved successfully", analytics)
}

// GetRevenueAnalytics reports billing totals, plan distribution, and a
// 12 month revenue series
// GET /admin/analytics/revenue
func GetRevenueAnalytics(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	var analytics revenueAnalytics
	db.Model(&model.Payment{}).Where("status = ?", model.PaymentStatusPaid).
		Select("COALESCE(SUM(amount_cents), 0)").Scan(&analytics.TotalRevenueCents)
	db.Model(&model.Payment{}).Where("status = ?", model.PaymentStatusPaid).Count(&analytics.PaidPayments)

	db.Model(&model.User{}).
		Select("current_plan as plan, COUNT(*) as count").
		Group("current_plan").
		Scan(&analytics.UsersByPlan)

	db.Raw(`
		SELECT TO_CHAR(DATE_TRUNC('month', paid_at), 'YYYY-MM') as month,
		       COALESCE(SUM(amount_cents), 0) as cents
		FROM payments
		WHERE status = 'paid'
		AND paid_at >= NOW() - INTERVAL '12 months'
		AND deleted_at IS NULL
		GROUP BY DATE_TRUNC('month', paid_at)
		ORDER BY month ASC
	`).Scan(&analytics.RevenueByMonth)

	db.Preload("User").
		Order("created_at DESC").
		Limit(10).
		Find(&analytics.RecentPayments)

	return response.SuccessWithMessage(c, "Revenue analytics retrieved successfully", analytics)
}

// GetGuestAnalytics reports anonymous usage pressure: how many guest
// buckets exist, how many hit the limit, and who searches the most
// GET /admin/analytics/guests
func GetGuestAnalytics(c *fiber.Ctx, store database.Storage) error {
	db, errResp := gormDB(c, store)
	if db == nil {
		return errResp
	}

	var analytics guestAnalytics
	windowStart := time.Now().Add(-24 * time.Hour)

	db.Model(&model.GuestUsage{}).Count(&analytics.TotalBuckets)
	db.Model(&model.GuestUsage{}).Where("updated_at >= ?", windowStart).Count(&analytics.ActiveToday)

	// Buckets that burned through their whole allowance in the current
	// window. The COALESCE covers a missing or empty settings row.
	db.Raw(`
		SELECT COUNT(*)
		FROM guest_usage
		WHERE updated_at >= ?
		AND search_count >= COALESCE(
			(SELECT NULLIF(value, '')::int
			 FROM app_settings WHERE key = 'guest.daily_search_limit'),
			5)
	`, windowStart).Scan(&analytics.AtLimitToday)

	db.Model(&model.SearchRecord{}).
		Where("user_id IS NULL AND created_at >= ?", windowStart).
		Count(&analytics.GuestSearches)

	db.Order("search_count DESC, updated_at DESC").
		Limit(10).
		Find(&analytics.TopBuckets)

	return response.SuccessWithMessage(c, "Guest analytics retrieved successfully", analytics)
}
