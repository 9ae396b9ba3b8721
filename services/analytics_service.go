package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leadscout/leadscout/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnalyticsService handles activity tracking and reporting
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// TrackActivity records one user or guest action. userID is nil for guests.
func (s *AnalyticsService) TrackActivity(ctx context.Context, userID *uint, activityType model.ActivityType, page string, metadata map[string]interface{}, ipAddress, userAgent string) error {
	activity := model.UserActivity{
		UserID:       userID,
		ActivityType: activityType,
		Page:         page,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
	}

	if len(metadata) > 0 {
		data, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
		activity.Metadata = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(&activity).Error; err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// TrackPageView bumps today's counter for a path
func (s *AnalyticsService) TrackPageView(ctx context.Context, path string) error {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "path"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("page_visits.count + 1"),
			"updated_at": now,
		}),
	}).Create(&model.PageVisit{
		Date:  today,
		Path:  path,
		Count: 1,
	}).Error
	if err != nil {
		return fmt.Errorf("track page view: %w", err)
	}
	return nil
}

// DashboardStats represents overall platform statistics
type DashboardStats struct {
	TotalUsers         int64 `json:"total_users"`
	ActiveUsers        int64 `json:"active_users_7d"`
	ProUsers           int64 `json:"pro_users"`
	VerifiedUsers      int64 `json:"verified_users"`
	NewUsersToday      int64 `json:"new_users_today"`
	SearchesTotal      int64 `json:"searches_total"`
	SearchesToday      int64 `json:"searches_today"`
	GuestSearchesToday int64 `json:"guest_searches_today"`
	LeadsFoundTotal    int64 `json:"leads_found_total"`
	ExportsTotal       int64 `json:"exports_total"`
	ExportsToday       int64 `json:"exports_today"`
	RevenueCents       int64 `json:"revenue_cents"`
	AvgSearchMs        int   `json:"avg_search_ms"`
}

// GetDashboardStats retrieves overall platform statistics
func (s *AnalyticsService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	midnight := time.Now().Truncate(24 * time.Hour)
	weekAgo := time.Now().AddDate(0, 0, -7)

	var stats DashboardStats
	counters := []struct {
		dst   *int64
		label string
		tx    *gorm.DB
	}{
		{&stats.TotalUsers, "users", db.Model(&model.User{})},
		{&stats.ActiveUsers, "active users", db.Model(&model.UserActivity{}).Where("created_at >= ? AND user_id IS NOT NULL", weekAgo).Distinct("user_id")},
		{&stats.ProUsers, "pro users", db.Model(&model.User{}).Where("current_plan = ?", model.PlanPro)},
		{&stats.VerifiedUsers, "verified users", db.Model(&model.User{}).Where("email_verified = ?", true)},
		{&stats.NewUsersToday, "new users", db.Model(&model.User{}).Where("created_at >= ?", midnight)},
		{&stats.SearchesTotal, "searches", db.Model(&model.SearchRecord{})},
		{&stats.SearchesToday, "today's searches", db.Model(&model.SearchRecord{}).Where("created_at >= ?", midnight)},
		{&stats.GuestSearchesToday, "guest searches", db.Model(&model.SearchRecord{}).Where("created_at >= ? AND user_id IS NULL", midnight)},
		{&stats.ExportsTotal, "exports", db.Model(&model.ExportRecord{})},
		{&stats.ExportsToday, "today's exports", db.Model(&model.ExportRecord{}).Where("created_at >= ?", midnight)},
	}
	for _, c := range counters {
		if err := c.tx.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", c.label, err)
		}
	}

	if err := db.Model(&model.SearchRecord{}).
		Select("COALESCE(SUM(lead_count), 0)").
		Scan(&stats.LeadsFoundTotal).Error; err != nil {
		return nil, fmt.Errorf("sum leads found: %w", err)
	}

	if err := db.Model(&model.Payment{}).
		Where("status = ?", model.PaymentStatusPaid).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&stats.RevenueCents).Error; err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}

	var avgMs float64
	if err := db.Model(&model.SearchRecord{}).
		Where("duration_ms > 0").
		Select("COALESCE(AVG(duration_ms), 0)").
		Scan(&avgMs).Error; err != nil {
		return nil, fmt.Errorf("average search duration: %w", err)
	}
	stats.AvgSearchMs = int(avgMs)

	return &stats, nil
}

// TimeSeriesPoint represents a data point in time series
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
	Value int64  `json:"value,omitempty"`
}

// GetActivityTimeSeries retrieves activity over time
func (s *AnalyticsService) GetActivityTimeSeries(ctx context.Context, days int, activityType model.ActivityType) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days).Truncate(24 * time.Hour)

	tx := s.db.WithContext(ctx).Model(&model.UserActivity{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC")
	if activityType != "" {
		tx = tx.Where("activity_type = ?", activityType)
	}

	var points []TimeSeriesPoint
	if err := tx.Scan(&points).Error; err != nil {
		return nil, fmt.Errorf("fetch activity time series: %w", err)
	}
	return points, nil
}

// GetSearchTimeSeries retrieves daily search counts with leads found as value
func (s *AnalyticsService) GetSearchTimeSeries(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days).Truncate(24 * time.Hour)

	var points []TimeSeriesPoint
	if err := s.db.WithContext(ctx).Model(&model.SearchRecord{}).
		Select("DATE(created_at) as date, COUNT(*) as count, COALESCE(SUM(lead_count), 0) as value").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error; err != nil {
		return nil, fmt.Errorf("fetch search time series: %w", err)
	}
	return points, nil
}

// KeywordStat is one entry in the most-searched keywords report
type KeywordStat struct {
	Keyword    string `json:"keyword"`
	Searches   int64  `json:"searches"`
	LeadsFound int64  `json:"leads_found"`
}

// GetTopKeywords retrieves the most searched keywords in a window
func (s *AnalyticsService) GetTopKeywords(ctx context.Context, days, limit int) ([]KeywordStat, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	since := time.Now().AddDate(0, 0, -days).Truncate(24 * time.Hour)

	var keywords []KeywordStat
	if err := s.db.WithContext(ctx).Model(&model.SearchRecord{}).
		Select("keyword, COUNT(*) as searches, COALESCE(SUM(lead_count), 0) as leads_found").
		Where("created_at >= ?", since).
		Group("keyword").
		Order("searches DESC").
		Limit(limit).
		Scan(&keywords).Error; err != nil {
		return nil, fmt.Errorf("fetch top keywords: %w", err)
	}
	return keywords, nil
}

// RollupDay aggregates one day of raw activity into a site_analytics row.
// Safe to run repeatedly, the row is upserted by date.
func (s *AnalyticsService) RollupDay(ctx context.Context, day time.Time) (*model.SiteAnalytics, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	db := s.db.WithContext(ctx)

	row := &model.SiteAnalytics{Date: dayStart}
	counters := []struct {
		dst   *int
		label string
		tx    *gorm.DB
	}{
		{&row.TotalVisits, "visits", db.Model(&model.UserActivity{}).
			Where("activity_type = ? AND created_at >= ? AND created_at < ?", model.ActivityTypePageView, dayStart, dayEnd)},
		{&row.UniqueVisitors, "unique visitors", db.Model(&model.UserActivity{}).
			Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).Distinct("ip_address")},
		{&row.RegisteredUsers, "registered users", db.Model(&model.User{}).
			Where("created_at < ?", dayEnd)},
		{&row.ActiveUsers, "active users", db.Model(&model.UserActivity{}).
			Where("user_id IS NOT NULL AND created_at >= ? AND created_at < ?", dayStart, dayEnd).Distinct("user_id")},
		{&row.SearchesPerformed, "searches", db.Model(&model.SearchRecord{}).
			Where("created_at >= ? AND created_at < ?", dayStart, dayEnd)},
		{&row.ExportsPerformed, "exports", db.Model(&model.ExportRecord{}).
			Where("created_at >= ? AND created_at < ?", dayStart, dayEnd)},
	}
	for _, c := range counters {
		var n int64
		if err := c.tx.Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", c.label, err)
		}
		*c.dst = int(n)
	}

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_visits", "unique_visitors", "registered_users",
			"active_users", "searches_performed", "exports_performed", "updated_at",
		}),
	}).Create(row).Error
	if err != nil {
		return nil, fmt.Errorf("upsert daily analytics: %w", err)
	}

	return row, nil
}

// GetDailyAnalytics returns rolled-up rows for the admin chart, oldest first
func (s *AnalyticsService) GetDailyAnalytics(ctx context.Context, days int) ([]model.SiteAnalytics, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	var rows []model.SiteAnalytics
	if err := s.db.WithContext(ctx).
		Where("date >= ?", since).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetch daily analytics: %w", err)
	}
	return rows, nil
}

// UserStats summarizes one account's lifetime usage
type UserStats struct {
	SearchesTotal   int64      `json:"searches_total"`
	SearchesToday   int64      `json:"searches_today"`
	LeadsFoundTotal int64      `json:"leads_found_total"`
	ExportsTotal    int64      `json:"exports_total"`
	ExportsMonth    int64      `json:"exports_this_month"`
	LastSearchAt    *time.Time `json:"last_search_at,omitempty"`
}

// GetUserStats retrieves usage statistics for a single user
func (s *AnalyticsService) GetUserStats(ctx context.Context, userID uint) (*UserStats, error) {
	db := s.db.WithContext(ctx)
	midnight := time.Now().Truncate(24 * time.Hour)
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var stats UserStats
	counters := []struct {
		dst   *int64
		label string
		tx    *gorm.DB
	}{
		{&stats.SearchesTotal, "searches", db.Model(&model.SearchRecord{}).
			Where("user_id = ?", userID)},
		{&stats.SearchesToday, "today's searches", db.Model(&model.SearchRecord{}).
			Where("user_id = ? AND created_at >= ?", userID, midnight)},
		{&stats.ExportsTotal, "exports", db.Model(&model.ExportRecord{}).
			Where("user_id = ?", userID)},
		{&stats.ExportsMonth, "month's exports", db.Model(&model.ExportRecord{}).
			Where("user_id = ? AND created_at >= ?", userID, monthStart)},
	}
	for _, c := range counters {
		if err := c.tx.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("count user %s: %w", c.label, err)
		}
	}

	if err := db.Model(&model.SearchRecord{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(lead_count), 0)").
		Scan(&stats.LeadsFoundTotal).Error; err != nil {
		return nil, fmt.Errorf("sum user leads: %w", err)
	}

	var lastSearch model.SearchRecord
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&lastSearch).Error; err == nil {
		stats.LastSearchAt = &lastSearch.CreatedAt
	}

	return &stats, nil
}
