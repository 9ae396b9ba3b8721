package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/leadscout/leadscout/model"
)

// guestUsageRetention is how long an idle guest counter row is kept.
// Rows only matter within the 24h limiting window, the rest is hygiene.
const guestUsageRetention = 30 * 24 * time.Hour

// RollupDailyAnalytics aggregates yesterday's raw activity into one
// site_analytics row. Runs shortly after midnight.
func (m *CronManager) RollupDailyAnalytics() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	yesterday := time.Now().AddDate(0, 0, -1)
	row, err := m.analytics.RollupDay(ctx, yesterday)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"Rolled up %s: %d visits, %d searches, %d exports",
		row.Date.Format("2006-01-02"), row.TotalVisits, row.SearchesPerformed, row.ExportsPerformed,
	), nil
}

// CleanupExpiredTokens removes auth tokens that can no longer be redeemed:
// expired or used password reset and email verification tokens, and JWT
// blacklist entries whose tokens have expired on their own.
func (m *CronManager) CleanupExpiredTokens() (string, error) {
	now := time.Now()

	resetResult := m.db.
		Where("expires_at < ? OR used_at IS NOT NULL", now).
		Delete(&model.PasswordResetToken{})
	if resetResult.Error != nil {
		return "", fmt.Errorf("failed to delete reset tokens: %w", resetResult.Error)
	}

	verifyResult := m.db.
		Where("expires_at < ? OR used_at IS NOT NULL", now).
		Delete(&model.EmailVerificationToken{})
	if verifyResult.Error != nil {
		return "", fmt.Errorf("failed to delete verification tokens: %w", verifyResult.Error)
	}

	blacklistResult := m.db.
		Where("expires_at < ?", now).
		Delete(&model.JWTTokenBlacklist{})
	if blacklistResult.Error != nil {
		return "", fmt.Errorf("failed to delete blacklist entries: %w", blacklistResult.Error)
	}

	return fmt.Sprintf(
		"Removed %d reset tokens, %d verification tokens, %d blacklist entries",
		resetResult.RowsAffected, verifyResult.RowsAffected, blacklistResult.RowsAffected,
	), nil
}

// PruneGuestUsage removes guest counter rows idle for longer than the
// retention period. Limiting semantics never depend on this, rows past the
// 24h window reset on their next write anyway.
func (m *CronManager) PruneGuestUsage() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	removed, err := m.guest.Prune(ctx, guestUsageRetention)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Pruned %d idle guest rows", removed), nil
}

// CleanupOldHistory trims long-tail history tables: cron run logs past 90
// days and raw activity rows past 180 days. Rolled-up analytics keep the
// aggregate numbers.
func (m *CronManager) CleanupOldHistory() (string, error) {
	now := time.Now()

	cronResult := m.db.
		Where("started_at < ?", now.AddDate(0, 0, -90)).
		Delete(&model.CronJobLog{})
	if cronResult.Error != nil {
		return "", fmt.Errorf("failed to delete cron logs: %w", cronResult.Error)
	}

	activityResult := m.db.
		Where("created_at < ?", now.AddDate(0, 0, -180)).
		Delete(&model.UserActivity{})
	if activityResult.Error != nil {
		return "", fmt.Errorf("failed to delete old activity: %w", activityResult.Error)
	}

	return fmt.Sprintf(
		"Removed %d cron logs, %d activity rows",
		cronResult.RowsAffected, activityResult.RowsAffected,
	), nil
}
