package cron

import (
	"log"
	"time"

	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/services"
	"github.com/leadscout/leadscout/services/guestusage"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronManager owns the scheduler and records every job run in cron_job_logs.
type CronManager struct {
	cron      *cron.Cron
	db        *gorm.DB
	guest     *guestusage.Service
	analytics *services.AnalyticsService
}

// NewCronManager creates a manager with seconds-precision schedules.
func NewCronManager(db *gorm.DB, guest *guestusage.Service, analytics *services.AnalyticsService) *CronManager {
	return &CronManager{
		cron:      cron.New(cron.WithSeconds()),
		db:        db,
		guest:     guest,
		analytics: analytics,
	}
}

// Start registers every job and starts the scheduler.
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	jobs := []struct {
		schedule string
		name     string
		run      func() (string, error)
	}{
		// Shortly after midnight so yesterday's activity is complete.
		{"0 10 0 * * *", "daily_analytics_rollup", m.RollupDailyAnalytics},
		{"0 0 2 * * *", "expired_token_cleanup", m.CleanupExpiredTokens},
		{"0 0 3 * * *", "guest_usage_prune", m.PruneGuestUsage},
		// Weekly, Sunday 4 AM.
		{"0 0 4 * * 0", "history_cleanup", m.CleanupOldHistory},
	}

	for _, job := range jobs {
		job := job
		if _, err := m.cron.AddFunc(job.schedule, func() {
			m.runJob(job.name, job.run)
		}); err != nil {
			return err
		}
	}

	m.cron.Start()
	log.Printf("Cron scheduler started with %d jobs", len(jobs))
	return nil
}

// Stop stops the scheduler and waits for any in-flight job to finish.
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// runJob wraps one execution: it inserts a "running" row, invokes the job,
// then finalizes that same row with the outcome and elapsed time.
func (m *CronManager) runJob(name string, run func() (string, error)) {
	log.Printf("[CRON] Starting job: %s", name)

	entry := model.CronJobLog{
		JobName:   name,
		Status:    model.CronRunStatusRunning,
		StartedAt: time.Now(),
	}
	if err := m.db.Create(&entry).Error; err != nil {
		// Still run the job. A logging failure should not skip real work.
		log.Printf("[CRON] Failed to record start of %s: %v", name, err)
	}

	message, err := run()

	now := time.Now()
	updates := map[string]interface{}{
		"completed_at": now,
		"duration_ms":  now.Sub(entry.StartedAt).Milliseconds(),
	}
	if err != nil {
		log.Printf("[CRON] Job %s failed: %v", name, err)
		updates["status"] = model.CronRunStatusFailed
		updates["error_msg"] = err.Error()
	} else {
		log.Printf("[CRON] Job %s completed: %s", name, message)
		updates["status"] = model.CronRunStatusCompleted
		updates["message"] = message
	}

	if entry.ID != 0 {
		if err := m.db.Model(&entry).Updates(updates).Error; err != nil {
			log.Printf("[CRON] Failed to record outcome of %s: %v", name, err)
		}
	}
}
