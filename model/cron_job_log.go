package model

import (
	"time"

	"gorm.io/gorm"
)

// Cron job run states recorded in Status.
const (
	CronRunStatusRunning   = "running"
	CronRunStatusCompleted = "completed"
	CronRunStatusFailed    = "failed"
)

// CronJobLog records one execution of a scheduled background job. A row is
// inserted when the job starts and updated in place when it finishes, so a
// row stuck in "running" means the process died mid-job.
type CronJobLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	JobName     string         `gorm:"type:varchar(100);not null;index" json:"job_name"`
	Status      string         `gorm:"type:varchar(20);not null" json:"status"`
	StartedAt   time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	DurationMS  int64          `gorm:"column:duration_ms" json:"duration_ms"`
	Message     string         `gorm:"type:text" json:"message"`
	ErrorMsg    string         `gorm:"type:text" json:"error_msg"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CronJobLog) TableName() string {
	return "cron_job_logs"
}
