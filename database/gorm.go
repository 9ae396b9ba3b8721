package database

import (
	"log"
	"time"

	"github.com/leadscout/leadscout/config"
	"github.com/leadscout/leadscout/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connection pool sizing for the API server
const (
	maxIdleConns    = 10
	maxOpenConns    = 100
	connMaxLifetime = time.Hour
)

// GORMStore is the primary store behind the API server. Schema is
// managed through AutoMigrate at startup.
type GORMStore struct {
	db *gorm.DB
}

// StartGORM opens the PostgreSQL connection and configures the pool
func StartGORM() (*GORMStore, error) {
	env, err := config.Get()
	if err != nil {
		return nil, err
	}

	// Full query logging everywhere except production
	logLevel := logger.Info
	if env.GO_ENV == "production" {
		logLevel = logger.Error
	}

	db, err := gorm.Open(postgres.Open(postgresDSN(env)+" TimeZone=UTC"), &gorm.Config{
		Logger:      logger.Default.LogMode(logLevel),
		PrepareStmt: true,
	})
	if err != nil {
		log.Println("Unable to open PostgreSQL with GORM:", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	log.Println("Connected to PostgreSQL with GORM.")

	return &GORMStore{db: db}, nil
}

// Init migrates every model the application persists
func (s *GORMStore) Init() error {
	log.Println("Migrating database schema...")

	models := []interface{}{
		// Accounts
		&model.User{},
		&model.UserSettings{},
		&model.PasswordResetToken{},
		&model.EmailVerificationToken{},

		// Guest rate limiting
		&model.GuestUsage{},

		// Search & export history
		&model.SearchRecord{},
		&model.ExportRecord{},

		// Billing
		&model.Payment{},

		// Analytics
		&model.UserActivity{},
		&model.PageVisit{},
		&model.SiteAnalytics{},

		// Application settings
		&model.AppSetting{},

		// Token blacklist
		&model.JWTTokenBlacklist{},

		// Audit trail
		&model.CronJobLog{},
		&model.AdminAuditLog{},
	}
	if err := s.db.AutoMigrate(models...); err != nil {
		log.Println("Schema migration failed:", err)
		return err
	}

	log.Println("Schema migration complete.")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Println("Closing GORM PostgreSQL connection.")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB exposes the *gorm.DB handle behind the Storage interface
func (s *GORMStore) GetDB() interface{} {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
