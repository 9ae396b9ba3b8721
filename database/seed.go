package database

import (
	"fmt"
	"log"
	"os"

	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/utils/auth"
	"gorm.io/gorm"
)

// Seeder installs the rows a fresh deployment needs before it can serve
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs every seed step. Each step is idempotent, so rerunning
// the seeder against a populated database is safe.
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Seeding database...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("seed admin account: %w", err)
	}
	if err := s.SeedAppSettings(); err != nil {
		return fmt.Errorf("seed app settings: %w", err)
	}

	log.Println("✅ Seeding complete.")
	return nil
}

// SeedAdminUser creates the initial admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD. Skipped when any admin already exists, so re-running
// the seeder never duplicates or resets credentials.
func (s *Seeder) SeedAdminUser() error {
	var admins int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&admins).Error; err != nil {
		return err
	}
	if admins > 0 {
		log.Println("⏭️  An admin account already exists, leaving users untouched")
		return nil
	}

	email, password := os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("⚠️  ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin account")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &model.User{
		Email:         email,
		PasswordHash:  hash,
		Name:          "System Administrator",
		Role:          model.RoleAdmin,
		CurrentPlan:   model.PlanAdmin,
		EmailVerified: true,
		IsActive:      true,
		Settings:      &model.UserSettings{},
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded admin account %s\n", admin.Email)
	return nil
}

// appSetting builds one public setting row. Secret-typed settings are
// never seeded; admins create those through the settings API, which
// seals the value before it is stored.
func appSetting(key, value, typ, category, description string) model.AppSetting {
	return model.AppSetting{
		Key:         key,
		Value:       value,
		Type:        typ,
		Description: description,
		IsPublic:    true,
		Category:    category,
	}
}

// SeedAppSettings installs the default runtime configuration. Only runs
// against an empty app_settings table.
func (s *Seeder) SeedAppSettings() error {
	var existing int64
	if err := s.db.Model(&model.AppSetting{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		log.Println("⏭️  app_settings already populated, leaving it untouched")
		return nil
	}

	settings := []model.AppSetting{
		// System information
		appSetting("system.name", "LeadScout", "string", "system", "Application name"),
		appSetting("system.version", "1.0.0", "string", "system", "Current application version"),
		appSetting("system.maintenance_mode", "false", "bool", "system", "Enable maintenance mode to restrict access"),

		// Guest limiting
		appSetting("guest.daily_search_limit", "5", "int", "rate_limit", "Free searches per rolling 24h window for anonymous visitors"),

		// Lead qualification thresholds
		appSetting("leads.max_reviews", "15", "int", "leads", "Businesses with fewer reviews than this qualify as leads"),
		appSetting("leads.max_radius_miles", "30", "int", "leads", "Largest allowed search radius"),

		// Billing
		appSetting("billing.free_exports_per_month", "3", "int", "billing", "Excel exports included in the free plan each calendar month"),

		// Feature flags
		appSetting("feature.registration_enabled", "true", "bool", "feature", "Allow new user registrations"),
		appSetting("feature.export_enabled", "true", "bool", "feature", "Enable Excel export of search results"),
	}

	if err := s.db.Create(&settings).Error; err != nil {
		return err
	}

	log.Printf("✅ Installed %d default settings\n", len(settings))
	return nil
}

// RunSeeds seeds everything with a throwaway Seeder
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}
