// Package config reads the process environment into one struct so the
// rest of the app never touches os.Getenv directly.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadENV pulls variables from .env during local development. Deployed
// environments set GO_ENV and provide real environment variables, so
// the file is skipped there.
func LoadENV() error {
	if env := os.Getenv("GO_ENV"); env == "" || env == "development" {
		return godotenv.Load()
	}
	return nil
}

type EnviornmentVariable struct {
	// Core
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL      string
	REDIS_PASSWORD string
	REDIS_DB       string
	// Google Maps Configuration
	GOOGLE_MAPS_API_KEY string
	// Guest rate limiting
	GUEST_DAILY_SEARCH_LIMIT int
	// Stripe Configuration
	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string
	STRIPE_PRO_PRICE_ID   string
	// SMTP Configuration
	SMTP_HOST     string
	SMTP_PORT     string
	SMTP_USER     string
	SMTP_PASSWORD string
	SMTP_FROM     string
	// Spaces (S3-compatible) export archive
	SPACES_KEY      string
	SPACES_SECRET   string
	SPACES_BUCKET   string
	SPACES_REGION   string
	SPACES_ENDPOINT string
	// Public base URL used in emails and Stripe redirects
	APP_BASE_URL string
}

// getenv reads one variable, substituting fallback when it is unset
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getenvInt reads one integer variable; non-numeric or non-positive
// values collapse to the fallback
func getenvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func Get() (*EnviornmentVariable, error) {
	return &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      getenv("DB_HOST", "localhost"),
		DB_PORT:      getenv("DB_PORT", "5432"),
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         getenvInt("PORT", 8080),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: os.Getenv("JWT_ISSUER"),
		// Redis
		REDIS_URL:      os.Getenv("REDIS_URL"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),
		REDIS_DB:       os.Getenv("REDIS_DB"),
		// Google Maps
		GOOGLE_MAPS_API_KEY: os.Getenv("GOOGLE_MAPS_API_KEY"),
		// Guest limiting
		GUEST_DAILY_SEARCH_LIMIT: getenvInt("GUEST_DAILY_SEARCH_LIMIT", 5),
		// Stripe
		STRIPE_SECRET_KEY:     os.Getenv("STRIPE_SECRET_KEY"),
		STRIPE_WEBHOOK_SECRET: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		STRIPE_PRO_PRICE_ID:   os.Getenv("STRIPE_PRO_PRICE_ID"),
		// SMTP
		SMTP_HOST:     os.Getenv("SMTP_HOST"),
		SMTP_PORT:     os.Getenv("SMTP_PORT"),
		SMTP_USER:     os.Getenv("SMTP_USER"),
		SMTP_PASSWORD: os.Getenv("SMTP_PASSWORD"),
		SMTP_FROM:     os.Getenv("SMTP_FROM"),
		// Spaces
		SPACES_KEY:      os.Getenv("SPACES_KEY"),
		SPACES_SECRET:   os.Getenv("SPACES_SECRET"),
		SPACES_BUCKET:   os.Getenv("SPACES_BUCKET"),
		SPACES_REGION:   os.Getenv("SPACES_REGION"),
		SPACES_ENDPOINT: os.Getenv("SPACES_ENDPOINT"),
		// App
		APP_BASE_URL: getenv("APP_BASE_URL", "http://localhost:3000"),
	}, nil
}

// IsProduction reports whether the app runs with production settings
func IsProduction() bool {
	return os.Getenv("GO_ENV") == "production"
}
