// migrate_gorm.go - Run this file to verify migrations against a live database
// Usage: go run migrate_gorm.go

//go:build ignore

package main

import (
	"log"

	"github.com/leadscout/leadscout/config"
	"github.com/leadscout/leadscout/database"
	"gorm.io/gorm"
)

func main() {
	log.Println("=== GORM Migration Check ===")

	if err := config.LoadENV(); err != nil {
		log.Fatal("Failed to load environment variables:", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if err := store.HealthCheck(); err != nil {
		log.Fatal("Database health check failed:", err)
	}

	log.Println("✅ All migrations completed successfully!")
	log.Println("✅ Database connection healthy!")

	// List what actually exists rather than what we expect to exist
	if db, ok := store.GetDB().(*gorm.DB); ok {
		tables, err := db.Migrator().GetTables()
		if err != nil {
			log.Println("Could not list tables:", err)
			return
		}
		log.Printf("Database now has %d tables:", len(tables))
		for _, table := range tables {
			log.Println("  -", table)
		}
	}
}
