package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/leadscout/leadscout/database"
	"gorm.io/gorm"
)

// Seeds the admin account and default app settings. Safe to re-run;
// every seed step skips when its data already exists.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, relying on the process environment")
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer store.Close()

	// Fresh databases need the schema before any rows can be seeded
	if err := store.Init(); err != nil {
		log.Fatalf("Schema migration failed: %v", err)
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Store does not expose a gorm.DB")
	}

	if err := database.RunSeeds(db); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	fmt.Println("🎉 Done. The admin account comes from ADMIN_EMAIL and ADMIN_PASSWORD; without them that step was skipped.")
}
