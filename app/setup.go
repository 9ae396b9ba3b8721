package app

import (
	"fmt"
	"log"
	"os"

	"github.com/leadscout/leadscout/api"
	"github.com/leadscout/leadscout/config"
	"github.com/leadscout/leadscout/database"
	"github.com/leadscout/leadscout/router"
	"github.com/leadscout/leadscout/services"
	"github.com/leadscout/leadscout/services/cron"
	"github.com/leadscout/leadscout/services/guestusage"
	"gorm.io/gorm"
)

// SetupAndRunServer wires the whole application: env, database,
// background jobs, routes, and the HTTP listener. Blocks until the
// server exits.
func SetupAndRunServer() error {
	if err := config.LoadENV(); err != nil {
		return err
	}
	env, err := config.Get()
	if err != nil {
		return err
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Println("Could not reach PostgreSQL. Start it with `make docker-up` or `make db-up`.")
		return err
	}
	if err := store.Init(); err != nil {
		log.Println("Database migration failed:", err)
		return err
	}

	jobs := startCron(store, env)
	defer func() {
		if jobs != nil {
			jobs.Stop()
		}
		store.Close()
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT))
	router.SetupRoutes(server.GetEngine(), store)
	return server.Run()
}

// startCron wires and starts the in-process scheduler. Returns nil when
// cron is disabled or the store cannot back it. Multi-replica
// deployments set CRON_ENABLED=false on all but one replica.
func startCron(store *database.GORMStore, env *config.EnviornmentVariable) *cron.CronManager {
	if os.Getenv("CRON_ENABLED") == "false" {
		return nil
	}
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Println("Warning: cron jobs disabled, store does not expose a gorm.DB")
		return nil
	}

	guests := guestusage.NewService(guestusage.NewGormStore(db), env.GUEST_DAILY_SEARCH_LIMIT)
	manager := cron.NewCronManager(db, guests, services.NewAnalyticsService(db))
	if err := manager.Start(); err != nil {
		// The API still serves without background jobs
		log.Println("Warning: failed to start cron jobs:", err)
	}
	return manager
}
