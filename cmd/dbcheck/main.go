package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/leadscout/leadscout/database"
)

func main() {
	promoteID := flag.Int64("promote-admin", 0, "user ID to promote to the admin role before reporting")
	guestRows := flag.Int("guests", 10, "number of guest usage rows to show")
	cronRows := flag.Int("cron", 10, "number of recent cron runs to show")
	flag.Parse()

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Connect over the raw driver; this tool never runs migrations
	store, err := database.Start()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.HealthCheck(); err != nil {
		log.Fatalf("Database is not reachable: %v", err)
	}

	fmt.Println("========================================")
	fmt.Println("LEADSCOUT DATABASE STATUS")
	fmt.Println("========================================")

	// Schema check
	missing, err := store.MissingTables()
	if err != nil {
		log.Fatalf("Failed to inspect schema: %v", err)
	}
	if len(missing) > 0 {
		fmt.Println("\n❌ Schema incomplete. Missing tables:")
		for _, table := range missing {
			fmt.Printf("   - %s\n", table)
		}
		fmt.Println("\nRun the API once so GORM can migrate, then re-run this check.")
		os.Exit(1)
	}
	fmt.Println("\n✅ All expected tables present")

	// Optional repair: restore an admin role before reporting on admins
	if *promoteID > 0 {
		if err := store.PromoteUserRole(*promoteID, "admin"); err != nil {
			log.Fatalf("Failed to promote user %d: %v", *promoteID, err)
		}
		fmt.Printf("✅ User %d promoted to admin\n", *promoteID)
	}

	// Row counts
	fmt.Println("\n========================================")
	fmt.Println("TABLE ROW COUNTS")
	fmt.Println("========================================")

	for _, table := range database.ExpectedTables() {
		count, err := store.CountRows(table)
		if err != nil {
			fmt.Printf("   %-28s error: %v\n", table, err)
			continue
		}
		fmt.Printf("   %-28s %d\n", table, count)
	}

	// Admin presence
	fmt.Println("\n========================================")
	fmt.Println("ADMIN ACCOUNTS")
	fmt.Println("========================================")

	admins, err := store.GetAdminAccounts()
	if err != nil {
		log.Fatalf("Failed to fetch admin accounts: %v", err)
	}
	if len(admins) == 0 {
		fmt.Println("⚠️  No admin accounts found. Run cmd/seed with ADMIN_EMAIL and ADMIN_PASSWORD set.")
	} else {
		for _, admin := range admins {
			statusIcon := "✅"
			if !admin.Active {
				statusIcon = "🚫"
			}
			verified := "unverified"
			if admin.Verified {
				verified = "verified"
			}
			fmt.Printf("%s #%d %s (%s, plan: %s, %s)\n",
				statusIcon, admin.ID, admin.Email, admin.Name, admin.Plan, verified)
		}
	}

	// Guest usage top talkers
	fmt.Println("\n========================================")
	fmt.Printf("TOP GUEST USAGE (limit %d)\n", *guestRows)
	fmt.Println("========================================")

	guests, err := store.TopGuestUsage(*guestRows)
	if err != nil {
		log.Fatalf("Failed to fetch guest usage: %v", err)
	}
	if len(guests) == 0 {
		fmt.Println("No guest searches recorded yet")
	} else {
		for _, g := range guests {
			fmt.Printf("   %-40s %3d searches  last seen %s\n",
				g.ClientKey, g.SearchCount, g.LastSeenAt.Format("2006-01-02 15:04:05"))
		}
	}

	// Recent cron runs
	fmt.Println("\n========================================")
	fmt.Printf("RECENT CRON RUNS (limit %d)\n", *cronRows)
	fmt.Println("========================================")

	runs, err := store.RecentCronRuns(*cronRows)
	if err != nil {
		log.Fatalf("Failed to fetch cron runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("No cron runs recorded yet")
	} else {
		for _, run := range runs {
			statusIcon := "⏳"
			switch run.Status {
			case "completed":
				statusIcon = "✅"
			case "failed":
				statusIcon = "❌"
			case "running":
				statusIcon = "🔄"
			}
			fmt.Printf("%s %-26s %-10s %s (%dms)\n",
				statusIcon, run.JobName, run.Status, run.StartedAt.Format("2006-01-02 15:04:05"), run.DurationMs)
			if run.ErrorMsg != "" {
				fmt.Printf("     Error: %s\n", truncate(run.ErrorMsg, 80))
			}
		}
	}

	fmt.Println("\n========================================")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
