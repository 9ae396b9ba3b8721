package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/leadscout/leadscout/config"
	"github.com/leadscout/leadscout/database"
	"github.com/leadscout/leadscout/services"
	"github.com/leadscout/leadscout/services/places"
	"gorm.io/gorm"
)

func main() {
	location := flag.String("location", "", "where to search, e.g. \"Austin, TX\" (required)")
	keyword := flag.String("keyword", "", "what to search for, e.g. \"plumber\" (required)")
	radius := flag.Float64("radius", 10, "search radius in miles (max 30)")
	maxReviews := flag.Int("max-reviews", 15, "review count below which a business qualifies as a lead")
	leadsOnly := flag.Bool("leads-only", false, "export only qualified leads")
	output := flag.String("out", "", "output .xlsx path (default leads_<timestamp>.xlsx)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall search timeout")
	flag.Parse()

	if *location == "" || *keyword == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	env, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if env.GOOGLE_MAPS_API_KEY == "" {
		log.Fatal("GOOGLE_MAPS_API_KEY environment variable is not set")
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	db := store.GetDB().(*gorm.DB)

	placesClient, err := places.NewClient(places.Config{APIKey: env.GOOGLE_MAPS_API_KEY})
	if err != nil {
		log.Fatalf("Failed to initialize Google Places client: %v", err)
	}
	leadService := services.NewLeadService(db, placesClient)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Println("========================================")
	fmt.Println("LEADSCOUT HEADLESS SEARCH")
	fmt.Println("========================================")
	fmt.Printf("Location:    %s\n", *location)
	fmt.Printf("Keyword:     %s\n", *keyword)
	fmt.Printf("Radius:      %.1f miles\n", *radius)
	fmt.Printf("Max reviews: %d\n", *maxReviews)
	fmt.Println()

	result, err := leadService.RunSearch(ctx, services.SearchRequest{
		Location:    *location,
		Keyword:     *keyword,
		RadiusMiles: *radius,
		MaxReviews:  *maxReviews,
		LeadsOnly:   *leadsOnly,
		ClientKey:   "cli",
	})
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	fmt.Printf("✅ %d businesses found, %d qualify as leads (%.1fs)\n\n",
		result.TotalFound, result.LeadCount, float64(result.DurationMs)/1000)

	for _, b := range result.Businesses {
		icon := "○"
		if b.IsLead {
			icon = "●"
		}
		fmt.Printf("  %s %-38s %4d reviews  %s\n", icon, truncate(b.Name, 38), b.ReviewCount, b.Phone)
	}

	if len(result.Businesses) == 0 {
		fmt.Println("Nothing to export.")
		return
	}

	workbook, err := services.BuildLeadsWorkbook(result)
	if err != nil {
		log.Fatalf("Failed to build workbook: %v", err)
	}

	outPath := *output
	if outPath == "" {
		outPath = services.ExportFileName(time.Now())
	}
	if err := workbook.SaveAs(outPath); err != nil {
		log.Fatalf("Failed to write %s: %v", outPath, err)
	}

	fmt.Printf("\n🎉 Exported %d rows to %s\n", len(result.Businesses), outPath)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
