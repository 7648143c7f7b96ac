// Command main runs the database seeder for Reservo.
package main

import (
	"flag"
	"log"

	"reservo/internal/config"
	"reservo/internal/database"
	"reservo/internal/seed"
)

func main() {
	// Parse command line flags
	numOwners := flag.Int("owners", 20, "Number of business owner accounts to create")
	numBusinesses := flag.Int("businesses", 60, "Number of businesses to create")
	maxAgeDays := flag.Int("max-age-days", 90, "Spread created_at timestamps over the past N days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d owners, %d businesses, clean=%v\n", *numOwners, *numBusinesses, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumOwners:     *numOwners,
		NumBusinesses: *numBusinesses,
		MaxAgeDays:    *maxAgeDays,
		ShouldClean:   *shouldClean,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with demo data.")
	log.Println("📧 All seeded accounts have the password: password123")
}
