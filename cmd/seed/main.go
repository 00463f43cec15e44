// Command seed fills the database with demo campgrounds.
package main

import (
	"context"
	"flag"
	"log"

	"campingrate/internal/config"
	"campingrate/internal/database"
	"campingrate/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	numCampgrounds := flag.Int("campgrounds", 30, "Number of campgrounds to create")
	maxReviews := flag.Int("reviews", 5, "Maximum reviews per campground")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fakerSeed := flag.Int64("seed", 0, "Seed for reproducible content (0 is random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Printf("Target: %d users, %d campgrounds, up to %d reviews each, clean=%v",
		*numUsers, *numCampgrounds, *maxReviews, *shouldClean)

	s := seed.NewSeeder(db, seed.Options{
		NumUsers:       *numUsers,
		NumCampgrounds: *numCampgrounds,
		MaxReviews:     *maxReviews,
		ShouldClean:    *shouldClean,
		Seed:           *fakerSeed,
	})
	summary, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d campgrounds, %d reviews", summary.Users, summary.Campgrounds, summary.Reviews)
	log.Printf("All seeded users have the password: %s", seed.DemoPassword)
}
