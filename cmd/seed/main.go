// Command seed populates the database with demo users, activity and friendships.
package main

import (
	"context"
	"flag"
	"log"

	"playrewards/internal/config"
	"playrewards/internal/database"
	"playrewards/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	friends := flag.Int("friends", 4, "Friendships started per user")
	invites := flag.Int("invites", 1, "Pending invites sent per user")
	activity := flag.Int("activity", 5, "Gameplay records per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Skip bcrypt (development only)")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing it")
	flag.Parse()

	log.Printf("Target: %d users, %d friends/user, %d invites/user, clean=%v", *numUsers, *friends, *invites, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	summary, err := seed.Seed(context.Background(), db, seed.Options{
		NumUsers:        *numUsers,
		FriendsPerUser:  *friends,
		InvitesPerUser:  *invites,
		ActivityPerUser: *activity,
		ShouldClean:     *shouldClean,
		SkipBcrypt:      *fast,
		DryRun:          *dryRun,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d games, %d activity records", summary.Users, summary.Games, summary.Activities)
	log.Printf("Demo accounts: %v (password: password123)", seed.DemoUsers)
}
