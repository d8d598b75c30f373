package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/config"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/database"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/logger"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/seed"
	"go.uber.org/zap"
)

func main() {
	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	var counts seed.Counts
	switch command {
	case "dev":
		counts = seed.DevCounts()
	case "test":
		counts = seed.TestCounts()
	case "clean":
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed database with a minimal data set")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	if err := database.Initialize(cfg.Database.DSN(), false); err != nil {
		logger.FatalWithFields("Failed to connect to database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	ctx := context.Background()
	seeder := seed.NewSeeder(database.DB)

	if command == "clean" {
		logger.Log.Info("Cleaning seed data...")
		if err := seeder.Clean(ctx); err != nil {
			logger.FatalWithFields("Clean failed", err)
		}
		logger.Log.Info("Seed data cleaned")
		return
	}

	logger.Log.Info("Seeding database...", zap.String("profile", command))
	summary, err := seeder.Seed(ctx, counts)
	if err != nil {
		logger.FatalWithFields("Seeding failed", err)
	}
	logger.Log.Info("Database seeded",
		zap.Int("users", summary.Users),
		zap.Int("pets", summary.Pets),
		zap.Int("posts", summary.Posts),
		zap.Bool("skipped", summary.Skipped))
}
