package main

import (
	"flag"
	"log"
	"os"

	"github.com/johnquangdev/meeting-sync/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-sync/pkg/config"
)

func main() {
	down := flag.Bool("down", false, "roll back migrations instead of applying them")
	steps := flag.Int("steps", 1, "number of migrations to roll back with -down (0 means all)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if *down {
		if err := database.Rollback(db, *steps); err != nil {
			log.Fatalf("Failed to roll back migrations: %v", err)
		}
		os.Exit(0)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
}
