package database

import (
	"fmt"
	"log"
	"time"

	migrate "github.com/rubenv/sql-migrate"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/meeting-sync/pkg/config"
)

// MigrationsDir is where sql-migrate looks for migration files
const MigrationsDir = "migrations"

// NewPostgresDB creates a new PostgreSQL database connection using GORM
func NewPostgresDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDatabaseDSN()

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Environment == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	// TranslateError maps unique violations to gorm.ErrDuplicatedKey,
	// which the ingestion gate relies on to resolve concurrent deliveries.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get generic database object to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MinConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connected successfully")

	return db, nil
}

// AutoMigrate applies all pending migrations
func AutoMigrate(db *gorm.DB) error {
	n, err := runMigrations(db, migrate.Up, 0)
	if err != nil {
		return err
	}
	log.Printf("✅ Applied %d migrations!\n", n)
	return nil
}

// Rollback reverts up to steps migrations (0 means all)
func Rollback(db *gorm.DB, steps int) error {
	n, err := runMigrations(db, migrate.Down, steps)
	if err != nil {
		return err
	}
	log.Printf("✅ Rolled back %d migrations!\n", n)
	return nil
}

func runMigrations(db *gorm.DB, dir migrate.MigrationDirection, max int) (int, error) {
	log.Printf("🔄 Running migrations from %s/ using sql-migrate...", MigrationsDir)

	migrations := &migrate.FileMigrationSource{
		Dir: MigrationsDir,
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get db connection during migrate, error: %v", err)
	}

	n, err := migrate.ExecMax(sqlDB, "postgres", migrations, dir, max)
	if err != nil {
		return 0, fmt.Errorf("failed to apply migration, error: %v", err)
	}
	return n, nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("✅ Database connection closed")
	return nil
}
