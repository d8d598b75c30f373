package database

import (
	"fmt"
	"time"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/logger"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize opens the Postgres connection described by dsn and configures the pool
func Initialize(dsn string, verbose bool) error {
	gormLogger := gormlogger.Default.LogMode(gormlogger.Warn)
	if verbose {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Use(telemetry.GORMTracingPlugin(nil)); err != nil {
		return fmt.Errorf("failed to install tracing plugin: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	logger.Log.Info("Database connected")

	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := DB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		logger.Log.Warn("Could not create uuid-ossp extension", zap.Error(err))
	}

	err := DB.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.MutedUser{},
		&models.Interaction{},
		&models.UserPreference{},
		&models.Pet{},
		&models.PetFollow{},
		&models.Place{},
		&models.Post{},
		&models.PostPetTag{},
		&models.SavedPost{},
		&models.HiddenPost{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Log.Info("Database migrations completed")
	return nil
}

// feedIndexes back the candidate, aggregate and social-graph queries
var feedIndexes = []string{
	// Recency window scans and chronological candidate pools
	"CREATE INDEX IF NOT EXISTS idx_posts_created ON posts (created_at DESC) WHERE deleted_at IS NULL",
	"CREATE INDEX IF NOT EXISTS idx_posts_author_created ON posts (author_id, created_at DESC) WHERE deleted_at IS NULL",
	"CREATE INDEX IF NOT EXISTS idx_posts_relevance ON posts (relevance_score DESC NULLS LAST, created_at DESC) WHERE deleted_at IS NULL",
	"CREATE INDEX IF NOT EXISTS idx_posts_place ON posts (place_id) WHERE place_id IS NOT NULL",
	"CREATE INDEX IF NOT EXISTS idx_posts_shared_post ON posts (shared_post_id) WHERE shared_post_id IS NOT NULL",

	"CREATE INDEX IF NOT EXISTS idx_post_pet_tags_pet ON post_pet_tags (pet_id)",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_post_pet_tags_unique ON post_pet_tags (post_id, pet_id)",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_hidden_posts_unique ON hidden_posts (user_id, post_id)",
	"CREATE INDEX IF NOT EXISTS idx_pet_follows_follower ON pet_follows (follower_id)",
	"CREATE INDEX IF NOT EXISTS idx_pets_owner ON pets (owner_id) WHERE deleted_at IS NULL",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_muted_users_unique ON muted_users (user_id, muted_id)",
}

func createIndexes() error {
	for _, stmt := range feedIndexes {
		if err := DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
