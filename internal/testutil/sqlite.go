// Package testutil provides an in-memory database with the feed schema for tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLite-compatible DDL; AutoMigrate would emit PostgreSQL-only defaults
var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		display_name TEXT NOT NULL,
		avatar_url TEXT,
		latitude REAL,
		longitude REAL,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE follows (
		id TEXT PRIMARY KEY,
		follower_id TEXT NOT NULL,
		followee_id TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE pets (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		species TEXT,
		avatar_url TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE pet_follows (
		id TEXT PRIMARY KEY,
		follower_id TEXT NOT NULL,
		pet_id TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE places (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE posts (
		id TEXT PRIMARY KEY,
		author_id TEXT NOT NULL,
		post_type TEXT NOT NULL DEFAULT 'text',
		text_content TEXT,
		hashtags TEXT,
		place_id TEXT,
		visibility TEXT NOT NULL DEFAULT 'public',
		shared_post_id TEXT,
		like_count INTEGER DEFAULT 0,
		reactions TEXT,
		comment_count INTEGER DEFAULT 0,
		relevance_score REAL,
		relevance_updated_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE post_pet_tags (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL,
		pet_id TEXT NOT NULL,
		position INTEGER DEFAULT 0,
		created_at DATETIME
	)`,
	`CREATE TABLE saved_posts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		post_id TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE muted_users (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		muted_id TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE hidden_posts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		post_id TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE interactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		target_user_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE user_preferences (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		content_type_weights TEXT,
		topic_weights TEXT,
		muted_words TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
}

// NewDB opens a fresh in-memory SQLite database with every feed table created
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Discard,
	})
	require.NoError(t, err)

	// one connection, otherwise each pooled conn gets its own empty :memory: db
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}
