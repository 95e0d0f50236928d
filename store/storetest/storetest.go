// Package storetest opens throwaway databases for store and service tests.
package storetest

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"restaurant-api/store"
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	}
}

// SQLite returns a migrated in-memory database private to the test. A
// single connection serializes writers the way a sqlite file would.
func SQLite(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := "file:" + strings.ReplaceAll(uuid.NewString(), "-", "") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := store.AutoMigrate(db); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

// Postgres skips unless TEST_POSTGRES_DSN is set. Tables are migrated
// and emptied before use.
func Postgres(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		tb.Skip("set TEST_POSTGRES_DSN to run postgres store tests")
	}
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		tb.Fatalf("open postgres: %v", err)
	}
	if err := store.AutoMigrate(db); err != nil {
		tb.Fatalf("migrate postgres: %v", err)
	}
	if err := db.Exec("TRUNCATE menu_items, reviews, restaurants, users").Error; err != nil {
		tb.Fatalf("truncate: %v", err)
	}
	sqlDB, _ := db.DB()
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Mongo skips unless TEST_MONGO_URI is set. Each call gets its own
// database, dropped on cleanup.
func Mongo(tb testing.TB) *mongo.Database {
	tb.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		tb.Skip("set TEST_MONGO_URI to run mongo store tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		tb.Fatalf("connect mongo: %v", err)
	}
	db := client.Database("restaurant_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	if err := store.EnsureMongoIndexes(ctx, db); err != nil {
		tb.Fatalf("mongo indexes: %v", err)
	}
	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}
