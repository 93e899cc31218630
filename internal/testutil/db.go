// Package testutil opens throwaway databases carrying the real storefront schema.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zalci/internal/migration"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// OpenDB returns an in-memory sqlite database migrated with the embedded schema.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection keeps the shared-cache database alive and avoids table locks
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migration.RunMigrations(sqlDB, "sqlite"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func Node(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

// SeedTrack inserts a minimal catalog row and returns its id.
func SeedTrack(t *testing.T, db *gorm.DB, id int64, title string, price int64) int64 {
	t.Helper()
	err := db.Exec(
		`INSERT INTO tracks (id, title, price, currency, image_url, mp3_url, preview_url, stripe_price_id, created_at, updated_at)
		 VALUES (?, ?, ?, 'jpy', ?, ?, ?, ?, ?, ?)`,
		id,
		title,
		price,
		"https://cdn.example.com/img/"+title+".png",
		"https://proj.supabase.co/storage/v1/object/public/songs/"+title+".mp3",
		"https://proj.supabase.co/storage/v1/object/public/songs/"+title+".mp3",
		"price_"+title,
		time.Now().UTC(),
		time.Now().UTC(),
	).Error
	if err != nil {
		t.Fatalf("seed track: %v", err)
	}
	return id
}

// CountRows runs a COUNT(*) query and returns the result.
func CountRows(t *testing.T, db *gorm.DB, query string, args ...any) int64 {
	t.Helper()
	var count int64
	if err := db.Raw(query, args...).Scan(&count).Error; err != nil {
		t.Fatalf("count query: %v", err)
	}
	return count
}
