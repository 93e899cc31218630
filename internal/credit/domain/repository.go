package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, userID string) (*UserStats, error)
	// RefillIfDue creates the row or refills it to credits when the last reset is at or before cutoff.
	RefillIfDue(ctx context.Context, db *gorm.DB, userID, badge string, credits int, now, cutoff time.Time) (bool, error)
	IncrementDownloads(ctx context.Context, db *gorm.DB, userID, floorBadge string, now time.Time) (int, error)
	UpdateBadge(ctx context.Context, db *gorm.DB, userID, badge string, now time.Time) error
	// ConsumeCredit decrements one credit when at least one is left.
	ConsumeCredit(ctx context.Context, db *gorm.DB, userID string, now time.Time) (bool, error)
	// GrantShareBonus adds one credit unless a bonus was granted after cutoff.
	GrantShareBonus(ctx context.Context, db *gorm.DB, userID, floorBadge string, initialCredits int, now, cutoff time.Time) (bool, error)
	Delete(ctx context.Context, db *gorm.DB, userID string) error
}
