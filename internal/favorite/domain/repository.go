package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Insert reports false when the pair is already a favorite.
	Insert(ctx context.Context, db *gorm.DB, favorite *Favorite) (bool, error)
	Delete(ctx context.Context, db *gorm.DB, userID string, trackID int64) error
	DeleteByUser(ctx context.Context, db *gorm.DB, userID string) error
	List(ctx context.Context, db *gorm.DB, userID string) ([]Entry, error)
}
