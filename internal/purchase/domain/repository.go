package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Insert fails with a duplicate key error when the user already owns the track.
	Insert(ctx context.Context, db *gorm.DB, purchase *Purchase) error
	Exists(ctx context.Context, db *gorm.DB, userID string, trackID int64) (bool, error)
	ListLibrary(ctx context.Context, db *gorm.DB, userID string) ([]LibraryEntry, error)
}
