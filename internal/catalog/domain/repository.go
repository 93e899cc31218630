package domain

import (
	"context"

	"gorm.io/gorm"
)

type ListFilter struct {
	Query string
	Sort  string
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, track *Track) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Track, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Track, error)
	HasPurchases(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	DeleteAll(ctx context.Context, db *gorm.DB) (int64, error)
}
