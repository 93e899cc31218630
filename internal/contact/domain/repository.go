package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, inquiry *Inquiry) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Inquiry, error)
}
