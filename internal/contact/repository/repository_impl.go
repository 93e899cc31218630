package repository

import (
	"context"

	"github.com/smallbiznis/zalci/internal/contact/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, in *domain.Inquiry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO contact_inquiries (id, email, subject, other_detail, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID,
		in.Email,
		in.Subject,
		in.OtherDetail,
		in.Message,
		in.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.Inquiry, error) {
	var item domain.Inquiry
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, subject, other_detail, message, created_at
		 FROM contact_inquiries
		 WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == "" {
		return nil, nil
	}
	return &item, nil
}
