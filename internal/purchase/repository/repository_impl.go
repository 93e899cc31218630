package repository

import (
	"context"

	"github.com/smallbiznis/zalci/internal/purchase/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *domain.Purchase) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO purchases (
			id, user_id, track_id, provider_session_id, provider_payment_id,
			amount, currency, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.UserID,
		p.TrackID,
		p.ProviderSessionID,
		p.ProviderPaymentID,
		p.Amount,
		p.Currency,
		p.Status,
		p.CreatedAt,
	).Error
}

func (r *repo) Exists(ctx context.Context, db *gorm.DB, userID string, trackID int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM purchases WHERE user_id = ? AND track_id = ?`,
		userID,
		trackID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListLibrary(ctx context.Context, db *gorm.DB, userID string) ([]domain.LibraryEntry, error) {
	var items []domain.LibraryEntry
	err := db.WithContext(ctx).Raw(
		`SELECT p.id AS purchase_id, p.created_at AS purchased_at,
			t.id AS track_id, t.title, t.description, t.price, t.preview_url, t.image_url
		 FROM purchases p
		 JOIN tracks t ON t.id = p.track_id
		 WHERE p.user_id = ?
		 ORDER BY p.created_at DESC, p.id DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
