package repository

import (
	"context"

	"github.com/smallbiznis/zalci/internal/favorite/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, f *domain.Favorite) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO favorites (id, user_id, track_id, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, track_id) DO NOTHING`,
		f.ID,
		f.UserID,
		f.TrackID,
		f.CreatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID string, trackID int64) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM favorites WHERE user_id = ? AND track_id = ?`,
		userID,
		trackID,
	).Error
}

func (r *repo) DeleteByUser(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).Exec(`DELETE FROM favorites WHERE user_id = ?`, userID).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID string) ([]domain.Entry, error) {
	var items []domain.Entry
	err := db.WithContext(ctx).Raw(
		`SELECT f.id AS favorite_id, f.created_at AS favorited_at,
			t.id AS track_id, t.title, t.price, t.image_url, t.preview_url
		 FROM favorites f
		 JOIN tracks t ON t.id = f.track_id
		 WHERE f.user_id = ?
		 ORDER BY f.created_at DESC, f.id DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
