package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/zalci/internal/credit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, userID string) (*domain.UserStats, error) {
	var s domain.UserStats
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, download_count, current_badge, weekly_free_credits_left,
			credits_reset_at, weekly_share_claimed_at, created_at, updated_at
		 FROM user_stats WHERE user_id = ?`,
		userID,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.UserID == "" {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) RefillIfDue(ctx context.Context, db *gorm.DB, userID, badge string, credits int, now, cutoff time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO user_stats (
			user_id, download_count, current_badge, weekly_free_credits_left,
			credits_reset_at, created_at, updated_at
		) VALUES (?, 0, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			weekly_free_credits_left = ?,
			credits_reset_at = excluded.credits_reset_at,
			updated_at = excluded.updated_at
		WHERE user_stats.credits_reset_at IS NULL OR user_stats.credits_reset_at <= ?`,
		userID,
		badge,
		credits,
		now,
		now,
		now,
		credits,
		cutoff,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) IncrementDownloads(ctx context.Context, db *gorm.DB, userID, floorBadge string, now time.Time) (int, error) {
	err := db.WithContext(ctx).Exec(
		`INSERT INTO user_stats (
			user_id, download_count, current_badge, weekly_free_credits_left, created_at, updated_at
		) VALUES (?, 1, ?, 0, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			download_count = user_stats.download_count + 1,
			updated_at = excluded.updated_at`,
		userID,
		floorBadge,
		now,
		now,
	).Error
	if err != nil {
		return 0, err
	}

	var count int
	if err := db.WithContext(ctx).Raw(
		`SELECT download_count FROM user_stats WHERE user_id = ?`,
		userID,
	).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) UpdateBadge(ctx context.Context, db *gorm.DB, userID, badge string, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE user_stats SET current_badge = ?, updated_at = ? WHERE user_id = ? AND current_badge <> ?`,
		badge,
		now,
		userID,
		badge,
	).Error
}

func (r *repo) ConsumeCredit(ctx context.Context, db *gorm.DB, userID string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE user_stats
		 SET weekly_free_credits_left = weekly_free_credits_left - 1, updated_at = ?
		 WHERE user_id = ? AND weekly_free_credits_left > 0`,
		now,
		userID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) GrantShareBonus(ctx context.Context, db *gorm.DB, userID, floorBadge string, initialCredits int, now, cutoff time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO user_stats (
			user_id, download_count, current_badge, weekly_free_credits_left,
			credits_reset_at, weekly_share_claimed_at, created_at, updated_at
		) VALUES (?, 0, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			weekly_free_credits_left = user_stats.weekly_free_credits_left + 1,
			weekly_share_claimed_at = excluded.weekly_share_claimed_at,
			updated_at = excluded.updated_at
		WHERE user_stats.weekly_share_claimed_at IS NULL OR user_stats.weekly_share_claimed_at <= ?`,
		userID,
		floorBadge,
		initialCredits,
		now,
		now,
		now,
		now,
		cutoff,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).Exec(`DELETE FROM user_stats WHERE user_id = ?`, userID).Error
}
