package domain

import (
	"time"
)

type UserStats struct {
	UserID                string     `json:"user_id" gorm:"primaryKey;type:text"`
	DownloadCount         int        `json:"download_count" gorm:"not null"`
	CurrentBadge          string     `json:"current_badge" gorm:"type:text;not null"`
	WeeklyFreeCreditsLeft int        `json:"weekly_free_credits_left" gorm:"not null"`
	CreditsResetAt        *time.Time `json:"credits_reset_at"`
	WeeklyShareClaimedAt  *time.Time `json:"weekly_share_claimed_at"`
	CreatedAt             time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt             time.Time  `json:"updated_at" gorm:"not null"`
}

func (UserStats) TableName() string { return "user_stats" }

// Week is both the credit refill period and the share bonus cooldown.
const Week = 7 * 24 * time.Hour
