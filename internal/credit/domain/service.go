package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	// Stats returns the caller's stats after applying any due weekly refill.
	Stats(ctx context.Context, userID string) (*StatsResponse, error)
	// EnsureWeeklyReset refills the weekly allotment when a week has passed.
	EnsureWeeklyReset(ctx context.Context, userID string) error
	IncrementDownload(ctx context.Context, userID string) (*StatsResponse, error)
	ClaimShareBonus(ctx context.Context, userID string) (creditsLeft int, err error)
	DeleteStats(ctx context.Context, userID string) error
}

type StatsResponse struct {
	UserID                string     `json:"user_id,omitempty"`
	DownloadCount         int        `json:"download_count"`
	CurrentBadge          string     `json:"current_badge"`
	WeeklyFreeCreditsLeft *int       `json:"weekly_free_credits_left,omitempty"`
	CreditsResetAt        *time.Time `json:"credits_reset_at,omitempty"`
	WeeklyShareClaimedAt  *time.Time `json:"weekly_share_claimed_at,omitempty"`
	CreatedAt             *time.Time `json:"created_at,omitempty"`
	UpdatedAt             *time.Time `json:"updated_at,omitempty"`
	MaxCredits            int        `json:"max_credits"`
}

const ActionIncrementDownload = "increment_download"

var (
	ErrInvalidUser    = errors.New("invalid_user")
	ErrInvalidAction  = errors.New("invalid_action")
	ErrAlreadyClaimed = errors.New("already_claimed")
	ErrNoCredits      = errors.New("no_credits")
)
