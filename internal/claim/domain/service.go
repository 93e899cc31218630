package domain

import (
	"context"
	"errors"
)

type Service interface {
	// Claim grants a track without payment: free tracks directly, priced tracks for one weekly credit.
	Claim(ctx context.Context, req ClaimRequest) (*ClaimResult, error)
}

type ClaimRequest struct {
	UserID  string
	Email   string
	TrackID string
}

type ClaimResult struct {
	AlreadyOwned bool
	UsedCredit   bool
}

var (
	ErrInvalidUser  = errors.New("invalid_user")
	ErrMissingTrack = errors.New("missing_track")
	ErrNoCredits    = errors.New("no_weekly_credits_left")
)
