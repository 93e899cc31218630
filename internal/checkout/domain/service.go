package domain

import (
	"context"
	"errors"
)

type Service interface {
	// CreateSession opens a hosted checkout for one track and returns its redirect URL.
	CreateSession(ctx context.Context, req SessionRequest) (*SessionResponse, error)
}

type SessionRequest struct {
	UserID  string
	TrackID string
	// Origin is the request Origin header, used when no site URL is configured.
	Origin string
}

type SessionResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"-"`
}

// Metadata keys read back by the webhook.
const (
	MetadataUserID  = "userId"
	MetadataTrackID = "songId"
)

const ProductDescription = "Digital Audio - MP3"

var (
	ErrInvalidUser      = errors.New("invalid_user")
	ErrMissingTrack     = errors.New("missing_track")
	ErrNotConfigured    = errors.New("stripe_not_configured")
	ErrAlreadyPurchased = errors.New("already_purchased")
	ErrUpstream         = errors.New("checkout_provider_failed")
)
