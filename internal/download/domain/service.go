package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	// Link checks the caller's entitlement and returns a short-lived signed URL for the track file.
	Link(ctx context.Context, req LinkRequest) (*Link, error)
}

type LinkRequest struct {
	UserID  string
	TrackID string
}

type Link struct {
	URL       string
	ExpiresAt time.Time
}

const DefaultLinkTTL = 60 * time.Second

// StorageMarker separates the public bucket prefix from the object path in mp3_url.
const StorageMarker = "/songs/"

var (
	ErrInvalidUser  = errors.New("invalid_user")
	ErrMissingTrack = errors.New("missing_track")
	ErrNotPurchased = errors.New("not_purchased")
	ErrFilePath     = errors.New("file_path_configuration_error")
	ErrLinkFailed   = errors.New("download_link_failed")
)
