package storage

import (
	"context"
	"errors"
	"time"
)

// Signer issues short-lived URLs for private objects in the audio bucket.
type Signer interface {
	SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error)
}

var (
	ErrNotConfigured = errors.New("storage_not_configured")
	ErrInvalidPath   = errors.New("storage_invalid_path")
	ErrSignFailed    = errors.New("storage_sign_failed")
)
