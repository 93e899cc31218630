package domain

import (
	"context"
	"errors"
)

type Verifier interface {
	// Verify validates an access token issued by the identity provider.
	Verify(ctx context.Context, token string) (*Principal, error)
}

var (
	ErrNotConfigured  = errors.New("auth_not_configured")
	ErrMissingToken   = errors.New("missing_token")
	ErrInvalidToken   = errors.New("invalid_token")
	ErrInvalidSubject = errors.New("invalid_subject")
)
