package domain

import (
	"context"
	"errors"
)

type Service interface {
	// DeleteAccount removes the identity-provider user and the user's favorites and stats.
	// Purchase records are kept as order history.
	DeleteAccount(ctx context.Context, userID string) error
}

var (
	ErrInvalidUser  = errors.New("invalid_user")
	ErrDeleteFailed = errors.New("account_delete_failed")
)
