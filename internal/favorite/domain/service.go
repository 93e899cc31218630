package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	// Add returns false when the track was already a favorite.
	Add(ctx context.Context, userID, trackID string) (bool, error)
	Remove(ctx context.Context, userID, trackID string) error
	List(ctx context.Context, userID string) ([]Item, error)
	DeleteAll(ctx context.Context, userID string) error
}

type Item struct {
	ID          string    `json:"id"`
	FavoritedAt time.Time `json:"favoritedAt"`
	Title       string    `json:"title"`
	Price       int64     `json:"price"`
	ImageURL    string    `json:"image_url"`
	PreviewURL  string    `json:"preview_url"`
}

var (
	ErrInvalidUser  = errors.New("invalid_user")
	ErrMissingTrack = errors.New("missing_track")
)
