package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	HasEntitlement(ctx context.Context, userID string, trackID int64) (bool, error)
	// Record stores a paid purchase. created is false when the pair was already owned.
	Record(ctx context.Context, req RecordRequest) (purchase *Purchase, created bool, err error)
	Library(ctx context.Context, userID string) ([]LibraryItem, error)
}

type RecordRequest struct {
	UserID            string
	TrackID           int64
	ProviderSessionID string
	ProviderPaymentID string
	Amount            int64
	Currency          string
}

type LibraryItem struct {
	PurchaseID  string    `json:"purchaseId"`
	PurchasedAt time.Time `json:"purchasedAt"`
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Price       int64     `json:"price"`
	PreviewURL  string    `json:"preview_url"`
	ImageURL    string    `json:"image_url"`
}

var (
	ErrInvalidUser  = errors.New("invalid_user")
	ErrInvalidTrack = errors.New("invalid_track")
)
