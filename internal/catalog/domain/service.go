package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	// Lookup returns the stored row for internal callers (checkout, claim, download).
	Lookup(ctx context.Context, id string) (*Track, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	// Wipe removes every purchase and track. Non-production environments only.
	Wipe(ctx context.Context) error
}

type ListRequest struct {
	Query string `form:"q"`
	Sort  string `form:"sort"`
}

type CreateRequest struct {
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	Price         *int64  `json:"price"`
	ImageURL      string  `json:"image_url"`
	MP3URL        string  `json:"mp3_url"`
	StripePriceID string  `json:"stripe_price_id"`
	HasWAV        bool    `json:"has_wav"`
	HasLoop       bool    `json:"has_loop"`
	HasHighRes    bool    `json:"has_high_res"`
	HasMIDI       bool    `json:"has_midi"`
}

type Response struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Description   *string   `json:"description"`
	Price         int64     `json:"price"`
	Currency      string    `json:"currency"`
	ImageURL      string    `json:"image_url"`
	MP3URL        string    `json:"mp3_url"`
	PreviewURL    string    `json:"preview_url"`
	StripePriceID string    `json:"stripe_price_id"`
	HasWAV        bool      `json:"has_wav"`
	HasLoop       bool      `json:"has_loop"`
	HasHighRes    bool      `json:"has_high_res"`
	HasMIDI       bool      `json:"has_midi"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

var (
	ErrMissingFields = errors.New("missing_required_fields")
	ErrInvalidPrice  = errors.New("invalid_price")
	ErrInvalidID     = errors.New("invalid_id")
	ErrNotFound      = errors.New("not_found")
	ErrWipeForbidden = errors.New("wipe_forbidden")
	ErrHasPurchases  = errors.New("track_has_purchases")
	ErrInvalidSort   = errors.New("invalid_sort")
)
