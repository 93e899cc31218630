package domain

import "time"

type Track struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	Title         string    `json:"title" gorm:"type:text;not null"`
	Description   *string   `json:"description,omitempty" gorm:"type:text"`
	Price         int64     `json:"price" gorm:"not null"`
	Currency      string    `json:"currency" gorm:"type:text;not null;default:jpy"`
	ImageURL      string    `json:"image_url" gorm:"type:text"`
	MP3URL        string    `json:"mp3_url" gorm:"column:mp3_url;type:text"`
	PreviewURL    string    `json:"preview_url" gorm:"type:text"`
	StripePriceID string    `json:"stripe_price_id" gorm:"type:text"`
	HasWAV        bool      `json:"has_wav" gorm:"column:has_wav;not null;default:false"`
	HasLoop       bool      `json:"has_loop" gorm:"not null;default:false"`
	HasHighRes    bool      `json:"has_high_res" gorm:"not null;default:false"`
	HasMIDI       bool      `json:"has_midi" gorm:"column:has_midi;not null;default:false"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"not null"`
}

func (Track) TableName() string { return "tracks" }

const DefaultCurrency = "jpy"

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)
