package domain

import "time"

type Favorite struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:text;not null"`
	TrackID   int64     `json:"track_id" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

func (Favorite) TableName() string { return "favorites" }

// Entry is a favorite joined with its track.
type Entry struct {
	FavoriteID  int64
	FavoritedAt time.Time
	TrackID     int64
	Title       string
	Price       int64
	ImageURL    string
	PreviewURL  string
}
