package domain

import "time"

type Purchase struct {
	ID                int64     `json:"id" gorm:"primaryKey"`
	UserID            string    `json:"user_id" gorm:"type:text;not null"`
	TrackID           int64     `json:"track_id" gorm:"not null"`
	ProviderSessionID *string   `json:"provider_session_id,omitempty" gorm:"type:text"`
	ProviderPaymentID *string   `json:"provider_payment_id,omitempty" gorm:"type:text"`
	Amount            int64     `json:"amount" gorm:"not null"`
	Currency          string    `json:"currency" gorm:"type:text;not null"`
	Status            string    `json:"status" gorm:"type:text;not null"`
	CreatedAt         time.Time `json:"created_at" gorm:"not null"`
}

func (Purchase) TableName() string { return "purchases" }

const StatusCompleted = "completed"

// Source labels how an entitlement was acquired.
const (
	SourcePaid   = "paid"
	SourceCredit = "credit"
	SourceFree   = "free"
)

// Synthetic payment id prefixes for grants that never touched the payment provider.
const (
	CreditPaymentPrefix   = "credit_use_"
	CampaignPaymentPrefix = "free_campaign_"
)

// LibraryEntry is one owned track as listed in the caller's library.
type LibraryEntry struct {
	PurchaseID  int64     `gorm:"column:purchase_id"`
	PurchasedAt time.Time `gorm:"column:purchased_at"`
	TrackID     int64     `gorm:"column:track_id"`
	Title       string    `gorm:"column:title"`
	Description *string   `gorm:"column:description"`
	Price       int64     `gorm:"column:price"`
	PreviewURL  string    `gorm:"column:preview_url"`
	ImageURL    string    `gorm:"column:image_url"`
}
