package domain

import (
	"time"

	"gorm.io/datatypes"
)

// EventRecord is one delivery of a provider event, keyed by (provider, provider_event_id).
type EventRecord struct {
	ID              int64          `json:"id" gorm:"primaryKey"`
	Provider        string         `json:"provider" gorm:"type:text;not null"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null"`
	EventType       string         `json:"event_type" gorm:"type:text;not null"`
	Payload         datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	Outcome         string         `json:"outcome" gorm:"type:text;not null"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt     *time.Time     `json:"processed_at"`
}

func (EventRecord) TableName() string { return "payment_events" }

const ProviderStripe = "stripe"

// Webhook outcomes. Every outcome except OutcomeReceived is terminal.
const (
	OutcomeReceived        = "received"
	OutcomeRejected        = "rejected"
	OutcomeIgnored         = "ignored"
	OutcomeRecorded        = "recorded"
	OutcomeMetadataMissing = "metadata_missing"
	OutcomeInsertFailed    = "insert_failed"
	OutcomeAlreadyOwned    = "already_owned"
	OutcomeDuplicate       = "duplicate"
)

// ProviderEvent is the canonical form adapters parse raw payloads into.
type ProviderEvent struct {
	Provider        string
	ProviderEventID string
	Type            string
	OccurredAt      time.Time
	RawPayload      []byte
	// Checkout is set only for completed checkout sessions.
	Checkout *CheckoutCompleted
}

type CheckoutCompleted struct {
	SessionID       string
	PaymentIntentID string
	UserID          string
	TrackID         string
	AmountTotal     int64
	Currency        string
	CustomerEmail   string
}
