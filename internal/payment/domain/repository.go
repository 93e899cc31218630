package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// InsertEvent reports false when the event was already stored.
	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) (bool, error)
	FindEvent(ctx context.Context, db *gorm.DB, provider string, providerEventID string) (*EventRecord, error)
	MarkOutcome(ctx context.Context, db *gorm.DB, id int64, outcome string, processedAt time.Time) error
}
