package domain

import (
	"context"
	"errors"
	"net/http"
	"time"
)

type Service interface {
	// IngestWebhook verifies and applies one provider delivery.
	IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) (*WebhookResult, error)
}

// WebhookResult is the acknowledgement body for an accepted delivery.
type WebhookResult struct {
	Received  bool   `json:"received"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
	Outcome   string `json:"-"`
}

const (
	MessageMissingMetadata = "Missing metadata"
	MessageInsertFailed    = "DB insert failed"
)

// ConfirmationEmailTimeout caps the email send inside a webhook delivery so the provider is acknowledged promptly.
const ConfirmationEmailTimeout = 5 * time.Second

var (
	ErrNotConfigured    = errors.New("payment_not_configured")
	ErrInvalidProvider  = errors.New("invalid_provider")
	ErrProviderNotFound = errors.New("provider_not_found")
	ErrInvalidConfig    = errors.New("invalid_config")
	ErrMissingSignature = errors.New("missing_signature")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidEvent     = errors.New("invalid_event")
	ErrSignatureExpired = errors.New("signature_expired")
)
