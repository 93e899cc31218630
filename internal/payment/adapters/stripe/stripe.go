package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	paymentdomain "github.com/smallbiznis/zalci/internal/payment/domain"
	stripego "github.com/stripe/stripe-go/v81"
)

const (
	SignatureHeader  = "Stripe-Signature"
	DefaultTolerance = 300 * time.Second
)

// Metadata keys written at checkout time.
const (
	metadataUserID  = "userId"
	metadataTrackID = "songId"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return paymentdomain.ProviderStripe
}

func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.PaymentAdapter, error) {
	secret := strings.TrimSpace(cfg.WebhookSecret)
	if secret == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}
	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Adapter{
		webhookSecret: secret,
		tolerance:     tolerance,
		now:           now,
	}, nil
}

type Adapter struct {
	webhookSecret string
	tolerance     time.Duration
	now           func() time.Time
}

func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	sigHeader := strings.TrimSpace(headers.Get(SignatureHeader))
	if sigHeader == "" {
		return paymentdomain.ErrMissingSignature
	}

	timestamp, signatures, err := parseStripeSignature(sigHeader)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}

	signedAt, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}
	age := a.now().Sub(time.Unix(signedAt, 0))
	if age < 0 {
		age = -age
	}
	if age > a.tolerance {
		return fmt.Errorf("%w: %w", paymentdomain.ErrInvalidSignature, paymentdomain.ErrSignatureExpired)
	}

	expected := ComputeSignature(a.webhookSecret, timestamp, payload)
	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return paymentdomain.ErrInvalidSignature
}

// ComputeSignature returns the hex HMAC-SHA256 of "{timestamp}.{payload}".
func ComputeSignature(secret, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeaderValue builds a Stripe-Signature header for the payload.
func SignatureHeaderValue(secret string, payload []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return fmt.Sprintf("t=%s,v1=%s", ts, ComputeSignature(secret, ts, payload))
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.ProviderEvent, error) {
	var event stripego.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" || event.Type == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	out := &paymentdomain.ProviderEvent{
		Provider:        paymentdomain.ProviderStripe,
		ProviderEventID: event.ID,
		Type:            string(event.Type),
		OccurredAt:      timestamp(event.Created),
		RawPayload:      payload,
	}
	if event.Type != stripego.EventTypeCheckoutSessionCompleted {
		return out, nil
	}

	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, paymentdomain.ErrInvalidPayload
	}
	var session stripego.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	out.Checkout = parseCheckoutSession(&session)
	return out, nil
}

func parseCheckoutSession(session *stripego.CheckoutSession) *paymentdomain.CheckoutCompleted {
	completed := &paymentdomain.CheckoutCompleted{
		SessionID:   session.ID,
		UserID:      strings.TrimSpace(session.Metadata[metadataUserID]),
		TrackID:     strings.TrimSpace(session.Metadata[metadataTrackID]),
		AmountTotal: session.AmountTotal,
		Currency:    strings.ToLower(string(session.Currency)),
	}
	if session.PaymentIntent != nil {
		completed.PaymentIntentID = session.PaymentIntent.ID
	}
	if session.CustomerDetails != nil {
		completed.CustomerEmail = strings.TrimSpace(session.CustomerDetails.Email)
	}
	if completed.CustomerEmail == "" {
		completed.CustomerEmail = strings.TrimSpace(session.CustomerEmail)
	}
	return completed
}

func parseStripeSignature(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func timestamp(value int64) time.Time {
	if value == 0 {
		return time.Now().UTC()
	}
	return time.Unix(value, 0).UTC()
}
