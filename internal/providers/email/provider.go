package email

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Message is a single outbound email.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

type Provider interface {
	Send(ctx context.Context, msg Message) error
}

var (
	ErrNoRecipients  = errors.New("email_no_recipients")
	ErrNotConfigured = errors.New("email_not_configured")
)

// NoOpProvider drops messages, logging the subject so local runs stay traceable.
type NoOpProvider struct {
	Log *zap.Logger
}

func (p *NoOpProvider) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if p.Log != nil {
		p.Log.Debug("email skipped", zap.String("subject", msg.Subject), zap.Int("recipients", len(msg.To)))
	}
	return nil
}
