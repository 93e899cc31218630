package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type ResendConfig struct {
	APIKey  string
	BaseURL string
	From    string
	// MaxElapsed bounds the total retry window; zero uses the default.
	MaxElapsed time.Duration
}

// ResendProvider sends through the Resend HTTP API.
type ResendProvider struct {
	cfg    ResendConfig
	client *http.Client
	log    *zap.Logger
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type resendError struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

func NewResend(cfg ResendConfig, log *zap.Logger) *ResendProvider {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.resend.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxElapsed == 0 {
		cfg.MaxElapsed = 20 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ResendProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (p *ResendProvider) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	from := msg.From
	if from == "" {
		from = p.cfg.From
	}
	body, err := json.Marshal(resendRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		return err
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/emails", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("resend request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			p.log.Warn("resend unavailable, retrying", zap.Int("status", resp.StatusCode))
			return fmt.Errorf("resend status %d", resp.StatusCode)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			var apiErr resendError
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
				return backoff.Permanent(fmt.Errorf("resend rejected message: %s", apiErr.Message))
			}
			return backoff.Permanent(fmt.Errorf("resend rejected message: status %d", resp.StatusCode))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = p.cfg.MaxElapsed
	b.RandomizationFactor = 0.5

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
