package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/zalci/internal/config"
	"github.com/smallbiznis/zalci/internal/notification/domain"
	"github.com/smallbiznis/zalci/internal/notification/service"
	"github.com/smallbiznis/zalci/internal/providers/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureProvider struct {
	sent []email.Message
	err  error
}

func (p *captureProvider) Send(_ context.Context, msg email.Message) error {
	p.sent = append(p.sent, msg)
	return p.err
}

func newService(provider email.Provider, support string) domain.Service {
	return service.New(service.Params{
		Cfg: config.Config{
			SiteURL: "https://zalci.net",
			Email:   config.EmailConfig{From: "Zalci Audio <noreply@zalci.net>", SupportEmail: support},
		},
		Log:   zap.NewNop(),
		Email: provider,
	})
}

func TestPurchaseConfirmation(t *testing.T) {
	provider := &captureProvider{}
	svc := newService(provider, "")

	err := svc.SendPurchaseConfirmation(context.Background(), domain.PurchaseConfirmation{
		To:         "buyer@example.com",
		TrackTitle: "Neon Drift",
	})
	require.NoError(t, err)
	require.Len(t, provider.sent, 1)

	msg := provider.sent[0]
	assert.Equal(t, domain.PurchaseSubject, msg.Subject)
	assert.Equal(t, "Zalci Audio <noreply@zalci.net>", msg.From)
	assert.Equal(t, []string{"buyer@example.com"}, msg.To)
	assert.Contains(t, msg.HTML, "https://zalci.net/library")
	assert.Contains(t, msg.HTML, "Neon Drift")

	require.ErrorIs(t, svc.SendPurchaseConfirmation(context.Background(), domain.PurchaseConfirmation{}), domain.ErrMissingRecipient)
}

func TestPurchaseConfirmationPropagatesProviderError(t *testing.T) {
	provider := &captureProvider{err: errors.New("smtp down")}
	svc := newService(provider, "")

	err := svc.SendPurchaseConfirmation(context.Background(), domain.PurchaseConfirmation{To: "a@b.c", TrackTitle: "x"})
	require.Error(t, err)
}

func TestForwardInquiry(t *testing.T) {
	provider := &captureProvider{}

	require.ErrorIs(t, newService(provider, "").ForwardInquiry(context.Background(), domain.Inquiry{}), domain.ErrSupportDisabled)

	svc := newService(provider, "support@zalci.net")
	err := svc.ForwardInquiry(context.Background(), domain.Inquiry{
		ID:      "01HZX",
		Email:   "fan@example.com",
		Subject: "licensing",
		Message: "Can I use this in a stream?",
	})
	require.NoError(t, err)
	require.Len(t, provider.sent, 1)
	assert.Equal(t, []string{"support@zalci.net"}, provider.sent[0].To)
	assert.Equal(t, "fan@example.com", provider.sent[0].ReplyTo)
	assert.Contains(t, provider.sent[0].HTML, "Can I use this in a stream?")
}
