package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/zalci/internal/config"
	"github.com/smallbiznis/zalci/internal/notification/domain"
	"github.com/smallbiznis/zalci/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	Email email.Provider
}

type Service struct {
	cfg   config.Config
	log   *zap.Logger
	email email.Provider
}

func New(p Params) domain.Service {
	return &Service{
		cfg:   p.Cfg,
		log:   p.Log.Named("notification.service"),
		email: p.Email,
	}
}

func (s *Service) SendPurchaseConfirmation(ctx context.Context, req domain.PurchaseConfirmation) error {
	to := strings.TrimSpace(req.To)
	if to == "" {
		return domain.ErrMissingRecipient
	}

	html, err := email.Render(email.TemplatePurchaseConfirmation, map[string]any{
		"TrackTitle": req.TrackTitle,
		"IsFree":     req.IsFree,
		"LibraryURL": s.cfg.SiteURL + "/library",
	})
	if err != nil {
		return err
	}

	err = s.email.Send(ctx, email.Message{
		From:    s.cfg.Email.From,
		To:      []string{to},
		Subject: domain.PurchaseSubject,
		HTML:    html,
	})
	if err != nil {
		s.log.Error("purchase email failed", zap.Error(err), zap.Bool("is_free", req.IsFree))
		return err
	}
	s.log.Info("purchase email sent", zap.Bool("is_free", req.IsFree))
	return nil
}

func (s *Service) ForwardInquiry(ctx context.Context, req domain.Inquiry) error {
	support := strings.TrimSpace(s.cfg.Email.SupportEmail)
	if support == "" {
		return domain.ErrSupportDisabled
	}

	html, err := email.Render(email.TemplateContactInquiry, req)
	if err != nil {
		return err
	}

	subject := "[Zalci Audio] Contact: " + strings.TrimSpace(req.Subject)
	err = s.email.Send(ctx, email.Message{
		From:    s.cfg.Email.From,
		To:      []string{support},
		ReplyTo: strings.TrimSpace(req.Email),
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		s.log.Error("inquiry forward failed", zap.Error(err), zap.String("inquiry_id", req.ID))
		return err
	}
	return nil
}
