package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/zalci/internal/clock"
	"github.com/smallbiznis/zalci/internal/contact/domain"
	notificationdomain "github.com/smallbiznis/zalci/internal/notification/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     domain.Repository
	Notifier notificationdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     domain.Repository
	notifier notificationdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("contact.service"),
		clock:    p.Clock,
		repo:     p.Repo,
		notifier: p.Notifier,
	}
}

const maxMessageLength = 5000

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.Inquiry, error) {
	email := strings.TrimSpace(req.Email)
	message := strings.TrimSpace(req.Message)
	if email == "" || message == "" {
		return nil, domain.ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if len(message) > maxMessageLength {
		message = message[:maxMessageLength]
	}

	now := s.clock.Now().UTC()
	inquiry := &domain.Inquiry{
		ID:        ulid.MustNewDefault(now).String(),
		Email:     email,
		Subject:   strings.TrimSpace(req.Subject),
		Message:   message,
		CreatedAt: now,
	}
	if detail := strings.TrimSpace(req.OtherDetail); detail != "" {
		inquiry.OtherDetail = &detail
	}

	s.log.Info("contact inquiry received",
		zap.String("inquiry_id", inquiry.ID),
		zap.String("subject", inquiry.Subject),
		zap.Int("message_length", len(inquiry.Message)),
	)

	if err := s.repo.Insert(ctx, s.db, inquiry); err != nil {
		return nil, err
	}

	err := s.notifier.ForwardInquiry(ctx, notificationdomain.Inquiry{
		ID:          inquiry.ID,
		Email:       inquiry.Email,
		Subject:     inquiry.Subject,
		OtherDetail: strings.TrimSpace(req.OtherDetail),
		Message:     inquiry.Message,
	})
	switch {
	case errors.Is(err, notificationdomain.ErrSupportDisabled):
		s.log.Debug("support inbox not configured; inquiry stored only", zap.String("inquiry_id", inquiry.ID))
	case err != nil:
		s.log.Warn("failed to forward contact inquiry", zap.String("inquiry_id", inquiry.ID), zap.Error(err))
	}

	return inquiry, nil
}
