package webhook

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/zalci/internal/catalog/domain"
	"github.com/smallbiznis/zalci/internal/clock"
	"github.com/smallbiznis/zalci/internal/config"
	creditdomain "github.com/smallbiznis/zalci/internal/credit/domain"
	notificationdomain "github.com/smallbiznis/zalci/internal/notification/domain"
	obsmetrics "github.com/smallbiznis/zalci/internal/observability/metrics"
	"github.com/smallbiznis/zalci/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/zalci/internal/payment/domain"
	purchasedomain "github.com/smallbiznis/zalci/internal/purchase/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Cfg         config.Config
	Repo        paymentdomain.Repository
	Adapters    *adapters.Registry
	CatalogSvc  catalogdomain.Service
	PurchaseSvc purchasedomain.Service
	CreditSvc   creditdomain.Service
	Notifier    notificationdomain.Service
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	cfg         config.Config
	repo        paymentdomain.Repository
	adapters    *adapters.Registry
	catalogSvc  catalogdomain.Service
	purchaseSvc purchasedomain.Service
	creditSvc   creditdomain.Service
	notifier    notificationdomain.Service
	metrics     *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.webhook"),
		genID:       p.GenID,
		clock:       p.Clock,
		cfg:         p.Cfg,
		repo:        p.Repo,
		adapters:    p.Adapters,
		catalogSvc:  p.CatalogSvc,
		purchaseSvc: p.PurchaseSvc,
		creditSvc:   p.CreditSvc,
		notifier:    p.Notifier,
		metrics:     p.Metrics,
	}
}

func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) (*paymentdomain.WebhookResult, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, paymentdomain.ErrInvalidProvider
	}
	if !s.configured() {
		s.log.Error("payment webhook received without provider configuration", zap.String("provider", provider))
		return nil, paymentdomain.ErrNotConfigured
	}
	if s.adapters == nil || !s.adapters.ProviderExists(provider) {
		return nil, paymentdomain.ErrProviderNotFound
	}

	adapter, err := s.adapters.NewAdapter(provider, paymentdomain.AdapterConfig{
		Provider:      provider,
		WebhookSecret: s.cfg.Stripe.WebhookSecret,
		Tolerance:     time.Duration(s.cfg.Stripe.WebhookToleranceSecs) * time.Second,
		Now:           s.clock.Now,
	})
	if err != nil {
		if errors.Is(err, paymentdomain.ErrInvalidConfig) {
			return nil, paymentdomain.ErrNotConfigured
		}
		return nil, err
	}

	if err := adapter.Verify(ctx, payload, headers); err != nil {
		s.metrics.RecordWebhookEvent(ctx, provider, "unknown", paymentdomain.OutcomeRejected)
		if !errors.Is(err, paymentdomain.ErrMissingSignature) {
			s.log.Warn("payment webhook signature rejected", zap.String("provider", provider), zap.Error(err))
		}
		return nil, err
	}

	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		s.log.Warn("payment webhook payload rejected", zap.String("provider", provider), zap.Error(err))
		return nil, err
	}

	record, duplicate, err := s.claimDelivery(ctx, event)
	if err != nil {
		return nil, err
	}
	if duplicate {
		s.log.Info("payment webhook redelivered",
			zap.String("provider", provider),
			zap.String("event_id", event.ProviderEventID),
		)
		s.metrics.RecordWebhookEvent(ctx, provider, event.Type, paymentdomain.OutcomeDuplicate)
		return &paymentdomain.WebhookResult{Received: true, Duplicate: true, Outcome: paymentdomain.OutcomeDuplicate}, nil
	}

	result := s.apply(ctx, event)

	if err := s.repo.MarkOutcome(ctx, s.db, record.ID, result.Outcome, s.clock.Now().UTC()); err != nil {
		s.log.Error("failed to mark payment event outcome",
			zap.String("event_id", event.ProviderEventID),
			zap.String("outcome", result.Outcome),
			zap.Error(err),
		)
	}
	s.metrics.RecordWebhookEvent(ctx, provider, event.Type, result.Outcome)
	return result, nil
}

func (s *Service) configured() bool {
	return strings.TrimSpace(s.cfg.Stripe.SecretKey) != "" &&
		strings.TrimSpace(s.cfg.Stripe.WebhookSecret) != "" &&
		strings.TrimSpace(s.cfg.Supabase.ServiceRoleKey) != ""
}

// claimDelivery stores the event row. A stored event counts as a duplicate only
// once its first delivery reached a terminal outcome.
func (s *Service) claimDelivery(ctx context.Context, event *paymentdomain.ProviderEvent) (*paymentdomain.EventRecord, bool, error) {
	record := &paymentdomain.EventRecord{
		ID:              s.genID.Generate().Int64(),
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       event.Type,
		Payload:         datatypes.JSON(event.RawPayload),
		Outcome:         paymentdomain.OutcomeReceived,
		ReceivedAt:      s.clock.Now().UTC(),
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, record)
	if err != nil {
		return nil, false, err
	}
	if inserted {
		return record, false, nil
	}

	existing, err := s.repo.FindEvent(ctx, s.db, event.Provider, event.ProviderEventID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.New("payment_event_missing_after_conflict")
	}
	if existing.Outcome != paymentdomain.OutcomeReceived {
		return existing, true, nil
	}
	return existing, false, nil
}

func (s *Service) apply(ctx context.Context, event *paymentdomain.ProviderEvent) *paymentdomain.WebhookResult {
	if event.Checkout == nil {
		return &paymentdomain.WebhookResult{Received: true, Outcome: paymentdomain.OutcomeIgnored}
	}

	session := event.Checkout
	if session.UserID == "" || session.TrackID == "" {
		s.log.Error("checkout session missing metadata",
			zap.String("event_id", event.ProviderEventID),
			zap.String("session_id", session.SessionID),
		)
		return &paymentdomain.WebhookResult{
			Received: true,
			Error:    paymentdomain.MessageMissingMetadata,
			Outcome:  paymentdomain.OutcomeMetadataMissing,
		}
	}

	insertFailed := &paymentdomain.WebhookResult{
		Received: true,
		Error:    paymentdomain.MessageInsertFailed,
		Outcome:  paymentdomain.OutcomeInsertFailed,
	}

	trackID, err := snowflake.ParseString(session.TrackID)
	if err != nil {
		s.log.Error("checkout session carries malformed track id",
			zap.String("event_id", event.ProviderEventID),
			zap.String("track_id", session.TrackID),
		)
		return insertFailed
	}

	_, created, err := s.purchaseSvc.Record(ctx, purchasedomain.RecordRequest{
		UserID:            session.UserID,
		TrackID:           trackID.Int64(),
		ProviderSessionID: session.SessionID,
		ProviderPaymentID: session.PaymentIntentID,
		Amount:            session.AmountTotal,
		Currency:          session.Currency,
	})
	if err != nil {
		s.log.Error("failed to record purchase",
			zap.String("event_id", event.ProviderEventID),
			zap.String("session_id", session.SessionID),
			zap.Error(err),
		)
		return insertFailed
	}
	if !created {
		// paid twice for an owned track; left for manual refund review
		s.log.Warn("checkout completed for an already owned track",
			zap.String("event_id", event.ProviderEventID),
			zap.String("session_id", session.SessionID),
			zap.String("track_id", session.TrackID),
			zap.Int64("amount", session.AmountTotal),
		)
		return &paymentdomain.WebhookResult{Received: true, Outcome: paymentdomain.OutcomeAlreadyOwned}
	}

	s.log.Info("purchase recorded",
		zap.String("event_id", event.ProviderEventID),
		zap.String("session_id", session.SessionID),
		zap.String("track_id", session.TrackID),
		zap.Int64("amount", session.AmountTotal),
		zap.String("currency", session.Currency),
	)
	s.afterPurchase(ctx, session)
	return &paymentdomain.WebhookResult{Received: true, Outcome: paymentdomain.OutcomeRecorded}
}

// afterPurchase runs the best-effort side effects of a recorded sale.
func (s *Service) afterPurchase(ctx context.Context, session *paymentdomain.CheckoutCompleted) {
	if _, err := s.creditSvc.IncrementDownload(ctx, session.UserID); err != nil {
		s.log.Warn("failed to increment download count",
			zap.String("session_id", session.SessionID),
			zap.Error(err),
		)
	}

	if session.CustomerEmail == "" || s.notifier == nil {
		return
	}
	title := ""
	if track, err := s.catalogSvc.Lookup(ctx, session.TrackID); err == nil && track != nil {
		title = track.Title
	}
	mailCtx, cancel := context.WithTimeout(ctx, paymentdomain.ConfirmationEmailTimeout)
	defer cancel()
	err := s.notifier.SendPurchaseConfirmation(mailCtx, notificationdomain.PurchaseConfirmation{
		To:         session.CustomerEmail,
		TrackTitle: title,
	})
	if err != nil {
		s.log.Warn("purchase confirmation email failed",
			zap.String("session_id", session.SessionID),
			zap.Error(err),
		)
	}
}
