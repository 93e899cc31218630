package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/zalci/internal/catalog/domain"
	"github.com/smallbiznis/zalci/internal/claim/domain"
	"github.com/smallbiznis/zalci/internal/clock"
	creditdomain "github.com/smallbiznis/zalci/internal/credit/domain"
	notificationdomain "github.com/smallbiznis/zalci/internal/notification/domain"
	obsmetrics "github.com/smallbiznis/zalci/internal/observability/metrics"
	purchasedomain "github.com/smallbiznis/zalci/internal/purchase/domain"
	"github.com/smallbiznis/zalci/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	CatalogSvc   catalogdomain.Service
	PurchaseRepo purchasedomain.Repository
	CreditRepo   creditdomain.Repository
	CreditSvc    creditdomain.Service
	Notifier     notificationdomain.Service
	Metrics      *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	catalogSvc   catalogdomain.Service
	purchaseRepo purchasedomain.Repository
	creditRepo   creditdomain.Repository
	creditSvc    creditdomain.Service
	notifier     notificationdomain.Service
	metrics      *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("claim.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		catalogSvc:   p.CatalogSvc,
		purchaseRepo: p.PurchaseRepo,
		creditRepo:   p.CreditRepo,
		creditSvc:    p.CreditSvc,
		notifier:     p.Notifier,
		metrics:      p.Metrics,
	}
}

var errAlreadyOwned = errors.New("already_owned")

func (s *Service) Claim(ctx context.Context, req domain.ClaimRequest) (*domain.ClaimResult, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}
	if strings.TrimSpace(req.TrackID) == "" {
		return nil, domain.ErrMissingTrack
	}

	track, err := s.catalogSvc.Lookup(ctx, req.TrackID)
	if err != nil {
		return nil, err
	}

	owned, err := s.purchaseRepo.Exists(ctx, s.db, userID, track.ID)
	if err != nil {
		return nil, err
	}
	if owned {
		s.metrics.RecordClaim(ctx, "already_owned")
		return &domain.ClaimResult{AlreadyOwned: true}, nil
	}

	now := s.clock.Now()
	usesCredit := track.Price > 0
	marker := purchasedomain.CampaignPaymentPrefix
	source := purchasedomain.SourceFree
	if usesCredit {
		marker = purchasedomain.CreditPaymentPrefix
		source = purchasedomain.SourceCredit
	}
	paymentID := marker + strconv.FormatInt(now.UnixMilli(), 10)

	purchase := &purchasedomain.Purchase{
		ID:                s.genID.Generate().Int64(),
		UserID:            userID,
		TrackID:           track.ID,
		ProviderPaymentID: &paymentID,
		Amount:            0,
		Currency:          currencyOf(track),
		Status:            purchasedomain.StatusCompleted,
		CreatedAt:         now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if usesCredit {
			consumed, err := s.creditRepo.ConsumeCredit(ctx, tx, userID, now)
			if err != nil {
				return err
			}
			if !consumed {
				return domain.ErrNoCredits
			}
		}
		if err := s.purchaseRepo.Insert(ctx, tx, purchase); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return errAlreadyOwned
			}
			return err
		}
		return nil
	})
	switch {
	case errors.Is(err, errAlreadyOwned):
		s.metrics.RecordClaim(ctx, "already_owned")
		return &domain.ClaimResult{AlreadyOwned: true}, nil
	case errors.Is(err, domain.ErrNoCredits):
		s.metrics.RecordClaim(ctx, "no_credits")
		return nil, domain.ErrNoCredits
	case err != nil:
		s.log.Error("free claim insert failed", zap.Error(err), zap.String("track_id", snowflake.ID(track.ID).String()))
		return nil, err
	}

	s.metrics.RecordClaim(ctx, source)
	s.metrics.RecordPurchase(ctx, source)
	s.log.Info("track claimed",
		zap.String("user_id", userID),
		zap.String("track_id", snowflake.ID(track.ID).String()),
		zap.Bool("used_credit", usesCredit),
	)

	// a claim counts as an acquisition, like a recorded checkout
	if _, err := s.creditSvc.IncrementDownload(ctx, userID); err != nil {
		s.log.Warn("failed to increment download count",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	if to := strings.TrimSpace(req.Email); to != "" {
		err := s.notifier.SendPurchaseConfirmation(ctx, notificationdomain.PurchaseConfirmation{
			To:         to,
			TrackTitle: track.Title,
			IsFree:     true,
		})
		if err != nil {
			s.log.Warn("claim confirmation email failed",
				zap.String("user_id", userID),
				zap.String("track_id", snowflake.ID(track.ID).String()),
				zap.Error(err),
			)
		}
	}

	return &domain.ClaimResult{UsedCredit: usesCredit}, nil
}

func currencyOf(track *catalogdomain.Track) string {
	if track.Currency == "" {
		return catalogdomain.DefaultCurrency
	}
	return track.Currency
}
