package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zalci/internal/clock"
	obsmetrics "github.com/smallbiznis/zalci/internal/observability/metrics"
	"github.com/smallbiznis/zalci/internal/purchase/domain"
	"github.com/smallbiznis/zalci/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	clock   clock.Clock
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("purchase.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

func (s *Service) HasEntitlement(ctx context.Context, userID string, trackID int64) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, domain.ErrInvalidUser
	}
	if trackID <= 0 {
		return false, domain.ErrInvalidTrack
	}
	return s.repo.Exists(ctx, s.db, userID, trackID)
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (*domain.Purchase, bool, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, false, domain.ErrInvalidUser
	}
	if req.TrackID <= 0 {
		return nil, false, domain.ErrInvalidTrack
	}

	p := &domain.Purchase{
		ID:                s.genID.Generate().Int64(),
		UserID:            userID,
		TrackID:           req.TrackID,
		ProviderSessionID: optional(req.ProviderSessionID),
		ProviderPaymentID: optional(req.ProviderPaymentID),
		Amount:            req.Amount,
		Currency:          strings.ToLower(strings.TrimSpace(req.Currency)),
		Status:            domain.StatusCompleted,
		CreatedAt:         s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, p); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	s.metrics.RecordPurchase(ctx, domain.SourcePaid)
	s.log.Info("purchase recorded",
		zap.String("purchase_id", snowflake.ID(p.ID).String()),
		zap.String("track_id", snowflake.ID(p.TrackID).String()),
		zap.Int64("amount", p.Amount),
		zap.String("currency", p.Currency),
	)
	return p, true, nil
}

func (s *Service) Library(ctx context.Context, userID string) ([]domain.LibraryItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}

	rows, err := s.repo.ListLibrary(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.LibraryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.LibraryItem{
			PurchaseID:  snowflake.ID(row.PurchaseID).String(),
			PurchasedAt: row.PurchasedAt,
			ID:          snowflake.ID(row.TrackID).String(),
			Title:       row.Title,
			Description: row.Description,
			Price:       row.Price,
			PreviewURL:  row.PreviewURL,
			ImageURL:    row.ImageURL,
		})
	}
	return items, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
