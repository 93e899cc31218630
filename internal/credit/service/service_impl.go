package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/zalci/internal/clock"
	"github.com/smallbiznis/zalci/internal/config"
	"github.com/smallbiznis/zalci/internal/credit/domain"
	obsmetrics "github.com/smallbiznis/zalci/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Clock   clock.Clock
	Ranks   *config.RankConfigHolder
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	clock   clock.Clock
	ranks   *config.RankConfigHolder
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("credit.service"),
		repo:    p.Repo,
		clock:   p.Clock,
		ranks:   p.Ranks,
		metrics: p.Metrics,
	}
}

func (s *Service) Stats(ctx context.Context, userID string) (*domain.StatsResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}
	if err := s.EnsureWeeklyReset(ctx, userID); err != nil {
		return nil, err
	}

	stats, err := s.repo.Find(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(stats), nil
}

func (s *Service) EnsureWeeklyReset(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.ErrInvalidUser
	}

	stats, err := s.repo.Find(ctx, s.db, userID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	cutoff := now.Add(-domain.Week)
	if stats != nil && stats.CreditsResetAt != nil && stats.CreditsResetAt.After(cutoff) {
		return nil
	}

	downloads := 0
	if stats != nil {
		downloads = stats.DownloadCount
	}
	rank := s.ranks.Get().RankFor(downloads)

	refilled, err := s.repo.RefillIfDue(ctx, s.db, userID, rank.Badge, rank.MaxCredits, now, cutoff)
	if err != nil {
		return err
	}
	if refilled {
		s.metrics.RecordCreditGrant(ctx, "weekly_reset")
		s.log.Info("weekly credits refilled",
			zap.String("user_id", userID),
			zap.String("badge", rank.Badge),
			zap.Int("credits", rank.MaxCredits),
		)
	}
	return nil
}

func (s *Service) IncrementDownload(ctx context.Context, userID string) (*domain.StatsResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}

	ladder := s.ranks.Get()
	floor := ladder.RankFor(0)
	now := s.clock.Now()

	var stats *domain.UserStats
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := s.repo.IncrementDownloads(ctx, tx, userID, floor.Badge, now)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateBadge(ctx, tx, userID, ladder.RankFor(count).Badge, now); err != nil {
			return err
		}
		stats, err = s.repo.Find(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.toResponse(stats), nil
}

func (s *Service) ClaimShareBonus(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, domain.ErrInvalidUser
	}

	floor := s.ranks.Get().RankFor(0)
	now := s.clock.Now()

	granted, err := s.repo.GrantShareBonus(ctx, s.db, userID, floor.Badge, floor.MaxCredits+1, now, now.Add(-domain.Week))
	if err != nil {
		return 0, err
	}
	if !granted {
		return 0, domain.ErrAlreadyClaimed
	}

	stats, err := s.repo.Find(ctx, s.db, userID)
	if err != nil {
		return 0, err
	}
	if stats == nil {
		return 0, nil
	}

	s.metrics.RecordCreditGrant(ctx, "share")
	s.log.Info("share bonus granted", zap.String("user_id", userID), zap.Int("credits_left", stats.WeeklyFreeCreditsLeft))
	return stats.WeeklyFreeCreditsLeft, nil
}

func (s *Service) DeleteStats(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.ErrInvalidUser
	}
	return s.repo.Delete(ctx, s.db, userID)
}

func (s *Service) toResponse(stats *domain.UserStats) *domain.StatsResponse {
	ladder := s.ranks.Get()
	if stats == nil {
		floor := ladder.RankFor(0)
		return &domain.StatsResponse{
			DownloadCount: 0,
			CurrentBadge:  floor.Badge,
			MaxCredits:    floor.MaxCredits,
		}
	}

	credits := stats.WeeklyFreeCreditsLeft
	createdAt, updatedAt := stats.CreatedAt, stats.UpdatedAt
	return &domain.StatsResponse{
		UserID:                stats.UserID,
		DownloadCount:         stats.DownloadCount,
		CurrentBadge:          stats.CurrentBadge,
		WeeklyFreeCreditsLeft: &credits,
		CreditsResetAt:        stats.CreditsResetAt,
		WeeklyShareClaimedAt:  stats.WeeklyShareClaimedAt,
		CreatedAt:             &createdAt,
		UpdatedAt:             &updatedAt,
		MaxCredits:            ladder.RankFor(stats.DownloadCount).MaxCredits,
	}
}
