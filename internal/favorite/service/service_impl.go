package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/zalci/internal/catalog/domain"
	"github.com/smallbiznis/zalci/internal/clock"
	"github.com/smallbiznis/zalci/internal/favorite/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	CatalogSvc catalogdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	catalogSvc catalogdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("favorite.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		catalogSvc: p.CatalogSvc,
	}
}

func (s *Service) Add(ctx context.Context, userID, trackID string) (bool, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(trackID) == "" {
		return false, domain.ErrMissingTrack
	}

	track, err := s.catalogSvc.Lookup(ctx, trackID)
	if err != nil {
		return false, err
	}

	added, err := s.repo.Insert(ctx, s.db, &domain.Favorite{
		ID:        s.genID.Generate().Int64(),
		UserID:    userID,
		TrackID:   track.ID,
		CreatedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

func (s *Service) Remove(ctx context.Context, userID, trackID string) error {
	userID, err := requireUser(userID)
	if err != nil {
		return err
	}
	trackID = strings.TrimSpace(trackID)
	if trackID == "" {
		return domain.ErrMissingTrack
	}
	id, err := snowflake.ParseString(trackID)
	if err != nil {
		// nothing can match a malformed id
		return nil
	}
	return s.repo.Delete(ctx, s.db, userID, id.Int64())
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.Item, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.List(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, domain.Item{
			ID:          snowflake.ID(e.TrackID).String(),
			FavoritedAt: e.FavoritedAt,
			Title:       e.Title,
			Price:       e.Price,
			ImageURL:    e.ImageURL,
			PreviewURL:  e.PreviewURL,
		})
	}
	return items, nil
}

func (s *Service) DeleteAll(ctx context.Context, userID string) error {
	userID, err := requireUser(userID)
	if err != nil {
		return err
	}
	return s.repo.DeleteByUser(ctx, s.db, userID)
}

func requireUser(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", domain.ErrInvalidUser
	}
	return userID, nil
}
